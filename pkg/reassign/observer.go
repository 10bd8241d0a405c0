package reassign

// Observer is notified of the engine's progress. Implementations must be cheap, they run inside the search.
type Observer interface {
	PathApplied(length int)
	PathRejected(length int)
	SweepCompleted(applied uint64)
}

type NopObserver struct{}

func (NopObserver) PathApplied(int)       {}
func (NopObserver) PathRejected(int)      {}
func (NopObserver) SweepCompleted(uint64) {}
