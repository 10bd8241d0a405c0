package reassign

import (
	"fmt"

	"github.com/limaJavier/dropadd/internal/logger"
	"github.com/limaJavier/dropadd/pkg/model"
)

const (
	DefaultMaxDepth   = 100 // Limit on augmenting path lengths
	DefaultMainWeight = 10
	DefaultAltWeight  = 2
)

type Reassigner interface {
	// Reassigns students between sections until no augmenting path can be found
	Reassign(modelInput model.ModelInput) (Result, error)

	// Checks the hard constraints of a result against the input it was computed from
	Verify(result Result, modelInput model.ModelInput) bool
}

type Options struct {
	Seed       int64
	MaxDepth   int
	MainWeight int
	AltWeight  int
	Logger     logger.Logger
	Observer   Observer
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:   DefaultMaxDepth,
		MainWeight: DefaultMainWeight,
		AltWeight:  DefaultAltWeight,
	}
}

// withDefaults fills every zero field with its default value
func (options Options) withDefaults() Options {
	if options.MaxDepth == 0 {
		options.MaxDepth = DefaultMaxDepth
	}
	if options.MainWeight == 0 {
		options.MainWeight = DefaultMainWeight
	}
	if options.AltWeight == 0 {
		options.AltWeight = DefaultAltWeight
	}
	if options.Logger == nil {
		options.Logger = logger.NopLogger{}
	}
	if options.Observer == nil {
		options.Observer = NopObserver{}
	}
	return options
}

func (options Options) Validate() error {
	if options.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative: %v", options.MaxDepth)
	} else if options.MainWeight < 0 || options.AltWeight < 0 {
		return fmt.Errorf("weights must not be negative: main %v, alternate %v", options.MainWeight, options.AltWeight)
	}
	return nil
}

type StudentResult struct {
	Id       uint64
	Sections []uint64 // Sorted section ids
	Schedule model.Schedule
}

type Result struct {
	Students    []StudentResult
	Enrolled    []uint64 // Enrollment per section id
	Transitions uint64   // Number of augmenting paths applied
	Sweeps      uint64
}

type augmentingReassigner struct {
	options Options
}

func NewAugmentingReassigner(options Options) Reassigner {
	return &augmentingReassigner{
		options: options,
	}
}

func (reassigner *augmentingReassigner) Reassign(modelInput model.ModelInput) (result Result, err error) {
	if err := reassigner.options.Validate(); err != nil {
		return Result{}, err
	}

	// Invariant violations are fatal inside the engine and reported as errors at this boundary
	defer func() {
		if recovered := recover(); recovered != nil {
			violation, ok := recovered.(invariantError)
			if !ok {
				panic(recovered)
			}
			result, err = Result{}, violation
		}
	}()

	engine := NewEngine(modelInput, reassigner.options)
	engine.Run()
	return engine.Result(), nil
}

func (reassigner *augmentingReassigner) Verify(result Result, modelInput model.ModelInput) bool {
	return verify(result, modelInput)
}
