package reassign

type predicateEvaluator interface {
	// Checks whether the student currently holds the section
	Holds(student, section uint64) bool

	// Checks whether the section has at least one free seat
	HasSpace(section uint64) bool

	// Checks whether the section can join the holdings: it is not held, no sibling of it is held and it does not conflict with the schedule
	Fits(holdings studentState, section uint64) bool
}

type predicateEvaluatorStandard struct {
	engine *Engine
}

func newPredicateEvaluator(engine *Engine) predicateEvaluator {
	return &predicateEvaluatorStandard{
		engine: engine,
	}
}

func (evaluator *predicateEvaluatorStandard) Holds(student, section uint64) bool {
	return evaluator.engine.students[student].held[section]
}

func (evaluator *predicateEvaluatorStandard) HasSpace(section uint64) bool {
	return evaluator.engine.sections[section].Enrolled < evaluator.engine.sections[section].Capacity
}

func (evaluator *predicateEvaluatorStandard) Fits(holdings studentState, section uint64) bool {
	candidate := evaluator.engine.sections[section]
	if holdings.held[section] || holdings.schedule.Conflicts(candidate) {
		return false
	}

	// A student takes at most one section of each course
	for held := range holdings.held {
		if evaluator.engine.sections[held].Course == candidate.Course {
			return false
		}
	}
	return true
}
