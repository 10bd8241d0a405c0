package reassign

import (
	"fmt"

	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/samber/lo"
)

type invariantError struct {
	message string
}

func (err invariantError) Error() string {
	return "invariant violated: " + err.message
}

// apply commits the current path, whose edges are already provisionally taken, with the given destination.
// Each touched student is simulated on a copy of its holdings first; if any destination does not fit the
// path is rejected and nothing changes. Returns true if the path was committed.
func (engine *Engine) apply(destination uint64) bool {
	//** Simulate per student
	simulations := make(map[uint64]studentState)
	touched := make([]uint64, 0, len(engine.path))
	for _, id := range engine.path {
		edge := engine.edges[id]

		simulation, ok := simulations[edge.student]
		if !ok {
			simulation = engine.students[edge.student].clone()
			touched = append(touched, edge.student)
		}

		if !engine.evaluator.Fits(simulation, edge.end) {
			engine.options.Observer.PathRejected(len(engine.path))
			return false
		}
		simulation.held[edge.end] = true
		simulation.schedule.Toggle(engine.sections[edge.end])
		simulations[edge.student] = simulation
	}

	//** Commit
	origin := engine.edges[engine.path[0]].start
	for _, student := range touched {
		engine.students[student] = simulations[student]
	}
	engine.sections[origin].Enrolled--
	engine.sections[destination].Enrolled++

	engine.assertInvariants(touched, origin, destination)

	engine.transitions++
	engine.options.Observer.PathApplied(len(engine.path))
	engine.options.Logger.Debugw("path applied", map[string]any{
		"length":      len(engine.path),
		"students":    touched,
		"origin":      engine.sections[origin].Name,
		"destination": engine.sections[destination].Name,
	})

	// Residual flips stay in place, the path is finished
	engine.path = engine.path[:0]
	return true
}

func (engine *Engine) assertInvariants(students []uint64, sections ...uint64) {
	for _, student := range students {
		state := engine.students[student]
		schedule, ok := model.ScheduleOf(lo.Map(lo.Keys(state.held), func(section uint64, _ int) model.Section {
			return engine.sections[section]
		}))
		if !ok {
			panic(invariantError{fmt.Sprintf("student %v holds conflicting sections", student)})
		} else if !schedule.Equal(state.schedule) {
			panic(invariantError{fmt.Sprintf("schedule of student %v desynchronized from held sections", student)})
		}
	}

	for _, section := range sections {
		if engine.sections[section].Enrolled > engine.sections[section].Capacity {
			panic(invariantError{fmt.Sprintf("enrollment of section %q exceeds capacity", engine.sections[section].Name)})
		}
	}
}
