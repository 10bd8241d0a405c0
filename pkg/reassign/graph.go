package reassign

import (
	"math/rand"
	"slices"

	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/samber/lo"
)

const (
	noFamily = -1 // Family of swap edges
	noHolder = -1 // Family not consumed by any primary edge
)

// edge is a student-scoped transition from start to end. Edges live in an arena and always come in
// forward/reverse pairs, the reverse one carrying the opposite weight and the opposite enabled flag.
type edge struct {
	student uint64
	start   uint64
	end     uint64
	weight  int
	enabled bool
	reverse int
	family  int
	primary bool // Forward edge of a drop request
}

type vertex struct {
	out []int
}

type studentState struct {
	held     map[uint64]bool
	schedule model.Schedule
}

func (state studentState) clone() studentState {
	held := make(map[uint64]bool, len(state.held))
	for section := range state.held {
		held[section] = true
	}
	return studentState{
		held:     held,
		schedule: state.schedule.Clone(),
	}
}

// Engine owns the mutable state of a reassignment run: sections, students and the transition graph.
// It is not safe for concurrent use.
type Engine struct {
	options   Options
	random    *rand.Rand
	evaluator predicateEvaluator

	sections []model.Section
	students []studentState
	edges    []edge
	vertices []vertex
	families []int // Primary edge holding each family, or noHolder
	order    []int // Vertex visitation order

	path        []int // Edges provisionally taken by the search in progress
	transitions uint64
	sweeps      uint64
}

func NewEngine(modelInput model.ModelInput, options Options) *Engine {
	options = options.withDefaults()

	engine := &Engine{
		options:  options,
		random:   rand.New(rand.NewSource(options.Seed)),
		sections: slices.Clone(modelInput.Sections),
		students: make([]studentState, len(modelInput.Students)),
		edges:    make([]edge, 0),
		vertices: make([]vertex, len(modelInput.Sections)),
		families: make([]int, 0),
		order:    lo.Range(len(modelInput.Sections)),
		path:     make([]int, 0, options.MaxDepth),
	}
	engine.evaluator = newPredicateEvaluator(engine)

	for _, student := range modelInput.Students {
		engine.students[student.Id] = studentState{
			held:     lo.SliceToMap(student.Sections, func(section uint64) (uint64, bool) { return section, true }),
			schedule: modelInput.Schedule(student.Id),
		}
	}

	engine.build(modelInput)

	options.Logger.Debugw("transition graph built", map[string]any{
		"vertices": len(engine.vertices),
		"edges":    len(engine.edges),
		"families": len(engine.families),
	})
	return engine
}

func (engine *Engine) build(modelInput model.ModelInput) {
	for _, student := range modelInput.Students {
		//** Swap edges
		// Moving between sections of a held course is free and lets the search make room for other transitions
		for _, held := range student.Sections {
			section := modelInput.Sections[held]
			for _, sibling := range modelInput.Courses[section.Course] {
				if samePattern(section, modelInput.Sections[sibling]) {
					continue
				}
				engine.addEdge(student.Id, held, sibling, 0, noFamily)
			}
		}

		//** Request edges
		for _, request := range student.Requests {
			family := len(engine.families)
			engine.families = append(engine.families, noHolder)

			for _, sibling := range modelInput.Courses[request.Preferred] {
				engine.addEdge(student.Id, request.Drop, sibling, engine.options.MainWeight, family)
			}
			for _, alternate := range request.Alternates {
				for _, sibling := range modelInput.Courses[alternate] {
					engine.addEdge(student.Id, request.Drop, sibling, engine.options.AltWeight, family)
				}
			}
		}
	}
}

func (engine *Engine) addEdge(student, start, end uint64, weight int, family int) {
	forward := len(engine.edges)
	engine.edges = append(engine.edges,
		edge{
			student: student,
			start:   start,
			end:     end,
			weight:  weight,
			enabled: true,
			reverse: forward + 1,
			family:  family,
			primary: family != noFamily,
		},
		edge{
			student: student,
			start:   end,
			end:     start,
			weight:  -weight,
			enabled: false,
			reverse: forward,
			family:  family,
		},
	)

	engine.vertices[start].out = append(engine.vertices[start].out, forward)
	engine.vertices[end].out = append(engine.vertices[end].out, forward+1)
}

// Checks whether two sections meet in the same block on the same days
func samePattern(section1, section2 model.Section) bool {
	return section1.Block == section2.Block && section1.Days == section2.Days
}

// Result snapshots the current held sections, schedules and enrollments
func (engine *Engine) Result() Result {
	students := make([]StudentResult, len(engine.students))
	for id, state := range engine.students {
		sections := lo.Keys(state.held)
		slices.Sort(sections)
		students[id] = StudentResult{
			Id:       uint64(id),
			Sections: sections,
			Schedule: state.schedule.Clone(),
		}
	}

	return Result{
		Students:    students,
		Enrolled:    lo.Map(engine.sections, func(section model.Section, _ int) uint64 { return section.Enrolled }),
		Transitions: engine.transitions,
		Sweeps:      engine.sweeps,
	}
}
