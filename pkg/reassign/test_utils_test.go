package reassign

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildInput(t *testing.T, sections []model.RawSection, students []model.RawStudent) model.ModelInput {
	t.Helper()
	input, err := model.ProcessRawInput(model.RawModelInput{Sections: sections, Students: students})
	require.NoError(t, err)
	return input
}

func sectionId(t *testing.T, input model.ModelInput, name string) uint64 {
	t.Helper()
	section, ok := lo.Find(input.Sections, func(section model.Section) bool { return section.Name == name })
	require.True(t, ok, "section %v not found", name)
	return section.Id
}

func heldNames(input model.ModelInput, result Result, student uint64) []string {
	names := lo.Map(result.Students[student].Sections, func(section uint64, _ int) string { return input.Sections[section].Name })
	slices.Sort(names)
	return names
}

// assertHardConstraints checks schedule synchronization, conflicts and capacities against the live engine state
func assertHardConstraints(t *testing.T, engine *Engine) {
	t.Helper()
	holders := make([]uint64, len(engine.sections))
	for id, state := range engine.students {
		sections := lo.Map(lo.Keys(state.held), func(section uint64, _ int) model.Section {
			holders[section]++
			return engine.sections[section]
		})
		schedule, ok := model.ScheduleOf(sections)
		assert.True(t, ok, "student %v holds conflicting sections", id)
		assert.True(t, schedule.Equal(state.schedule), "schedule of student %v is desynchronized", id)
	}
	for id, section := range engine.sections {
		assert.Equal(t, holders[id], section.Enrolled, "enrollment of section %v", section.Name)
		assert.LessOrEqual(t, section.Enrolled, section.Capacity, "capacity of section %v", section.Name)
	}
}

// assertNoDoubleSpend checks that each family has at most one primary edge taken
func assertNoDoubleSpend(t *testing.T, engine *Engine) {
	t.Helper()
	taken := make(map[int]int)
	for _, edge := range engine.edges {
		if edge.primary && !edge.enabled {
			taken[edge.family]++
		}
	}
	for family, count := range taken {
		assert.LessOrEqual(t, count, 1, "family %v", family)
	}
}

var blocks = []string{"A", "B", "C", "D"}

// randomRawInput generates a consistent instance: every student holds non-conflicting sections of distinct courses
func randomRawInput(random *rand.Rand, courses, sectionsPerCourse, students int) model.RawModelInput {
	raw := model.RawModelInput{}
	timing := make(map[string]model.Section)
	for course := range courses {
		for section := range sectionsPerCourse {
			name := fmt.Sprintf("C%v-%v", course, section)
			block := blocks[random.Intn(len(blocks))]
			days := []uint64{uint64(random.Intn(5) + 1)}
			if random.Intn(2) == 0 {
				days = append(days, uint64(random.Intn(5)+1))
			}
			raw.Sections = append(raw.Sections, model.RawSection{
				Name:     name,
				Course:   fmt.Sprintf("C%v", course),
				Block:    block,
				Days:     days,
				Capacity: uint64(random.Intn(3) + 1),
			})
			mask := lo.Reduce(days, func(mask uint64, day uint64, _ int) uint64 { return mask | 1<<day }, uint64(0))
			timing[name] = model.Section{Block: block, Days: mask}
		}
	}

	for student := range students {
		rawStudent := model.RawStudent{Name: fmt.Sprintf("S%v", student)}
		schedule := make(model.Schedule)
		for _, course := range random.Perm(courses)[:random.Intn(courses-1)+1] {
			name := fmt.Sprintf("C%v-%v", course, random.Intn(sectionsPerCourse))
			if schedule.Conflicts(timing[name]) {
				continue
			}
			schedule.Toggle(timing[name])
			rawStudent.Sections = append(rawStudent.Sections, name)
		}

		for range random.Intn(3) {
			if len(rawStudent.Sections) == 0 {
				break
			}
			request := model.RawRequest{
				Drop:      rawStudent.Sections[random.Intn(len(rawStudent.Sections))],
				Preferred: fmt.Sprintf("C%v", random.Intn(courses)),
			}
			for range random.Intn(3) {
				request.Alternates = append(request.Alternates, fmt.Sprintf("C%v", random.Intn(courses)))
			}
			rawStudent.Requests = append(rawStudent.Requests, request)
		}
		raw.Students = append(raw.Students, rawStudent)
	}
	return raw
}
