package reassign

import (
	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/samber/lo"
)

func verify(result Result, modelInput model.ModelInput) bool {
	if len(result.Students) != len(modelInput.Students) || len(result.Enrolled) != len(modelInput.Sections) {
		return false
	}

	holders := make([]uint64, len(modelInput.Sections))
	for id, outcome := range result.Students {
		student := modelInput.Students[id]
		if outcome.Id != student.Id {
			return false
		}

		sections := make([]model.Section, 0, len(outcome.Sections))
		for _, section := range outcome.Sections {
			if section >= uint64(len(modelInput.Sections)) {
				return false
			}
			sections = append(sections, modelInput.Sections[section])
			holders[section]++
		}

		// Check that:
		// - Held sections do not conflict
		// - The schedule is synchronized with the held sections
		// - At most one section of each course is held
		schedule, ok := model.ScheduleOf(sections)
		if !ok || !schedule.Equal(outcome.Schedule) {
			return false
		}
		courses := lo.Map(sections, func(section model.Section, _ int) string { return section.Course })
		if len(lo.Uniq(courses)) != len(courses) {
			return false
		}

		// Every course the student ends up with was either held before (possibly another section) or requested
		allowed := make(map[string]bool)
		for _, section := range student.Sections {
			allowed[modelInput.Sections[section].Course] = true
		}
		for _, request := range student.Requests {
			for _, option := range request.Options() {
				allowed[option] = true
			}
		}
		if lo.SomeBy(courses, func(course string) bool { return !allowed[course] }) {
			return false
		}

		// A request is granted at most one of its options: every new course must be paid for by a distinct dropped course
		initial := lo.Map(student.Sections, func(section uint64, _ int) string { return modelInput.Sections[section].Course })
		added := lo.Without(courses, initial...)
		released := lo.Uniq(lo.FilterMap(student.Requests, func(request model.DropRequest, _ int) (string, bool) {
			course := modelInput.Sections[request.Drop].Course
			return course, !lo.Contains(courses, course)
		}))
		if len(added) > len(released) {
			return false
		}
		for i, request := range student.Requests {
			others := lo.FlatMap(lo.Without(lo.Range(len(student.Requests)), i), func(j int, _ int) []string {
				return student.Requests[j].Options()
			})
			granted := lo.Filter(request.Options(), func(option string, _ int) bool { return lo.Contains(courses, option) })
			// Options shared with another request may have been granted through that request
			if len(granted) > 1 && len(lo.Intersect(granted, others)) == 0 {
				return false
			}
		}
	}

	for id, section := range modelInput.Sections {
		if result.Enrolled[id] != holders[id] || result.Enrolled[id] > section.Capacity {
			return false
		}
	}
	return true
}
