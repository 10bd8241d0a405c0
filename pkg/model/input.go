package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type RawSection struct {
	Name     string
	Course   string
	Pattern  string   // Catalogue pattern such as "A13"; takes precedence over Block and Days
	Block    string
	Days     []uint64 // Day numbers, e.g. [1, 3]
	Capacity uint64
}

type RawRequest struct {
	Drop       string
	Preferred  string
	Alternates []string
}

type RawStudent struct {
	Name     string
	Sections []string
	Requests []RawRequest
}

type RawModelInput struct {
	Sections []RawSection
	Students []RawStudent
}

type Section struct {
	Id       uint64
	Name     string
	Course   string
	Block    string
	Days     uint64
	Capacity uint64
	Enrolled uint64
}

type DropRequest struct {
	Drop       uint64 // Section id, always held by the student
	Preferred  string
	Alternates []string
}

// Options returns the preferred course followed by the alternates, in order of preference
func (request DropRequest) Options() []string {
	return append([]string{request.Preferred}, request.Alternates...)
}

type Student struct {
	Id       uint64
	Name     string
	Sections []uint64
	Requests []DropRequest
}

type DiscardedRequest struct {
	Student uint64
	Request RawRequest
	Reason  string
}

type ModelInput struct {
	Sections    []Section
	Students    []Student
	Courses     map[string][]uint64 // Course to sibling section ids
	Discarded   []DiscardedRequest  // Requests dropped while cleaning the raw input
	Blacklisted []uint64            // Students whose roster held conflicting sections
}

// Schedule builds the schedule of the given student from its held sections
func (input ModelInput) Schedule(student uint64) Schedule {
	schedule, _ := ScheduleOf(lo.Map(input.Students[student].Sections, func(section uint64, _ int) Section {
		return input.Sections[section]
	}))
	return schedule
}

func InputFromJson(file string) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, err
	}
	var inputJson map[string]any
	err = json.Unmarshal(bytes, &inputJson)
	if err != nil {
		return ModelInput{}, err
	}

	var rawInput RawModelInput
	if err := mapstructure.Decode(inputJson, &rawInput); err != nil {
		return ModelInput{}, fmt.Errorf("cannot decode input: %w", err)
	}
	return ProcessRawInput(rawInput)
}

func ProcessRawInput(rawInput RawModelInput) (ModelInput, error) {
	input := ModelInput{
		Sections:  make([]Section, 0, len(rawInput.Sections)),
		Students:  make([]Student, 0, len(rawInput.Students)),
		Courses:   make(map[string][]uint64),
		Discarded:   make([]DiscardedRequest, 0),
		Blacklisted: make([]uint64, 0),
	}

	//** Manage sections
	sectionIds := make(map[string]uint64)
	for _, rawSection := range rawInput.Sections {
		if _, ok := sectionIds[rawSection.Name]; ok {
			return ModelInput{}, fmt.Errorf("%w: section %q is declared more than once", ErrDuplicateSection, rawSection.Name)
		}

		block, days, err := sectionTiming(rawSection)
		if err != nil {
			return ModelInput{}, fmt.Errorf("section %q: %w", rawSection.Name, err)
		}

		section := Section{
			Id:       uint64(len(input.Sections)),
			Name:     rawSection.Name,
			Course:   rawSection.Course,
			Block:    block,
			Days:     days,
			Capacity: rawSection.Capacity,
		}
		sectionIds[section.Name] = section.Id
		input.Sections = append(input.Sections, section)
		input.Courses[section.Course] = append(input.Courses[section.Course], section.Id)
	}

	//** Manage students
	for _, rawStudent := range rawInput.Students {
		student := Student{
			Id:       uint64(len(input.Students)),
			Name:     rawStudent.Name,
			Sections: make([]uint64, 0, len(rawStudent.Sections)),
			Requests: make([]DropRequest, 0, len(rawStudent.Requests)),
		}

		schedule := make(Schedule)
		courses := make(map[string]bool)
		blacklisted := false
		for _, name := range rawStudent.Sections {
			id, ok := sectionIds[name]
			if !ok {
				return ModelInput{}, fmt.Errorf("%w: student %q holds %q", ErrUnknownSection, student.Name, name)
			}
			section := input.Sections[id]

			// Make sure a student holds at most one section of each course
			if courses[section.Course] {
				return ModelInput{}, fmt.Errorf("%w: student %q holds more than one section of course %q", ErrDuplicateSection, student.Name, section.Course)
			} else if schedule.Conflicts(section) {
				// The conflicting section is left out and the student's requests will not be served
				blacklisted = true
				continue
			}

			courses[section.Course] = true
			schedule.Toggle(section)
			student.Sections = append(student.Sections, id)
			input.Sections[id].Enrolled++
		}
		if blacklisted {
			input.Blacklisted = append(input.Blacklisted, student.Id)
		}
		input.Students = append(input.Students, student)
	}

	// Raise capacities of sections that are already over capacity
	for i := range input.Sections {
		input.Sections[i].Capacity = max(input.Sections[i].Capacity, input.Sections[i].Enrolled)
	}

	//** Manage requests
	for i, rawStudent := range rawInput.Students {
		student := &input.Students[i]
		for _, rawRequest := range rawStudent.Requests {
			if slices.Contains(input.Blacklisted, student.Id) {
				input.Discarded = append(input.Discarded, DiscardedRequest{
					Student: student.Id,
					Request: rawRequest,
					Reason:  ErrConflictingSchedule.Error() + " in the student's roster",
				})
				continue
			}

			request, reason, err := cleanRequest(input, *student, sectionIds, rawRequest)
			if err != nil {
				return ModelInput{}, fmt.Errorf("student %q: %w", student.Name, err)
			} else if reason != "" {
				input.Discarded = append(input.Discarded, DiscardedRequest{
					Student: student.Id,
					Request: rawRequest,
					Reason:  reason,
				})
				continue
			}
			student.Requests = append(student.Requests, request)
		}
	}

	return input, nil
}

func sectionTiming(rawSection RawSection) (string, uint64, error) {
	if rawSection.Pattern != "" {
		return ParsePattern(rawSection.Pattern)
	}

	var days uint64
	for _, day := range rawSection.Days {
		if day > 63 {
			return "", 0, fmt.Errorf("%w: day %v is out of range", ErrInvalidPattern, day)
		}
		days |= 1 << day
	}
	if rawSection.Block == "" || days == 0 {
		return "", 0, fmt.Errorf("%w: block and days are required", ErrInvalidPattern)
	}
	return strings.ToUpper(rawSection.Block), days, nil
}

// cleanRequest returns the validated request, or a non-empty reason if the request must be discarded
func cleanRequest(input ModelInput, student Student, sectionIds map[string]uint64, rawRequest RawRequest) (DropRequest, string, error) {
	drop, ok := sectionIds[rawRequest.Drop]
	if !ok || !slices.Contains(student.Sections, drop) {
		return DropRequest{}, fmt.Sprintf("dropped section %q is not held", rawRequest.Drop), nil
	}

	heldCourses := lo.Map(student.Sections, func(section uint64, _ int) string { return input.Sections[section].Course })

	var unknown string
	options := lo.Filter(lo.Uniq(append([]string{rawRequest.Preferred}, rawRequest.Alternates...)), func(course string, _ int) bool {
		if isNone(course) {
			return false
		} else if _, ok := input.Courses[course]; !ok {
			unknown = course
			return false
		}
		// Options naming a course the student already holds (including the dropped one) cannot be granted
		return !slices.Contains(heldCourses, course)
	})
	if unknown != "" {
		return DropRequest{}, "", fmt.Errorf("%w: %q", ErrUnknownCourse, unknown)
	} else if len(options) == 0 {
		return DropRequest{}, "no replacement course left", nil
	}

	// The first remaining option is promoted to preferred when the preferred course was removed
	return DropRequest{
		Drop:       drop,
		Preferred:  options[0],
		Alternates: options[1:],
	}, "", nil
}

func isNone(course string) bool {
	return course == "" || strings.EqualFold(course, "none")
}
