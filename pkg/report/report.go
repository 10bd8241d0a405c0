package report

import (
	"slices"

	"github.com/google/uuid"
	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/limaJavier/dropadd/pkg/reassign"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

type Status string

const (
	Preferred   Status = "preferred"
	Alternate   Status = "alternate"
	Unsatisfied Status = "unsatisfied"
)

type RequestReport struct {
	Drop       string   `json:"drop"`
	Preferred  string   `json:"preferred"`
	Alternates []string `json:"alternates,omitempty"`
	Status     Status   `json:"status"`
	Granted    string   `json:"granted,omitempty"` // Section granted in place of the dropped one
}

type StudentReport struct {
	Name     string          `json:"name"`
	Dropped  []string        `json:"dropped,omitempty"`
	Added    []string        `json:"added,omitempty"`
	Sections []string        `json:"sections"`
	Requests []RequestReport `json:"requests,omitempty"`
}

type SectionReport struct {
	Name     string `json:"name"`
	Capacity uint64 `json:"capacity"`
	Before   uint64 `json:"before"`
	After    uint64 `json:"after"`
}

type DiscardedReport struct {
	Student string `json:"student"`
	Drop    string `json:"drop"`
	Reason  string `json:"reason"`
}

type FillReport struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

type Report struct {
	RunId                string            `json:"runId"`
	Students             []StudentReport   `json:"students"`
	Sections             []SectionReport   `json:"sections"`
	Discarded            []DiscardedReport `json:"discarded,omitempty"`
	Blacklisted          []string          `json:"blacklisted,omitempty"` // Students whose roster held conflicting sections
	StudentsWithRequests uint64            `json:"studentsWithRequests"`
	StudentsSatisfied    uint64            `json:"studentsSatisfied"`
	Requests             uint64            `json:"requests"`
	RequestsSatisfied    uint64            `json:"requestsSatisfied"`
	SatisfactionRate     float64           `json:"satisfactionRate"`
	UpperBound           uint64            `json:"upperBound"`
	Transitions          uint64            `json:"transitions"`
	Sweeps               uint64            `json:"sweeps"`
	FillBefore           FillReport        `json:"fillBefore"`
	FillAfter            FillReport        `json:"fillAfter"`
}

// Build diffs the result against the input it was computed from
func Build(modelInput model.ModelInput, result reassign.Result, upperBound uint64) Report {
	report := Report{
		RunId:       uuid.NewString(),
		Students:    make([]StudentReport, 0, len(modelInput.Students)),
		Sections:    make([]SectionReport, 0, len(modelInput.Sections)),
		UpperBound:  upperBound,
		Transitions: result.Transitions,
		Sweeps:      result.Sweeps,
	}
	name := func(section uint64) string { return modelInput.Sections[section].Name }

	//** Students
	for _, student := range modelInput.Students {
		held := result.Students[student.Id].Sections
		studentReport := StudentReport{
			Name:     student.Name,
			Dropped:  lo.Map(lo.Without(student.Sections, held...), func(section uint64, _ int) string { return name(section) }),
			Added:    lo.Map(lo.Without(held, student.Sections...), func(section uint64, _ int) string { return name(section) }),
			Sections: lo.Map(held, func(section uint64, _ int) string { return name(section) }),
			Requests: make([]RequestReport, 0, len(student.Requests)),
		}

		satisfied := false
		for _, requestReport := range evaluateRequests(modelInput, student, held) {
			if requestReport.Status != Unsatisfied {
				satisfied = true
				report.RequestsSatisfied++
			}
			report.Requests++
			studentReport.Requests = append(studentReport.Requests, requestReport)
		}

		if len(student.Requests) > 0 {
			report.StudentsWithRequests++
			if satisfied {
				report.StudentsSatisfied++
			}
		}
		report.Students = append(report.Students, studentReport)
	}
	if report.StudentsWithRequests > 0 {
		report.SatisfactionRate = float64(report.StudentsSatisfied) / float64(report.StudentsWithRequests)
	}

	//** Sections
	for _, section := range modelInput.Sections {
		report.Sections = append(report.Sections, SectionReport{
			Name:     section.Name,
			Capacity: section.Capacity,
			Before:   section.Enrolled,
			After:    result.Enrolled[section.Id],
		})
	}
	report.FillBefore = fill(report.Sections, func(section SectionReport) uint64 { return section.Before })
	report.FillAfter = fill(report.Sections, func(section SectionReport) uint64 { return section.After })

	//** Discarded requests
	for _, discarded := range modelInput.Discarded {
		report.Discarded = append(report.Discarded, DiscardedReport{
			Student: modelInput.Students[discarded.Student].Name,
			Drop:    discarded.Request.Drop,
			Reason:  discarded.Reason,
		})
	}
	report.Blacklisted = lo.Map(modelInput.Blacklisted, func(student uint64, _ int) string {
		return modelInput.Students[student].Name
	})

	return report
}

// evaluateRequests grants every section the student gained to at most one request. A request is satisfied
// when no section of the dropped course is held anymore and a gained section belongs to one of its options.
// Preferred courses are granted before alternates.
func evaluateRequests(modelInput model.ModelInput, student model.Student, held []uint64) []RequestReport {
	reports := make([]RequestReport, len(student.Requests))
	open := make([]bool, len(student.Requests))
	for i, request := range student.Requests {
		dropped := modelInput.Sections[request.Drop]
		reports[i] = RequestReport{
			Drop:       dropped.Name,
			Preferred:  request.Preferred,
			Alternates: request.Alternates,
			Status:     Unsatisfied,
		}
		open[i] = !lo.SomeBy(held, func(section uint64) bool { return modelInput.Sections[section].Course == dropped.Course })
	}

	gained := lo.Without(held, student.Sections...)
	grant := func(i int, course string, status Status) {
		index := slices.IndexFunc(gained, func(section uint64) bool { return modelInput.Sections[section].Course == course })
		if index < 0 {
			return
		}
		reports[i].Granted = modelInput.Sections[gained[index]].Name
		reports[i].Status = status
		open[i] = false
		gained = slices.Delete(gained, index, index+1)
	}

	for i, request := range student.Requests {
		if open[i] {
			grant(i, request.Preferred, Preferred)
		}
	}
	for i, request := range student.Requests {
		for _, alternate := range request.Alternates {
			if !open[i] {
				break
			}
			grant(i, alternate, Alternate)
		}
	}
	return reports
}

func fill(sections []SectionReport, enrolled func(SectionReport) uint64) FillReport {
	ratios := lo.FilterMap(sections, func(section SectionReport, _ int) (float64, bool) {
		return float64(enrolled(section)) / float64(section.Capacity), section.Capacity > 0
	})
	if len(ratios) == 0 {
		return FillReport{}
	}
	mean, stdDev := stat.MeanStdDev(ratios, nil)
	if len(ratios) == 1 {
		stdDev = 0 // Sample deviation is undefined for a single section
	}
	return FillReport{Mean: mean, StdDev: stdDev}
}
