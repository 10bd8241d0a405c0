// Package bound estimates how many drop requests can be satisfied at most.
//
// The estimate is a relaxation of the reassignment problem: schedule conflicts and the order in which
// students move are ignored, and each request only needs a seat in one of its option sections. A seat is
// available to requesters unless it is occupied by a student that can never leave the section. Every
// outcome of the reassignment engine maps to a matching between requests and such seats, so the size of
// a largest matching bounds the number of satisfied requests.
package bound

import (
	"slices"

	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type request struct {
	student uint64
	options []uint64 // Sections of the preferred and alternate courses
	allowed map[uint64]bool
}

type seat struct {
	section uint64
	index   uint64
}

// UpperBound returns the size of a largest matching between requests and reachable seats
func UpperBound(modelInput model.ModelInput) (uint64, error) {
	requests := collectRequests(modelInput)
	seats := collectSeats(modelInput, requests)
	if len(requests) == 0 || len(seats) == 0 {
		return 0, nil
	}

	neighbors := func(requestAny any, seatAny any) (bool, error) {
		request := requestAny.(request)
		seat := seatAny.(seat)

		return request.allowed[seat.section], nil
	}

	// Transform requests and seats to slices of any
	requestsAny, seatsAny := lo.Map(requests, func(request request, _ int) any { return request }), lo.Map(seats, func(seat seat, _ int) any { return seat })

	graph, err := bipartitegraph.NewBipartiteGraph(requestsAny, seatsAny, neighbors)
	if err != nil {
		return 0, err
	}

	return uint64(len(graph.LargestMatching())), nil
}

func collectRequests(modelInput model.ModelInput) []request {
	requests := make([]request, 0)
	for _, student := range modelInput.Students {
		for _, dropRequest := range student.Requests {
			options := lo.FlatMap(dropRequest.Options(), func(course string, _ int) []uint64 {
				return modelInput.Courses[course]
			})
			requests = append(requests, request{
				student: student.Id,
				options: options,
				allowed: lo.SliceToMap(options, func(section uint64) (uint64, bool) { return section, true }),
			})
		}
	}
	return requests
}

func collectSeats(modelInput model.ModelInput, requests []request) []seat {
	//** Count holders that may leave each section
	movable := make([]uint64, len(modelInput.Sections))
	for _, student := range modelInput.Students {
		drops := lo.Map(student.Requests, func(request model.DropRequest, _ int) uint64 { return request.Drop })
		for _, held := range student.Sections {
			if slices.Contains(drops, held) || hasSwap(modelInput, held) {
				movable[held]++
			}
		}
	}

	//** Count requests targeting each section
	targeted := make([]uint64, len(modelInput.Sections))
	for _, request := range requests {
		for _, section := range request.options {
			targeted[section]++
		}
	}

	seats := make([]seat, 0)
	for _, section := range modelInput.Sections {
		staying := section.Enrolled - movable[section.Id]
		if staying >= section.Capacity {
			continue
		}
		// More seats than requests targeting the section cannot enlarge the matching
		free := min(section.Capacity-staying, targeted[section.Id])
		for index := range free {
			seats = append(seats, seat{section: section.Id, index: index})
		}
	}
	return seats
}

// Checks whether a holder of the section could move to a sibling with a different pattern
func hasSwap(modelInput model.ModelInput, held uint64) bool {
	section := modelInput.Sections[held]
	return lo.SomeBy(modelInput.Courses[section.Course], func(sibling uint64) bool {
		other := modelInput.Sections[sibling]
		return other.Block != section.Block || other.Days != section.Days
	})
}
