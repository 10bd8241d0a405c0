package reassign

import (
	"math/rand"
	"testing"

	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph(t *testing.T) {
	//** Arrange
	input := buildInput(t,
		[]model.RawSection{
			{Name: "M1-1", Course: "M1", Pattern: "A13", Capacity: 2},
			{Name: "M1-2", Course: "M1", Pattern: "B13", Capacity: 2},
			{Name: "M1-3", Course: "M1", Pattern: "A13", Capacity: 2}, // Same pattern as M1-1, no swap edge
			{Name: "M2-1", Course: "M2", Pattern: "C24", Capacity: 2},
			{Name: "M2-2", Course: "M2", Pattern: "D24", Capacity: 2},
			{Name: "M3-1", Course: "M3", Pattern: "E5", Capacity: 2},
		},
		[]model.RawStudent{
			{
				Name:     "S",
				Sections: []string{"M1-1"},
				Requests: []model.RawRequest{{Drop: "M1-1", Preferred: "M2", Alternates: []string{"M3"}}},
			},
		},
	)

	//** Act
	engine := NewEngine(input, Options{})

	//** Assert
	// 1 swap edge + 2 preferred edges + 1 alternate edge, each paired with its reverse
	assert.Len(t, engine.edges, 8)
	assert.Len(t, engine.families, 1)

	weights := make(map[int]int)
	for id, edge := range engine.edges {
		reverse := engine.edges[edge.reverse]
		assert.Equal(t, id, reverse.reverse)
		assert.Equal(t, -edge.weight, reverse.weight)
		assert.NotEqual(t, edge.enabled, reverse.enabled)
		assert.Contains(t, engine.vertices[edge.start].out, id)
		if edge.enabled {
			weights[edge.weight]++
			assert.Equal(t, edge.weight != 0, edge.primary)
		}
	}
	assert.Equal(t, map[int]int{0: 1, DefaultMainWeight: 2, DefaultAltWeight: 1}, weights)
}

func TestScenarioDirectRequest(t *testing.T) {
	//** Arrange
	input := buildInput(t,
		[]model.RawSection{
			{Name: "M1-1", Course: "M1", Block: "A", Days: []uint64{1, 3}, Capacity: 1},
			{Name: "M2-1", Course: "M2", Block: "A", Days: []uint64{2, 4}, Capacity: 1},
		},
		[]model.RawStudent{
			{Name: "S", Sections: []string{"M1-1"}, Requests: []model.RawRequest{{Drop: "M1-1", Preferred: "M2"}}},
		},
	)
	engine := NewEngine(input, Options{Seed: 1})

	//** Act
	sweeps := engine.Run()
	result := engine.Result()

	//** Assert
	assert.Equal(t, []string{"M2-1"}, heldNames(input, result, 0))
	assert.Equal(t, uint64(0), result.Enrolled[sectionId(t, input, "M1-1")])
	assert.Equal(t, uint64(1), result.Enrolled[sectionId(t, input, "M2-1")])
	assert.Equal(t, uint64(1), result.Transitions)
	assert.Equal(t, uint64(2), sweeps)
	assert.True(t, verify(result, input))
	assertHardConstraints(t, engine)
}

func TestScenarioFullSection(t *testing.T) {
	//** Arrange
	input := buildInput(t,
		[]model.RawSection{
			{Name: "M1-1", Course: "M1", Block: "A", Days: []uint64{1, 3}, Capacity: 1},
			{Name: "M2-1", Course: "M2", Block: "A", Days: []uint64{2, 4}, Capacity: 1},
		},
		[]model.RawStudent{
			{Name: "S", Sections: []string{"M1-1"}, Requests: []model.RawRequest{{Drop: "M1-1", Preferred: "M2"}}},
			{Name: "T", Sections: []string{"M2-1"}},
		},
	)
	engine := NewEngine(input, Options{Seed: 1})
	edgesBefore := append([]edge(nil), engine.edges...)
	familiesBefore := append([]int(nil), engine.families...)

	//** Act
	changed := engine.Sweep()
	result := engine.Result()

	//** Assert
	assert.False(t, changed)
	assert.Equal(t, []string{"M1-1"}, heldNames(input, result, 0))
	assert.Equal(t, []string{"M2-1"}, heldNames(input, result, 1))
	assert.Equal(t, uint64(0), result.Transitions)
	// Backtracking restores every provisional change
	assert.Equal(t, edgesBefore, engine.edges)
	assert.Equal(t, familiesBefore, engine.families)
	assert.Empty(t, engine.path)
	assertHardConstraints(t, engine)
}

func TestScenarioCompetingRequests(t *testing.T) {
	for seed := range int64(20) {
		//** Arrange
		input := buildInput(t,
			[]model.RawSection{
				{Name: "M1-1", Course: "M1", Pattern: "A13", Capacity: 1},
				{Name: "M1-2", Course: "M1", Pattern: "B13", Capacity: 1},
				{Name: "M2-1", Course: "M2", Pattern: "C24", Capacity: 1},
			},
			[]model.RawStudent{
				{Name: "S1", Sections: []string{"M1-1"}, Requests: []model.RawRequest{{Drop: "M1-1", Preferred: "M2"}}},
				{Name: "S2", Sections: []string{"M1-2"}, Requests: []model.RawRequest{{Drop: "M1-2", Preferred: "M2"}}},
			},
		)
		engine := NewEngine(input, Options{Seed: seed})

		//** Act
		engine.Run()
		result := engine.Result()

		//** Assert
		satisfied := 0
		for student := range result.Students {
			if heldNames(input, result, uint64(student))[0] == "M2-1" {
				satisfied++
			}
		}
		assert.Equal(t, 1, satisfied, "seed %v", seed)
		assert.Equal(t, uint64(1), result.Enrolled[sectionId(t, input, "M2-1")])
		assert.True(t, verify(result, input))
		assertHardConstraints(t, engine)
	}
}

func TestScenarioAlternateGranted(t *testing.T) {
	//** Arrange
	input := buildInput(t,
		[]model.RawSection{
			{Name: "M1-1", Course: "M1", Pattern: "A13", Capacity: 1},
			{Name: "O-1", Course: "O", Pattern: "B2", Capacity: 1},
			{Name: "M2-1", Course: "M2", Pattern: "B2", Capacity: 5}, // Conflicts with O-1
			{Name: "M3-1", Course: "M3", Pattern: "C1", Capacity: 5},
		},
		[]model.RawStudent{
			{
				Name:     "S",
				Sections: []string{"M1-1", "O-1"},
				Requests: []model.RawRequest{{Drop: "M1-1", Preferred: "M2", Alternates: []string{"M3"}}},
			},
		},
	)
	engine := NewEngine(input, Options{Seed: 7})

	//** Act
	engine.Run()
	result := engine.Result()

	//** Assert
	assert.Equal(t, []string{"M3-1", "O-1"}, heldNames(input, result, 0))
	assert.Equal(t, uint64(1), result.Transitions)
	assert.True(t, verify(result, input))
	assertNoDoubleSpend(t, engine)
}

func chainedInput(t *testing.T) model.ModelInput {
	return buildInput(t,
		[]model.RawSection{
			{Name: "A-1", Course: "A", Pattern: "A1", Capacity: 1},
			{Name: "Z-1", Course: "Z", Pattern: "B2", Capacity: 1},
			{Name: "C-1", Course: "C", Pattern: "B1", Capacity: 1},
			{Name: "C-2", Course: "C", Pattern: "B2", Capacity: 5},
		},
		[]model.RawStudent{
			// Y cannot take C-2 because of Z-1, and C-1 is full
			{Name: "Y", Sections: []string{"A-1", "Z-1"}, Requests: []model.RawRequest{{Drop: "A-1", Preferred: "C"}}},
			{Name: "X", Sections: []string{"C-1"}},
		},
	)
}

func TestScenarioChainedSwap(t *testing.T) {
	for seed := range int64(10) {
		//** Arrange
		input := chainedInput(t)
		engine := NewEngine(input, Options{Seed: seed})

		//** Act
		engine.Run()
		result := engine.Result()

		//** Assert
		assert.Equal(t, []string{"C-1", "Z-1"}, heldNames(input, result, 0), "seed %v", seed)
		assert.Equal(t, []string{"C-2"}, heldNames(input, result, 1), "seed %v", seed)
		assert.Equal(t, uint64(0), result.Enrolled[sectionId(t, input, "A-1")])
		assert.Equal(t, uint64(1), result.Enrolled[sectionId(t, input, "C-1")])
		assert.Equal(t, uint64(1), result.Enrolled[sectionId(t, input, "C-2")])
		assert.Equal(t, uint64(1), result.Transitions)
		assert.True(t, verify(result, input))
		assertHardConstraints(t, engine)
	}
}

func TestDepthBound(t *testing.T) {
	//** Arrange
	input := chainedInput(t)
	engine := NewEngine(input, Options{Seed: 3, MaxDepth: 1})

	//** Act
	engine.Run()
	result := engine.Result()

	//** Assert
	// The chain needs two edges, a single edge never satisfies the request
	assert.Equal(t, []string{"A-1", "Z-1"}, heldNames(input, result, 0))
	assert.Equal(t, []string{"C-1"}, heldNames(input, result, 1))
	assert.Zero(t, result.Transitions)
}

func TestSwapEdgesAloneNeverCommit(t *testing.T) {
	//** Arrange
	input := buildInput(t,
		[]model.RawSection{
			{Name: "C-1", Course: "C", Pattern: "B1", Capacity: 1},
			{Name: "C-2", Course: "C", Pattern: "B2", Capacity: 5},
		},
		[]model.RawStudent{{Name: "X", Sections: []string{"C-1"}}},
	)
	engine := NewEngine(input, Options{})

	//** Act
	sweeps := engine.Run()

	//** Assert
	assert.Equal(t, uint64(1), sweeps)
	assert.Equal(t, []string{"C-1"}, heldNames(input, engine.Result(), 0))
}

func TestRandomInstancesPreserveInvariants(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	for i := range 25 {
		//** Arrange
		raw := randomRawInput(random, 6, 3, 15)
		input, err := model.ProcessRawInput(raw)
		require.NoError(t, err)
		engine := NewEngine(input, Options{Seed: int64(i), MaxDepth: 6})

		//** Act
		engine.Run()
		result := engine.Result()

		//** Assert
		assertHardConstraints(t, engine)
		assertNoDoubleSpend(t, engine)
		assert.True(t, verify(result, input), "instance %v", i)

		// A fixed point stays a fixed point
		assert.False(t, engine.Sweep())
		again := engine.Result()
		assert.Equal(t, result.Students, again.Students)
		assert.Equal(t, result.Enrolled, again.Enrolled)
		assert.Equal(t, result.Transitions, again.Transitions)
	}
}

func TestReassigner(t *testing.T) {
	reassigner := NewAugmentingReassigner(Options{Seed: 5, MaxDepth: 6})

	t.Run("Verified result", func(t *testing.T) {
		//** Arrange
		input := chainedInput(t)

		//** Act
		result, err := reassigner.Reassign(input)

		//** Assert
		require.NoError(t, err)
		assert.True(t, reassigner.Verify(result, input))
		assert.Equal(t, uint64(1), result.Transitions)
		assert.Equal(t, uint64(2), result.Sweeps)
	})

	t.Run("Tampered result", func(t *testing.T) {
		//** Arrange
		input := chainedInput(t)
		result, err := reassigner.Reassign(input)
		require.NoError(t, err)

		//** Act
		result.Enrolled[sectionId(t, input, "C-2")] = 0

		//** Assert
		assert.False(t, reassigner.Verify(result, input))
	})

	t.Run("Invalid options", func(t *testing.T) {
		_, err := NewAugmentingReassigner(Options{MaxDepth: -1}).Reassign(chainedInput(t))
		assert.Error(t, err)
	})
}

func TestInvariantViolationIsReported(t *testing.T) {
	//** Arrange
	input := chainedInput(t)
	input.Sections[sectionId(t, input, "C-1")].Enrolled = 3 // Over capacity, the caller broke its contract
	engine := NewEngine(input, Options{})

	//** Act and assert
	assert.Panics(t, func() {
		engine.assertInvariants(nil, sectionId(t, input, "C-1"))
	})
}

type countingObserver struct {
	applied, rejected, sweeps int
}

func (observer *countingObserver) PathApplied(int)       { observer.applied++ }
func (observer *countingObserver) PathRejected(int)      { observer.rejected++ }
func (observer *countingObserver) SweepCompleted(uint64) { observer.sweeps++ }

func TestObserverNotified(t *testing.T) {
	//** Arrange
	observer := &countingObserver{}
	engine := NewEngine(chainedInput(t), Options{Seed: 11, Observer: observer})

	//** Act
	engine.Run()

	//** Assert
	assert.Equal(t, 1, observer.applied)
	assert.Equal(t, 2, observer.sweeps)
}

// findEdge returns the edge of the student going from start to end
func findEdge(t *testing.T, engine *Engine, student, start, end uint64) int {
	t.Helper()
	for id, edge := range engine.edges {
		if edge.student == student && edge.start == start && edge.end == end {
			return id
		}
	}
	require.Failf(t, "edge not found", "student %v from %v to %v", student, start, end)
	return -1
}

// S is granted its alternate Q-1 first, then T's preferred request for Q pushes S back to A-1 through the
// reverse of S's committed edge
func reversibleInput(t *testing.T) model.ModelInput {
	return buildInput(t,
		[]model.RawSection{
			{Name: "A-1", Course: "A", Pattern: "A1", Capacity: 1},
			{Name: "P-1", Course: "P", Pattern: "B1", Capacity: 1},
			{Name: "Q-1", Course: "Q", Pattern: "C1", Capacity: 1},
			{Name: "X-1", Course: "X", Pattern: "D1", Capacity: 1},
		},
		[]model.RawStudent{
			{Name: "S", Sections: []string{"A-1"}, Requests: []model.RawRequest{{Drop: "A-1", Preferred: "P", Alternates: []string{"Q"}}}},
			{Name: "T", Sections: []string{"X-1"}, Requests: []model.RawRequest{{Drop: "X-1", Preferred: "Q"}}},
			{Name: "U", Sections: []string{"P-1"}},
		},
	)
}

func TestCommittedTransitionIsReversed(t *testing.T) {
	//** Arrange
	input := reversibleInput(t)
	engine := NewEngine(input, Options{})
	a, q, x := sectionId(t, input, "A-1"), sectionId(t, input, "Q-1"), sectionId(t, input, "X-1")
	granted := findEdge(t, engine, 0, a, q)
	requested := findEdge(t, engine, 1, x, q)

	require.True(t, engine.augment(a, DefaultMaxDepth, 0))
	require.Equal(t, []string{"Q-1"}, heldNames(input, engine.Result(), 0))
	require.Equal(t, granted, engine.families[engine.edges[granted].family])

	//** Act
	applied := engine.augment(x, DefaultMaxDepth, 0)

	//** Assert
	require.True(t, applied)
	result := engine.Result()
	assert.Equal(t, []string{"A-1"}, heldNames(input, result, 0))
	assert.Equal(t, []string{"Q-1"}, heldNames(input, result, 1))
	assert.Equal(t, uint64(1), result.Enrolled[a])
	assert.Equal(t, uint64(1), result.Enrolled[q])
	assert.Zero(t, result.Enrolled[x])
	assert.Equal(t, uint64(2), result.Transitions)

	// The reverse traversal released S's request and restored its forward edge
	assert.Equal(t, noHolder, engine.families[engine.edges[granted].family])
	assert.True(t, engine.edges[granted].enabled)
	assert.False(t, engine.edges[engine.edges[granted].reverse].enabled)
	assert.Equal(t, requested, engine.families[engine.edges[requested].family])
	assert.Empty(t, engine.path)
	assertHardConstraints(t, engine)
	assertNoDoubleSpend(t, engine)
	assert.True(t, verify(result, input))
}

func TestBacktrackedReverseRestoresHolder(t *testing.T) {
	//** Arrange
	input := reversibleInput(t)
	engine := NewEngine(input, Options{})
	a, q := sectionId(t, input, "A-1"), sectionId(t, input, "Q-1")
	granted := findEdge(t, engine, 0, a, q)
	family := engine.edges[granted].family
	reverse := engine.edges[granted].reverse
	require.True(t, engine.augment(a, DefaultMaxDepth, 0))

	//** Act
	previousHolder := engine.take(reverse)
	released := engine.families[family]
	engine.undo(reverse, previousHolder)

	//** Assert
	assert.Equal(t, granted, previousHolder)
	assert.Equal(t, noHolder, released)
	assert.Equal(t, granted, engine.families[family])
	assert.True(t, engine.edges[reverse].enabled)
	assert.False(t, engine.edges[granted].enabled)
	assert.Empty(t, engine.path)
	assert.Equal(t, []string{"Q-1"}, heldNames(input, engine.Result(), 0))
	assertHardConstraints(t, engine)
}

func TestRejectedPathKeepsExtending(t *testing.T) {
	//** Arrange
	// P-1 has a free seat but collides with S's Z-1; the path only fits once S also swaps Z-1 for Z-2
	input := buildInput(t,
		[]model.RawSection{
			{Name: "A-1", Course: "A", Pattern: "A1", Capacity: 1},
			{Name: "P-1", Course: "P", Pattern: "C1", Capacity: 2},
			{Name: "Z-1", Course: "Z", Pattern: "C1", Capacity: 1},
			{Name: "Z-2", Course: "Z", Pattern: "E1", Capacity: 1},
		},
		[]model.RawStudent{
			{Name: "S", Sections: []string{"A-1", "Z-1"}, Requests: []model.RawRequest{{Drop: "A-1", Preferred: "P"}}},
			{Name: "W", Sections: []string{"P-1"}, Requests: []model.RawRequest{{Drop: "P-1", Preferred: "Z"}}},
		},
	)
	observer := &countingObserver{}
	engine := NewEngine(input, Options{Observer: observer})

	//** Act
	applied := engine.augment(sectionId(t, input, "A-1"), 3, 0)

	//** Assert
	require.True(t, applied)
	assert.Equal(t, 1, observer.rejected)
	assert.Equal(t, 1, observer.applied)
	result := engine.Result()
	assert.Equal(t, []string{"P-1", "Z-2"}, heldNames(input, result, 0))
	assert.Equal(t, []string{"Z-1"}, heldNames(input, result, 1))
	assert.Zero(t, result.Enrolled[sectionId(t, input, "A-1")])
	assert.Equal(t, uint64(1), result.Enrolled[sectionId(t, input, "P-1")])
	assert.Equal(t, uint64(1), result.Enrolled[sectionId(t, input, "Z-2")])
	assertHardConstraints(t, engine)
	assert.True(t, verify(result, input))
}
