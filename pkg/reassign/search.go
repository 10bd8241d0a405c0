package reassign

// augment looks for an augmenting path leaving the vertex through a depth-bounded DFS with backtracking.
// Every edge pushed onto the path is provisionally taken against its student; the path is applied as soon
// as its accumulated weight is positive and its last edge lands on a section with a free seat.
// Returns true if a path was applied, in which case nothing is backtracked.
func (engine *Engine) augment(vertex uint64, depth int, weight int) bool {
	for _, id := range engine.vertices[vertex].out {
		if !engine.traversable(id) {
			continue
		}

		edge := &engine.edges[id]
		previousHolder := engine.take(id)
		next := weight + edge.weight

		if next > 0 && engine.evaluator.HasSpace(edge.end) && engine.apply(edge.end) {
			return true
		}
		if depth > 1 && engine.augment(edge.end, depth-1, next) {
			return true
		}

		engine.undo(id, previousHolder)
	}
	return false
}

// Checks whether the edge can extend the current path
func (engine *Engine) traversable(id int) bool {
	edge := engine.edges[id]
	if !edge.enabled {
		return false
	}

	// Do not immediately undo the edge just taken
	if last := len(engine.path) - 1; last >= 0 && engine.edges[engine.path[last]].reverse == id {
		return false
	}

	// A request consumes at most one of its options
	if edge.primary && engine.families[edge.family] != noHolder && engine.families[edge.family] != id {
		return false
	}

	return engine.evaluator.Holds(edge.student, edge.start)
}

// take provisionally moves the edge's student out of the start section and flips the residual pair.
// Returns the family holder that undo must restore.
func (engine *Engine) take(id int) int {
	edge := &engine.edges[id]
	student := &engine.students[edge.student]

	delete(student.held, edge.start)
	student.schedule.Toggle(engine.sections[edge.start])

	previousHolder := noHolder
	if edge.family != noFamily {
		previousHolder = engine.families[edge.family]
		if edge.primary {
			engine.families[edge.family] = id
		} else {
			engine.families[edge.family] = noHolder // Undoing a granted option releases the request
		}
	}

	edge.enabled = false
	engine.edges[edge.reverse].enabled = true
	engine.path = append(engine.path, id)

	return previousHolder
}

// undo mirrors take
func (engine *Engine) undo(id int, previousHolder int) {
	edge := &engine.edges[id]
	student := &engine.students[edge.student]

	engine.path = engine.path[:len(engine.path)-1]
	engine.edges[edge.reverse].enabled = false
	edge.enabled = true

	if edge.family != noFamily {
		engine.families[edge.family] = previousHolder
	}

	student.held[edge.start] = true
	student.schedule.Toggle(engine.sections[edge.start])
}
