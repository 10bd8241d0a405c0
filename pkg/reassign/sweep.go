package reassign

// shuffle randomizes the vertex visitation order and every vertex's edge order
func (engine *Engine) shuffle() {
	engine.random.Shuffle(len(engine.order), func(i, j int) {
		engine.order[i], engine.order[j] = engine.order[j], engine.order[i]
	})
	for _, vertex := range engine.vertices {
		out := vertex.out
		engine.random.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}
}

// Sweep searches for an augmenting path once from every vertex, in a freshly randomized order.
// Returns true if at least one path was applied.
func (engine *Engine) Sweep() bool {
	engine.shuffle()

	applied := uint64(0)
	for _, vertex := range engine.order {
		if engine.augment(uint64(vertex), engine.options.MaxDepth, 0) {
			applied++
		}
	}

	engine.sweeps++
	engine.options.Observer.SweepCompleted(applied)
	engine.options.Logger.Debugf("sweep %v applied %v paths", engine.sweeps, applied)
	return applied > 0
}

// Run sweeps until a whole sweep applies no path. Returns the number of sweeps performed, including the last one.
func (engine *Engine) Run() uint64 {
	start := engine.sweeps
	for engine.Sweep() {
	}

	engine.options.Logger.Infof("fixed point reached after %v sweeps with %v transitions", engine.sweeps-start, engine.transitions)
	return engine.sweeps - start
}
