package graph

// dependents returns instances which consume outputs of every instance.
func (io *Io) dependents() map[Handle]map[Handle]struct{} {
	deps := make(map[Handle]map[Handle]struct{}, len(io.instances))
	for to, from := range io.sources {
		d, ok := deps[from.Instance]
		if !ok {
			d = make(map[Handle]struct{})
			deps[from.Instance] = d
		}
		d[to.Instance] = struct{}{}
	}
	return deps
}

// reachable reports if instance to depends on instance from, directly or
// through other instances.
func (io *Io) reachable(from, to Handle) bool {
	if from == to {
		return true
	}
	deps := io.dependents()
	visited := map[Handle]struct{}{from: {}}
	stack := []Handle{from}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for d := range deps[h] {
			if d == to {
				return true
			}
			if _, ok := visited[d]; ok {
				continue
			}
			visited[d] = struct{}{}
			stack = append(stack, d)
		}
	}
	return false
}

// ComputeOrder sorts instances so every instance comes after the
// instances it depends on. Instances without pending dependencies are
// peeled off in passes, each pass keeps insertion order. If a pass can't
// peel anything, the graph is cyclic and order stays invalid until the
// next successful computation.
func (io *Io) ComputeOrder() error {
	io.revision++
	deps := io.dependents()
	indegree := make(map[Handle]int, len(io.instances))
	for _, d := range deps {
		for h := range d {
			indegree[h]++
		}
	}

	var passes [][]Handle
	remaining := io.instances
	for len(remaining) > 0 {
		var pass, rest []Handle
		for _, h := range remaining {
			if indegree[h] == 0 {
				pass = append(pass, h)
			} else {
				rest = append(rest, h)
			}
		}
		if len(pass) == 0 {
			io.passes, io.order = nil, nil
			io.orderErr = ErrCyclicDependency
			return io.orderErr
		}
		for _, h := range pass {
			for d := range deps[h] {
				indegree[d]--
			}
		}
		passes = append(passes, pass)
		remaining = rest
	}

	order := make([]Handle, 0, len(io.instances))
	for _, pass := range passes {
		order = append(order, pass...)
	}
	io.passes, io.order, io.orderErr = passes, order, nil
	return nil
}

// Order returns the processing order.
func (io *Io) Order() ([]Handle, error) {
	if io.orderErr != nil {
		return nil, io.orderErr
	}
	return io.order, nil
}

// Passes returns instances grouped by passes of the last computation.
// Instances of one pass don't depend on each other.
func (io *Io) Passes() [][]Handle {
	return io.passes
}

// Revision changes every time the order is computed.
func (io *Io) Revision() uint64 {
	return io.revision
}
