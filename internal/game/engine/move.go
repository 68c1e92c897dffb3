package engine

// forwardSteps walks steps cells forward from a position, returning every
// index stepped through (destination last) and whether the walk passed or
// landed on Start.
func forwardSteps(from, steps, size int) ([]int, bool) {
	if steps <= 0 || size <= 0 {
		return nil, false
	}
	path := make([]int, 0, steps)
	wrapped := false
	for i := 1; i <= steps; i++ {
		pos := (from + i) % size
		if pos == 0 {
			wrapped = true
		}
		path = append(path, pos)
	}
	return path, wrapped
}

// forwardTo walks forward from one position to another, wrapping at most
// once. A target equal to the origin is a no-op.
func forwardTo(from, to, size int) ([]int, bool) {
	steps := to - from
	if steps < 0 {
		steps += size
	}
	return forwardSteps(from, steps, size)
}

// backwardSteps walks steps cells backward, destination last. Moving
// backward never earns the pass-start bonus.
func backwardSteps(from, steps, size int) []int {
	if steps <= 0 || size <= 0 {
		return nil
	}
	path := make([]int, 0, steps)
	for i := 1; i <= steps; i++ {
		pos := (from - i) % size
		if pos < 0 {
			pos += size
		}
		path = append(path, pos)
	}
	return path
}
