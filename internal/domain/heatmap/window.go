package heatmap

// window is a bounded trailing FIFO of samples. Values are copied on push so
// that a window held by one scan state never aliases another.
type window struct {
	limit   int
	samples []float64
}

func newWindow(limit int) window {
	return window{limit: limit}
}

// push returns a window with v appended and the oldest samples evicted
// beyond the limit.
func (w window) push(v float64) window {
	start := 0
	if len(w.samples)+1 > w.limit {
		start = len(w.samples) + 1 - w.limit
	}
	next := make([]float64, 0, w.limit)
	next = append(next, w.samples[start:]...)
	next = append(next, v)
	return window{limit: w.limit, samples: next}
}

// mean returns the arithmetic mean, or 0 for an empty window.
func (w window) mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.samples {
		sum += v
	}
	return sum / float64(len(w.samples))
}

func (w window) len() int { return len(w.samples) }
