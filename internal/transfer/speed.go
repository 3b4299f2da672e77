package transfer

const speedSamples = 3

// speedWindow is a rolling window of per-tick byte deltas.
type speedWindow struct {
	samples [speedSamples]int64
	next    int
}

// push replaces the oldest sample with delta and returns the integer mean of
// the window.
func (w *speedWindow) push(delta int64) int64 {
	w.samples[w.next] = delta
	w.next = (w.next + 1) % speedSamples
	var sum int64
	for _, s := range w.samples {
		sum += s
	}
	return sum / speedSamples
}
