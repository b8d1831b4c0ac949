package features

import "math"

// rollingWindow is a fixed-size ring buffer over the last size values, keeping
// running sums so mean and population std-dev cost O(1) amortized per step.
// Sums are taken of v-anchor, with anchor near the window mean, so the variance
// of large values with a small spread (base volumes around 1e9) keeps its digits.
//
// Undefined inputs occupy a slot like pandas NaN: the window stays not-ready
// until every undefined value has left it.
type rollingWindow struct {
	vals    []float64
	valid   []bool
	head    int // next slot to overwrite
	n       int // filled slots, <= len(vals)
	invalid int // undefined values currently in the window
	nonZero int // defined non-zero values currently in the window
	run     int // length of the trailing run of identical defined values
	anchor  float64
	hasAnch bool
	sum     float64 // of v-anchor
	sumSq   float64 // of (v-anchor)^2
}

func newRollingWindow(size int) *rollingWindow {
	if size < 1 {
		size = 1
	}
	return &rollingWindow{
		vals:  make([]float64, size),
		valid: make([]bool, size),
	}
}

// Push appends v, evicting the oldest value once the window is full.
func (w *rollingWindow) Push(v float64, ok bool) {
	last := (w.head + len(w.vals) - 1) % len(w.vals)
	switch {
	case !ok:
		w.run = 0
	case w.n > 0 && w.valid[last] && w.vals[last] == v:
		w.run++
	default:
		w.run = 1
	}

	if w.n == len(w.vals) {
		w.evict(w.head)
	} else {
		w.n++
	}
	w.vals[w.head] = v
	w.valid[w.head] = ok
	if ok {
		if !w.hasAnch {
			w.anchor, w.hasAnch = v, true
		}
		d := v - w.anchor
		w.sum += d
		w.sumSq += d * d
		if v != 0 {
			w.nonZero++
		}
	} else {
		w.invalid++
	}
	w.head = (w.head + 1) % len(w.vals)

	// Re-anchor and rebuild the sums once per lap so subtraction error cannot accumulate.
	if w.head == 0 && w.n == len(w.vals) {
		w.resum()
	}
}

func (w *rollingWindow) evict(i int) {
	if !w.valid[i] {
		w.invalid--
		return
	}
	v := w.vals[i]
	d := v - w.anchor
	w.sum -= d
	w.sumSq -= d * d
	if v != 0 {
		w.nonZero--
	}
}

func (w *rollingWindow) resum() {
	var total float64
	var k int
	for i, v := range w.vals {
		if w.valid[i] {
			total += v
			k++
		}
	}
	if k == 0 {
		w.sum, w.sumSq, w.hasAnch = 0, 0, false
		return
	}
	w.anchor = total / float64(k)
	w.sum, w.sumSq = 0, 0
	for i, v := range w.vals {
		if w.valid[i] {
			d := v - w.anchor
			w.sum += d
			w.sumSq += d * d
		}
	}
}

// Ready reports whether the window holds size defined values.
func (w *rollingWindow) Ready() bool {
	return w.n == len(w.vals) && w.invalid == 0
}

// constant reports whether every slot holds the same defined value.
func (w *rollingWindow) constant() bool {
	return w.run >= w.n
}

// Mean is the simple moving average. Only meaningful when Ready.
func (w *rollingWindow) Mean() float64 {
	switch {
	case w.nonZero == 0:
		return 0
	case w.constant():
		return w.vals[(w.head+len(w.vals)-1)%len(w.vals)]
	}
	return w.anchor + w.sum/float64(w.n)
}

// StdDev is the population (ddof=0) standard deviation. Only meaningful when Ready.
func (w *rollingWindow) StdDev() float64 {
	if w.nonZero == 0 || w.constant() {
		return 0
	}
	n := float64(w.n)
	shift := w.sum / n
	variance := w.sumSq/n - shift*shift
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// AllZero reports whether every defined value in the window is exactly zero.
func (w *rollingWindow) AllZero() bool {
	return w.nonZero == 0
}
