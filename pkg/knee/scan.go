package knee

import "slices"

// candidate is a confirmed knee. Indices are carried through the scan so
// y values never have to be looked up by x.
type candidate struct {
	canonical int // index in the oriented (normalized) arrays
	raw       int // index in the caller's x and y
}

// scanInput is everything the scan reads. It is never modified.
type scanInput struct {
	x        []float64
	diff     []float64
	isMax    []bool
	isMin    []bool
	firstMax int
	tmx      []float64
	curve    CurveType
	dir      Direction
	online   bool
}

// scanState is the accumulator folded over the difference curve.
type scanState struct {
	threshold      float64
	thresholdIndex int // -1 while no maximum is armed
	cursor         int // next unconsumed entry of tmx
	knee           candidate
	found          bool
	history        []candidate
	done           bool
}

func newScanInput(x, diff []float64, maxima, minima []int, tmx []float64, cfg Config) scanInput {
	n := len(diff)
	in := scanInput{
		x:        x,
		diff:     diff,
		isMax:    make([]bool, n),
		isMin:    make([]bool, n),
		firstMax: -1,
		tmx:      tmx,
		curve:    cfg.Curve,
		dir:      cfg.Direction,
		online:   cfg.Online,
	}
	for _, i := range maxima {
		in.isMax[i] = true
	}
	for _, i := range minima {
		in.isMin[i] = true
	}
	if len(maxima) > 0 {
		in.firstMax = maxima[0]
	}
	return in
}

// scan walks the difference curve from the first local maximum and returns
// the final accumulator.
func scan(in scanInput) scanState {
	st := scanState{thresholdIndex: -1}
	if in.firstMax < 0 || slices.Max(in.diff) <= flatness {
		return st
	}
	for i := in.firstMax; i < len(in.diff)-1 && !st.done; i++ {
		st = step(in, st, i)
	}
	return st
}

// step advances the accumulator by one index.
func step(in scanInput, st scanState, i int) scanState {
	if in.isMax[i] && st.cursor < len(in.tmx) {
		st.threshold = in.tmx[st.cursor]
		st.thresholdIndex = i
		st.cursor++
	}
	if in.isMin[i] {
		st.threshold = 0
		st.thresholdIndex = -1
	}
	if st.thresholdIndex == -1 || in.diff[i+1] >= st.threshold {
		return st
	}

	raw, ok := rawIndex(st.thresholdIndex, len(in.x), in.curve, in.dir)
	if !ok {
		return st
	}
	c := candidate{canonical: st.thresholdIndex, raw: raw}
	if !slices.ContainsFunc(st.history, func(h candidate) bool { return in.x[h.raw] == in.x[c.raw] }) {
		st.history = append(st.history, c)
	}
	st.knee = c
	st.found = true
	if !in.online {
		st.done = true
	}
	return st
}

// rawIndex undoes the reversal orient applied for convex increasing and
// concave decreasing curves.
func rawIndex(i, n int, c CurveType, d Direction) (int, bool) {
	if (c == Convex && d == Decreasing) || (c == Concave && d == Increasing) {
		return i, true
	}
	r := n - 1 - i
	return r, r >= 0 && r < n
}
