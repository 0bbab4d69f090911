package knee

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"Range", []float64{2, 4, 6}, []float64{0, 0.5, 1}},
		{"Unsorted", []float64{10, 0, 5}, []float64{1, 0, 0.5}},
		{"Constant", []float64{3, 3, 3}, []float64{0, 0, 0}},
		{"Empty", []float64{}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, normalize(tt.in), approx); diff != "" {
				t.Errorf("normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrient(t *testing.T) {
	y := []float64{0, 0.25, 1}
	tests := []struct {
		name  string
		dir   Direction
		curve CurveType
		want  []float64
	}{
		{"Concave increasing", Increasing, Concave, []float64{0, 0.25, 1}},
		{"Concave decreasing", Decreasing, Concave, []float64{1, 0.25, 0}},
		{"Convex decreasing", Decreasing, Convex, []float64{1, 0.75, 0}},
		{"Convex increasing", Increasing, Convex, []float64{0, 0.75, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, orient(y, tt.dir, tt.curve)); diff != "" {
				t.Errorf("orient() mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if y[0] != 0 || y[2] != 1 {
		t.Error("orient() modified its input")
	}
}

func TestExtrema(t *testing.T) {
	tests := []struct {
		name    string
		d       []float64
		wantMax []int
		wantMin []int
	}{
		{
			name:    "Single peak",
			d:       []float64{0, 0.2, 0.5, 0.1, 0},
			wantMax: []int{2},
			wantMin: []int{0, 4},
		},
		{
			name:    "Plateau",
			d:       []float64{0, 0.3, 0.3, 0},
			wantMax: []int{1, 2},
			wantMin: []int{0, 3},
		},
		{
			name:    "Endpoints",
			d:       []float64{0.5, 0.1, 0.4},
			wantMax: []int{0, 2},
			wantMin: []int{1},
		},
		{
			name:    "Flat",
			d:       []float64{0, 0, 0},
			wantMax: []int{0, 1, 2},
			wantMin: []int{0, 1, 2},
		},
		{
			name:    "Too short",
			d:       []float64{1},
			wantMax: []int{},
			wantMin: []int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.wantMax, localMaxima(tt.d)); diff != "" {
				t.Errorf("localMaxima() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantMin, localMinima(tt.d)); diff != "" {
				t.Errorf("localMinima() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMeanAbsDiff(t *testing.T) {
	if got := meanAbsDiff([]float64{0, 0.25, 0.5, 1}); got != 1.0/3 {
		t.Errorf("meanAbsDiff() = %v, want 1/3", got)
	}
	if got := meanAbsDiff([]float64{1}); got != 0 {
		t.Errorf("meanAbsDiff(single) = %v, want 0", got)
	}
}

func TestThresholds(t *testing.T) {
	diff := []float64{0, 0.4, 0.1, 0.3, 0}
	got := thresholds(diff, []int{1, 3}, 2, 0.05)
	if d := cmp.Diff([]float64{0.3, 0.2}, got, approx); d != "" {
		t.Errorf("thresholds() mismatch (-want +got):\n%s", d)
	}
}

func TestRawIndex(t *testing.T) {
	tests := []struct {
		curve CurveType
		dir   Direction
		want  int
	}{
		{Concave, Increasing, 2},
		{Convex, Decreasing, 2},
		{Convex, Increasing, 7},
		{Concave, Decreasing, 7},
	}
	for _, tt := range tests {
		t.Run(tt.curve.String()+" "+tt.dir.String(), func(t *testing.T) {
			got, ok := rawIndex(2, 10, tt.curve, tt.dir)
			if !ok || got != tt.want {
				t.Errorf("rawIndex(2) = %d, %v; want %d", got, ok, tt.want)
			}
		})
	}
}

func scanOf(diff []float64, sensitivity float64, online bool) scanState {
	cfg := DefaultConfig()
	cfg.Sensitivity = sensitivity
	cfg.Online = online
	x := make([]float64, len(diff))
	xNorm := make([]float64, len(diff))
	for i := range x {
		x[i] = float64(i)
		xNorm[i] = float64(i) / float64(len(diff)-1)
	}
	maxima, minima := localMaxima(diff), localMinima(diff)
	tmx := thresholds(diff, maxima, sensitivity, meanAbsDiff(xNorm))
	return scan(newScanInput(x, diff, maxima, minima, tmx, cfg))
}

func TestScan(t *testing.T) {
	// Two bumps; the second one is taller.
	diff := []float64{0, 0.2, 0.05, 0.1, 0.4, 0.1, 0}

	t.Run("Offline stops at the first knee", func(t *testing.T) {
		st := scanOf(diff, 0, false)
		if !st.found || st.knee.raw != 1 {
			t.Fatalf("knee = %+v (found %v), want index 1", st.knee, st.found)
		}
		if len(st.history) != 1 {
			t.Errorf("history = %v, want one entry", st.history)
		}
	})

	t.Run("Online keeps the last knee", func(t *testing.T) {
		st := scanOf(diff, 0, true)
		if !st.found || st.knee.raw != 4 {
			t.Fatalf("knee = %+v, want index 4", st.knee)
		}
		want := []candidate{{canonical: 1, raw: 1}, {canonical: 4, raw: 4}}
		if d := cmp.Diff(want, st.history, cmp.AllowUnexported(candidate{})); d != "" {
			t.Errorf("history mismatch (-want +got):\n%s", d)
		}
	})

	t.Run("Sensitivity skips the small bump", func(t *testing.T) {
		// step is 1/6, so S=1 asks for a drop of ~0.167: the first bump only
		// falls by 0.15 before a minimum disarms it.
		st := scanOf(diff, 1, false)
		if !st.found || st.knee.raw != 4 {
			t.Fatalf("knee = %+v, want index 4", st.knee)
		}
	})

	t.Run("Flat difference curve", func(t *testing.T) {
		st := scanOf([]float64{0, 0, 0, 0}, 0, false)
		if st.found || len(st.history) != 0 {
			t.Errorf("flat curve produced %+v", st)
		}
	})

	t.Run("Step is pure", func(t *testing.T) {
		in := scanInput{
			x:     []float64{0, 1, 2},
			diff:  []float64{0.5, 0.1, 0},
			isMax: []bool{true, false, false},
			isMin: []bool{false, false, true},
			tmx:   []float64{0.4},
			curve: Concave,
			dir:   Increasing,
		}
		before := scanState{thresholdIndex: -1}
		after := step(in, before, 0)
		if before.found || before.thresholdIndex != -1 || before.cursor != 0 {
			t.Errorf("step() modified its input state: %+v", before)
		}
		if !after.found || after.knee.raw != 0 || !after.done {
			t.Errorf("step() = %+v, want a knee at 0", after)
		}
	})
}
