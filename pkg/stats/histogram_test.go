package stats

import (
	"math"
	"strings"
	"testing"
	"time"
)

func within(got, want int64, rel float64) bool {
	return math.Abs(float64(got-want)) <= rel*float64(want)
}

func TestHistogramQuantiles(t *testing.T) {
	h := NewHistogram()
	for v := int64(1); v <= 10000; v++ {
		h.Record(v)
	}
	if h.Count() != 10000 {
		t.Fatalf("Count() = %d, want 10000", h.Count())
	}

	tests := []struct {
		q    float64
		want int64
	}{
		{0.5, 5000},
		{0.9, 9000},
		{0.99, 9900},
	}
	for _, tt := range tests {
		if got := h.ValueAtQuantile(tt.q); !within(got, tt.want, 0.01) {
			t.Errorf("ValueAtQuantile(%v) = %d, want ~%d", tt.q, got, tt.want)
		}
	}
	if m := h.Mean(); math.Abs(m-5000.5) > 50 {
		t.Errorf("Mean() = %v, want ~5000", m)
	}
}

func TestHistogramClampAndIgnore(t *testing.T) {
	h := NewHistogram()
	h.Record(-5)
	if h.Count() != 0 {
		t.Errorf("negative value was recorded")
	}
	h.Record(0)
	h.RecordDuration(2 * time.Minute)
	if h.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", h.Count())
	}
	if got := h.Max(); !within(got, maxTrackable, 0.01) {
		t.Errorf("Max() = %d, want ~%d", got, maxTrackable)
	}
}

func TestHistogramMerge(t *testing.T) {
	a, b := NewHistogram(), NewHistogram()
	for i := 0; i < 100; i++ {
		a.Record(100)
		b.Record(1000)
	}
	a.Merge(b)
	a.Merge(nil)
	if a.Count() != 200 {
		t.Fatalf("Count() = %d, want 200", a.Count())
	}
	if got := a.ValueAtQuantile(0.25); !within(got, 100, 0.01) {
		t.Errorf("p25 = %d, want ~100", got)
	}
	if got := a.ValueAtQuantile(0.75); !within(got, 1000, 0.01) {
		t.Errorf("p75 = %d, want ~1000", got)
	}
}

func TestQuantileCurve(t *testing.T) {
	h := NewHistogram()
	if _, _, err := h.QuantileCurve(DefaultQuantiles()); err == nil {
		t.Error("QuantileCurve() on an empty histogram should fail")
	}

	// A fast body with a slow tail.
	for i := 0; i < 9500; i++ {
		h.Record(200 + int64(i%50))
	}
	for i := 0; i < 500; i++ {
		h.Record(5000 + int64(i)*100)
	}

	x, y, err := h.QuantileCurve(DefaultQuantiles())
	if err != nil {
		t.Fatal(err)
	}
	if len(x) != len(DefaultQuantiles()) || x[0] != 50 {
		t.Errorf("x = %v", x)
	}
	for i := 1; i < len(y); i++ {
		if y[i] < y[i-1] {
			t.Errorf("curve decreases at %v: %v < %v", x[i], y[i], y[i-1])
		}
	}

	for _, bad := range [][]float64{{0.5, 0.4}, {0.5, 1.5}} {
		if _, _, err := h.QuantileCurve(bad); err == nil {
			t.Errorf("QuantileCurve(%v) should fail", bad)
		}
	}
}

func TestReadSamples(t *testing.T) {
	in := "# latencies\n100\n\n250.7\n1.5ms\n2s\n"
	h, err := ReadSamples(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if h.Count() != 4 {
		t.Errorf("Count() = %d, want 4", h.Count())
	}
	if got := h.Max(); !within(got, 2000000, 0.01) {
		t.Errorf("Max() = %d, want ~2s", got)
	}

	if _, err := ReadSamples(strings.NewReader("100\nfast\n")); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("ReadSamples(bad) error = %v, want a line 2 error", err)
	}
}

func TestReadSamplesExtremes(t *testing.T) {
	for _, bad := range []string{"NaN", "Inf", "-Inf", "+inf"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ReadSamples(strings.NewReader("100\n" + bad + "\n"))
			if err == nil || !strings.Contains(err.Error(), "line 2") {
				t.Errorf("ReadSamples(%q) error = %v, want a line 2 error", bad, err)
			}
		})
	}

	h, err := ReadSamples(strings.NewReader("100\n1e30\n-1e30\n"))
	if err != nil {
		t.Fatal(err)
	}
	if h.Count() != 2 {
		t.Errorf("Count() = %d, want 2 (negative samples are dropped)", h.Count())
	}
	if got := h.Max(); !within(got, maxTrackable, 0.01) {
		t.Errorf("Max() = %d, want ~%d", got, maxTrackable)
	}
}

func TestTailElbow(t *testing.T) {
	h := NewHistogram()
	for i := 0; i < 9500; i++ {
		h.Record(200 + int64(i%50))
	}
	for i := 0; i < 500; i++ {
		h.Record(5000 + int64(i)*100)
	}
	l, err := h.TailElbow(DefaultQuantiles(), 1, false)
	if err != nil {
		t.Fatal(err)
	}
	q, ok := l.Elbow()
	if !ok {
		t.Fatal("no elbow found")
	}
	// The slow tail is the top 5%.
	if math.Abs(q-95) > 1e-9 {
		t.Errorf("Elbow() = %v, want 95", q)
	}
}
