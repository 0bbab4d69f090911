package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ReadSamples builds a histogram from one latency per line. A bare number is
// microseconds; anything else must parse as a Go duration ("1.5ms").
// Blank lines and lines starting with '#' are skipped.
func ReadSamples(r io.Reader) (*Histogram, error) {
	h := NewHistogram()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if us, err := strconv.ParseFloat(s, 64); err == nil {
			if math.IsNaN(us) || math.IsInf(us, 0) {
				return nil, fmt.Errorf("line %d: %q is not a finite latency", line, s)
			}
			// Clamp before converting; out-of-range float to int64 is undefined.
			h.Record(int64(math.Max(math.Min(us, maxTrackable), -1)))
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is neither microseconds nor a duration", line, s)
		}
		h.RecordDuration(d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return h, nil
}
