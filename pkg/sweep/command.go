package sweep

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numberRE = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// CommandEvaluator runs a command once per value. Every "{}" in the arguments
// is replaced by the value, and the last number printed on stdout is the
// metric.
type CommandEvaluator struct {
	Args    []string
	Timeout time.Duration
}

func (c CommandEvaluator) Evaluate(ctx context.Context, value int) (float64, error) {
	if len(c.Args) == 0 {
		return 0, fmt.Errorf("no command configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	v := strconv.Itoa(value)
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{}", v)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%s: %w (stderr: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return lastNumber(stdout.String())
}

func lastNumber(s string) (float64, error) {
	matches := numberRE.FindAllString(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no number in output %q", strings.TrimSpace(s))
	}
	return strconv.ParseFloat(matches[len(matches)-1], 64)
}
