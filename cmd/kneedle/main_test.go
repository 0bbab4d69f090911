package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/runningwild/kneedle/pkg/agent"
	"github.com/runningwild/kneedle/pkg/config"
	"github.com/runningwild/kneedle/pkg/knee"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLocateFixture(t *testing.T) {
	out, err := run(t, "locate", "--fixture", "concave-increasing")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Knee:        x=2 y=80") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLocateJSON(t *testing.T) {
	out, err := run(t, "locate", "--fixture", "convex-decreasing", "--curve", "convex", "--direction", "decreasing", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res knee.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Knee == nil || *res.Knee != 2 {
		t.Errorf("knee = %v, want 2", res.Knee)
	}
}

func TestLocateAuto(t *testing.T) {
	out, err := run(t, "locate", "--fixture", "convex-increasing", "--auto")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Shape:       convex increasing") || !strings.Contains(out, "x=7") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLocateFiles(t *testing.T) {
	a := writeFile(t, "a.csv", "0,0\n1,60\n2,80\n3,85\n4,90\n5,95\n6,96\n7,97\n8,98\n9,99\n")
	b := writeFile(t, "b.csv", "0,5\n1,5\n2,5\n")
	out, err := run(t, "locate", "--parallel", "2", a, b)
	if err != nil {
		t.Fatal(err)
	}
	ia, ib := strings.Index(out, a+":"), strings.Index(out, b+":")
	if ia < 0 || ib < ia {
		t.Fatalf("results out of order:\n%s", out)
	}
	if !strings.Contains(out[ia:ib], "x=2 y=80") {
		t.Errorf("first curve output:\n%s", out[ia:ib])
	}
	if !strings.Contains(out[ib:], "No knee found.") {
		t.Errorf("second curve output:\n%s", out[ib:])
	}

	withHeader := writeFile(t, "c.csv", "x,y\n0,5\n1,5\n2,5\n")
	if _, err := run(t, "locate", a, withHeader); err == nil {
		t.Error("header row without --header should fail to parse")
	}
}

func TestLocateInvalidFlag(t *testing.T) {
	if _, err := run(t, "locate", "--fixture", "figure2", "--curve", "wavy"); err == nil {
		t.Error("unknown curve should fail")
	}
	if _, err := run(t, "locate", "--fixture", "figure2", "--log-level", "loud"); err == nil {
		t.Error("unknown log level should fail")
	}
}

func TestWriteAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kneedle.yaml")
	if _, err := run(t, "locate", "--fixture", "figure2", "--sensitivity", "0", "--online", "--write-config", path); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Detection.Sensitivity != 0 || !cfg.Detection.Online {
		t.Errorf("saved detection = %+v", cfg.Detection)
	}

	// Flags override the file; the rest comes from it.
	out, err := run(t, "locate", "--config", path, "--fixture", "convex-increasing", "--curve", "convex", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res knee.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Sensitivity != 0 || !res.Online || res.Curve != "convex" {
		t.Errorf("result settings = %+v", res)
	}
}

func TestShape(t *testing.T) {
	out, err := run(t, "shape", "--fixture", "concave-decreasing")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Shape:       concave decreasing", "Confidence:  1.00", "Linear:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFixtures(t *testing.T) {
	out, err := run(t, "fixtures")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "figure2\n") || !strings.Contains(out, "logistic\n") {
		t.Errorf("fixture list:\n%s", out)
	}
	out, err = run(t, "fixtures", "concave-increasing")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "0,0\n1,60\n") {
		t.Errorf("fixture csv:\n%s", out)
	}
}

func TestLatency(t *testing.T) {
	var b strings.Builder
	b.WriteString("# synthetic\n")
	for i := 0; i < 9500; i++ {
		fmt.Fprintf(&b, "%d\n", 200+i%50)
	}
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&b, "%dus\n", 5000+i*100)
	}
	path := writeFile(t, "samples.txt", b.String())

	out, err := run(t, "latency", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Samples:  10000", "Tail starts at p95 "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	bad := writeFile(t, "bad.txt", "12\nslow\n")
	if _, err := run(t, "latency", bad); err == nil {
		t.Error("unparseable sample should fail")
	}
}

func TestSweep(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	report := filepath.Join(t.TempDir(), "report.json")
	// A linear metric has no knee.
	out, err := run(t, "sweep", "--var", "workers", "--min", "1", "--max", "5", "--report", report, "--", "echo", "{}")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Could not identify a distinct knee.") {
		t.Errorf("unexpected output:\n%s", out)
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"value": 5`) {
		t.Errorf("report:\n%s", data)
	}

	if _, err := run(t, "sweep", "--min", "1", "--max", "3"); err == nil {
		t.Error("sweep without a command should fail")
	}
}

func TestRemote(t *testing.T) {
	srv := httptest.NewServer(agent.NewServer(nil, 0).Handler())
	defer srv.Close()

	a := writeFile(t, "a.csv", "0,100\n1,40\n2,20\n3,15\n4,10\n5,5\n6,4\n7,3\n8,2\n9,1\n")
	out, err := run(t, "remote", "--nodes", srv.URL, "--auto", a)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, a+": knee x=2 y=20 (convex decreasing)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "remote", a); err == nil {
		t.Error("remote without nodes should fail")
	}
}
