package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runningwild/kneedle/pkg/knee"
)

// Config is the top-level configuration shared by the CLI and the agent.
type Config struct {
	Detection Detection `yaml:"detection"`
	Input     Input     `yaml:"input"`
	Sweep     Sweep     `yaml:"sweep"`
	Server    Server    `yaml:"server"`
	Cluster   Cluster   `yaml:"cluster"`
}

// Detection mirrors knee.Config with the enums spelled out.
type Detection struct {
	Sensitivity      float64 `yaml:"sensitivity" json:"sensitivity"`
	Curve            string  `yaml:"curve" json:"curve"`                 // "concave" or "convex"
	Direction        string  `yaml:"direction" json:"direction"`         // "increasing" or "decreasing"
	Interpolation    string  `yaml:"interpolation" json:"interpolation"` // "spline" or "polynomial"
	Online           bool    `yaml:"online" json:"online"`
	PolynomialDegree int     `yaml:"polynomial_degree" json:"polynomial_degree"`
}

// Input describes where a curve is read from.
type Input struct {
	Path    string `yaml:"path,omitempty"`
	XColumn int    `yaml:"x_column"`
	YColumn int    `yaml:"y_column"`
	Header  bool   `yaml:"header"`
}

// Sweep defines the variable to step through and how to measure each value.
type Sweep struct {
	Variable string        `yaml:"variable,omitempty"`
	Values   []int         `yaml:"values,omitempty"` // Explicit list
	Range    []int         `yaml:"range,omitempty"`  // [min, max]
	Step     int           `yaml:"step,omitempty"`
	Command  []string      `yaml:"command,omitempty"` // "{}" is replaced by the value
	Timeout  time.Duration `yaml:"timeout,omitempty"` // Per evaluation
}

type Server struct {
	Listen    string        `yaml:"listen"`
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type Cluster struct {
	Nodes    []string `yaml:"nodes,omitempty"`
	Parallel int      `yaml:"parallel"`
}

func Default() *Config {
	cfg := &Config{Detection: DefaultDetection()}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file over Default, so omitted keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the effective configuration.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyDefaults() {
	c.Detection.applyDefaults()
	if c.Input.XColumn == 0 && c.Input.YColumn == 0 {
		c.Input.YColumn = 1
	}
	if c.Sweep.Step <= 0 {
		c.Sweep.Step = 1
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":9000"
	}
	if c.Server.CacheTTL == 0 {
		c.Server.CacheTTL = 5 * time.Minute
	}
	if c.Cluster.Parallel <= 0 {
		c.Cluster.Parallel = 4
	}
}

// Sensitivity is left alone: 0 is a legitimate setting.
func (d *Detection) applyDefaults() {
	if d.Curve == "" {
		d.Curve = knee.Concave.String()
	}
	if d.Direction == "" {
		d.Direction = knee.Increasing.String()
	}
	if d.Interpolation == "" {
		d.Interpolation = knee.Spline.String()
	}
	if d.PolynomialDegree == 0 {
		d.PolynomialDegree = knee.DefaultPolynomialDegree
	}
}

func DefaultDetection() Detection {
	d := Detection{Sensitivity: knee.DefaultSensitivity}
	d.applyDefaults()
	return d
}

// KneeConfig converts the section, rejecting unknown enum names.
func (d Detection) KneeConfig() (knee.Config, error) {
	curve, err := knee.ParseCurveType(d.Curve)
	if err != nil {
		return knee.Config{}, err
	}
	dir, err := knee.ParseDirection(d.Direction)
	if err != nil {
		return knee.Config{}, err
	}
	interp, err := knee.ParseInterpolation(d.Interpolation)
	if err != nil {
		return knee.Config{}, err
	}
	return knee.Config{
		Sensitivity:      d.Sensitivity,
		Curve:            curve,
		Direction:        dir,
		Interpolation:    interp,
		Online:           d.Online,
		PolynomialDegree: d.PolynomialDegree,
	}, nil
}

// Steps expands the sweep into the values to evaluate.
func (s Sweep) Steps() ([]int, error) {
	if len(s.Values) > 0 {
		return s.Values, nil
	}
	if len(s.Range) != 2 {
		return nil, fmt.Errorf("sweep %q: need values or a [min, max] range", s.Variable)
	}
	if s.Range[1] < s.Range[0] {
		return nil, fmt.Errorf("sweep %q: range %v is reversed", s.Variable, s.Range)
	}
	step := s.Step
	if step <= 0 {
		step = 1
	}
	var steps []int
	for v := s.Range[0]; v <= s.Range[1]; v += step {
		steps = append(steps, v)
	}
	return steps, nil
}
