// Package config loads odometry tuning from YAML files.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/milosgajdos/go-odom/odom"
	"github.com/milosgajdos/go-odom/sigma"
	"github.com/milosgajdos/go-odom/sim"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// maxFileSize is maximum size of a config file
const maxFileSize = 1 * 1024 * 1024

// Sigma configures sigma points
type Sigma struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Kappa float64 `yaml:"kappa"`
	// Sqrt is covariance square root: cholesky, svd or eigen
	Sqrt string `yaml:"sqrt"`
}

// Initial configures initial state estimate
type Initial struct {
	// Mean is initial state mean
	Mean []float64 `yaml:"mean"`
	// Std are standard deviations of initial state
	Std []float64 `yaml:"std"`
}

// Process configures process noise
type Process struct {
	// Noise are per-step variances of state elements
	Noise []float64 `yaml:"noise"`
	// Jerk are white acceleration increment densities of x, y and theta axes
	Jerk []float64 `yaml:"jerk"`
}

// Simulation configures simulation runs
type Simulation struct {
	Step         time.Duration `yaml:"step"`
	Duration     time.Duration `yaml:"duration"`
	HeadingEvery int           `yaml:"heading_every"`
	Seed         uint64        `yaml:"seed"`
	Speed        float64       `yaml:"speed"`
	TurnRate     float64       `yaml:"turn_rate"`
	Period       time.Duration `yaml:"period"`
}

// Config is odometry tuning configuration
type Config struct {
	Sigma      Sigma           `yaml:"sigma"`
	Initial    Initial         `yaml:"initial"`
	Process    Process         `yaml:"process"`
	Dimensions odom.Dimensions `yaml:"dimensions"`
	Sensors    sim.SensorNoise `yaml:"sensors"`
	Simulation Simulation      `yaml:"simulation"`
}

// Default returns default configuration of the reference platform
func Default() *Config {
	return &Config{
		Sigma: Sigma{
			Alpha: 1.0,
			Beta:  2.0,
			Kappa: 0.0,
			Sqrt:  "eigen",
		},
		Initial: Initial{
			Std: []float64{0.01, 0.1, 0.1, 0.01, 0.1, 0.1, 0.01, 0.1, 0.1},
		},
		Process: Process{
			Noise: []float64{1e-6, 1e-6, 1e-6, 1e-6, 1e-6, 1e-6, 1e-6, 1e-6, 1e-6},
			Jerk:  []float64{1.0, 1.0, 1.0},
		},
		Dimensions: odom.DefaultDimensions(),
		Sensors: sim.SensorNoise{
			Drive:    0.02,
			Tracking: 0.01,
			Heading:  0.01,
			Inertial: 0.1,
		},
		Simulation: Simulation{
			Step:         10 * time.Millisecond,
			Duration:     20 * time.Second,
			HeadingEvery: 10,
			Seed:         1,
			Speed:        1.0,
			TurnRate:     0.5,
			Period:       8 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file at path.
// Fields omitted from the file retain their default values.
// It returns error if the file can not be read or parsed or if the configuration is invalid.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := strings.ToLower(filepath.Ext(cleanPath)); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if _, err := sqrtFunc(c.Sigma.Sqrt); err != nil {
		return err
	}

	if c.Initial.Mean != nil && len(c.Initial.Mean) != odom.Dim {
		return fmt.Errorf("initial.mean must have %d values, got %d", odom.Dim, len(c.Initial.Mean))
	}

	if len(c.Initial.Std) != odom.Dim {
		return fmt.Errorf("initial.std must have %d values, got %d", odom.Dim, len(c.Initial.Std))
	}

	for i, s := range c.Initial.Std {
		if !(s > 0) || math.IsInf(s, 0) {
			return fmt.Errorf("initial.std[%d] must be positive, got %v", i, s)
		}
	}

	if c.Process.Noise != nil && len(c.Process.Noise) != odom.Dim {
		return fmt.Errorf("process.noise must have %d values, got %d", odom.Dim, len(c.Process.Noise))
	}

	for i, v := range c.Process.Noise {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("process.noise[%d] must be non-negative, got %v", i, v)
		}
	}

	if err := c.Sensors.Validate(); err != nil {
		return fmt.Errorf("sensors: %w", err)
	}

	if _, err := c.SimConfig(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	oc, err := c.OdomConfig()
	if err != nil {
		return err
	}

	return oc.Validate()
}

func sqrtFunc(name string) (sigma.SqrtFunc, error) {
	switch strings.ToLower(name) {
	case "cholesky":
		return sigma.Cholesky, nil
	case "svd":
		return sigma.SVD, nil
	case "", "eigen":
		return sigma.Eigen, nil
	}

	return nil, fmt.Errorf("unknown sigma.sqrt: %q", name)
}

func diag(vals []float64, square bool) *mat.SymDense {
	m := mat.NewSymDense(len(vals), nil)
	for i, v := range vals {
		if square {
			v *= v
		}
		m.SetSym(i, i, v)
	}

	return m
}

// OdomConfig returns odometry filter configuration.
func (c *Config) OdomConfig() (*odom.Config, error) {
	sqrt, err := sqrtFunc(c.Sigma.Sqrt)
	if err != nil {
		return nil, err
	}

	if len(c.Initial.Std) != odom.Dim {
		return nil, fmt.Errorf("initial.std must have %d values, got %d", odom.Dim, len(c.Initial.Std))
	}

	oc := &odom.Config{
		Sigma: sigma.Config{
			Alpha: c.Sigma.Alpha,
			Beta:  c.Sigma.Beta,
			Kappa: c.Sigma.Kappa,
			Sqrt:  sqrt,
		},
		InitialMean: append([]float64(nil), c.Initial.Mean...),
		InitialCov:  diag(c.Initial.Std, true),
		JerkNoise:   append([]float64(nil), c.Process.Jerk...),
		Dimensions:  c.Dimensions,
	}

	if len(c.Process.Noise) > 0 {
		oc.ProcessNoise = diag(c.Process.Noise, false)
	}

	return oc, nil
}

// SensorNoise returns sensor noise configuration
func (c *Config) SensorNoise() sim.SensorNoise {
	return c.Sensors
}

// SimConfig returns simulation configuration driving a slalom profile.
func (c *Config) SimConfig() (*sim.Config, error) {
	s := c.Simulation
	if s.Period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %v", s.Period)
	}

	sc := &sim.Config{
		Step:         s.Step,
		Duration:     s.Duration,
		HeadingEvery: s.HeadingEvery,
		Profile:      sim.Slalom(s.Speed, s.TurnRate, s.Period),
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return sc, nil
}
