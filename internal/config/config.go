package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Benchmark  BenchmarkConfig  `yaml:"benchmark"`
}

type ReconcilerConfig struct {
	// Development enables diagnostics such as unrecognized element warnings.
	Development bool   `yaml:"development"`
	LogLevel    string `yaml:"log_level"`
}

type SchedulerConfig struct {
	TimeSlice time.Duration `yaml:"time_slice"`
}

type BenchmarkConfig struct {
	Widths     []int `yaml:"widths"`
	Depths     []int `yaml:"depths"`
	Iterations int   `yaml:"iterations"`
}

func Default() Config {
	return Config{
		Reconciler: ReconcilerConfig{LogLevel: "info"},
		Scheduler:  SchedulerConfig{TimeSlice: 5 * time.Millisecond},
		Benchmark: BenchmarkConfig{
			Widths:     []int{1, 10, 100},
			Depths:     []int{1, 10, 100},
			Iterations: 100,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Scheduler.TimeSlice <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.time_slice must be positive, got %s", c.Scheduler.TimeSlice))
	}
	if c.Benchmark.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("benchmark.iterations must be positive, got %d", c.Benchmark.Iterations))
	}
	for _, w := range c.Benchmark.Widths {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("benchmark.widths must be positive, got %d", w))
		}
	}
	for _, d := range c.Benchmark.Depths {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("benchmark.depths must be positive, got %d", d))
		}
	}
	return errors.Join(errs...)
}
