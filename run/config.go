package run

import (
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/steplens/steplens/trace"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration of a tracing pass.
type Config struct {
	StepBudget int    `yaml:"step-budget"`
	TraceLevel string `yaml:"trace-level"` // error, info or debug
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		StepBudget: trace.DefaultStepBudget,
		TraceLevel: "error",
	}
}

// LoadConfig reads a YAML configuration file. Keys the file does not set
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, err
	}
	return c, nil
}

// Level maps the configured trace level onto the tracing backend's.
func (c Config) Level() tracing.TraceLevel {
	switch strings.ToLower(c.TraceLevel) {
	case "debug":
		return tracing.LevelDebug
	case "info":
		return tracing.LevelInfo
	}
	return tracing.LevelError
}

// traceKeys lists every tracer of this module.
var traceKeys = []string{
	"steplens.script",
	"steplens.interp",
	"steplens.trace",
	"steplens.writes",
	"steplens.check",
	"steplens.normalize",
	"steplens.run",
}

// ApplyTracing sets the configured level on all module tracers.
func (c Config) ApplyTracing() {
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(c.Level())
	}
}
