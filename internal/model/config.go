package model

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

const (
	ConsoleAuto = "auto"
	ConsoleNew  = "new"
	ConsolePipe = "pipe"

	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"

	// PythonVar is replaced by the resolved interpreter in service commands.
	PythonVar = "PYTHON"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

type Config struct {
	Version     int             `json:"version" yaml:"version"` // fixed 0 for now
	Project     string          `json:"project" yaml:"project"` // banner title
	Verbose     bool            `json:"verbose" yaml:"verbose"`
	Log         string          `json:"log" yaml:"log"` // "stderr"|"stdout"|"discard"|path
	Interpreter string          `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	Console     string          `json:"console" yaml:"console"` // "auto"|"new"|"pipe"
	Timing      Timing          `json:"timing" yaml:"timing"`
	Metrics     *Metrics        `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Services    []ServiceConfig `json:"services" yaml:"services"`

	// Root is the directory relative service dirs are resolved against.
	// It is not part of the file; LoadFile sets it to the config directory.
	Root string `json:"-" yaml:"-"`
}

// Timing holds the fixed delays of a launcher run as duration strings.
type Timing struct {
	CrashWindow  string `json:"crash_window" yaml:"crash_window"`
	LaunchDelay  string `json:"launch_delay" yaml:"launch_delay"`
	GracePeriod  string `json:"grace_period" yaml:"grace_period"`
	PollInterval string `json:"poll_interval" yaml:"poll_interval"`
}

type Metrics struct {
	Addr string `json:"addr" yaml:"addr"` // empty disables the endpoint
}

// ServiceConfig describes one externally launched program.
type ServiceConfig struct {
	Name    string            `json:"name" yaml:"name"`
	Port    int               `json:"port" yaml:"port"` // informational only
	Command []string          `json:"command" yaml:"command,flow"`
	Dir     string            `json:"dir" yaml:"dir"`
	URL     string            `json:"url" yaml:"url"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Durations is the parsed form of Timing.
type Durations struct {
	CrashWindow  time.Duration
	LaunchDelay  time.Duration
	GracePeriod  time.Duration
	PollInterval time.Duration
}

func DefaultDurations() Durations {
	return Durations{
		CrashWindow:  500 * time.Millisecond,
		LaunchDelay:  time.Second,
		GracePeriod:  2 * time.Second,
		PollInterval: time.Second,
	}
}

// Durations parses the timing strings. Empty values fall back to
// DefaultDurations.
func (t Timing) Durations() (Durations, error) {
	d := DefaultDurations()
	for _, f := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"timing.crash_window", t.CrashWindow, &d.CrashWindow},
		{"timing.launch_delay", t.LaunchDelay, &d.LaunchDelay},
		{"timing.grace_period", t.GracePeriod, &d.GracePeriod},
		{"timing.poll_interval", t.PollInterval, &d.PollInterval},
	} {
		if f.raw == "" {
			continue
		}
		v, err := time.ParseDuration(f.raw)
		if err != nil {
			return Durations{}, fmt.Errorf("parsing %s: %w", f.key, err)
		}
		if v <= 0 {
			return Durations{}, fmt.Errorf("%s must be positive, got %s", f.key, f.raw)
		}
		*f.dst = v
	}
	return d, nil
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (*Config, error) {
	yamlFile, err := yaml.Extract("devlauncher.yaml", r)
	if err != nil {
		return nil, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return nil, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return nil, err
	}

	return &out, nil
}

// LoadFile reads the config at path and sets Root to its directory.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, err := LoadConfig(f)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.Root = filepath.Dir(abs)
	return cfg, nil
}

// DefaultConfig returns the built-in service list of the showcase project,
// rooted at the current working directory.
func DefaultConfig(_ context.Context) Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	python := "$" + PythonVar
	return Config{
		Version: 0,
		Project: "Unity Showcase",
		Log:     LogStderr,
		Console: ConsoleAuto,
		Timing: Timing{
			CrashWindow:  "500ms",
			LaunchDelay:  "1s",
			GracePeriod:  "2s",
			PollInterval: "1s",
		},
		Services: []ServiceConfig{
			{
				Name:    "Gateway API",
				Port:    8000,
				Command: []string{python, "gateway_api.py"},
				Dir:     "ai-backend",
				URL:     "http://localhost:8000",
			},
			{
				Name:    "RAG Backend",
				Port:    8001,
				Command: []string{python, "main.py"},
				Dir:     filepath.Join("ai-backend", "E-commerce-Arabic-RAG"),
				URL:     "http://localhost:8001",
			},
			{
				Name:    "TTS API",
				Port:    8002,
				Command: []string{python, "run.py"},
				Dir:     filepath.Join("ai-backend", "TTS_API"),
				URL:     "http://localhost:8002",
			},
			{
				Name:    "Frontend (Vite)",
				Port:    5173,
				Command: []string{"npm", "run", "dev"},
				Dir:     "vite-project",
				URL:     "http://localhost:5173",
			},
		},
		Root: root,
	}
}
