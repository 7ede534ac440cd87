package fiber

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the conventional name of the tuning file.
const ConfigFileName = "fiber.toml"

// Config carries the process-wide tuning knobs. Everything has a working
// default; the file and the FIBER_* environment variables only override.
type Config struct {
	Stack StackConfig `toml:"stack"`
	Debug DebugConfig `toml:"debug"`
}

type StackConfig struct {
	// InitialSize is the slot capacity new stacks start with.
	InitialSize int `toml:"initial_size"`
}

type DebugConfig struct {
	// VerifyInstrumentation enables the range checks in PushMethod.
	VerifyInstrumentation bool `toml:"verify_instrumentation"`

	// RecordLevel is the trace recording level, 0 disables tracing.
	RecordLevel int `toml:"record_level"`
}

// DefaultConfig returns the production defaults: 16 slots, no verification,
// no tracing.
func DefaultConfig() Config {
	return Config{Stack: StackConfig{InitialSize: 16}}
}

// LoadConfig reads a Config from path, then applies environment overrides.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("fiber: read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("fiber: parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Stack.InitialSize <= 0 {
		return cfg, fmt.Errorf("fiber: initial_size must be positive, got %d", cfg.Stack.InitialSize)
	}
	if cfg.Debug.RecordLevel < 0 {
		return cfg, fmt.Errorf("fiber: record_level must not be negative, got %d", cfg.Debug.RecordLevel)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FIBER_STACK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Stack.InitialSize = n
		}
	}
	if v := os.Getenv("FIBER_VERIFY_INSTRUMENTATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug.VerifyInstrumentation = b
		}
	}
	if v := os.Getenv("FIBER_RECORD_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Debug.RecordLevel = n
		}
	}
}

// Apply installs the debug settings process-wide.
func (c Config) Apply() {
	SetVerifyInstrumentation(c.Debug.VerifyInstrumentation)
}

// NewStack creates a Stack for owner using the configured initial size.
func (c Config) NewStack(owner Owner) *Stack {
	return New(owner, c.Stack.InitialSize)
}

// NewRecorder creates a LogRecorder at the configured recording level.
func (c Config) NewRecorder() *LogRecorder {
	return NewLogRecorder(c.Debug.RecordLevel)
}
