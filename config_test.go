package fiber

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("missing file should yield defaults: got %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	data := []byte("[stack]\ninitial_size = 64\n\n[debug]\nverify_instrumentation = true\nrecord_level = 2\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Stack.InitialSize != 64 {
		t.Errorf("initial_size: got %d, want 64", cfg.Stack.InitialSize)
	}
	if !cfg.Debug.VerifyInstrumentation {
		t.Error("verify_instrumentation not set")
	}
	if cfg.Debug.RecordLevel != 2 {
		t.Errorf("record_level: got %d, want 2", cfg.Debug.RecordLevel)
	}

	s := cfg.NewStack(nil)
	if got := len(s.prim); got != 64+frameRecordSize*initialMethodStackDepth {
		t.Errorf("configured stack capacity: got %d", got)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FIBER_STACK_SIZE", "128")
	t.Setenv("FIBER_RECORD_LEVEL", "3")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Stack.InitialSize != 128 {
		t.Errorf("initial_size from env: got %d, want 128", cfg.Stack.InitialSize)
	}
	if cfg.Debug.RecordLevel != 3 {
		t.Errorf("record_level from env: got %d, want 3", cfg.Debug.RecordLevel)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	malformed := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(malformed, []byte("[stack\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(malformed); err == nil {
		t.Error("malformed TOML did not error")
	}

	negative := filepath.Join(dir, "negative.toml")
	if err := os.WriteFile(negative, []byte("[stack]\ninitial_size = -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(negative); err == nil {
		t.Error("non-positive initial_size did not error")
	}
}
