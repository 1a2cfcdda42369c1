package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paperd.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultNeedsAdmin(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "admin") {
		t.Fatalf("Validate = %v, want admin error", err)
	}
	cfg.Admin = "ed25519:admin"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFileOverlaysDefinedKeys(t *testing.T) {
	path := writeFile(t, `
listen = "0.0.0.0:9000"
content_dirs = ["/a", " ", "/b"]
admin = " ed25519:root "
max_clock_skew = "30s"
`)
	cfg, err := LoadFile(Default(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Fatalf("Listen = %q", cfg.Listen)
	}
	if cfg.DBPath != Default().DBPath {
		t.Fatalf("DBPath = %q, want default", cfg.DBPath)
	}
	if len(cfg.ContentDirs) != 2 || cfg.ContentDirs[1] != "/b" {
		t.Fatalf("ContentDirs = %v", cfg.ContentDirs)
	}
	if cfg.Admin != "ed25519:root" || cfg.MaxClockSkew != 30*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadFileRejectsUnknownKeysAndBadDurations(t *testing.T) {
	if _, err := LoadFile(Default(), writeFile(t, `listn = "x"`)); err == nil {
		t.Fatalf("unknown key accepted")
	}
	if _, err := LoadFile(Default(), writeFile(t, `max_clock_skew = "soon"`)); err == nil {
		t.Fatalf("bad duration accepted")
	}
	if _, err := LoadFile(Default(), filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestApplyEnvOverridesOnlySetVariables(t *testing.T) {
	base := Default()
	base.Admin = "ed25519:file"
	cfg, err := ApplyEnvFrom(base, map[string]string{
		"PAPERD_CONTENT_DIRS":   "/x, /y",
		"PAPERD_MAX_CLOCK_SKEW": "5s",
		"PAPERD_LOG_LEVEL":      "debug",
	})
	if err != nil {
		t.Fatalf("ApplyEnvFrom: %v", err)
	}
	if cfg.Admin != "ed25519:file" || cfg.Listen != base.Listen {
		t.Fatalf("unset variables changed config: %+v", cfg)
	}
	if len(cfg.ContentDirs) != 2 || cfg.ContentDirs[0] != "/x" || cfg.ContentDirs[1] != "/y" {
		t.Fatalf("ContentDirs = %v", cfg.ContentDirs)
	}
	if cfg.MaxClockSkew != 5*time.Second || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := ApplyEnvFrom(base, map[string]string{"PAPERD_MAX_MSG_BYTES": "lots"}); err == nil {
		t.Fatalf("bad int accepted")
	}
}

func TestApplyEnvReadsProcessEnvironment(t *testing.T) {
	t.Setenv("PAPERD_ADMIN", "ed25519:env")
	cfg, err := ApplyEnv(Default())
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Admin != "ed25519:env" {
		t.Fatalf("Admin = %q", cfg.Admin)
	}
}

func TestParseDirsDropsBlankEntries(t *testing.T) {
	got := ParseDirs(" a ,, b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("ParseDirs = %q, want [a b]", got)
	}
	if got := ParseDirs(""); len(got) != 0 {
		t.Fatalf("ParseDirs(\"\") = %q, want empty", got)
	}
}
