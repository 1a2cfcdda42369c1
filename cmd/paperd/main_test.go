package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paperd.toml")
	body := "listen = \"127.0.0.1:9001\"\nadmin = \"ed25519:file\"\nmax_clock_skew = \"1m\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PAPERD_ADMIN", "ed25519:env")
	t.Setenv("PAPERD_DB", "/tmp/env.db")

	var errOut bytes.Buffer
	cfg, err := loadConfig([]string{"--config", path, "--db", "/tmp/flag.db", "--content-dirs", " /c1, ,/c2,"}, &errOut)
	if err != nil {
		t.Fatalf("loadConfig: %v (%s)", err, errOut.String())
	}
	if cfg.Listen != "127.0.0.1:9001" {
		t.Fatalf("Listen = %q, want file value", cfg.Listen)
	}
	if cfg.Admin != "ed25519:env" {
		t.Fatalf("Admin = %q, want env value", cfg.Admin)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("DBPath = %q, want flag value", cfg.DBPath)
	}
	if len(cfg.ContentDirs) != 2 || cfg.ContentDirs[0] != "/c1" || cfg.ContentDirs[1] != "/c2" {
		t.Fatalf("ContentDirs = %v", cfg.ContentDirs)
	}
	if cfg.MaxClockSkew != time.Minute {
		t.Fatalf("MaxClockSkew = %v", cfg.MaxClockSkew)
	}
}

func TestRunRejectsMissingAdmin(t *testing.T) {
	t.Setenv("PAPERD_ADMIN", "")
	var errOut bytes.Buffer
	code := run(t.Context(), []string{"--db", filepath.Join(t.TempDir(), "x.db")}, &errOut)
	if code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	if !strings.Contains(errOut.String(), "admin identity is required") {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestLoadConfigRejectsBlankContentDirs(t *testing.T) {
	t.Setenv("PAPERD_ADMIN", "ed25519:env")
	var errOut bytes.Buffer
	_, err := loadConfig([]string{"--content-dirs", " , "}, &errOut)
	if err == nil || !strings.Contains(err.Error(), "at least one content dir is required") {
		t.Fatalf("loadConfig err = %v", err)
	}
}
