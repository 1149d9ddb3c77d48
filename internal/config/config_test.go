package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.MdstatPath != "/proc/mdstat" || cfg.MountsPath != "/proc/mounts" {
		t.Fatalf("pseudo-file defaults: %+v", cfg)
	}
	if cfg.CcissGlob != "/dev/cciss/c*d0" {
		t.Fatalf("cciss glob default: %q", cfg.CcissGlob)
	}
	if cfg.DirtyConfig {
		t.Fatalf("dirty config must default off")
	}
}

func TestYAMLAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "plugins.yaml")
	data := []byte("" +
		"mdstat: /tmp/mdstat\n" +
		"mounts: /tmp/mounts\n" +
		"ccissGlob: /dev/sg*\n" +
		"chronyc: /opt/chrony/bin/chronyc\n" +
		"logLevel: debug\n")
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Load(cfgPath)
	if cfg.MdstatPath != "/tmp/mdstat" || cfg.MountsPath != "/tmp/mounts" {
		t.Fatalf("paths from yaml: %+v", cfg)
	}
	if cfg.CcissGlob != "/dev/sg*" {
		t.Fatalf("glob from yaml: %q", cfg.CcissGlob)
	}
	if cfg.Chronyc != "/opt/chrony/bin/chronyc" {
		t.Fatalf("chronyc from yaml: %q", cfg.Chronyc)
	}
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("log level from yaml: %v", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.BtrfsTool != "btrfs" {
		t.Fatalf("btrfs default lost: %q", cfg.BtrfsTool)
	}

	t.Setenv("MUNIN_MDSTAT", "/override/mdstat")
	t.Setenv("MUNIN_CAP_DIRTYCONFIG", "1")
	cfg2 := Load(cfgPath)
	if cfg2.MdstatPath != "/override/mdstat" {
		t.Fatalf("env must override yaml: %q", cfg2.MdstatPath)
	}
	if !cfg2.DirtyConfig {
		t.Fatalf("dirtyconfig cap not picked up")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.MdstatPath != "/proc/mdstat" {
		t.Fatalf("missing file must fall back to defaults: %+v", cfg)
	}
}
