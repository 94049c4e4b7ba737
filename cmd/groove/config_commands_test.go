package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"groove/internal/config"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatalf("expected error for existing config without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.configPath); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[paths]")
	requireContains(t, out, env.cfg.Paths.DataDir)

	out, _, err = runCLI(t, []string{"config", "show", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("config show --json: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("decode show output: %v", err)
	}
	if cfg.Paths.DataDir != env.cfg.Paths.DataDir {
		t.Fatalf("shown data dir = %q, want %q", cfg.Paths.DataDir, env.cfg.Paths.DataDir)
	}
}

func TestConfigPath(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, []string{"config", "path"}, env.configPath)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, env.configPath)

	out, _, err = runCLI(t, []string{"config", "path"}, "")
	if err != nil {
		t.Fatalf("config path without flag: %v", err)
	}
	requireContains(t, out, "config.toml")
}
