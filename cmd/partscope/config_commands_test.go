package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"partscope/internal/config"
)

func TestConfigInitRefusesOverwrite(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[classifier]") {
		t.Fatalf("sample config missing classifier section")
	}

	if _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) { cfg.Server.APIToken = "hunter2" })

	out := env.mustRun(t, "config", "show")
	requireContains(t, out, "# "+env.configPath, "[classifier]", "api_token", redacted)
	if strings.Contains(out, "hunter2") {
		t.Fatalf("secret leaked in output:\n%s", out)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.mustRun(t, "config", "validate")
	requireContains(t, out, "Configuration valid", env.configPath)
}
