package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithCLIOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`llm:
  provider: ollama
  model: model-a
telemetry:
  exporter: stdout
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CACM_LLM_PROVIDER", "openai")

	cfg, err := LoadWithCLI([]string{
		"--config", path,
		"--set", "llm.provider=mock",
		"--set", "orchestrator.step_timeout_seconds=12",
		"--set", "telemetry.otlp_insecure=true",
		"--set", `skills.dirs=["./skills","./extra"]`,
	})
	if err != nil {
		t.Fatalf("LoadWithCLI failed: %v", err)
	}
	if cfg.LLM.Provider != "mock" {
		t.Fatalf("expected cli override to win, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "model-a" {
		t.Fatalf("file value should survive, got %s", cfg.LLM.Model)
	}
	if cfg.Orchestrator.StepTimeoutSeconds != 12 {
		t.Fatalf("expected step timeout override, got %d", cfg.Orchestrator.StepTimeoutSeconds)
	}
	if !cfg.Telemetry.OTLPInsecure {
		t.Fatal("expected telemetry.otlp_insecure=true")
	}
	if len(cfg.Skills.Dirs) != 2 || cfg.Skills.Dirs[1] != "./extra" {
		t.Fatalf("unexpected skill dirs: %v", cfg.Skills.Dirs)
	}
}

func TestParseCLIOverridesErrors(t *testing.T) {
	if _, _, err := parseCLIOverrides([]string{"--config"}); err == nil {
		t.Fatalf("expected error for missing --config value")
	}
	if _, _, err := parseCLIOverrides([]string{"--set"}); err == nil {
		t.Fatalf("expected error for missing --set value")
	}
	if _, _, err := parseCLIOverrides([]string{"--set", "invalid"}); err == nil {
		t.Fatalf("expected error for invalid --set value")
	}
}
