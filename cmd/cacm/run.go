// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencacm/adk/pkg/agents"
	"github.com/opencacm/adk/pkg/cacm"
	"github.com/opencacm/adk/pkg/catalog"
	"github.com/opencacm/adk/pkg/config"
	"github.com/opencacm/adk/pkg/llm"
	"github.com/opencacm/adk/pkg/orchestrator"
	"github.com/opencacm/adk/pkg/skills"
	"github.com/opencacm/adk/pkg/telemetry"
)

type runResult struct {
	RunID        string                    `json:"run_id"`
	CACMID       string                    `json:"cacm_id"`
	Success      bool                      `json:"success"`
	State        orchestrator.RunState     `json:"state"`
	Outputs      map[string]any            `json:"outputs"`
	Intermediate map[string]any            `json:"intermediate,omitempty"`
	Steps        []orchestrator.StepReport `json:"steps"`
	Log          []orchestrator.LogEntry   `json:"log,omitempty"`
}

func runRun(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("run", flag.ContinueOnError)
	catalogPath := cmd.String("catalog", cfg.Catalog.Path, "Capability catalog document")
	var inputs multiFlag
	cmd.Var(&inputs, "input", "Override a declared input (k=v, repeatable)")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}
	if cmd.NArg() != 1 {
		fatal(fmt.Errorf("usage: cacm run <instance> [--catalog path] [--input k=v]"))
	}

	shutdown, err := telemetry.InitWithConfig("cacm", version, telemetry.Config{
		Exporter:           cfg.Telemetry.Exporter,
		OTLPEndpoint:       cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:       cfg.Telemetry.OTLPInsecure,
		OTLPTimeoutSeconds: cfg.Telemetry.OTLPTimeoutSeconds,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	inst, err := cacm.LoadInstance(cmd.Arg(0))
	if err != nil {
		fatal(err)
	}
	if err := applyInputOverrides(inst, inputs); err != nil {
		fatal(err)
	}

	o, cleanup, err := buildOrchestrator(cfg, *catalogPath)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	report := o.Run(ctx, inst)
	printReport(global.JSON, report)
	if !report.Success {
		os.Exit(1)
	}
}

// buildOrchestrator wires catalog, skill plugins, agent manager and the run
// store from configuration. The returned cleanup closes the store.
func buildOrchestrator(cfg *config.Config, catalogPath string) (*orchestrator.Orchestrator, func(), error) {
	logger := slog.Default()
	cat := catalog.Load(catalogPath, logger)

	registry := skills.NewRegistry()
	if em, err := telemetry.NewErrorMetrics(); err == nil {
		registry.SetErrorMetrics(em)
	}
	if len(cfg.Skills.Dirs) > 0 {
		provider := buildProvider(cfg.LLM)
		for _, dir := range cfg.Skills.Dirs {
			plugin, err := skills.NewPromptPluginFromDir(provider, dir,
				skills.WithDefaultModel(cfg.LLM.Model))
			if err != nil {
				return nil, nil, fmt.Errorf("load skills from %s: %w", dir, err)
			}
			registry.Register(filepath.Base(filepath.Clean(dir)), plugin)
		}
	}

	manager := agents.NewManager(cat, registry, logger,
		agents.WithMaxDelegationDepth(cfg.Orchestrator.MaxDelegationDepth))

	var store orchestrator.RunStore
	cleanup := func() {}
	if cfg.Store.Driver == "sqlite" {
		sqlStore, err := orchestrator.OpenSQLiteRunStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open run store: %w", err)
		}
		store = sqlStore
		cleanup = func() { _ = sqlStore.Close() }
	}

	o, err := orchestrator.New(orchestrator.Config{
		Agents:      manager,
		Store:       store,
		Logger:      logger,
		StepTimeout: cfg.Orchestrator.StepTimeout(),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return o, cleanup, nil
}

func buildProvider(cfg config.LLMConfig) llm.Provider {
	switch cfg.Provider {
	case "mock":
		return &llm.MockProvider{Response: "mock response"}
	default:
		return llm.NewOllama(cfg.BaseURL)
	}
}

// applyInputOverrides replaces declared input values with k=v pairs from the
// command line. Unknown keys are rejected so typos surface before the run.
func applyInputOverrides(inst *cacm.Instance, overrides []string) error {
	for _, raw := range overrides {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --input value: %s", raw)
		}
		def, declared := inst.Inputs[key]
		if !declared {
			return fmt.Errorf("--input %s: not a declared input", key)
		}
		def.Value = value
		inst.Inputs[key] = def
	}
	return nil
}

func printReport(asJSON bool, report *orchestrator.Report) {
	if asJSON {
		result := runResult{
			RunID:        report.RunID,
			CACMID:       report.CACMID,
			Success:      report.Success,
			State:        report.State,
			Outputs:      report.Outputs,
			Intermediate: report.Intermediate,
			Steps:        report.Steps,
		}
		if report.Log != nil {
			result.Log = report.Log.Entries()
		}
		printJSON(result)
		return
	}

	fmt.Printf("run %s (%s): %s\n", report.RunID, report.CACMID, report.State)

	writer := newTabWriter()
	writeRow(writer, "STEP", "CAPABILITY", "STATE", "DURATION", "ERROR")
	for _, step := range report.Steps {
		writeRow(writer, step.StepID, step.CapabilityRef, string(step.State),
			formatDuration(step.Duration()), step.Error)
	}
	_ = writer.Flush()

	if len(report.Outputs) > 0 {
		fmt.Println("\nOutputs:")
		writer = newTabWriter()
		for name, value := range report.Outputs {
			writeRow(writer, name, fmt.Sprintf("%v", value))
		}
		_ = writer.Flush()
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
