// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/opencacm/adk/pkg/catalog"
	"github.com/opencacm/adk/pkg/config"
)

func runCatalog(global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: cacm catalog <list|show> [--path p]"))
	}

	cmd := flag.NewFlagSet("catalog", flag.ContinueOnError)
	path := cmd.String("path", cfg.Catalog.Path, "Capability catalog document")
	if err := cmd.Parse(args[1:]); err != nil {
		fatal(err)
	}
	cat := catalog.Load(*path, slog.Default())

	switch args[0] {
	case "list":
		listCapabilities(global, cat)
	case "show":
		if cmd.NArg() != 1 {
			fatal(fmt.Errorf("usage: cacm catalog show <id> [--path p]"))
		}
		showCapability(global, cat, cmd.Arg(0))
	default:
		fatal(fmt.Errorf("unknown catalog command %q", args[0]))
	}
}

func listCapabilities(global globalFlags, cat *catalog.Catalog) {
	if global.JSON {
		descs := make([]catalog.Descriptor, 0, cat.Len())
		for _, id := range cat.IDs() {
			if d, ok := cat.Lookup(id); ok {
				descs = append(descs, d)
			}
		}
		printJSON(descs)
		return
	}

	writer := newTabWriter()
	writeRow(writer, "ID", "AGENT", "SKILL", "DESCRIPTION")
	for _, id := range cat.IDs() {
		d, ok := cat.Lookup(id)
		if !ok {
			continue
		}
		skill := ""
		if d.DefaultSkill != nil {
			skill = d.DefaultSkill.Plugin + "." + d.DefaultSkill.Function
		}
		writeRow(writer, d.ID, d.AgentType, skill, d.Description)
	}
	_ = writer.Flush()
}

func showCapability(global globalFlags, cat *catalog.Catalog, id string) {
	d, ok := cat.Lookup(id)
	if !ok {
		fatal(fmt.Errorf("capability %q not found", id))
	}
	if global.JSON {
		printJSON(d)
		return
	}

	fmt.Printf("id:          %s\n", d.ID)
	fmt.Printf("agent type:  %s\n", d.AgentType)
	if d.Description != "" {
		fmt.Printf("description: %s\n", d.Description)
	}
	if d.DefaultSkill != nil {
		fmt.Printf("skill:       %s.%s\n", d.DefaultSkill.Plugin, d.DefaultSkill.Function)
	}
	if len(d.Inputs) > 0 {
		fmt.Println("inputs:")
		for _, p := range d.Inputs {
			fmt.Printf("  %s (%s) %s\n", p.Name, p.Type, p.Description)
		}
	}
	if len(d.Outputs) > 0 {
		fmt.Println("outputs:")
		for _, p := range d.Outputs {
			fmt.Printf("  %s (%s) %s\n", p.Name, p.Type, p.Description)
		}
	}
}
