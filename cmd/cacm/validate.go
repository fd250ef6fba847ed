// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/opencacm/adk/pkg/cacm"
)

type validationResult struct {
	Instance string       `json:"instance"`
	CACMID   string       `json:"cacm_id,omitempty"`
	Valid    bool         `json:"valid"`
	Issues   []cacm.Issue `json:"issues,omitempty"`
}

func runValidate(global globalFlags, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("usage: cacm validate <instance>"))
	}

	inst, err := cacm.LoadInstance(args[0])
	if err != nil {
		fatal(err)
	}
	issues := cacm.NewStructValidator().Validate(inst)

	result := validationResult{
		Instance: args[0],
		CACMID:   inst.ID,
		Valid:    len(issues) == 0,
		Issues:   issues,
	}
	if global.JSON {
		printJSON(result)
	} else if result.Valid {
		fmt.Printf("%s: valid (%d steps)\n", inst.ID, len(inst.Workflow))
	} else {
		fmt.Printf("%s: %d issue(s)\n", inst.ID, len(issues))
		writer := newTabWriter()
		writeRow(writer, "PATH", "MESSAGE")
		for _, issue := range issues {
			writeRow(writer, issue.Path, issue.Message)
		}
		_ = writer.Flush()
	}

	if !result.Valid {
		os.Exit(1)
	}
}
