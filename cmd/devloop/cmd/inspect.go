/*
Copyright 2025 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/GoogleContainerTools/devloop/pkg/config"
	"github.com/GoogleContainerTools/devloop/pkg/directive"
	"github.com/GoogleContainerTools/devloop/pkg/dockerfile"
	"github.com/GoogleContainerTools/devloop/pkg/timing"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the stages and resolved dev directives of a Dockerfile as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInspect(opts, os.Stdout); err != nil {
			exit(err)
		}
		writeBenchmark()
	},
}

// stageReport is the harness-facing description of one stage.
type stageReport struct {
	Index      int               `json:"index"`
	Name       string            `json:"name,omitempty"`
	BaseName   string            `json:"baseName"`
	Directives []directiveReport `json:"directives,omitempty"`
	DevEnv     map[string]string `json:"devEnv,omitempty"`
	DevCmdLive string            `json:"devCmdLive,omitempty"`
}

type directiveReport struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Line  int    `json:"line"`
}

func runInspect(opts *config.DevloopOptions, out io.Writer) error {
	d, err := readDockerfile(opts)
	if err != nil {
		return err
	}
	stages := d.Stages
	if opts.Target != "" {
		stage, err := d.Target(opts.Target)
		if err != nil {
			return err
		}
		stages = []dockerfile.Stage{*stage}
	}

	t := timing.Start("Resolving directives")
	defer timing.DefaultRun.Stop(t)

	ignored := map[string]bool{}
	for _, k := range opts.IgnoredKeys() {
		ignored[k] = true
	}
	reports := make([]stageReport, 0, len(stages))
	for _, stage := range stages {
		r := stageReport{Index: stage.Index, Name: stage.Name, BaseName: stage.BaseName}
		for _, dir := range stage.Directives {
			if ignored[dir.Key] {
				continue
			}
			r.Directives = append(r.Directives, directiveReport(dir))
		}
		if !ignored[directive.DevEnv] {
			v, found, err := directive.Resolve(stage, directive.DevEnv)
			if err != nil {
				return err
			}
			if ev, ok := v.(directive.EnvValue); found && ok {
				r.DevEnv = ev.Map()
			}
		}
		if !ignored[directive.DevCmdLive] {
			v, found, err := directive.Resolve(stage, directive.DevCmdLive)
			if err != nil {
				return err
			}
			if cv, ok := v.(directive.CmdValue); found && ok {
				r.DevCmdLive = cv.Command
			}
		}
		reports = append(reports, r)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
