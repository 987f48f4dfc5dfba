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

// Package overlay derives the "live" instruction sequence of a stage: the
// stage's dev-env entries merged over its ENV instructions and its
// dev-cmd-live command replacing the final CMD/ENTRYPOINT. The overlay is a
// pure function of the stage and is idempotent, so a harness can feed its
// output back in without drift.
package overlay

import (
	"sort"
	"strings"

	"github.com/GoogleContainerTools/devloop/pkg/directive"
	"github.com/GoogleContainerTools/devloop/pkg/dockerfile"
	"github.com/moby/buildkit/frontend/dockerfile/command"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type settings struct {
	registry directive.Registry
	extraEnv map[string]string
	ignored  map[string]bool
}

// Option configures ApplyLive.
type Option func(*settings)

// WithRegistry resolves directives through r instead of the default registry.
func WithRegistry(r directive.Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithExtraEnv layers harness-supplied overrides on top of the stage's
// dev-env entries. Keys absent from the directive are appended in sorted
// order to keep output deterministic.
func WithExtraEnv(env map[string]string) Option {
	return func(s *settings) {
		s.extraEnv = env
	}
}

// WithIgnoredKeys disables the named directive keys for this overlay.
func WithIgnoredKeys(keys ...string) Option {
	return func(s *settings) {
		for _, k := range keys {
			s.ignored[k] = true
		}
	}
}

// ApplyLive returns a new instruction sequence for live runs of the stage.
// The stage's own instructions are never mutated.
func ApplyLive(stage dockerfile.Stage, opts ...Option) ([]dockerfile.Instruction, error) {
	s := settings{
		registry: directive.NewRegistry(),
		ignored:  map[string]bool{},
	}
	for _, o := range opts {
		o(&s)
	}

	names, want, err := s.envOverrides(stage)
	if err != nil {
		return nil, err
	}
	liveCmd, err := s.liveCommand(stage)
	if err != nil {
		return nil, err
	}

	out := make([]dockerfile.Instruction, len(stage.Instructions))
	copy(out, stage.Instructions)

	if len(names) > 0 {
		logrus.Debugf("Overlaying env %v on stage %d", names, stage.Index)
		out = mergeEnv(out, names, want)
	}
	if liveCmd != "" {
		logrus.Debugf("Overlaying live command %q on stage %d", liveCmd, stage.Index)
		out = replaceCommand(out, liveCmd)
	}
	return out, nil
}

// envOverrides collects the stage's dev-env entries plus any extra env, as an
// ordered name list and a name->value map. Later writes win; a name keeps the
// position of its first occurrence.
func (s *settings) envOverrides(stage dockerfile.Stage) ([]string, map[string]string, error) {
	var names []string
	want := map[string]string{}
	add := func(name, value string) {
		if _, ok := want[name]; !ok {
			names = append(names, name)
		}
		want[name] = value
	}

	if !s.ignored[directive.DevEnv] {
		v, found, err := s.registry.Resolve(stage, directive.DevEnv)
		if err != nil {
			return nil, nil, err
		}
		if found {
			ev, ok := v.(directive.EnvValue)
			if !ok {
				return nil, nil, errors.Errorf("directive %s did not resolve to env overrides", directive.DevEnv)
			}
			for _, e := range ev.Vars {
				add(e.Name, e.Value)
			}
		}
	}

	extra := make([]string, 0, len(s.extraEnv))
	for name := range s.extraEnv {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		add(name, s.extraEnv[name])
	}
	return names, want, nil
}

func (s *settings) liveCommand(stage dockerfile.Stage) (string, error) {
	if s.ignored[directive.DevCmdLive] {
		return "", nil
	}
	v, found, err := s.registry.Resolve(stage, directive.DevCmdLive)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	cv, ok := v.(directive.CmdValue)
	if !ok {
		return "", errors.Errorf("directive %s did not resolve to a command", directive.DevCmdLive)
	}
	return cv.Command, nil
}

// mergeEnv overrides matching KEY=VALUE entries of existing ENV instructions
// in place. Names with no existing home land on one appended ENV line,
// inserted ahead of a trailing CMD/ENTRYPOINT when there is one.
func mergeEnv(instructions []dockerfile.Instruction, names []string, want map[string]string) []dockerfile.Instruction {
	placed := map[string]bool{}
	for i, in := range instructions {
		if in.Keyword != command.Env {
			continue
		}
		fields := strings.Fields(in.Raw)
		entries, ok := envEntries(fields)
		if !ok {
			// Legacy `ENV KEY value` form, left untouched; overridden names
			// go to the appended line, which wins at run time by coming later.
			continue
		}
		changed := false
		for j, entry := range entries {
			name := entry[:strings.Index(entry, "=")]
			if value, ok := want[name]; ok {
				entries[j] = name + "=" + value
				placed[name] = true
				changed = true
			}
		}
		if changed {
			instructions[i].Raw = fields[0] + " " + strings.Join(entries, " ")
		}
	}

	var leftover []string
	for _, name := range names {
		if !placed[name] {
			leftover = append(leftover, name+"="+want[name])
		}
	}
	if len(leftover) == 0 {
		return instructions
	}
	appended := dockerfile.Instruction{
		Keyword: command.Env,
		Raw:     "ENV " + strings.Join(leftover, " "),
	}
	if i := lastCommandIndex(instructions); i >= 0 {
		instructions = append(instructions[:i], append([]dockerfile.Instruction{appended}, instructions[i:]...)...)
	} else {
		instructions = append(instructions, appended)
	}
	return instructions
}

// envEntries returns the KEY=VALUE entries of an ENV line, or ok=false if any
// entry is not of that form.
func envEntries(fields []string) ([]string, bool) {
	entries := fields[1:]
	for _, e := range entries {
		eq := strings.Index(e, "=")
		if eq <= 0 {
			return nil, false
		}
	}
	return entries, len(entries) > 0
}

// replaceCommand swaps the final CMD or ENTRYPOINT for `CMD <cmd>`. A stage
// with neither gets the CMD appended; applying the overlay again then
// replaces that same line, keeping the transform idempotent.
func replaceCommand(instructions []dockerfile.Instruction, cmd string) []dockerfile.Instruction {
	raw := "CMD " + cmd
	if i := lastCommandIndex(instructions); i >= 0 {
		instructions[i] = dockerfile.Instruction{
			Keyword: command.Cmd,
			Raw:     raw,
			Line:    instructions[i].Line,
		}
		return instructions
	}
	return append(instructions, dockerfile.Instruction{Keyword: command.Cmd, Raw: raw})
}

func lastCommandIndex(instructions []dockerfile.Instruction) int {
	for i := len(instructions) - 1; i >= 0; i-- {
		if instructions[i].Keyword == command.Cmd || instructions[i].Keyword == command.Entrypoint {
			return i
		}
	}
	return -1
}

// LiveDockerfile applies the live overlay and re-serializes the whole file
// for the build engine. An empty target overlays every stage; otherwise only
// the named stage is rewritten and the rest pass through untouched.
func LiveDockerfile(d *dockerfile.Dockerfile, target string, opts ...Option) ([]byte, error) {
	stages := make([]dockerfile.Stage, len(d.Stages))
	copy(stages, d.Stages)

	if target == "" {
		for i := range stages {
			live, err := ApplyLive(stages[i], opts...)
			if err != nil {
				return nil, errors.Wrapf(err, "overlaying stage %d", i)
			}
			stages[i].Instructions = live
		}
	} else {
		stage, err := dockerfile.Target(stages, target)
		if err != nil {
			return nil, err
		}
		live, err := ApplyLive(*stage, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "overlaying stage %q", target)
		}
		stage.Instructions = live
	}
	return dockerfile.Format(stages), nil
}
