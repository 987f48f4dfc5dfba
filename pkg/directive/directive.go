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

// Package directive gives dev directives their meaning. Parsing a Dockerfile
// keeps directive values as raw strings; this package knows the sub-grammar
// of each recognized key and validates it only when a value is resolved.
package directive

import (
	"strings"

	"github.com/GoogleContainerTools/devloop/pkg/dockerfile"
)

const (
	// DevEnv overrides environment variables for live runs of a stage.
	// Value grammar: space-separated KEY=VALUE entries.
	DevEnv = "dev-env"
	// DevCmdLive replaces the stage command for live runs.
	// Value grammar: a literal command string.
	DevCmdLive = "dev-cmd-live"
)

// Value is a resolved directive value. Recognized keys resolve to EnvValue or
// CmdValue; unknown keys fall back to RawValue so new directives pass through
// older versions of this tool untouched.
type Value interface {
	isValue()
}

// EnvVar is one KEY=VALUE entry of a dev-env directive.
type EnvVar struct {
	Name  string
	Value string
}

// EnvValue holds environment overrides in the order they were written.
type EnvValue struct {
	Vars []EnvVar
}

func (EnvValue) isValue() {}

// Map returns the overrides as a map, last entry winning on duplicate names.
func (v EnvValue) Map() map[string]string {
	m := make(map[string]string, len(v.Vars))
	for _, e := range v.Vars {
		m[e.Name] = e.Value
	}
	return m
}

// CmdValue is the literal replacement command for live runs.
type CmdValue struct {
	Command string
}

func (CmdValue) isValue() {}

// RawValue is an unrecognized directive, retained verbatim.
type RawValue struct {
	Key string
	Raw string
}

func (RawValue) isValue() {}

// ParseFunc parses one directive's raw value.
type ParseFunc func(d dockerfile.Directive) (Value, error)

// Registry maps directive keys to their value parsers. A Registry is plain
// data owned by its creator; construct one per consumer instead of mutating
// shared state so concurrent parses need no locking.
type Registry map[string]ParseFunc

// NewRegistry returns a Registry seeded with the recognized directive keys.
func NewRegistry() Registry {
	return Registry{
		DevEnv:     parseEnv,
		DevCmdLive: parseCmd,
	}
}

// Register adds or replaces the parser for a directive key.
func (r Registry) Register(key string, fn ParseFunc) {
	r[key] = fn
}

// Resolve looks up key among the stage's directives, last write winning on
// duplicates. A missing key returns found=false and no error. Keys without a
// registered parser resolve to a RawValue.
func (r Registry) Resolve(stage dockerfile.Stage, key string) (Value, bool, error) {
	d, found := stage.Lookup(key)
	if !found {
		return nil, false, nil
	}
	fn, ok := r[key]
	if !ok {
		return RawValue{Key: d.Key, Raw: d.Value}, true, nil
	}
	v, err := fn(d)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// Resolve resolves key on stage using the default registry.
func Resolve(stage dockerfile.Stage, key string) (Value, bool, error) {
	return NewRegistry().Resolve(stage, key)
}

func parseEnv(d dockerfile.Directive) (Value, error) {
	var v EnvValue
	for _, entry := range strings.Fields(d.Value) {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, InvalidDirectiveValueError{Key: d.Key, Entry: entry, Line: d.Line}
		}
		v.Vars = append(v.Vars, EnvVar{Name: parts[0], Value: parts[1]})
	}
	return v, nil
}

func parseCmd(d dockerfile.Directive) (Value, error) {
	cmd := strings.TrimSpace(d.Value)
	if cmd == "" {
		return nil, InvalidDirectiveValueError{Key: d.Key, Entry: d.Value, Line: d.Line}
	}
	return CmdValue{Command: cmd}, nil
}
