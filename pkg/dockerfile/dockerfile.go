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

// Package dockerfile scans Dockerfile text for build stages and the dev
// directives (`#key=value` comments) attached to them. Instructions are kept
// opaque beyond their keyword; validating them is the build engine's job.
package dockerfile

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/command"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Directive is a single `#key=value` comment, recorded verbatim.
type Directive struct {
	Key   string
	Value string
	Line  int
}

// Instruction is one build instruction line. Raw holds the line as written
// (leading whitespace trimmed); Keyword is its lowercased first word.
type Instruction struct {
	Keyword string
	Raw     string
	Line    int
}

// Stage is one FROM block and everything up to the next FROM.
type Stage struct {
	// Index is the zero-based position of the stage in the file. Anonymous
	// stages are addressable only by it.
	Index int
	// Name is the AS clause, empty for anonymous stages.
	Name string
	// BaseName is the image reference or prior stage name the stage builds on.
	BaseName string
	// Raw is the FROM line as written.
	Raw string
	// SourceLine is the 1-based line number of the FROM line.
	SourceLine int
	// Directives are the dev directives attached to this stage, in source
	// order. Duplicate keys are all retained; lookup is last-write-wins.
	Directives []Directive
	// Instructions are the stage's build instructions, in source order.
	Instructions []Instruction
}

// Lookup returns the last directive with the given key attached to the stage.
func (s Stage) Lookup(key string) (Directive, bool) {
	for i := len(s.Directives) - 1; i >= 0; i-- {
		if s.Directives[i].Key == key {
			return s.Directives[i], true
		}
	}
	return Directive{}, false
}

// Dockerfile is the result of one Parse call. It is not mutated afterwards.
type Dockerfile struct {
	Stages []Stage
	// Orphaned holds directives that attached to no stage under the active
	// policy. They are surfaced for the caller to warn about, never an error.
	Orphaned []Directive
}

// Policy controls how directive comments attach to stages.
type Policy int

const (
	// PolicyPermissive attaches a directive to the stage whose preamble it
	// sits in (between that stage's FROM and its first instruction, blank
	// lines allowed), and otherwise to the next FROM below it.
	PolicyPermissive Policy = iota
	// PolicyStrict only attaches directive comments sitting immediately above
	// a FROM line. Any blank line, plain comment or instruction breaks the run.
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "permissive"
}

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "permissive", "":
		return PolicyPermissive, nil
	case "strict":
		return PolicyStrict, nil
	}
	return PolicyPermissive, fmt.Errorf("not a valid attachment policy: %q. Please specify one of (permissive, strict)", name)
}

// Option configures Parse.
type Option func(*parser)

// WithPolicy sets the directive attachment policy.
func WithPolicy(p Policy) Option {
	return func(ps *parser) {
		ps.policy = p
	}
}

type parser struct {
	policy Policy
}

// directivePattern matches `#key=value` with no whitespace between the hash
// and the key. Anything else starting with # is a plain comment.
var directivePattern = regexp.MustCompile(`^#([A-Za-z0-9_-]+)=(.*)$`)

// Parse scans b top to bottom and returns its stages in source order. It is a
// single pass, holds no global state, and never returns a partial stage list:
// a malformed FROM line fails the whole call.
func Parse(b []byte, opts ...Option) (*Dockerfile, error) {
	p := parser{policy: PolicyPermissive}
	for _, o := range opts {
		o(&p)
	}

	d := &Dockerfile{}
	var pending []Directive
	cur := -1
	inPreamble := false

	orphan := func() {
		d.Orphaned = append(d.Orphaned, pending...)
		pending = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(b))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "":
			if p.policy == PolicyStrict {
				orphan()
			}
		case strings.HasPrefix(text, "#"):
			m := directivePattern.FindStringSubmatch(text)
			if m == nil {
				// Plain comment. Strict mode treats it as a break in the
				// directive run; permissive mode ignores it.
				if p.policy == PolicyStrict {
					orphan()
				}
				continue
			}
			dir := Directive{Key: m[1], Value: m[2], Line: line}
			if p.policy == PolicyPermissive && cur >= 0 && inPreamble {
				d.Stages[cur].Directives = append(d.Stages[cur].Directives, dir)
				continue
			}
			pending = append(pending, dir)
		case isFrom(text):
			stage, err := newStage(text, line, len(d.Stages))
			if err != nil {
				return nil, err
			}
			stage.Directives = pending
			pending = nil
			d.Stages = append(d.Stages, stage)
			cur = len(d.Stages) - 1
			inPreamble = true
		default:
			orphan()
			if cur < 0 {
				logrus.Debugf("Ignoring instruction before first FROM at line %d: %s", line, text)
				continue
			}
			d.Stages[cur].Instructions = append(d.Stages[cur].Instructions, Instruction{
				Keyword: keywordOf(text),
				Raw:     text,
				Line:    line,
			})
			inPreamble = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning dockerfile")
	}
	orphan()

	if len(d.Stages) == 0 {
		return nil, NoStagesError{}
	}
	return d, nil
}

func isFrom(text string) bool {
	return keywordOf(text) == command.From
}

func keywordOf(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// newStage parses a FROM line. Flags such as --platform are skipped when
// locating the image reference.
func newStage(text string, line, index int) (Stage, error) {
	fields := strings.Fields(text)
	rest := fields[1:]
	for len(rest) > 0 && strings.HasPrefix(rest[0], "--") {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return Stage{}, MalformedStageError{Line: line, Text: text}
	}
	stage := Stage{
		Index:      index,
		BaseName:   rest[0],
		Raw:        text,
		SourceLine: line,
	}
	if len(rest) > 1 {
		if !strings.EqualFold(rest[1], "as") || len(rest) < 3 {
			return Stage{}, MalformedStageError{Line: line, Text: text}
		}
		stage.Name = rest[2]
	}
	return stage, nil
}

// Target resolves a stage by name or by numeric index. An empty target
// resolves to the final stage, matching what a build engine would build.
func Target(stages []Stage, target string) (*Stage, error) {
	if len(stages) == 0 {
		return nil, NoStagesError{}
	}
	if target == "" {
		return &stages[len(stages)-1], nil
	}
	for i := range stages {
		if stages[i].Name == target {
			return &stages[i], nil
		}
	}
	if i, err := strconv.Atoi(target); err == nil && i >= 0 && i < len(stages) {
		return &stages[i], nil
	}
	return nil, errors.Errorf("stage %q not found in dockerfile", target)
}

// Target resolves a stage of d by name or numeric index.
func (d *Dockerfile) Target(target string) (*Stage, error) {
	return Target(d.Stages, target)
}
