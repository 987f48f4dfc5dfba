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

package dockerfile

import (
	"errors"
	"testing"

	"github.com/GoogleContainerTools/devloop/testutil"
)

// livecmdFixture is the annotated Dockerfile the resolver exists for.
const livecmdFixture = `FROM build AS build

#dev-env=UDEV=1 ANOTHER=true
#dev-cmd-live=live

COPY testfile ./
RUN build

FROM run as target

ENV UDEV=1 ANOTHER=true

COPY --from=build /build/smth /tmp/smth
CMD run
`

func Test_Parse(t *testing.T) {
	dockerfile := `
	FROM scratch
	RUN echo hi > /hi

	FROM gcr.io/distroless/base AS second
	COPY --from=0 /hi /hi2

	FROM another/image
	COPY --from=second /hi2 /hi3
	CMD run
	`
	d, err := Parse([]byte(dockerfile))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(d.Stages))
	}
	names := []string{"", "second", ""}
	bases := []string{"scratch", "gcr.io/distroless/base", "another/image"}
	instructions := []int{1, 1, 2}
	for i, stage := range d.Stages {
		if stage.Index != i {
			t.Errorf("stage %d: unexpected index %d", i, stage.Index)
		}
		if stage.Name != names[i] {
			t.Errorf("stage %d: expected name %q, got %q", i, names[i], stage.Name)
		}
		if stage.BaseName != bases[i] {
			t.Errorf("stage %d: expected base %q, got %q", i, bases[i], stage.BaseName)
		}
		if len(stage.Instructions) != instructions[i] {
			t.Errorf("stage %d: expected %d instructions, got %d", i, instructions[i], len(stage.Instructions))
		}
	}
	kw := d.Stages[2].Instructions[0].Keyword
	if kw != "copy" {
		t.Errorf("expected keyword copy, got %q", kw)
	}
}

func Test_Parse_DirectiveAttachment(t *testing.T) {
	tests := []struct {
		name       string
		dockerfile string
		policy     Policy
		directives map[int][]string
		orphaned   int
	}{
		{
			name: "contiguous above FROM attaches under strict",
			dockerfile: `#dev-cmd-live=live
FROM scratch AS app
RUN build
`,
			policy:     PolicyStrict,
			directives: map[int][]string{0: {"dev-cmd-live"}},
		},
		{
			name: "blank line above FROM detaches under strict",
			dockerfile: `#dev-cmd-live=live

FROM scratch AS app
RUN build
`,
			policy:     PolicyStrict,
			directives: map[int][]string{0: nil},
			orphaned:   1,
		},
		{
			name: "blank line above FROM tolerated under permissive",
			dockerfile: `#dev-cmd-live=live

FROM scratch AS app
RUN build
`,
			policy:     PolicyPermissive,
			directives: map[int][]string{0: {"dev-cmd-live"}},
		},
		{
			name: "preamble directives attach under permissive",
			dockerfile: `FROM scratch AS app

#dev-env=A=1
#dev-cmd-live=live

RUN build
`,
			policy:     PolicyPermissive,
			directives: map[int][]string{0: {"dev-env", "dev-cmd-live"}},
		},
		{
			name: "preamble directives are orphaned under strict",
			dockerfile: `FROM scratch AS app

#dev-env=A=1

RUN build
`,
			policy:     PolicyStrict,
			directives: map[int][]string{0: nil},
			orphaned:   1,
		},
		{
			name: "plain comment breaks the run under strict",
			dockerfile: `#dev-env=A=1
# just a note
FROM scratch AS app
`,
			policy:     PolicyStrict,
			directives: map[int][]string{0: nil},
			orphaned:   1,
		},
		{
			name: "plain comment ignored under permissive",
			dockerfile: `#dev-env=A=1
# just a note
FROM scratch AS app
`,
			policy:     PolicyPermissive,
			directives: map[int][]string{0: {"dev-env"}},
		},
		{
			name: "instruction detaches a pending directive",
			dockerfile: `FROM scratch AS app
RUN build
#dev-env=A=1
RUN test

FROM scratch AS other
`,
			policy:     PolicyPermissive,
			directives: map[int][]string{0: nil, 1: nil},
			orphaned:   1,
		},
		{
			name: "directives between stages attach to the next FROM",
			dockerfile: `FROM scratch AS app
RUN build

#dev-cmd-live=live

FROM scratch AS other
RUN test
`,
			policy:     PolicyPermissive,
			directives: map[int][]string{0: nil, 1: {"dev-cmd-live"}},
		},
		{
			name: "unknown directive keys are retained",
			dockerfile: `#dev-watch=./src
FROM scratch AS app
`,
			policy:     PolicyPermissive,
			directives: map[int][]string{0: {"dev-watch"}},
		},
		{
			name: "duplicate keys are all retained",
			dockerfile: `#dev-cmd-live=first
#dev-cmd-live=second
FROM scratch AS app
`,
			policy:     PolicyStrict,
			directives: map[int][]string{0: {"dev-cmd-live", "dev-cmd-live"}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d, err := Parse([]byte(test.dockerfile), WithPolicy(test.policy))
			if err != nil {
				t.Fatal(err)
			}
			for index, want := range test.directives {
				var got []string
				for _, dir := range d.Stages[index].Directives {
					got = append(got, dir.Key)
				}
				testutil.CheckDeepEqual(t, want, got)
			}
			if len(d.Orphaned) != test.orphaned {
				t.Errorf("expected %d orphaned directives, got %d: %v", test.orphaned, len(d.Orphaned), d.Orphaned)
			}
		})
	}
}

func Test_Parse_LivecmdFixture(t *testing.T) {
	d, err := Parse([]byte(livecmdFixture))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(d.Stages))
	}

	build := d.Stages[0]
	if build.Name != "build" || build.BaseName != "build" {
		t.Errorf("unexpected first stage: %+v", build)
	}
	testutil.CheckDeepEqual(t, []Directive{
		{Key: "dev-env", Value: "UDEV=1 ANOTHER=true", Line: 3},
		{Key: "dev-cmd-live", Value: "live", Line: 4},
	}, build.Directives)

	target := d.Stages[1]
	if target.Name != "target" {
		t.Errorf("expected second stage name target, got %q", target.Name)
	}
	if len(target.Directives) != 0 {
		t.Errorf("expected no directives on target, got %v", target.Directives)
	}
	if len(d.Orphaned) != 0 {
		t.Errorf("expected no orphaned directives, got %v", d.Orphaned)
	}

	// The strict reading detaches both directives instead.
	d, err = Parse([]byte(livecmdFixture), WithPolicy(PolicyStrict))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Stages[0].Directives) != 0 || len(d.Orphaned) != 2 {
		t.Errorf("strict: expected 2 orphaned directives, got %v attached, %v orphaned", d.Stages[0].Directives, d.Orphaned)
	}
}

func Test_Parse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		dockerfile string
		checkErr   func(error) bool
		line       int
	}{
		{
			name:       "FROM without image reference",
			dockerfile: "RUN ok\nFROM\n",
			checkErr:   IsMalformedStage,
			line:       2,
		},
		{
			name:       "FROM with only flags",
			dockerfile: "FROM --platform=linux/amd64\n",
			checkErr:   IsMalformedStage,
			line:       1,
		},
		{
			name:       "dangling AS clause",
			dockerfile: "FROM scratch AS\n",
			checkErr:   IsMalformedStage,
			line:       1,
		},
		{
			name:       "no stages at all",
			dockerfile: "# a comment\nRUN build\n",
			checkErr:   IsNoStages,
		},
		{
			name:       "empty file",
			dockerfile: "",
			checkErr:   IsNoStages,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d, err := Parse([]byte(test.dockerfile))
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if d != nil {
				t.Error("expected no partial result on error")
			}
			if !test.checkErr(err) {
				t.Errorf("unexpected error type: %v", err)
			}
			if test.line != 0 {
				var stageErr MalformedStageError
				if !errors.As(err, &stageErr) || stageErr.Line != test.line {
					t.Errorf("expected error at line %d, got %v", test.line, err)
				}
			}
		})
	}
}

func Test_Lookup(t *testing.T) {
	stage := Stage{
		Directives: []Directive{
			{Key: "dev-cmd-live", Value: "first", Line: 1},
			{Key: "dev-env", Value: "A=1", Line: 2},
			{Key: "dev-cmd-live", Value: "second", Line: 3},
		},
	}
	d, ok := stage.Lookup("dev-cmd-live")
	if !ok || d.Value != "second" {
		t.Errorf("expected last dev-cmd-live to win, got %+v", d)
	}
	if _, ok := stage.Lookup("missing"); ok {
		t.Error("expected missing key to not be found")
	}
}

func Test_Target(t *testing.T) {
	d, err := Parse([]byte(livecmdFixture))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		target    string
		wantIndex int
		shouldErr bool
	}{
		{name: "by name", target: "build", wantIndex: 0},
		{name: "by index", target: "1", wantIndex: 1},
		{name: "empty resolves to final stage", target: "", wantIndex: 1},
		{name: "unknown name", target: "nope", shouldErr: true},
		{name: "index out of range", target: "7", shouldErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stage, err := d.Target(test.target)
			testutil.CheckError(t, test.shouldErr, err)
			if err == nil && stage.Index != test.wantIndex {
				t.Errorf("expected stage %d, got %d", test.wantIndex, stage.Index)
			}
		})
	}
}

func Test_ParsePolicy(t *testing.T) {
	if _, err := ParsePolicy("strict"); err != nil {
		t.Error(err)
	}
	if _, err := ParsePolicy("lenient"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
