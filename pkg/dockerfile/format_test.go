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
	"testing"

	"github.com/GoogleContainerTools/devloop/testutil"
)

func Test_Format(t *testing.T) {
	d, err := Parse([]byte(livecmdFixture))
	if err != nil {
		t.Fatal(err)
	}
	expected := `#dev-env=UDEV=1 ANOTHER=true
#dev-cmd-live=live
FROM build AS build
COPY testfile ./
RUN build

FROM run as target
ENV UDEV=1 ANOTHER=true
COPY --from=build /build/smth /tmp/smth
CMD run
`
	testutil.CheckDeepEqual(t, expected, string(d.Format()))
}

// Formatted output must re-parse to the same stages under either policy,
// since the harness round-trips overlayed files through the parser.
func Test_Format_RoundTrip(t *testing.T) {
	for _, policy := range []Policy{PolicyPermissive, PolicyStrict} {
		t.Run(policy.String(), func(t *testing.T) {
			d, err := Parse([]byte(livecmdFixture))
			if err != nil {
				t.Fatal(err)
			}
			reparsed, err := Parse(d.Format(), WithPolicy(policy))
			if err != nil {
				t.Fatal(err)
			}
			testutil.CheckDeepEqual(t, stripLines(d.Stages), stripLines(reparsed.Stages))
			if len(reparsed.Orphaned) != 0 {
				t.Errorf("expected no orphaned directives after round trip, got %v", reparsed.Orphaned)
			}
		})
	}
}

// stripLines zeroes source line numbers, which legitimately shift when blank
// lines and stray comments are dropped by Format.
func stripLines(stages []Stage) []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	for i := range out {
		out[i].SourceLine = 0
		directives := make([]Directive, len(out[i].Directives))
		copy(directives, out[i].Directives)
		for j := range directives {
			directives[j].Line = 0
		}
		out[i].Directives = directives
		instructions := make([]Instruction, len(out[i].Instructions))
		copy(instructions, out[i].Instructions)
		for j := range instructions {
			instructions[j].Line = 0
		}
		out[i].Instructions = instructions
	}
	return out
}
