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
	"bytes"
	"fmt"
)

// Format serializes stages back to Dockerfile text. Directives are emitted
// directly above their FROM line so the output re-parses with the same
// attachment under either policy. Stray comments and blank lines from the
// original file are not reproduced.
func Format(stages []Stage) []byte {
	var buf bytes.Buffer
	for i, stage := range stages {
		if i > 0 {
			buf.WriteByte('\n')
		}
		for _, d := range stage.Directives {
			fmt.Fprintf(&buf, "#%s=%s\n", d.Key, d.Value)
		}
		buf.WriteString(stage.Raw)
		buf.WriteByte('\n')
		for _, in := range stage.Instructions {
			buf.WriteString(in.Raw)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// Format serializes d's stages back to Dockerfile text.
func (d *Dockerfile) Format() []byte {
	return Format(d.Stages)
}
