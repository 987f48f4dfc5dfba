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
	"fmt"
)

// IsMalformedStage returns true if the supplied error is of the type
// MalformedStageError, otherwise it returns false.
func IsMalformedStage(err error) bool {
	var e MalformedStageError
	return errors.As(err, &e)
}

// MalformedStageError is returned when a FROM line cannot be parsed, for
// example because it is missing an image reference.
type MalformedStageError struct {
	Line int
	Text string
}

func (e MalformedStageError) Error() string {
	return fmt.Sprintf("malformed FROM at line %d: %q", e.Line, e.Text)
}

// IsNoStages returns true if the supplied error is of the type NoStagesError,
// otherwise it returns false.
func IsNoStages(err error) bool {
	var e NoStagesError
	return errors.As(err, &e)
}

// NoStagesError is returned when a Dockerfile contains no FROM line at all.
type NoStagesError struct{}

func (e NoStagesError) Error() string {
	return "no build stages found in dockerfile"
}
