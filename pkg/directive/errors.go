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

package directive

import (
	"errors"
	"fmt"
)

// IsInvalidDirectiveValue returns true if the supplied error is of the type
// InvalidDirectiveValueError, otherwise it returns false.
func IsInvalidDirectiveValue(err error) bool {
	var e InvalidDirectiveValueError
	return errors.As(err, &e)
}

// InvalidDirectiveValueError is returned when a recognized directive's value
// fails its sub-grammar, for example a dev-env entry with no '='.
type InvalidDirectiveValueError struct {
	Key   string
	Entry string
	Line  int
}

func (e InvalidDirectiveValueError) Error() string {
	return fmt.Sprintf("invalid %s value at line %d: %q", e.Key, e.Line, e.Entry)
}
