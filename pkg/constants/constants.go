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

package constants

const (
	// DefaultLogLevel is the default log level
	DefaultLogLevel = "info"

	// DefaultDockerfilePath is where we look for a Dockerfile when -f is not given
	DefaultDockerfilePath = "Dockerfile"

	// DefaultConfigPath is where we look for an overlay config file
	DefaultConfigPath = ".devloop.yaml"

	// Attachment policies for dev directives:
	PolicyPermissive = "permissive"
	PolicyStrict     = "strict"
)
