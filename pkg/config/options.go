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

package config

import "github.com/GoogleContainerTools/devloop/pkg/constants"

// DevloopOptions are options that are set by command line arguments
type DevloopOptions struct {
	DockerfilePath string
	Target         string
	Output         string
	Policy         string
	ConfigPath     string
	DevEnv         keyValueArg
	IgnoreKeys     multiArg
}

// NewDevloopOptions returns a DevloopOptions with defaults suitable for flag
// registration.
func NewDevloopOptions() *DevloopOptions {
	return &DevloopOptions{
		DockerfilePath: constants.DefaultDockerfilePath,
		Policy:         constants.PolicyPermissive,
		ConfigPath:     constants.DefaultConfigPath,
		DevEnv:         keyValueArg{},
	}
}

// ExtraEnv returns the --dev-env overrides as a plain map.
func (o *DevloopOptions) ExtraEnv() map[string]string {
	return map[string]string(o.DevEnv)
}

// IgnoredKeys returns the --ignore-directive keys as a plain slice.
func (o *DevloopOptions) IgnoredKeys() []string {
	return []string(o.IgnoreKeys)
}
