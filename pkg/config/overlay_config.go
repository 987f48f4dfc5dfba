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

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// OverlayConfig is the optional on-disk configuration (.devloop.yaml checked
// into a project). Command line flags win over it.
type OverlayConfig struct {
	Policy      string            `yaml:"policy"`
	IgnoredKeys []string          `yaml:"ignoredKeys"`
	ExtraEnv    map[string]string `yaml:"extraEnv"`
}

// LoadOverlayConfig reads and unmarshals an overlay config file.
func LoadOverlayConfig(fs afero.Fs, path string) (*OverlayConfig, error) {
	var cfg OverlayConfig

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("reading overlay config at path %s", path))
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("unmarshaling overlay config at path %s", path))
	}
	return &cfg, nil
}

// Merge fills o's unset fields from cfg and appends its ignored keys.
func (o *DevloopOptions) Merge(cfg *OverlayConfig, policyFlagSet bool) {
	if cfg == nil {
		return
	}
	if cfg.Policy != "" && !policyFlagSet {
		o.Policy = cfg.Policy
	}
	for _, k := range cfg.IgnoredKeys {
		if !o.IgnoreKeys.Contains(k) {
			o.IgnoreKeys = append(o.IgnoreKeys, k)
		}
	}
	for k, v := range cfg.ExtraEnv {
		if _, ok := o.DevEnv[k]; !ok {
			o.DevEnv[k] = v
		}
	}
}
