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

package cmd

import (
	"fmt"
	"os"

	"github.com/GoogleContainerTools/devloop/pkg/config"
	"github.com/GoogleContainerTools/devloop/pkg/constants"
	"github.com/GoogleContainerTools/devloop/pkg/dockerfile"
	"github.com/GoogleContainerTools/devloop/pkg/logging"
	"github.com/GoogleContainerTools/devloop/pkg/timing"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	opts = config.NewDevloopOptions()
	// fs is swapped for a MemMapFs in command tests.
	fs           = afero.NewOsFs()
	logLevel     string
	logFormat    string
	logTimestamp bool
)

func init() {
	RootCmd.PersistentPreRunE = rootPersistentPreRunE
	RootCmd.PersistentFlags().StringVarP(&logLevel, "verbosity", "v", logging.DefaultLevel, "Log level (trace, debug, info, warn, error, fatal, panic)")
	RootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "", logging.FormatColor, "Log format (text, color, json)")
	RootCmd.PersistentFlags().BoolVarP(&logTimestamp, "log-timestamp", "", logging.DefaultLogTimestamp, "Timestamp in log output")
	addDevloopFlags(RootCmd.PersistentFlags())
}

// RootCmd is the devloop command that is run
var RootCmd = &cobra.Command{
	Use:   "devloop",
	Short: "Resolve dev directives in a Dockerfile and produce live development overlays",
}

// rootPersistentPreRunE is attached to RootCmd in init to avoid an
// initialization cycle between RootCmd and applyOverlayConfig.
func rootPersistentPreRunE(cmd *cobra.Command, args []string) error {
	if err := logging.Configure(logLevel, logFormat, logTimestamp); err != nil {
		return err
	}
	if err := applyOverlayConfig(); err != nil {
		return errors.Wrap(err, "overlay config invalid")
	}
	if _, err := dockerfile.ParsePolicy(opts.Policy); err != nil {
		return err
	}
	return nil
}

// addDevloopFlags configures opts
func addDevloopFlags(f *pflag.FlagSet) {
	f.StringVarP(&opts.DockerfilePath, "dockerfile", "f", constants.DefaultDockerfilePath, "Path to the dockerfile to be parsed.")
	f.StringVarP(&opts.Target, "target", "", "", "Stage name or index the command applies to.")
	f.StringVarP(&opts.Policy, "policy", "", constants.PolicyPermissive, "Directive attachment policy (permissive, strict).")
	f.StringVarP(&opts.ConfigPath, "config", "", constants.DefaultConfigPath, "Path to the devloop overlay config file.")
	f.VarP(&opts.DevEnv, "dev-env", "", "Additional KEY=VALUE env override for live runs. Set it repeatedly for multiple values.")
	f.VarP(&opts.IgnoreKeys, "ignore-directive", "", "Directive key to ignore. Set it repeatedly for multiple keys.")
}

// applyOverlayConfig merges the on-disk overlay config under the flags. A
// missing file is only an error when --config named it explicitly.
func applyOverlayConfig() error {
	exists, err := afero.Exists(fs, opts.ConfigPath)
	if err != nil {
		return err
	}
	if !exists {
		if RootCmd.PersistentFlags().Changed("config") {
			return errors.Errorf("overlay config %s does not exist", opts.ConfigPath)
		}
		return nil
	}
	cfg, err := config.LoadOverlayConfig(fs, opts.ConfigPath)
	if err != nil {
		return err
	}
	opts.Merge(cfg, RootCmd.PersistentFlags().Changed("policy"))
	return nil
}

// readDockerfile parses the Dockerfile named by opts and warns about
// directives that attached to no stage.
func readDockerfile(opts *config.DevloopOptions) (*dockerfile.Dockerfile, error) {
	b, err := afero.ReadFile(fs, opts.DockerfilePath)
	if err != nil {
		return nil, errors.Wrap(err, "reading dockerfile")
	}
	policy, err := dockerfile.ParsePolicy(opts.Policy)
	if err != nil {
		return nil, err
	}

	t := timing.Start("Parsing Dockerfile")
	d, err := dockerfile.Parse(b, dockerfile.WithPolicy(policy))
	timing.DefaultRun.Stop(t)
	if err != nil {
		return nil, err
	}
	for _, orphan := range d.Orphaned {
		logrus.Warnf("Directive %s at line %d attaches to no stage and was ignored", orphan.Key, orphan.Line)
	}
	return d, nil
}

func writeBenchmark() {
	benchmarkFile := os.Getenv("BENCHMARK_FILE")
	// false is a keyword for integration tests to turn off benchmarking
	if benchmarkFile == "" || benchmarkFile == "false" {
		return
	}
	s, err := timing.JSON()
	if err != nil {
		logrus.Warnf("Unable to write benchmark file: %s", err)
		return
	}
	if err := afero.WriteFile(fs, benchmarkFile, []byte(s), 0644); err != nil {
		logrus.Warnf("Unable to create benchmarking file %s: %s", benchmarkFile, err)
	}
}

func exit(err error) {
	fmt.Println(err)
	os.Exit(1)
}
