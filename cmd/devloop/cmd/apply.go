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
	"io"
	"os"

	"github.com/GoogleContainerTools/devloop/pkg/config"
	"github.com/GoogleContainerTools/devloop/pkg/overlay"
	"github.com/GoogleContainerTools/devloop/pkg/timing"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	applyCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Path to write the overlay Dockerfile to instead of stdout.")
	RootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write a live-overlay Dockerfile for development builds",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runApply(opts, os.Stdout); err != nil {
			exit(err)
		}
		writeBenchmark()
	},
}

func runApply(opts *config.DevloopOptions, out io.Writer) error {
	d, err := readDockerfile(opts)
	if err != nil {
		return err
	}

	t := timing.Start("Applying live overlay")
	b, err := overlay.LiveDockerfile(d, opts.Target,
		overlay.WithExtraEnv(opts.ExtraEnv()),
		overlay.WithIgnoredKeys(opts.IgnoredKeys()...),
	)
	timing.DefaultRun.Stop(t)
	if err != nil {
		return err
	}

	if opts.Output == "" {
		_, err := out.Write(b)
		return err
	}
	if err := afero.WriteFile(fs, opts.Output, b, 0644); err != nil {
		return errors.Wrap(err, "writing overlay dockerfile")
	}
	logrus.Infof("Wrote live overlay to %s", opts.Output)
	return nil
}
