// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/spf13/cobra"

	"github.com/kay/gradle-apt-plugin/internal/circleci"
)

func newGenerateCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the CircleCI configuration",
		Long: `Render the pipeline and write it to the output path, replacing any
existing file. With --dry-run the document is written to stdout instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := a.load()
			if err != nil {
				return err
			}

			if dryRun {
				data, err := circleci.Render(loaded.Request)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			_, err = a.generator().Generate(cmd.Context(), loaded.Request)
			return err
		},
	}

	cmd.Flags().StringVarP(&a.flags.Output, "output", "o", "", "path of the generated file (default from CIRCLECI_GEN_OUTPUT, then the config)")
	cmd.Flags().StringVar(&a.flags.GradleVersion, "gradle-version", "", "current Gradle version (default from CIRCLECI_GEN_GRADLE_VERSION, the config, then the wrapper)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the document instead of writing it")

	return cmd
}
