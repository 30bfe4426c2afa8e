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
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the CircleCI configuration is up to date",
		Long: `Compare the generated file with what generate would write. The exit
status is 1 unless the file is up to date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := a.load()
			if err != nil {
				return err
			}

			result, err := a.generator().Check(cmd.Context(), loaded.Request)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.Output, result.Status)
			if !result.UpToDate() {
				return errNotUpToDate
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&a.flags.Output, "output", "o", "", "path of the generated file")
	cmd.Flags().StringVar(&a.flags.GradleVersion, "gradle-version", "", "current Gradle version")

	return cmd
}
