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
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kay/gradle-apt-plugin/internal/circleci"
)

func newJobsCmd(a *app) *cobra.Command {
	var crossVersion string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List the jobs of the workflow",
		Long: `List the jobs of the workflow with the JDK and Gradle version they run
with. --cross-version restricts the list to the jobs of one cross-version
entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := a.load()
			if err != nil {
				return err
			}
			if err := loaded.Request.Validate(); err != nil {
				return err
			}

			plan := circleci.NewPlan(loaded.Request)
			if crossVersion != "" {
				if _, ok := loaded.Request.CrossVersions.Lookup(crossVersion); !ok {
					return fmt.Errorf("%w: %q", errUnknownCrossVersion, crossVersion)
				}
				plan = filterCrossVersion(plan, crossVersion)
			}

			fmt.Fprintln(cmd.OutOrStdout(), jobsTable(plan))
			return nil
		},
	}

	cmd.Flags().StringVar(&a.flags.GradleVersion, "gradle-version", "", "current Gradle version")
	cmd.Flags().StringVar(&crossVersion, "cross-version", "", "only list the jobs of this cross-version entry")

	return cmd
}

var errUnknownCrossVersion = errors.New("unknown cross-version entry")

func filterCrossVersion(plan circleci.Plan, name string) circleci.Plan {
	out := circleci.Plan{}
	for _, job := range plan.Jobs {
		if job.Kind == circleci.KindCrossVersion && job.CrossVersion == name {
			out.Jobs = append(out.Jobs, job)
		}
	}
	return out
}

func jobsTable(plan circleci.Plan) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("JOB", "KIND", "JDK", "GRADLE", "REQUIRES")

	for _, job := range plan.Jobs {
		jdk := "-"
		if job.JDK != 0 {
			jdk = job.JDK.String()
		}
		requires := strings.Join(job.Requires, ", ")
		if requires == "" {
			requires = "-"
		}
		t.Row(job.Name, job.Kind.String(), jdk, orDash(job.Gradle), requires)
	}

	return t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
