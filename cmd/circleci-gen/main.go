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
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kay/gradle-apt-plugin/internal/circleci"
	"github.com/kay/gradle-apt-plugin/internal/config"
	"github.com/kay/gradle-apt-plugin/internal/util"
	"github.com/kay/gradle-apt-plugin/pkg/templateutil"
)

const toolName = "circleci-gen"

// Version information (set via ldflags)
var (
	Version        = ""
	CommitSHA      = ""
	BuildTimestamp = ""
)

// errNotUpToDate makes the process exit with status 1 without printing an
// error, the status line being the report.
var errNotUpToDate = errors.New("generated file is not up to date")

// app holds the state shared by every command.
type app struct {
	log      *logrus.Logger
	envs     config.Envs
	logLevel string
	flags    config.Overrides
	environ  func() []string
	getwd    func() (string, error)
}

func newApp(stderr io.Writer) *app {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return &app{
		log:     log,
		environ: os.Environ,
		getwd:   os.Getwd,
	}
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	envs, err := config.ReadEnvs()
	if err != nil {
		return err
	}
	a.envs = envs

	name := a.logLevel
	if name == "" {
		name = envs.LogLevel
	}
	if name == "" {
		name = logrus.InfoLevel.String()
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	a.log.SetLevel(level)

	return nil
}

// load resolves the request of the project containing the working
// directory.
func (a *app) load() (*config.Loaded, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, err
	}

	loaded, err := config.Load(wd, a.envs, a.flags, templateutil.EnvMap(a.environ()))
	if err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"config": loaded.ConfigPath,
		"gradle": loaded.Request.CurrentGradle,
		"source": loaded.GradleSource,
	}).Debug("loaded configuration")

	return loaded, nil
}

func (a *app) generator() *circleci.Generator {
	return circleci.NewGenerator(a.log)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   toolName,
		Short: "Generate the CircleCI configuration of the plugin",
		Long: `circleci-gen renders .circleci/config.yml from circleci-gen.yaml.

The configuration lists the JDKs the project is built on and the Gradle
versions it is cross-tested against. Every JDK gets a build job and every
cross-version entry gets one test job per JDK.

Environment variables:
` + util.FormatExpectedEnvList[config.Envs](),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (default from CIRCLECI_GEN_LOG_LEVEL, then info)")
	root.PersistentFlags().StringVarP(&a.flags.ConfigPath, "config", "c", "", "path of circleci-gen.yaml (default: searched upwards from the working directory)")

	root.AddCommand(
		newGenerateCmd(a),
		newCheckCmd(a),
		newJobsCmd(a),
		newVersionCmd(),
	)

	return root
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errNotUpToDate) {
			a.log.Error(err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
