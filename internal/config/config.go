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

// Package config loads the inputs of the generator from circleci-gen.yaml,
// the environment and command-line overrides.
//
// Values are taken in order of precedence from flags, CIRCLECI_GEN_*
// environment variables, the configuration file and finally, for the Gradle
// version, the project's Gradle wrapper.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kay/gradle-apt-plugin/internal/circleci"
	"github.com/kay/gradle-apt-plugin/internal/gradlewrapper"
	"github.com/kay/gradle-apt-plugin/internal/projectpath"
	"github.com/kay/gradle-apt-plugin/pkg/crossversion"
	"github.com/kay/gradle-apt-plugin/pkg/flaterrors"
)

// DefaultOutput is the output path used when none is configured, relative to
// the project root.
var DefaultOutput = filepath.Join(".circleci", "config.yml")

// File is the content of circleci-gen.yaml.
type File struct {
	// JDKs are the JDKs the project is built on.
	JDKs crossversion.JDKList `yaml:"jdks"`
	// CrossVersion maps a name to a Gradle version and the JDKs to test it on.
	CrossVersion crossversion.Table `yaml:"crossVersion"`
	// Output is the path of the generated file, relative to the project root.
	Output string `yaml:"output,omitempty"`
	// GradleVersion overrides the version read from the Gradle wrapper.
	GradleVersion string `yaml:"gradleVersion,omitempty"`
	// DockerImage is the image template of a JDK platform.
	DockerImage string `yaml:"dockerImage,omitempty"`
	// BuildFile is the build script keying the dependency caches.
	BuildFile string `yaml:"buildFile,omitempty"`
	// Environment is set on every platform, in order.
	Environment []circleci.EnvVar `yaml:"environment,omitempty"`
}

var (
	errReadingConfig = errors.New("reading config")
	errReadingEnvs   = errors.New("reading environment variables")

	// ErrGradleVersionNotFound is returned when no Gradle version is
	// configured and none can be read from the Gradle wrapper.
	ErrGradleVersionNotFound = errors.New("cannot determine the current Gradle version; set gradleVersion, CIRCLECI_GEN_GRADLE_VERSION or --gradle-version")
)

// ReadFile reads and parses a configuration file. Unknown fields are
// rejected.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, flaterrors.Join(err, errReadingConfig)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var out File
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, flaterrors.Join(fmt.Errorf("%s is empty", path), errReadingConfig)
		}
		return nil, flaterrors.Join(fmt.Errorf("parsing %s: %w", path, err), errReadingConfig)
	}

	return &out, nil
}

// Envs holds the environment variables read by circleci-gen.
type Envs struct {
	// ConfigPath is the path of circleci-gen.yaml.
	ConfigPath string `env:"CIRCLECI_GEN_CONFIG" description:"path of circleci-gen.yaml"`
	// GradleVersion is the current Gradle version.
	GradleVersion string `env:"CIRCLECI_GEN_GRADLE_VERSION" description:"current Gradle version"`
	// Output is the path of the generated file.
	Output string `env:"CIRCLECI_GEN_OUTPUT" description:"path of the generated file"`
	// LogLevel is the logrus level name.
	LogLevel string `env:"CIRCLECI_GEN_LOG_LEVEL" envDefault:"info" description:"log level"`
}

// ReadEnvs reads Envs from the process environment.
func ReadEnvs() (Envs, error) {
	out := Envs{} //nolint:exhaustruct // unmarshal

	if err := env.Parse(&out); err != nil {
		return Envs{}, flaterrors.Join(err, errReadingEnvs)
	}

	return out, nil
}

// Overrides are values given on the command line. Empty fields are unset.
type Overrides struct {
	ConfigPath    string
	Output        string
	GradleVersion string
}

// Loaded is a resolved configuration.
type Loaded struct {
	// Request is ready to be passed to the generator.
	Request circleci.Request
	// ConfigPath is the configuration file that was read.
	ConfigPath string
	// Root is the project root, the directory of ConfigPath.
	Root string
	// GradleSource tells where the current Gradle version came from.
	GradleSource string
}

// Load resolves the configuration of the project containing wd.
// environ is made available to templates in the configuration file.
func Load(wd string, envs Envs, flags Overrides, environ map[string]string) (*Loaded, error) {
	configPath := first(flags.ConfigPath, envs.ConfigPath)
	if configPath == "" {
		found, err := projectpath.FindConfig(wd)
		if err != nil {
			return nil, flaterrors.Join(err, errReadingConfig)
		}
		configPath = found
	} else if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(wd, configPath)
	}

	file, err := ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	root := filepath.Dir(configPath)

	output := first(flags.Output, envs.Output)
	if output != "" {
		if !filepath.IsAbs(output) {
			output = filepath.Join(wd, output)
		}
	} else {
		output = first(file.Output, DefaultOutput)
		if !filepath.IsAbs(output) {
			output = filepath.Join(root, output)
		}
	}

	gradle, source := flags.GradleVersion, "flag"
	switch {
	case gradle != "":
	case envs.GradleVersion != "":
		gradle, source = envs.GradleVersion, "environment"
	case file.GradleVersion != "":
		gradle, source = file.GradleVersion, "config"
	default:
		v, err := gradlewrapper.Version(root)
		if err != nil {
			return nil, flaterrors.Join(err, ErrGradleVersionNotFound)
		}
		gradle, source = v, "wrapper"
	}

	return &Loaded{
		Request: circleci.Request{
			JDKs:          file.JDKs,
			CrossVersions: file.CrossVersion,
			CurrentGradle: gradle,
			Output:        output,
			Options: circleci.Options{
				Environment: file.Environment,
				DockerImage: file.DockerImage,
				BuildFile:   file.BuildFile,
				Env:         environ,
			},
		},
		ConfigPath:   configPath,
		Root:         root,
		GradleSource: source,
	}, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
