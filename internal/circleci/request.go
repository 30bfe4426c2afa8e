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

package circleci

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kay/gradle-apt-plugin/pkg/crossversion"
	"github.com/kay/gradle-apt-plugin/pkg/templateutil"
)

// Defaults applied when a Request leaves the corresponding option empty.
const (
	DefaultDockerImage = "circleci/openjdk:{{ .JDK }}-jdk"
	DefaultBuildFile   = "build.gradle.kts"
)

// DefaultEnvironment is the environment shared by every platform.
var DefaultEnvironment = []EnvVar{
	{Name: "GRADLE_OPTS", Value: "-Dorg.gradle.daemon=false"},
	{Name: "JAVA_TOOL_OPTIONS", Value: "-XX:MaxRAM=4g -XX:ParallelGCThreads=2"},
}

var (
	// ErrInvalidConfig is wrapped by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrGenerationIO is returned when the generated file cannot be written or read.
	ErrGenerationIO = errors.New("generation i/o error")
)

// EnvVar is an environment variable set on every platform.
type EnvVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Options tune the generated document. The zero value uses the defaults.
type Options struct {
	// Environment is the environment shared by all platforms. Values are
	// templates, see templateutil. Nil means DefaultEnvironment.
	Environment []EnvVar
	// DockerImage is the image template of a JDK platform. Empty means
	// DefaultDockerImage.
	DockerImage string
	// BuildFile is the build script whose checksum keys the dependency cache.
	// Empty means DefaultBuildFile.
	BuildFile string
	// Env is the environment templates are expanded with.
	Env map[string]string
}

// Request is everything a pipeline configuration is generated from.
type Request struct {
	// JDKs are the JDKs the project is built on. The first one runs the
	// checkout job and gates the other builds.
	JDKs crossversion.JDKList
	// CrossVersions are the cross-version test configurations.
	CrossVersions crossversion.Table
	// CurrentGradle is the Gradle version the project itself builds with.
	CurrentGradle string
	// Output is the path of the generated file.
	Output string

	Options Options
}

// ConfigError lists every problem found in a Request.
type ConfigError struct {
	Errors []crossversion.ValidationError
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks the request. It returns a *ConfigError listing every
// problem, or nil.
func (r Request) Validate() error {
	_, errs := r.resolve()
	if len(errs) > 0 {
		return &ConfigError{Errors: errs}
	}
	return nil
}

// resolved holds the options of a Request after defaults and template
// expansion.
type resolved struct {
	environment []EnvVar
	images      map[crossversion.JDK]string
	buildFile   string
}

func (r Request) resolve() (*resolved, []crossversion.ValidationError) {
	errs := crossversion.Validate(r.JDKs, r.CrossVersions)
	if gradleErrs := crossversion.ValidateGradleVersion("gradleVersion", r.CurrentGradle); len(gradleErrs) > 0 {
		errs = append(errs, gradleErrs...)
	} else {
		errs = append(errs, crossversion.ValidateVersionCollisions("gradleVersion", r.CurrentGradle, r.CrossVersions)...)
	}

	out := &resolved{
		images:    make(map[crossversion.JDK]string, len(r.JDKs)),
		buildFile: r.Options.BuildFile,
	}
	if out.buildFile == "" {
		out.buildFile = DefaultBuildFile
	}

	environment := r.Options.Environment
	if environment == nil {
		environment = DefaultEnvironment
	}
	seen := make(map[string]struct{}, len(environment))
	for i, ev := range environment {
		field := fmt.Sprintf("environment[%d]", i)
		if ev.Name == "" {
			errs = append(errs, crossversion.ValidationError{Field: field + ".name", Message: "required field is missing"})
			continue
		}
		if _, ok := seen[ev.Name]; ok {
			errs = append(errs, crossversion.ValidationError{Field: field + ".name", Message: fmt.Sprintf("%s is set more than once", ev.Name)})
			continue
		}
		seen[ev.Name] = struct{}{}

		value, err := templateutil.Expand(ev.Value, templateutil.Data{Env: r.Options.Env})
		if err != nil {
			errs = append(errs, crossversion.ValidationError{Field: field + ".value", Message: err.Error()})
			continue
		}
		out.environment = append(out.environment, EnvVar{Name: ev.Name, Value: value})
	}

	image := r.Options.DockerImage
	if image == "" {
		image = DefaultDockerImage
	}
	for _, jdk := range r.JDKs {
		expanded, err := templateutil.Expand(image, templateutil.Data{JDK: int(jdk), Env: r.Options.Env})
		if err != nil {
			errs = append(errs, crossversion.ValidationError{Field: "dockerImage", Message: err.Error()})
			break
		}
		out.images[jdk] = expanded
	}

	return out, errs
}
