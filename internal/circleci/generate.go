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
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kay/gradle-apt-plugin/pkg/crossversion"
	"github.com/kay/gradle-apt-plugin/pkg/flaterrors"
	"github.com/kay/gradle-apt-plugin/pkg/yamlnode"
)

const (
	// ChecksumPrefix is the prefix for checksum values.
	ChecksumPrefix = "sha256:"
	// ChecksumHeaderPrefix is the prefix of the checksum comment line in
	// generated files.
	ChecksumHeaderPrefix = "# SourceChecksum: "
)

// checksumInput is the canonical form of the generation inputs.
type checksumInput struct {
	JDKs          crossversion.JDKList `yaml:"jdks"`
	CrossVersions crossversion.Table   `yaml:"crossVersion"`
	Gradle        string               `yaml:"gradleVersion"`
	BuildFile     string               `yaml:"buildFile"`
	Images        []string             `yaml:"images"`
	Environment   []EnvVar             `yaml:"environment"`
}

// Checksum returns the SHA256 checksum of the inputs of req, after defaults
// and template expansion.
func Checksum(req Request) (string, error) {
	res, errs := req.resolve()
	if len(errs) > 0 {
		return "", &ConfigError{Errors: errs}
	}
	return checksum(req, res)
}

func checksum(req Request, res *resolved) (string, error) {
	in := checksumInput{
		JDKs:          req.JDKs,
		CrossVersions: req.CrossVersions,
		Gradle:        req.CurrentGradle,
		BuildFile:     res.buildFile,
		Environment:   res.environment,
	}
	for _, jdk := range req.JDKs {
		in.Images = append(in.Images, res.images[jdk])
	}

	data, err := yaml.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encoding checksum input: %w", err)
	}

	sum := sha256.Sum256(data)
	return ChecksumPrefix + hex.EncodeToString(sum[:]), nil
}

// Render generates the pipeline configuration of req.
// The same request always renders to the same bytes.
func Render(req Request) ([]byte, error) {
	data, _, err := render(req)
	return data, err
}

func render(req Request) ([]byte, string, error) {
	root, err := Compile(req)
	if err != nil {
		return nil, "", err
	}

	res, _ := req.resolve()
	sum, err := checksum(req, res)
	if err != nil {
		return nil, "", err
	}

	doc := yamlnode.Document(root,
		"",
		"This is a generated file",
		strings.TrimPrefix(ChecksumHeaderPrefix, "# ")+sum,
		"",
	)

	data, err := yamlnode.Encode(doc)
	if err != nil {
		return nil, "", err
	}
	return data, sum, nil
}

// ReadChecksum extracts the checksum from the header comment of a generated
// file. It returns an empty string if there is none.
func ReadChecksum(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	// Only scan the header comments.
	for lineCount := 0; scanner.Scan() && lineCount < 10; lineCount++ {
		line := scanner.Text()

		if strings.HasPrefix(line, ChecksumHeaderPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, ChecksumHeaderPrefix)), nil
		}

		if !strings.HasPrefix(line, "#") && strings.TrimSpace(line) != "" {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", nil
}

// Result describes a generated file.
type Result struct {
	Output   string
	Checksum string
	Jobs     int
	Bytes    int
}

// Generator writes pipeline configurations.
type Generator struct {
	log logrus.FieldLogger
}

// NewGenerator returns a Generator logging to log. A nil log discards
// messages.
func NewGenerator(log logrus.FieldLogger) *Generator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Generator{log: log}
}

// Generate renders req and writes it to req.Output, replacing any existing
// file. Write failures are reported as ErrGenerationIO.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Output == "" {
		return nil, &ConfigError{Errors: []crossversion.ValidationError{{
			Field:   "output",
			Message: "required field is missing",
		}}}
	}

	log := g.log.WithField("output", req.Output)
	log.Debug("rendering pipeline configuration")

	data, sum, err := render(req)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.WriteFile(req.Output, data, 0o644); err != nil {
		return nil, flaterrors.Join(fmt.Errorf("writing %s: %w", req.Output, err), ErrGenerationIO)
	}

	plan := NewPlan(req)
	log.WithFields(logrus.Fields{
		"jobs":     len(plan.Jobs),
		"checksum": sum,
	}).Info("generated pipeline configuration")

	return &Result{
		Output:   req.Output,
		Checksum: sum,
		Jobs:     len(plan.Jobs),
		Bytes:    len(data),
	}, nil
}

// CheckStatus is the state of a generated file compared with its inputs.
type CheckStatus string

const (
	// StatusUpToDate means the file is exactly what would be generated.
	StatusUpToDate CheckStatus = "up-to-date"
	// StatusMissing means the file does not exist.
	StatusMissing CheckStatus = "missing"
	// StatusInputsChanged means the file was generated from other inputs.
	StatusInputsChanged CheckStatus = "inputs-changed"
	// StatusModified means the file was generated from the same inputs and
	// edited afterwards.
	StatusModified CheckStatus = "modified"
)

// CheckResult is returned by Check.
type CheckResult struct {
	Status           CheckStatus
	Output           string
	Checksum         string
	ExistingChecksum string
}

// UpToDate reports whether the file needs no regeneration.
func (r *CheckResult) UpToDate() bool {
	return r.Status == StatusUpToDate
}

// Check compares req.Output with what Generate would write. It never writes.
func (g *Generator) Check(ctx context.Context, req Request) (*CheckResult, error) {
	if req.Output == "" {
		return nil, &ConfigError{Errors: []crossversion.ValidationError{{
			Field:   "output",
			Message: "required field is missing",
		}}}
	}

	want, sum, err := render(req)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &CheckResult{Output: req.Output, Checksum: sum}
	log := g.log.WithField("output", req.Output)

	got, err := os.ReadFile(req.Output)
	if errors.Is(err, os.ErrNotExist) {
		result.Status = StatusMissing
		log.Debug("generated file is missing")
		return result, nil
	}
	if err != nil {
		return nil, flaterrors.Join(fmt.Errorf("reading %s: %w", req.Output, err), ErrGenerationIO)
	}

	existing, err := ReadChecksum(bytes.NewReader(got))
	if err != nil {
		return nil, flaterrors.Join(fmt.Errorf("reading %s: %w", req.Output, err), ErrGenerationIO)
	}
	result.ExistingChecksum = existing

	switch {
	case bytes.Equal(got, want):
		result.Status = StatusUpToDate
	case existing == sum:
		result.Status = StatusModified
	default:
		result.Status = StatusInputsChanged
	}

	log.WithField("status", result.Status).Debug("checked generated file")
	return result, nil
}
