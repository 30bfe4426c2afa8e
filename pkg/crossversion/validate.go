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

package crossversion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	// Field is the path to the field that failed validation.
	Field string
	// Message describes the validation failure.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// nameRegexp restricts cross-version names to characters that are safe in
// CircleCI job names and YAML anchors.
var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks the JDK list and the cross-version table. Every JDK a
// cross-version entry uses must be part of jdks.
func Validate(jdks JDKList, table Table) []ValidationError {
	var errors []ValidationError

	if len(jdks) == 0 {
		errors = append(errors, ValidationError{
			Field:   "jdks",
			Message: "at least one JDK is required",
		})
	}
	errors = append(errors, validateJDKList("jdks", jdks)...)

	seen := make(map[string]struct{}, len(table))
	slugs := make(map[string]versionUse, len(table))
	for i, e := range table {
		field := fmt.Sprintf("crossVersion[%d]", i)
		if e.Name != "" {
			field = "crossVersion." + e.Name
		}

		switch {
		case e.Name == "":
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "name is required",
			})
		case !nameRegexp.MatchString(e.Name):
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "name must only contain letters, digits, '-' and '_'",
			})
		}

		if _, ok := seen[e.Name]; ok && e.Name != "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "name is defined more than once",
			})
		}
		seen[e.Name] = struct{}{}

		if versionErrs := ValidateGradleVersion(field+".gradle", e.Gradle); len(versionErrs) > 0 {
			errors = append(errors, versionErrs...)
		} else if prev, ok := slugs[VersionSlug(e.Gradle)]; ok && prev.version != e.Gradle {
			errors = append(errors, ValidationError{
				Field:   field + ".gradle",
				Message: fmt.Sprintf("Gradle version %q collides with %q of %s", e.Gradle, prev.version, prev.field),
			})
		} else if !ok {
			slugs[VersionSlug(e.Gradle)] = versionUse{version: e.Gradle, field: field + ".gradle"}
		}

		if len(e.JDKs) == 0 {
			errors = append(errors, ValidationError{
				Field:   field + ".jdks",
				Message: "at least one JDK is required",
			})
		}
		errors = append(errors, validateJDKList(field+".jdks", e.JDKs)...)

		for _, jdk := range e.JDKs {
			if jdk > 0 && !jdks.Contains(jdk) {
				errors = append(errors, ValidationError{
					Field:   field + ".jdks",
					Message: fmt.Sprintf("JDK %d is not part of jdks %v", jdk, []JDK(jdks)),
				})
			}
		}
	}

	return errors
}

func validateJDKList(field string, jdks JDKList) []ValidationError {
	var errors []ValidationError

	seen := make(map[JDK]struct{}, len(jdks))
	for _, jdk := range jdks {
		if jdk <= 0 {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("JDK %d must be a positive major version", jdk),
			})
			continue
		}
		if _, ok := seen[jdk]; ok {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("JDK %d is listed more than once", jdk),
			})
		}
		seen[jdk] = struct{}{}
	}

	return errors
}

type versionUse struct {
	version string
	field   string
}

// VersionSlug returns version with dots replaced by dashes, the form it takes
// in anchor names.
func VersionSlug(version string) string {
	return strings.ReplaceAll(version, ".", "-")
}

// ValidateGradleVersion checks that version is a parseable Gradle version
// whose slug is a valid anchor name.
func ValidateGradleVersion(field, version string) []ValidationError {
	var msg string
	switch {
	case version == "":
		msg = "required field is missing"
	case strings.TrimSpace(version) != version:
		msg = fmt.Sprintf("Gradle version %q must not contain leading or trailing whitespace", version)
	case strings.HasPrefix(version, "v") || strings.HasPrefix(version, "V"):
		msg = fmt.Sprintf("Gradle version %q must not start with %q", version, version[:1])
	case !nameRegexp.MatchString(VersionSlug(version)):
		msg = fmt.Sprintf("Gradle version %q must only contain letters, digits, '.' and '-'", version)
	}
	if msg != "" {
		return []ValidationError{{Field: field, Message: msg}}
	}

	if _, err := ParseGradleVersion(version); err != nil {
		return []ValidationError{{
			Field:   field,
			Message: err.Error(),
		}}
	}

	return nil
}

// ValidateVersionCollisions reports a version of table that differs from
// version but has the same slug.
func ValidateVersionCollisions(field, version string, table Table) []ValidationError {
	for i, e := range table {
		if e.Gradle == version || VersionSlug(e.Gradle) != VersionSlug(version) {
			continue
		}

		other := fmt.Sprintf("crossVersion[%d]", i)
		if e.Name != "" {
			other = "crossVersion." + e.Name
		}
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("Gradle version %q collides with %q of %s.gradle", version, e.Gradle, other),
		}}
	}

	return nil
}

// ParseGradleVersion parses a Gradle version such as "4.6", "2.14.1" or
// "5.0-rc-1".
func ParseGradleVersion(version string) (*semver.Version, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid Gradle version %q: %w", version, err)
	}
	return v, nil
}

// FeatureRelease returns the "gradle<major><minor>" tag of a Gradle version,
// e.g. "gradle45" for "4.5.1".
func FeatureRelease(version string) (string, error) {
	v, err := ParseGradleVersion(version)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("gradle%d%d", v.Major(), v.Minor()), nil
}
