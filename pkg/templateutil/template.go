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

// Package templateutil provides template expansion for generator settings.
//
// Docker images and environment values in circleci-gen.yaml may reference the
// JDK a platform is generated for and the environment of the generator:
//
//	dockerImage: "circleci/openjdk:{{ .JDK }}-jdk"
//	environment:
//	  - name: GRADLE_OPTS
//	    value: "-Dorg.gradle.daemon=false {{ .Env.EXTRA_GRADLE_OPTS }}"
//
// Expansion is strict: a reference to an undefined environment variable is an
// error, reported with the list of variables that are available.
package templateutil

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Data is the data a template is executed with.
type Data struct {
	// JDK is the Java major version the value is rendered for. It is zero for
	// values that are not JDK specific.
	JDK int
	// Env holds the environment variables available to the template.
	Env map[string]string
}

// Expand expands str using data. Strings without template markers are
// returned unchanged.
func Expand(str string, data Data) (string, error) {
	if !strings.Contains(str, "{{") {
		return str, nil
	}

	tmpl, err := template.New("value").Option("missingkey=error").Parse(str)
	if err != nil {
		return "", fmt.Errorf("template parsing failed for '%s': %w", str, err)
	}

	if data.Env == nil {
		data.Env = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Go template error format: "... at <.Env.VAR>: map has no entry for key \"VAR\""
		errMsg := err.Error()

		var missingVar string
		if parts := strings.Split(errMsg, "map has no entry for key \""); len(parts) >= 2 {
			missingVar = strings.Split(parts[1], "\"")[0]
		}

		availableVars := make([]string, 0, len(data.Env))
		for k := range data.Env {
			availableVars = append(availableVars, k)
		}
		sort.Strings(availableVars)

		if missingVar != "" {
			return "", fmt.Errorf("template expansion failed: variable '%s' not found in environment for template '%s'. Available: %v",
				missingVar, str, availableVars)
		}

		return "", fmt.Errorf("template expansion failed for '%s': %w", str, err)
	}

	return buf.String(), nil
}

// EnvMap converts "KEY=VALUE" pairs, as returned by os.Environ, into a map.
// Later pairs win over earlier ones.
func EnvMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
