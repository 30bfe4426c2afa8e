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

package util

import (
	"fmt"
	"reflect"
	"strings"
)

// EnvVar describes an environment variable read into a struct field.
type EnvVar struct {
	Name        string
	Default     string
	Description string
	Required    bool
}

// ExpectedEnvs lists the environment variables read into T, in field order.
// It reads the `env`, `envDefault` and `description` tags of the fields.
func ExpectedEnvs[T any]() []EnvVar {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	out := make([]EnvVar, 0, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		val, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}

		name, opts, _ := strings.Cut(val, ",")
		if name == "" {
			continue
		}

		out = append(out, EnvVar{
			Name:        name,
			Default:     field.Tag.Get("envDefault"),
			Description: field.Tag.Get("description"),
			Required:    strings.Contains(opts, "required"),
		})
	}

	return out
}

// FormatExpectedEnvList formats the environment variables read into T for
// help output, one aligned line per variable.
func FormatExpectedEnvList[T any]() string {
	envs := ExpectedEnvs[T]()

	width := 0
	for _, e := range envs {
		width = max(width, len(e.Name))
	}

	var b strings.Builder
	for _, e := range envs {
		line := fmt.Sprintf("  %-*s  %s", width, e.Name, e.Description)
		if e.Required {
			line += " [required]"
		}
		if e.Default != "" {
			line += fmt.Sprintf(" (default %q)", e.Default)
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}

	return b.String()
}
