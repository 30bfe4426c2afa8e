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

// Package projectpath locates the root of the project a pipeline is
// generated for.
package projectpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the generator configuration file. Its
// directory is the project root.
const ConfigFileName = "circleci-gen.yaml"

// ErrNotFound is returned when no directory up to the filesystem root holds a
// configuration file.
var ErrNotFound = errors.New(ConfigFileName + " not found")

// IsProjectRoot reports whether dir holds a configuration file.
func IsProjectRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil && !info.IsDir()
}

// FindRoot walks up from start until it finds a directory holding a
// configuration file, and returns its absolute path.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for {
		if IsProjectRoot(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w (searched from %s)", ErrNotFound, start)
}

// FindConfig returns the path of the configuration file of the project
// containing start.
func FindConfig(start string) (string, error) {
	root, err := FindRoot(start)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ConfigFileName), nil
}
