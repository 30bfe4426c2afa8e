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

// Package gradlewrapper reads the Gradle version a project is pinned to by
// its Gradle wrapper.
package gradlewrapper

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"

	"github.com/magiconair/properties"
)

// PropertiesPath is the location of the wrapper properties, relative to the
// project root.
var PropertiesPath = filepath.Join("gradle", "wrapper", "gradle-wrapper.properties")

// ErrNoDistributionURL is returned when the properties do not declare a
// distributionUrl.
var ErrNoDistributionURL = errors.New("distributionUrl not found")

const distributionURLKey = "distributionUrl"

// distributionRegexp matches the file name of a Gradle distribution, e.g.
// "gradle-4.7-bin.zip" or "gradle-5.0-rc-1-all.zip".
var distributionRegexp = regexp.MustCompile(`gradle-([0-9][0-9A-Za-z.\-]*?)-(bin|all)\.zip$`)

// Version returns the Gradle version of the wrapper of the project rooted at
// dir.
func Version(dir string) (string, error) {
	path := filepath.Join(dir, PropertiesPath)

	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", path, err)
	}

	v, err := versionOf(props)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return v, nil
}

// ParseVersion extracts the Gradle version from the distributionUrl of
// gradle-wrapper.properties content.
func ParseVersion(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	props, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return "", err
	}
	return versionOf(props)
}

func versionOf(props *properties.Properties) (string, error) {
	url, ok := props.Get(distributionURLKey)
	if !ok {
		return "", ErrNoDistributionURL
	}

	m := distributionRegexp.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("unrecognized distributionUrl %q", url)
	}
	return m[1], nil
}
