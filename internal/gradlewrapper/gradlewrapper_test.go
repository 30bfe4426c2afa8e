//go:build unit

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

package gradlewrapper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wrapperProperties = `#Tue Apr 17 10:12:45 CEST 2018
distributionBase=GRADLE_USER_HOME
distributionPath=wrapper/dists
zipStoreBase=GRADLE_USER_HOME
zipStorePath=wrapper/dists
distributionUrl=https\://services.gradle.org/distributions/gradle-4.7-bin.zip
`

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "bin distribution", content: wrapperProperties, want: "4.7"},
		{
			name:    "all distribution",
			content: "distributionUrl=https\\://services.gradle.org/distributions/gradle-4.5.1-all.zip\n",
			want:    "4.5.1",
		},
		{
			name:    "release candidate",
			content: "distributionUrl = https://services.gradle.org/distributions/gradle-5.0-rc-1-bin.zip\n",
			want:    "5.0-rc-1",
		},
		{
			name:    "whitespace separator",
			content: "distributionUrl https://example.com/mirror/gradle-4.1-all.zip\n",
			want:    "4.1",
		},
		{
			name:    "line continuation",
			content: "distributionUrl=https\\://services.gradle.org/\\\n    distributions/gradle-4.6-bin.zip\n",
			want:    "4.6",
		},
		{
			name:    "unicode escape",
			content: "distributionUrl=https\\://services.gradle.org/distributions/gradle\\u002d4.4.1-bin.zip\n",
			want:    "4.4.1",
		},
		{
			name:    "colon separator",
			content: "distributionUrl: https://example.com/mirror/gradle-2.14.1-bin.zip\n",
			want:    "2.14.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersion(strings.NewReader(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVersion_Errors(t *testing.T) {
	_, err := ParseVersion(strings.NewReader("# distributionUrl=gradle-4.7-bin.zip\ndistributionBase=GRADLE_USER_HOME\n"))
	assert.ErrorIs(t, err, ErrNoDistributionURL)

	_, err = ParseVersion(strings.NewReader("distributionUrl=https://example.com/gradle.tar.gz\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized distributionUrl")
}

func TestVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gradle", "wrapper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, PropertiesPath), []byte(wrapperProperties), 0o644))

	got, err := Version(dir)
	require.NoError(t, err)
	assert.Equal(t, "4.7", got)

	_, err = Version(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
