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

package circleci

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kay/gradle-apt-plugin/pkg/crossversion"
)

func requestIn(t *testing.T) Request {
	t.Helper()
	req := pluginRequest()
	req.Output = filepath.Join(t.TempDir(), "config.yml")
	return req
}

func TestGenerate_WritesFile(t *testing.T) {
	req := requestIn(t)
	logger, hook := test.NewNullLogger()

	result, err := NewGenerator(logger).Generate(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)

	want, err := Render(req)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	assert.Equal(t, req.Output, result.Output)
	assert.Equal(t, len(data), result.Bytes)
	assert.Equal(t, len(NewPlan(req).Jobs), result.Jobs)
	assert.True(t, strings.HasPrefix(result.Checksum, ChecksumPrefix))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, req.Output, entry.Data["output"])
}

func TestGenerate_OverwritesExistingFile(t *testing.T) {
	req := requestIn(t)
	require.NoError(t, os.WriteFile(req.Output, []byte("stale: true\n"), 0o644))

	_, err := NewGenerator(nil).Generate(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestGenerate_MissingDirectory(t *testing.T) {
	req := pluginRequest()
	req.Output = filepath.Join(t.TempDir(), "missing", ".circleci", "config.yml")

	_, err := NewGenerator(nil).Generate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "writing "+req.Output)
}

func TestGenerate_InvalidRequestWritesNothing(t *testing.T) {
	req := requestIn(t)
	req.CrossVersions = append(req.CrossVersions, crossversion.Entry{
		Name:         "gradle50",
		CrossVersion: crossversion.CrossVersion{Gradle: "5.0", JDKs: crossversion.JDKList{11}},
	})

	_, err := NewGenerator(nil).Generate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "crossVersion.gradle50.jdks: JDK 11 is not part of jdks [8 9 10]")

	_, statErr := os.Stat(req.Output)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestGenerate_MissingOutput(t *testing.T) {
	req := pluginRequest()
	req.Output = ""

	_, err := NewGenerator(nil).Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGenerate_CanceledContext(t *testing.T) {
	req := requestIn(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(nil).Generate(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(req.Output)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	gen := NewGenerator(nil)
	req := requestIn(t)

	result, err := gen.Check(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, result.Status)
	assert.False(t, result.UpToDate())

	_, err = gen.Generate(ctx, req)
	require.NoError(t, err)

	result, err = gen.Check(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusUpToDate, result.Status)
	assert.True(t, result.UpToDate())
	assert.Equal(t, result.Checksum, result.ExistingChecksum)

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	edited := bytes.Replace(data, []byte("./gradlew build"), []byte("./gradlew check"), 1)
	require.NoError(t, os.WriteFile(req.Output, edited, 0o644))

	result, err = gen.Check(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusModified, result.Status)

	changed := req
	changed.CurrentGradle = "4.8"
	result, err = gen.Check(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, StatusInputsChanged, result.Status)
	assert.NotEqual(t, result.Checksum, result.ExistingChecksum)
}

func TestCheck_DoesNotWrite(t *testing.T) {
	req := requestIn(t)

	_, err := NewGenerator(nil).Check(context.Background(), req)
	require.NoError(t, err)

	_, statErr := os.Stat(req.Output)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestCheck_OutputIsADirectory(t *testing.T) {
	req := pluginRequest()
	req.Output = t.TempDir()

	_, err := NewGenerator(nil).Check(context.Background(), req)
	assert.ErrorIs(t, err, ErrGenerationIO)
}

func TestChecksum(t *testing.T) {
	a, err := Checksum(pluginRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a, ChecksumPrefix))

	again, err := Checksum(pluginRequest())
	require.NoError(t, err)
	assert.Equal(t, a, again)

	req := pluginRequest()
	req.CrossVersions[0].JDKs = crossversion.JDKList{8}
	b, err := Checksum(req)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	req = pluginRequest()
	req.Output = "elsewhere.yml"
	c, err := Checksum(req)
	require.NoError(t, err)
	assert.Equal(t, a, c, "the output path is not an input")

	req = pluginRequest()
	req.JDKs = nil
	_, err = Checksum(req)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestReadChecksum(t *testing.T) {
	data, err := Render(pluginRequest())
	require.NoError(t, err)

	want, err := Checksum(pluginRequest())
	require.NoError(t, err)

	got, err := ReadChecksum(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ReadChecksum(strings.NewReader("version: 2\n# SourceChecksum: sha256:late\n"))
	require.NoError(t, err)
	assert.Empty(t, got, "only header comments are scanned")

	got, err = ReadChecksum(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRender_Header(t *testing.T) {
	data, err := Render(pluginRequest())
	require.NoError(t, err)

	header := string(data[:bytes.Index(data, []byte("platforms:"))])
	assert.Contains(t, header, "# This is a generated file\n")
	assert.Contains(t, header, ChecksumHeaderPrefix+ChecksumPrefix)
}
