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

// Package version reports the version of circleci-gen, from ldflags or from
// the Go build info.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

const (
	devVersion = "dev"
	unknown    = "unknown"
)

// Info holds the ldflags-provided version of a tool.
type Info struct {
	// ToolName is the name of the tool.
	ToolName string
	// Version is set via ldflags.
	Version string
	// CommitSHA is set via ldflags.
	CommitSHA string
	// BuildTimestamp is set via ldflags.
	BuildTimestamp string

	readBuildInfo func() (*debug.BuildInfo, bool)
}

// Resolved is the effective version of a binary.
type Resolved struct {
	Version   string
	Commit    string
	Timestamp string
	Go        string
	Platform  string
}

// New creates an Info. Empty values fall back to the build info.
func New(toolName, version, commit, timestamp string) *Info {
	return &Info{
		ToolName:       toolName,
		Version:        orDefault(version, devVersion),
		CommitSHA:      orDefault(commit, unknown),
		BuildTimestamp: orDefault(timestamp, unknown),
		readBuildInfo:  debug.ReadBuildInfo,
	}
}

// Get resolves the version, filling unset fields from the module and VCS
// build settings.
func (i *Info) Get() Resolved {
	out := Resolved{
		Version:   i.Version,
		Commit:    i.CommitSHA,
		Timestamp: i.BuildTimestamp,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if i.readBuildInfo == nil {
		return out
	}

	info, ok := i.readBuildInfo()
	if !ok {
		return out
	}

	if out.Version == devVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if out.Commit == unknown {
				out.Commit = short(setting.Value)
			}
			if out.Version == devVersion && setting.Value != "" {
				out.Version = short(setting.Value)
			}
		case "vcs.time":
			if out.Timestamp == unknown {
				out.Timestamp = setting.Value
			}
		}
	}

	return out
}

// Print writes the resolved version to w.
func (i *Info) Print(w io.Writer) error {
	r := i.Get()
	_, err := fmt.Fprintf(w,
		"%s version %s\n  commit:    %s\n  built:     %s\n  go:        %s\n  platform:  %s\n",
		i.ToolName, r.Version, r.Commit, r.Timestamp, r.Go, r.Platform)
	return err
}

// String returns a one-line version string.
func (i *Info) String() string {
	return fmt.Sprintf("%s version %s", i.ToolName, i.Get().Version)
}

func short(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
