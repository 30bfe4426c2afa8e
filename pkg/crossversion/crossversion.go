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

// Package crossversion describes the JDK matrix and the named cross-version
// test configurations a CI pipeline is generated from.
//
// A cross-version entry pins one Gradle version and the JDKs the plugin's test
// suite must be run against with that Gradle version:
//
//	crossVersion:
//	  gradle46: {gradle: "4.6", jdks: [8, 9]}
//	  gradle41: {gradle: "4.1", jdks: 8}
package crossversion

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// JDK is a Java major version, e.g. 8 or 11.
type JDK int

// String returns the decimal representation of the JDK version.
func (j JDK) String() string {
	return strconv.Itoa(int(j))
}

// JDKList is an ordered list of JDKs. In YAML it may be written either as a
// sequence of integers or as a single integer.
type JDKList []JDK

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *JDKList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var jdk JDK
		if err := node.Decode(&jdk); err != nil {
			return fmt.Errorf("line %d: jdk must be an integer: %w", node.Line, err)
		}
		*l = JDKList{jdk}
		return nil
	case yaml.SequenceNode:
		var jdks []JDK
		if err := node.Decode(&jdks); err != nil {
			return fmt.Errorf("line %d: jdks must be a list of integers: %w", node.Line, err)
		}
		*l = jdks
		return nil
	default:
		return fmt.Errorf("line %d: jdks must be an integer or a list of integers", node.Line)
	}
}

// First returns the first JDK of the list. It panics on an empty list.
func (l JDKList) First() JDK {
	return l[0]
}

// Contains reports whether jdk is in the list.
func (l JDKList) Contains(jdk JDK) bool {
	for _, j := range l {
		if j == jdk {
			return true
		}
	}
	return false
}

// CrossVersion pins a Gradle version and the JDKs it is tested under.
type CrossVersion struct {
	// Gradle is the Gradle version the tests run against (e.g. "4.5.1").
	Gradle string `yaml:"gradle"`
	// JDKs lists the JDKs the cross-version tests run on. The first one is
	// the lead JDK: jobs for the other JDKs wait for it.
	JDKs JDKList `yaml:"jdks"`
}

// Entry is a named CrossVersion.
type Entry struct {
	Name string
	CrossVersion
}

// Table is an ordered set of uniquely named cross-version entries. The order
// only affects the order of generated jobs.
type Table []Entry

// UnmarshalYAML decodes a mapping from name to CrossVersion, preserving the
// order of the keys.
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: crossVersion must be a mapping", node.Line)
	}

	out := make(Table, 0, len(node.Content)/2)
	seen := make(map[string]int, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return fmt.Errorf("line %d: crossVersion key: %w", keyNode.Line, err)
		}

		if line, ok := seen[name]; ok {
			return fmt.Errorf("line %d: crossVersion %q already defined at line %d", keyNode.Line, name, line)
		}
		seen[name] = keyNode.Line

		var cv CrossVersion
		if err := valueNode.Decode(&cv); err != nil {
			return fmt.Errorf("crossVersion %q: %w", name, err)
		}

		out = append(out, Entry{Name: name, CrossVersion: cv})
	}

	*t = out
	return nil
}

// MarshalYAML encodes the table as a mapping in table order.
func (t Table) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range t {
		value := &yaml.Node{}
		if err := value.Encode(e.CrossVersion); err != nil {
			return nil, fmt.Errorf("encoding crossVersion %q: %w", e.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Name},
			value,
		)
	}
	return node, nil
}

// Lookup returns the CrossVersion registered under name.
func (t Table) Lookup(name string) (CrossVersion, bool) {
	for _, e := range t {
		if e.Name == name {
			return e.CrossVersion, true
		}
	}
	return CrossVersion{}, false
}

// GradleVersions returns the distinct Gradle versions of the table, in table
// order, after any version listed in first.
func (t Table) GradleVersions(first ...string) []string {
	seen := make(map[string]struct{}, len(t)+len(first))
	out := make([]string, 0, len(t)+len(first))

	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, v := range first {
		add(v)
	}
	for _, e := range t {
		add(e.Gradle)
	}

	return out
}
