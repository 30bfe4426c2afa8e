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

// Package yamlnode builds YAML documents as gopkg.in/yaml.v3 node trees.
//
// Building the tree instead of concatenating strings keeps indentation and
// quoting in the hands of the encoder. Anchors are tracked by an Anchors
// registry so that every alias points at a node defined earlier in the
// document.
package yamlnode

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MergeKey is the YAML merge key.
const MergeKey = "<<"

// Field is a single key/value pair of a mapping.
type Field struct {
	Key   string
	Value *yaml.Node
}

// F is shorthand for Field{Key: key, Value: value}.
func F(key string, value *yaml.Node) Field {
	return Field{Key: key, Value: value}
}

// Str returns a string scalar node.
func Str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Int returns an integer scalar node.
func Int(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

// Map returns a block mapping node with fields in the given order.
func Map(fields ...Field) *yaml.Node {
	content := make([]*yaml.Node, 0, 2*len(fields))
	for _, f := range fields {
		content = append(content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Key}, f.Value)
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: content}
}

// Seq returns a block sequence node.
func Seq(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: items}
}

// Strs returns a block sequence of string scalars.
func Strs(values ...string) *yaml.Node {
	items := make([]*yaml.Node, len(values))
	for i, v := range values {
		items[i] = Str(v)
	}
	return Seq(items...)
}

// Append adds fields at the end of mapping.
func Append(mapping *yaml.Node, fields ...Field) *yaml.Node {
	for _, f := range fields {
		mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Key}, f.Value)
	}
	return mapping
}

// ErrUnknownAnchor is returned when an alias refers to an anchor that was not
// defined.
var ErrUnknownAnchor = errors.New("unknown anchor")

// ErrDuplicateAnchor is returned when an anchor name is defined twice.
var ErrDuplicateAnchor = errors.New("duplicate anchor")

// Anchors records anchored nodes by name. The zero value is not usable; use
// NewAnchors.
type Anchors struct {
	nodes map[string]*yaml.Node
	errs  []error
}

// NewAnchors returns an empty anchor registry.
func NewAnchors() *Anchors {
	return &Anchors{nodes: make(map[string]*yaml.Node)}
}

// Define anchors node under name and returns it.
func (a *Anchors) Define(name string, node *yaml.Node) *yaml.Node {
	if _, ok := a.nodes[name]; ok {
		a.errs = append(a.errs, fmt.Errorf("%w: %q", ErrDuplicateAnchor, name))
		return node
	}
	node.Anchor = name
	a.nodes[name] = node
	return node
}

// Ref returns an alias node pointing at the anchor name. Referring to an
// undefined anchor is recorded and reported by Err.
func (a *Anchors) Ref(name string) *yaml.Node {
	target, ok := a.nodes[name]
	if !ok {
		a.errs = append(a.errs, fmt.Errorf("%w: %q", ErrUnknownAnchor, name))
	}
	return &yaml.Node{Kind: yaml.AliasNode, Value: name, Alias: target}
}

// Merge returns a merge field ("<<: *name") for the anchor name.
func (a *Anchors) Merge(name string) Field {
	return Field{Key: MergeKey, Value: a.Ref(name)}
}

// Err returns every error recorded while defining and referencing anchors.
func (a *Anchors) Err() error {
	return errors.Join(a.errs...)
}

// Document wraps root in a document node with the given head comment lines.
// Each line is emitted as a "# line" comment; an empty line yields a bare "#".
func Document(root *yaml.Node, comment ...string) *yaml.Node {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	if len(comment) > 0 {
		var buf bytes.Buffer
		for i, line := range comment {
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteByte('#')
			if line != "" {
				buf.WriteByte(' ')
				buf.WriteString(line)
			}
		}
		doc.HeadComment = buf.String()
	}
	return doc
}

// Encode serializes node with a two-space indent.
func Encode(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}
