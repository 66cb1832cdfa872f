/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package metadata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk YAML layout of a metadata source.
//
//	source: sample
//	core: true          # include CoreLibrary, default true
//	types:
//	  - ref: Sample.Widget
//	    name: Widget
//	    kind: class
//	    base: System.Object
//	    properties:
//	      - {name: Size, type: System.Int32, get: {public: true}}
type document struct {
	Source string            `yaml:"source"`
	Core   *bool             `yaml:"core"`
	Types  []*TypeDefinition `yaml:"types"`
}

// LoadYAML builds a MemorySource from a YAML document.
func LoadYAML(data []byte) (*MemorySource, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tdx(metadata): decode yaml: %w", err)
	}
	name := doc.Source
	if name == "" {
		name = "yaml"
	}
	var defs []*TypeDefinition
	if doc.Core == nil || *doc.Core {
		defs = append(defs, CoreLibrary()...)
	}
	defs = append(defs, doc.Types...)
	return NewMemorySource(name, defs...)
}

// LoadYAMLFile reads path and calls LoadYAML.
func LoadYAMLFile(path string) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tdx(metadata): read %s: %w", path, err)
	}
	return LoadYAML(data)
}

// UnmarshalYAML decodes a signature from its textual scalar form.
func (s *TypeSig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected scalar", ErrInvalidSignature, node.Line)
	}
	sig, err := ParseSig(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = sig
	return nil
}

// MarshalYAML encodes a signature as its textual form.
func (s TypeSig) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML decodes a kind token.
func (k *TypeKind) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "", "class":
		*k = KindClass
	case "struct":
		*k = KindStruct
	case "interface":
		*k = KindInterface
	case "enum":
		*k = KindEnum
	default:
		return fmt.Errorf("tdx(metadata): line %d: unknown type kind %q", node.Line, node.Value)
	}
	return nil
}

// MarshalYAML encodes a kind token.
func (k TypeKind) MarshalYAML() (any, error) {
	return k.String(), nil
}
