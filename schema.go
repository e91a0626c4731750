// schema.go: Flag declarations, type tags and YAML schema round-trip
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"fmt"
	"strings"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

// TypeTag is the declared value kind of a flag. It only affects help
// rendering and the flash-flags bridge, never parsing.
type TypeTag int

const (
	TypeString TypeTag = iota
	TypeInteger
	TypeUnsigned
	TypeFloat
	TypeBool
	TypeComplex
)

var typeTagNames = [...]string{
	TypeString:   "string",
	TypeInteger:  "integer",
	TypeUnsigned: "unsigned",
	TypeFloat:    "float",
	TypeBool:     "bool",
	TypeComplex:  "complex",
}

func (t TypeTag) String() string {
	if t < 0 || int(t) >= len(typeTagNames) {
		return "unknown"
	}
	return typeTagNames[t]
}

// MarshalText implements encoding.TextMarshaler
func (t TypeTag) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(typeTagNames) {
		return nil, errors.New(ErrCodeInvalidSchema, fmt.Sprintf("unknown type tag %d", int(t)))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *TypeTag) UnmarshalText(text []byte) error {
	tag, err := ParseTypeTag(string(text))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// ParseTypeTag converts a tag name back to a TypeTag.
// "int", "uint" and "double" are accepted as aliases.
func ParseTypeTag(name string) (TypeTag, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "":
		return TypeString, nil
	case "integer", "int", "number":
		return TypeInteger, nil
	case "unsigned", "uint":
		return TypeUnsigned, nil
	case "float", "double":
		return TypeFloat, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "complex":
		return TypeComplex, nil
	default:
		return TypeString, errors.New(ErrCodeInvalidSchema, fmt.Sprintf("unknown type tag %q", name))
	}
}

// FlagSpec is one entry of the declaration table.
type FlagSpec struct {
	Key         string  `yaml:"key"`
	Description string  `yaml:"description"`
	Type        TypeTag `yaml:"type"`
}

type schemaDocument struct {
	Flags []FlagSpec `yaml:"flags"`
}

// declare records key in the declaration table. A key declared again keeps
// its position and takes the newest description and tag.
func (r *Registry) declare(key, desc string, tag TypeTag) {
	spec := FlagSpec{Key: key, Description: desc, Type: tag}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.specs[i] = spec
	} else {
		r.index[key] = len(r.specs)
		r.specs = append(r.specs, spec)
	}
	r.config.Audit.LogDeclared(key, tag, desc)
}

// Declare adds key to the help output without reading its value.
func (r *Registry) Declare(key, desc string, tag TypeTag) {
	r.declare(key, desc, tag)
}

// DeclareSchema declares every FlagSpec in order.
func (r *Registry) DeclareSchema(specs []FlagSpec) {
	for _, spec := range specs {
		r.declare(spec.Key, spec.Description, spec.Type)
	}
}

// Schema returns the declared flags in declaration order.
func (r *Registry) Schema() []FlagSpec {
	return append([]FlagSpec(nil), r.specs...)
}

// MarshalSchemaYAML renders the declaration table as a YAML document.
func (r *Registry) MarshalSchemaYAML() ([]byte, error) {
	doc := schemaDocument{Flags: r.Schema()}
	if doc.Flags == nil {
		doc.Flags = []FlagSpec{}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidSchema, "failed to encode schema")
	}
	return data, nil
}

// LoadSchemaYAML declares every flag listed in a YAML schema document:
//
//	flags:
//	  - key: --port
//	    description: listen port
//	    type: unsigned
func (r *Registry) LoadSchemaYAML(data []byte) error {
	specs, err := ParseSchemaYAML(data)
	if err != nil {
		return err
	}
	r.DeclareSchema(specs)
	return nil
}

// ParseSchemaYAML decodes a YAML schema document without declaring anything.
func ParseSchemaYAML(data []byte) ([]FlagSpec, error) {
	var doc schemaDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidSchema, "failed to decode schema")
	}
	for i, spec := range doc.Flags {
		if spec.Key == "" {
			return nil, errors.New(ErrCodeInvalidSchema, fmt.Sprintf("schema entry %d has no key", i))
		}
	}
	return doc.Flags, nil
}
