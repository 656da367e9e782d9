// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

// Package schema provides the ordered JSON document model used to resolve and prune JSON-Schema documents
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefsKey is the top-level key holding shared definitions
const DefsKey = "$defs"

// RefKey is the key marking an object as a reference pointer
const RefKey = "$ref"

var (
	// ErrNotObject is returned when a document's root is not a JSON object
	ErrNotObject = errors.New("document root is not a JSON object")
	// ErrMissingDefs is returned by a strict Prune when there is nothing to prune
	ErrMissingDefs = fmt.Errorf("missing key %q", DefsKey)
)

// Object is a JSON object that remembers the order its keys were inserted in
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Parse parses data into an ordered tree
//
// Objects become *Object, arrays []any, strings string, numbers json.Number
// (keeping their original text), booleans bool and null nil.
func Parse(data []byte) (*Object, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	value, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if typ != jsonparser.Object {
		return nil, ErrNotObject
	}

	v, err := parseValue(value, typ)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v.(*Object), nil
}

func parseValue(value []byte, typ jsonparser.ValueType) (any, error) {
	switch typ {
	case jsonparser.Object:
		obj := NewObject()
		err := jsonparser.ObjectEach(value, func(key []byte, v []byte, t jsonparser.ValueType, _ int) error {
			parsed, err := parseValue(v, t)
			if err != nil {
				return err
			}
			// keys handed to the callback are already unescaped
			obj.Set(string(key), parsed)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	case jsonparser.Array:
		arr := []any{}
		var inner error
		_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			parsed, err := parseValue(v, t)
			if err != nil {
				inner = err
				return
			}
			arr = append(arr, parsed)
		})
		if err != nil {
			return nil, err
		}
		if inner != nil {
			return nil, inner
		}
		return arr, nil
	case jsonparser.String:
		return parseString(value)
	case jsonparser.Number:
		return json.Number(value), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected JSON value %q", value)
	}
}

// parseString unescapes the contents of a JSON string
//
// jsonparser rejects lone UTF-16 surrogates such as \ud800, which
// encoding/json accepts and decodes to U+FFFD.
func parseString(value []byte) (string, error) {
	s, err := jsonparser.ParseString(value)
	if err == nil {
		return s, nil
	}

	quoted := make([]byte, 0, len(value)+2)
	quoted = append(quoted, '"')
	quoted = append(quoted, value...)
	quoted = append(quoted, '"')
	if err := json.Unmarshal(quoted, &s); err != nil {
		return "", fmt.Errorf("invalid string %q: %w", value, err)
	}
	return s, nil
}

// Clone returns a deep copy of v
//
// Objects and arrays are copied recursively, scalars are immutable and returned as is.
func Clone(v any) any {
	switch n := v.(type) {
	case *Object:
		out := NewObject()
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Clone(pair.Value))
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Prune removes the top-level shared definitions from obj
//
// When strict is true a missing definitions block is an error.
func Prune(obj *Object, strict bool) error {
	if _, ok := obj.Delete(DefsKey); !ok && strict {
		return ErrMissingDefs
	}
	return nil
}
