// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package schema

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultIndent is the number of spaces used per indentation level
const DefaultIndent = 4

// Marshal renders v as indented JSON terminated by a newline
//
// Object keys keep their insertion order. <, > and & are written as is.
func Marshal(v any, indent int) ([]byte, error) {
	if indent < 0 {
		indent = 0
	}

	var compact bytes.Buffer
	if err := encode(&compact, v); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", strings.Repeat(" ", indent)); err != nil {
		return nil, err
	}
	out.WriteByte('\n')

	return out.Bytes(), nil
}

// encode writes v as compact JSON
//
// Containers are walked here since both json.Marshal and the ordered map's
// MarshalJSON escape HTML characters.
func encode(buf *bytes.Buffer, v any) error {
	switch n := v.(type) {
	case *Object:
		if n == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			if pair != n.Oldest() {
				buf.WriteByte(',')
			}
			if err := scalar(buf, pair.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, pair.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		if n == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range n {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return scalar(buf, v)
	}
	return nil
}

func scalar(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
