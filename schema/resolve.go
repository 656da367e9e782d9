// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

package schema

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonreference"
)

// DefaultMaxDepth is the default limit on how many references may be followed in a single chain
const DefaultMaxDepth = 64

var (
	// ErrReferenceCycle is returned when a reference (transitively) points back to itself
	ErrReferenceCycle = errors.New("reference cycle")
	// ErrDanglingReference is returned when a reference points to a location that does not exist
	ErrDanglingReference = errors.New("dangling reference")
	// ErrExternalReference is returned for references leaving the current document
	ErrExternalReference = errors.New("external references are not supported")
	// ErrMaxDepth is returned when a reference chain is longer than the configured limit
	ErrMaxDepth = errors.New("maximum reference depth exceeded")
)

// Document is a parsed JSON-Schema document along with its fully resolved form
type Document struct {
	// Source is the document as parsed, references intact
	Source *Object

	resolved *Object
}

// Resolved returns the shared resolved tree
//
// Its definitions block still holds the references as parsed.
// Callers must not mutate it, use Copy for that.
func (d *Document) Resolved() *Object {
	return d.resolved
}

// Copy returns a deep copy of the resolved tree that is safe to mutate
func (d *Document) Copy() *Object {
	return Clone(d.resolved).(*Object)
}

// Option configures resolution
type Option func(*resolver)

// WithMaxDepth sets the maximum number of references followed in a single chain
func WithMaxDepth(n int) Option {
	return func(r *resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// Load parses data and resolves every internal reference in it
func Load(data []byte, opts ...Option) (*Document, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	resolved, err := Resolve(root, opts...)
	if err != nil {
		return nil, err
	}

	return &Document{Source: root, resolved: resolved}, nil
}

// Resolve returns a copy of root with every reference replaced by a copy of its fully resolved target
//
// The top-level definitions block is copied as parsed: its entries are only
// resolved where they are referenced, so an unused recursive or broken
// definition does not fail the document. root itself is left untouched.
func Resolve(root *Object, opts ...Option) (*Object, error) {
	r := &resolver{
		root:     root,
		maxDepth: DefaultMaxDepth,
		done:     make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}

	v, err := r.document(root)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: root resolves to %T", ErrNotObject, v)
	}
	return obj, nil
}

type resolver struct {
	root     *Object
	maxDepth int
	// done memoizes fully resolved targets by pointer
	done map[string]any
	// active is the chain of pointers currently being resolved
	active []string
}

// refOf reports whether obj is a reference pointer
func refOf(obj *Object) (string, bool) {
	v, ok := obj.Get(RefKey)
	if !ok {
		return "", false
	}
	ref, ok := v.(string)
	return ref, ok
}

func (r *resolver) document(root *Object) (any, error) {
	if _, ok := refOf(root); ok {
		return r.value(root)
	}

	out := NewObject()
	for pair := root.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == DefsKey {
			out.Set(pair.Key, Clone(pair.Value))
			continue
		}
		rv, err := r.value(pair.Value)
		if err != nil {
			return nil, err
		}
		out.Set(pair.Key, rv)
	}
	return out, nil
}

func (r *resolver) value(v any) (any, error) {
	switch n := v.(type) {
	case *Object:
		if ref, ok := refOf(n); ok {
			return r.follow(ref)
		}
		out := NewObject()
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			rv, err := r.value(pair.Value)
			if err != nil {
				return nil, err
			}
			out.Set(pair.Key, rv)
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			rv, err := r.value(item)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *resolver) follow(ref string) (any, error) {
	ptr, err := fragment(ref)
	if err != nil {
		return nil, err
	}
	key := "#" + ptr

	if v, ok := r.done[key]; ok {
		return Clone(v), nil
	}

	if slices.Contains(r.active, key) {
		chain := append(slices.Clone(r.active), key)
		return nil, fmt.Errorf("%w: %s", ErrReferenceCycle, strings.Join(chain, " -> "))
	}
	if len(r.active) >= r.maxDepth {
		return nil, fmt.Errorf("%w (%d) while following %q", ErrMaxDepth, r.maxDepth, ref)
	}

	r.active = append(r.active, key)
	defer func() {
		r.active = r.active[:len(r.active)-1]
	}()

	target, err := r.lookup(ptr)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", ref, err)
	}

	resolved, err := r.value(target)
	if err != nil {
		return nil, err
	}
	r.done[key] = resolved

	return Clone(resolved), nil
}

// lookup evaluates a JSON pointer against the document root,
// resolving any reference met along the way
func (r *resolver) lookup(ptr string) (any, error) {
	var node any = r.root
	if ptr == "" {
		return node, nil
	}

	for _, token := range strings.Split(ptr[1:], "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")

		if obj, ok := node.(*Object); ok {
			if ref, ok := refOf(obj); ok {
				next, err := r.follow(ref)
				if err != nil {
					return nil, err
				}
				node = next
			}
		}

		switch n := node.(type) {
		case *Object:
			v, ok := n.Get(token)
			if !ok {
				return nil, fmt.Errorf("%w: no member %q", ErrDanglingReference, token)
			}
			node = v
		case []any:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(n) {
				return nil, fmt.Errorf("%w: no index %q", ErrDanglingReference, token)
			}
			node = n[i]
		default:
			return nil, fmt.Errorf("%w: cannot descend into %T with %q", ErrDanglingReference, node, token)
		}
	}

	return node, nil
}

// fragment returns the JSON pointer of a document-local reference
func fragment(ref string) (string, error) {
	jr, err := gojsonreference.NewJsonReference(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}

	u := jr.GetUrl()
	if jr.HasFullUrl || jr.HasUrlPathOnly || u.Scheme != "" || u.Host != "" || u.Path != "" || u.Opaque != "" {
		return "", fmt.Errorf("%w: %q", ErrExternalReference, ref)
	}

	ptr := u.Fragment
	if ptr != "" && !strings.HasPrefix(ptr, "/") {
		return "", fmt.Errorf("invalid reference %q: fragment is not a JSON pointer", ref)
	}
	return ptr, nil
}
