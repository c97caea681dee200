// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/cirrus/core"
)

// Fragments is the property bag attached to a platform resource. It
// holds all custom, platform-defined sub-structures of a resource
// document: any key which is not part of the resource's fixed schema.
//
// Values are scalars, nested objects (map[string]any) or ordered
// sequences ([]any), exactly as decoded from JSON. Keys are
// case-sensitive. Fragments is not safe for concurrent mutation.
type Fragments map[string]any

// Paths are dot-separated key sequences, e.g. "position.lat".
func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// Get returns the value at the given dot-separated path. It fails with
// core.ErrNotFound if any segment is missing, distinguishing "absent"
// from "present but null". Descending through a scalar fails with
// core.ErrTypeConflict.
func (f Fragments) Get(path string) (any, error) {
	keys := splitPath(path)
	var current any = map[string]any(f)
	for i, key := range keys {
		container, ok := current.(map[string]any)
		if !ok {
			return nil, &core.Error{Kind: core.ErrTypeConflict, Path: strings.Join(keys[:i], ".")}
		}
		current, ok = container[key]
		if !ok {
			return nil, &core.Error{Kind: core.ErrNotFound, Path: strings.Join(keys[:i+1], ".")}
		}
	}
	return current, nil
}

// Set assigns a value at the given dot-separated path, creating
// intermediate objects as needed. The leaf is overwritten regardless of
// its previous shape. If an intermediate segment already holds a
// scalar, Set fails with core.ErrTypeConflict.
func (f Fragments) Set(path string, value any) error {
	keys := splitPath(path)
	container := map[string]any(f)
	for i, key := range keys[:len(keys)-1] {
		next, ok := container[key]
		if !ok {
			child := map[string]any{}
			container[key] = child
			container = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return &core.Error{Kind: core.ErrTypeConflict, Path: strings.Join(keys[:i+1], ".")}
		}
		container = child
	}
	container[keys[len(keys)-1]] = value
	return nil
}

// Has tests top-level membership of a key.
func (f Fragments) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Keys enumerates the top-level keys in sorted order.
func (f Fragments) Keys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// JSON serializes the store for the wire. Lossless for any structure
// built via Set or parsed via ParseFragments.
func (f Fragments) JSON() ([]byte, error) {
	return json.Marshal(map[string]any(f))
}

// ParseFragments decodes an arbitrary JSON object into a store, without
// any shape validation.
func ParseFragments(data []byte) (Fragments, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &core.Error{Kind: core.ErrValidation, Err: err}
	}
	return Fragments(doc), nil
}
