// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"github.com/goccy/go-json"
)

// Parsing is deliberately lenient: resource documents are nested JSON
// objects, fixed fields are picked by name and everything else becomes
// a fragment. Unknown or oddly typed fields never fail a parse.

func stringField(doc map[string]any, key string) string {
	if value, ok := doc[key].(string); ok {
		return value
	}
	return ""
}

func intField(doc map[string]any, key string) int {
	switch value := doc[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case json.Number:
		n, _ := value.Int64()
		return int(n)
	}
	return 0
}

func boolField(doc map[string]any, key string) bool {
	value, _ := doc[key].(bool)
	return value
}

// referenceID extracts the ID of a nested reference such as
// {"source": {"id": "4711", "name": "pump"}}.
func referenceID(doc map[string]any, key string) string {
	if ref, ok := doc[key].(map[string]any); ok {
		return stringField(ref, "id")
	}
	return ""
}

// reference renders a reference document for the wire.
func reference(id string) map[string]any {
	return map[string]any{"id": id}
}

// fragmentsFrom collects all keys of a resource document which are not
// part of the resource's fixed schema.
func fragmentsFrom(doc map[string]any, reserved ...string) Fragments {
	skip := make(map[string]struct{}, len(reserved)+2)
	for _, key := range reserved {
		skip[key] = struct{}{}
	}
	skip["id"] = struct{}{}
	skip["self"] = struct{}{}

	fragments := Fragments{}
	for key, value := range doc {
		if _, ok := skip[key]; !ok {
			fragments[key] = value
		}
	}
	return fragments
}

// putString adds a field to an outgoing document, skipping unset values
// so the platform's own defaults apply.
func putString(doc map[string]any, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func putFragments(doc map[string]any, fragments Fragments) {
	for key, value := range fragments {
		doc[key] = value
	}
}

func putUpdatedFragments(doc map[string]any, fragments Fragments, updated updates) {
	for key, value := range fragments {
		if updated.contains(key) {
			doc[key] = value
		}
	}
}
