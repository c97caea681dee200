// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/relabs-tech/cirrus/core"
)

// Local pre-checks for outgoing create documents. The schemas cover the
// fixed fields only; custom fragments pass through unvalidated. They
// catch obvious misuse before a round trip to the platform.

const alarmSchema = `{
	"type": "object",
	"required": ["type", "source", "text", "severity"],
	"properties": {
		"type":     {"type": "string", "minLength": 1},
		"time":     {"type": "string"},
		"source":   {"type": "object", "required": ["id"]},
		"text":     {"type": "string"},
		"status":   {"enum": ["ACTIVE", "ACKNOWLEDGED", "CLEARED"]},
		"severity": {"enum": ["CRITICAL", "MAJOR", "MINOR", "WARNING"]}
	}
}`

const eventSchema = `{
	"type": "object",
	"required": ["type", "source", "text"],
	"properties": {
		"type":   {"type": "string", "minLength": 1},
		"time":   {"type": "string"},
		"source": {"type": "object", "required": ["id"]},
		"text":   {"type": "string"}
	}
}`

const measurementSchema = `{
	"type": "object",
	"required": ["type", "source"],
	"properties": {
		"type":   {"type": "string", "minLength": 1},
		"time":   {"type": "string"},
		"source": {"type": "object", "required": ["id"]}
	}
}`

const operationSchema = `{
	"type": "object",
	"required": ["deviceId"],
	"properties": {
		"deviceId": {"type": "string", "minLength": 1}
	}
}`

const userSchema = `{
	"type": "object",
	"required": ["userName"],
	"properties": {
		"userName": {"type": "string", "minLength": 1},
		"email":    {"type": "string"}
	}
}`

const subscriptionSchema = `{
	"type": "object",
	"required": ["subscription", "context"],
	"properties": {
		"subscription": {"type": "string", "minLength": 1},
		"context":      {"enum": ["mo", "apis", "tenant"]}
	}
}`

// validateDocument checks an outgoing document against its resource
// schema and reports violations as core.ErrValidation, naming the
// offending fields.
func validateDocument(resource, schema string, doc map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return core.Errorf(core.ErrValidation, resource, "", "", "schema check failed: %v", err)
	}
	if result.Valid() {
		return nil
	}
	var fields []string
	for _, desc := range result.Errors() {
		fields = append(fields, desc.String())
	}
	return core.Errorf(core.ErrValidation, resource, "", strings.Join(fields, "; "),
		"document rejected by local pre-check")
}
