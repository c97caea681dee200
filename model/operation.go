// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/rest"
)

// Operation statuses.
const (
	OperationPending    = "PENDING"
	OperationExecuting  = "EXECUTING"
	OperationSuccessful = "SUCCESSFUL"
	OperationFailed     = "FAILED"
)

const operationsPath = "/devicecontrol/operations"

// Operation represents one device control operation. The actual
// instruction is carried in custom fragments; status and failure reason
// are mutable so that agents can report progress.
type Operation struct {
	item
	DeviceID      string
	Status        string
	FailureReason string
	CreationTime  string
	Description   string
	Fragments     Fragments

	updated updates
}

var operationReserved = []string{
	"deviceId", "status", "failureReason", "creationTime", "description",
}

// NewOperation builds an operation for creation.
func NewOperation(conn *rest.Client, deviceID, description string) *Operation {
	op := &Operation{
		DeviceID:    deviceID,
		Description: description,
		Status:      OperationPending,
		Fragments:   Fragments{},
	}
	op.conn = conn
	return op
}

func operationFromMap(doc map[string]any) *Operation {
	op := &Operation{
		DeviceID:      stringField(doc, "deviceId"),
		Status:        stringField(doc, "status"),
		FailureReason: stringField(doc, "failureReason"),
		CreationTime:  stringField(doc, "creationTime"),
		Description:   stringField(doc, "description"),
		Fragments:     fragmentsFrom(doc, operationReserved...),
	}
	op.ID = stringField(doc, "id")
	return op
}

// SetStatus changes the operation status and records the change for
// Update.
func (op *Operation) SetStatus(status string) {
	op.Status = status
	op.updated.mark("status")
}

// SetFailureReason records why the operation failed, for Update.
func (op *Operation) SetFailureReason(reason string) {
	op.FailureReason = reason
	op.updated.mark("failureReason")
}

func (op *Operation) field(key string) (any, bool) {
	switch key {
	case "id":
		return op.ID, true
	case "deviceId":
		return op.DeviceID, true
	case "status":
		return op.Status, true
	case "failureReason":
		return op.FailureReason, true
	case "creationTime":
		return op.CreationTime, true
	case "description":
		return op.Description, true
	}
	return nil, false
}

func (op *Operation) setDeclared(key string, value any) (bool, error) {
	switch key {
	case "status":
		s, ok := value.(string)
		if !ok {
			return true, core.Errorf(core.ErrValidation, "operation", op.ID, key, "field requires a string value")
		}
		op.SetStatus(s)
		return true, nil
	case "failureReason":
		s, ok := value.(string)
		if !ok {
			return true, core.Errorf(core.ErrValidation, "operation", op.ID, key, "field requires a string value")
		}
		op.SetFailureReason(s)
		return true, nil
	case "id", "deviceId", "creationTime":
		return true, core.Errorf(core.ErrValidation, "operation", op.ID, key, "field is read-only")
	}
	return false, nil
}

// Get resolves a declared field or a fragment path.
func (op *Operation) Get(path string) (any, error) {
	return getField("operation", op.ID, op.field, op.Fragments, path)
}

// Set assigns a declared field or a fragment path and records the
// change for Update.
func (op *Operation) Set(path string, value any) error {
	if op.Fragments == nil {
		op.Fragments = Fragments{}
	}
	return setField("operation", op.ID, op.setDeclared, op.Fragments, op.updated.mark, path, value)
}

// Has tests for a top-level custom fragment.
func (op *Operation) Has(key string) bool {
	return op.Fragments.Has(key)
}

// Keys enumerates the top-level custom fragments.
func (op *Operation) Keys() []string {
	return op.Fragments.Keys()
}

func (op *Operation) toJSON() map[string]any {
	doc := map[string]any{}
	putString(doc, "deviceId", op.DeviceID)
	putString(doc, "status", op.Status)
	putString(doc, "description", op.Description)
	putFragments(doc, op.Fragments)
	return doc
}

func (op *Operation) toDiffJSON() map[string]any {
	doc := map[string]any{}
	if op.updated.contains("status") {
		doc["status"] = op.Status
	}
	if op.updated.contains("failureReason") {
		doc["failureReason"] = op.FailureReason
	}
	putUpdatedFragments(doc, op.Fragments, op.updated)
	return doc
}

// Create queues the operation for the device and returns the created
// instance with its platform-assigned ID.
func (op *Operation) Create() (*Operation, error) {
	if err := op.assertConn("operation"); err != nil {
		return nil, err
	}
	if err := op.assertNoID("operation"); err != nil {
		return nil, err
	}
	body := op.toJSON()
	if err := validateDocument("operation", operationSchema, body); err != nil {
		return nil, err
	}
	var result map[string]any
	if _, err := op.conn.Post(operationsPath, body, &result); err != nil {
		return nil, wrapStatus(err, "operation", "")
	}
	created := operationFromMap(result)
	created.conn = op.conn
	return created, nil
}

// Update writes the status fields changed since the operation was
// loaded.
func (op *Operation) Update() (*Operation, error) {
	if err := op.assertConn("operation"); err != nil {
		return nil, err
	}
	if err := op.assertID("operation"); err != nil {
		return nil, err
	}
	if op.updated.empty() {
		return nil, core.Errorf(core.ErrValidation, "operation", op.ID, "", "nothing to update")
	}
	var result map[string]any
	if _, err := op.conn.Put(operationsPath+"/"+op.ID, op.toDiffJSON(), &result); err != nil {
		return nil, wrapStatus(err, "operation", op.ID)
	}
	updated := operationFromMap(result)
	updated.conn = op.conn
	return updated, nil
}

// Delete removes the operation.
func (op *Operation) Delete() error {
	if err := op.assertConn("operation"); err != nil {
		return err
	}
	if err := op.assertID("operation"); err != nil {
		return err
	}
	_, err := op.conn.Delete(operationsPath + "/" + op.ID)
	return wrapStatus(err, "operation", op.ID)
}

// Operations is the collection API for device control operations.
type Operations struct {
	collection[Operation]
}

// NewOperations creates the operations API bound to a connection.
func NewOperations(conn *rest.Client) *Operations {
	return &Operations{collection[Operation]{
		conn:      conn,
		path:      operationsPath,
		name:      "operations",
		singular:  "operation",
		countable: true,
		parse: func(doc map[string]any) *Operation {
			op := operationFromMap(doc)
			op.conn = conn
			return op
		},
	}}
}

// Get reads one operation by ID.
func (api *Operations) Get(id string) (*Operation, error) {
	return api.get(id)
}
