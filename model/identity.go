// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"github.com/relabs-tech/cirrus/core/rest"
)

// ExternalID maps an external identifier, e.g. a device serial number,
// to the platform-internal ID of a managed object.
type ExternalID struct {
	ExternalType string
	ExternalID   string
	GlobalID     string

	conn *rest.Client
}

func externalIDFromMap(doc map[string]any) *ExternalID {
	return &ExternalID{
		ExternalType: stringField(doc, "type"),
		ExternalID:   stringField(doc, "externalId"),
		GlobalID:     referenceID(doc, "managedObject"),
	}
}

// Identity is the API for external ID mappings.
type Identity struct {
	conn *rest.Client
}

// NewIdentity creates the identity API bound to a connection.
func NewIdentity(conn *rest.Client) *Identity {
	return &Identity{conn: conn}
}

func externalIDPath(externalType, externalID string) string {
	return "/identity/externalIds/" + externalType + "/" + externalID
}

// Get resolves an external ID to its mapping, failing with
// core.ErrNotFound if no such mapping exists.
func (api *Identity) Get(externalType, externalID string) (*ExternalID, error) {
	var doc map[string]any
	if _, err := api.conn.Get(externalIDPath(externalType, externalID), &doc); err != nil {
		return nil, wrapStatus(err, "externalId", externalType+"/"+externalID)
	}
	e := externalIDFromMap(doc)
	e.conn = api.conn
	return e, nil
}

// GetID is a shortcut resolving an external ID directly to the
// platform-internal object ID.
func (api *Identity) GetID(externalType, externalID string) (string, error) {
	e, err := api.Get(externalType, externalID)
	if err != nil {
		return "", err
	}
	return e.GlobalID, nil
}

// Create registers a new external ID for a managed object.
func (api *Identity) Create(globalID, externalType, externalID string) (*ExternalID, error) {
	body := map[string]any{
		"type":       externalType,
		"externalId": externalID,
	}
	var doc map[string]any
	if _, err := api.conn.Post("/identity/globalIds/"+globalID+"/externalIds", body, &doc); err != nil {
		return nil, wrapStatus(err, "externalId", externalType+"/"+externalID)
	}
	e := externalIDFromMap(doc)
	if e.GlobalID == "" {
		e.GlobalID = globalID
	}
	e.conn = api.conn
	return e, nil
}

// Delete removes an external ID mapping.
func (api *Identity) Delete(externalType, externalID string) error {
	_, err := api.conn.Delete(externalIDPath(externalType, externalID))
	return wrapStatus(err, "externalId", externalType+"/"+externalID)
}
