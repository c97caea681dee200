// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"github.com/relabs-tech/cirrus/core/rest"
)

// Application types.
const (
	ApplicationHosted       = "HOSTED"
	ApplicationMicroservice = "MICROSERVICE"
	ApplicationExternal     = "EXTERNAL"
)

const applicationsPath = "/application/applications"

// Application represents an application registered with the platform.
type Application struct {
	item
	Name         string
	Key          string
	Type         string
	Availability string
	Owner        string
}

func applicationFromMap(doc map[string]any) *Application {
	a := &Application{
		Name:         stringField(doc, "name"),
		Key:          stringField(doc, "key"),
		Type:         stringField(doc, "type"),
		Availability: stringField(doc, "availability"),
		Owner:        referenceID(doc, "owner"),
	}
	a.ID = stringField(doc, "id")
	return a
}

// Applications is the read-mostly collection API for registered
// applications.
type Applications struct {
	collection[Application]
}

// NewApplications creates the applications API bound to a connection.
func NewApplications(conn *rest.Client) *Applications {
	return &Applications{collection[Application]{
		conn:     conn,
		path:     applicationsPath,
		name:     "applications",
		singular: "application",
		// the application registry has no count endpoint
		countable: false,
		parse: func(doc map[string]any) *Application {
			a := applicationFromMap(doc)
			a.conn = conn
			return a
		},
	}}
}

// Get reads one application by ID.
func (api *Applications) Get(id string) (*Application, error) {
	return api.get(id)
}

// Subscriptions lists the tenant credentials of all tenants subscribed
// to the current application. Only available to a microservice's
// bootstrap user.
func (api *Applications) Subscriptions() ([]TenantCredentials, error) {
	var envelope struct {
		Users []TenantCredentials `json:"users"`
	}
	if _, err := api.conn.Get("/application/currentApplication/subscriptions", &envelope); err != nil {
		return nil, wrapStatus(err, "application", "")
	}
	return envelope.Users, nil
}

// TenantCredentials are per-tenant service credentials of a subscribed
// application.
type TenantCredentials struct {
	Tenant   string `json:"tenant"`
	Username string `json:"name"`
	Password string `json:"password"`
}
