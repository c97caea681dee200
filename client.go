// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package cirrus is the client SDK for the Cirrus multi-tenant IoT
platform. It bundles the per-resource APIs behind a single Client bound
to one platform connection.

	c := cirrus.New("https://demo.cirrus.example", "t4711", "alice", "secret")
	for alarm, err := range c.Alarms.Select(query.Params{Status: model.AlarmActive}) {
		...
	}
*/
package cirrus

import (
	"github.com/gorilla/mux"

	"github.com/relabs-tech/cirrus/core/rest"
	"github.com/relabs-tech/cirrus/model"
	"github.com/relabs-tech/cirrus/notification2"
)

// Client provides typed access to the platform resources through one
// shared connection. Many domain objects may reference the same client
// concurrently for independent requests.
type Client struct {
	conn *rest.Client

	Inventory     *model.Inventory
	Devices       *model.DeviceInventory
	Measurements  *model.Measurements
	Events        *model.Events
	Alarms        *model.Alarms
	Operations    *model.Operations
	Users         *model.Users
	Applications  *model.Applications
	Identity      *model.Identity
	Subscriptions *model.Subscriptions
	Notifications *notification2.Tokens
}

// New creates a client for a platform instance with tenant-scoped
// basic authentication.
func New(baseURL, tenant, username, password string) *Client {
	conn := rest.NewWithURL(baseURL).WithBasicAuth(tenant, username, password)
	return NewWithConnection(conn)
}

// NewWithToken creates a client for a platform instance with bearer
// token authentication.
func NewWithToken(baseURL, tenant, token string) *Client {
	conn := rest.NewWithURL(baseURL).WithToken(token).WithTenant(tenant)
	return NewWithConnection(conn)
}

// NewWithRouter creates a client which talks to an in-process platform
// stub through a mux router. This is the tool of choice for unit tests.
func NewWithRouter(router *mux.Router) *Client {
	return NewWithConnection(rest.NewWithRouter(router))
}

// NewWithConnection creates a client from a fully configured
// connection.
func NewWithConnection(conn rest.Client) *Client {
	c := &Client{conn: &conn}
	c.Inventory = model.NewInventory(c.conn)
	c.Devices = model.NewDeviceInventory(c.conn)
	c.Measurements = model.NewMeasurements(c.conn)
	c.Events = model.NewEvents(c.conn)
	c.Alarms = model.NewAlarms(c.conn)
	c.Operations = model.NewOperations(c.conn)
	c.Users = model.NewUsers(c.conn)
	c.Applications = model.NewApplications(c.conn)
	c.Identity = model.NewIdentity(c.conn)
	c.Subscriptions = model.NewSubscriptions(c.conn)
	c.Notifications = notification2.NewTokens(c.conn)
	return c
}

// Listener creates a notification listener consuming the named
// subscription.
func (c *Client) Listener(subscription string) *notification2.Listener {
	return notification2.NewListener(c.conn, subscription)
}

// Connection returns the underlying connection, e.g. to bind
// standalone-built domain objects or to issue raw requests.
func (c *Client) Connection() *rest.Client {
	return c.conn
}

// Tenant returns the tenant ID the client is bound to.
func (c *Client) Tenant() string {
	return c.conn.Tenant()
}
