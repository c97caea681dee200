// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cirrus/core"
)

// subscriptionStub mimics the platform's application subscription
// endpoint and counts how often the credentials are read.
func subscriptionStub(reads *int) *httptest.Server {
	router := mux.NewRouter()
	router.HandleFunc("/application/currentApplication/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		*reads++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"users": [
			{"tenant": "t1", "name": "service_app", "password": "pw1"},
			{"tenant": "t2", "name": "service_app", "password": "pw2"}
		]}`))
	}).Methods(http.MethodGet)
	return httptest.NewServer(router)
}

func TestMultiTenantAppDiscoversSubscriptions(t *testing.T) {
	reads := 0
	server := subscriptionStub(&reads)
	defer server.Close()

	app := NewMultiTenantAppWithConfig(BootstrapConfig{
		BaseURL:  server.URL,
		Tenant:   "t0",
		Username: "bootstrap",
		Password: "secret",
	})

	instance, err := app.TenantInstance("t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", instance.Tenant())
	assert.Equal(t, 1, reads)

	// both tenants were cached by the single discovery round trip
	other, err := app.TenantInstance("t2")
	require.NoError(t, err)
	assert.Equal(t, "t2", other.Tenant())
	assert.Equal(t, 1, reads)

	// cached instances are reused
	again, err := app.TenantInstance("t1")
	require.NoError(t, err)
	assert.Same(t, instance, again)
	assert.Equal(t, 1, reads)
}

func TestMultiTenantAppUnknownTenant(t *testing.T) {
	reads := 0
	server := subscriptionStub(&reads)
	defer server.Close()

	app := NewMultiTenantAppWithConfig(BootstrapConfig{
		BaseURL:  server.URL,
		Tenant:   "t0",
		Username: "bootstrap",
		Password: "secret",
	})

	_, err := app.TenantInstance("t99")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Equal(t, 1, reads)
}

func TestMultiTenantAppInvalidate(t *testing.T) {
	reads := 0
	server := subscriptionStub(&reads)
	defer server.Close()

	app := NewMultiTenantAppWithConfig(BootstrapConfig{
		BaseURL:  server.URL,
		Tenant:   "t0",
		Username: "bootstrap",
		Password: "secret",
	})

	first, err := app.TenantInstance("t1")
	require.NoError(t, err)
	require.Equal(t, 1, reads)

	// after invalidation the credentials are rediscovered
	app.Invalidate("t1")
	second, err := app.TenantInstance("t1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, reads)
}

func TestMultiTenantAppTenantInstanceFor(t *testing.T) {
	reads := 0
	server := subscriptionStub(&reads)
	defer server.Close()

	app := NewMultiTenantAppWithConfig(BootstrapConfig{
		BaseURL:  server.URL,
		Tenant:   "t0",
		Username: "bootstrap",
		Password: "secret",
	})

	instance, err := app.TenantInstanceFor(basicHeader("t2/alice", "secret"))
	require.NoError(t, err)
	assert.Equal(t, "t2", instance.Tenant())
}

func TestSimpleAppUserInstances(t *testing.T) {
	app := NewSimpleAppWithConfig(Config{
		BaseURL:  "https://cirrus.example",
		Tenant:   "t4711",
		Username: "service",
		Password: "secret",
	})
	assert.Equal(t, "t4711", app.Tenant())

	instance, err := app.UserInstance(basicHeader("alice", "secret"))
	require.NoError(t, err)
	// the service tenant applies when the header does not carry one
	assert.Equal(t, "t4711", instance.Tenant())

	// instances are cached per authorization header
	again, err := app.UserInstance(basicHeader("alice", "secret"))
	require.NoError(t, err)
	assert.Same(t, instance, again)

	other, err := app.UserInstance(basicHeader("bob", "secret"))
	require.NoError(t, err)
	assert.NotSame(t, instance, other)

	app.ClearUserCache()
	fresh, err := app.UserInstance(basicHeader("alice", "secret"))
	require.NoError(t, err)
	assert.NotSame(t, instance, fresh)
}

func TestMiddlewareInjectsTenantClient(t *testing.T) {
	reads := 0
	server := subscriptionStub(&reads)
	defer server.Close()

	app := NewMultiTenantAppWithConfig(BootstrapConfig{
		BaseURL:  server.URL,
		Tenant:   "t0",
		Username: "bootstrap",
		Password: "secret",
	})

	router := mux.NewRouter()
	router.Use(app.Middleware())
	var tenant string
	router.HandleFunc("/hello", func(w http.ResponseWriter, r *http.Request) {
		client := ClientFromContext(r.Context())
		require.NotNil(t, client)
		tenant = client.Tenant()
	})

	r := httptest.NewRequest(http.MethodGet, "/hello", nil)
	r.Header.Set("Authorization", basicHeader("t1/alice", "secret"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", tenant)

	// requests without authorization are rejected
	r = httptest.NewRequest(http.MethodGet, "/hello", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
