// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"errors"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/query"
	"github.com/relabs-tech/cirrus/core/rest"
)

func TestUsersAreTenantScoped(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/user/t4711/users/alice", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userName": "alice", "email": "alice@example.com", "enabled": true}`))
	}).Methods(http.MethodGet)

	conn := rest.NewWithRouter(router).WithTenant("t4711")
	users := NewUsers(&conn)

	user, err := users.Get("alice")
	require.NoError(t, err)
	// the user name doubles as the object ID
	assert.Equal(t, "alice", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.Enabled)
}

func TestUsersCountIsUnsupported(t *testing.T) {
	requests := 0
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	conn := rest.NewWithRouter(router).WithTenant("t4711")
	users := NewUsers(&conn)

	_, err := users.Count(query.Params{})
	assert.True(t, errors.Is(err, core.ErrUnsupported))
	assert.Equal(t, 0, requests)
}

func TestUserUpdateSendsOnlyChanges(t *testing.T) {
	var body map[string]any
	router := mux.NewRouter()
	router.HandleFunc("/user/t4711/users/alice", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}).Methods(http.MethodPut)

	conn := rest.NewWithRouter(router).WithTenant("t4711")
	users := NewUsers(&conn)

	user := userFromMap(map[string]any{
		"userName":  "alice",
		"email":     "alice@example.com",
		"firstName": "Alice",
		"enabled":   true,
	})
	user.conn = &conn
	user.SetEmail("alice@example.org")
	user.SetEnabled(false)

	require.NoError(t, users.Update(user))
	assert.Equal(t, "alice@example.org", body["email"])
	assert.Equal(t, false, body["enabled"])
	assert.NotContains(t, body, "firstName")
	assert.NotContains(t, body, "userName")
}

func TestUserUpdateWithoutChanges(t *testing.T) {
	conn := rest.NewWithRouter(mux.NewRouter()).WithTenant("t4711")
	users := NewUsers(&conn)

	user := userFromMap(map[string]any{"userName": "alice"})
	user.conn = &conn
	err := users.Update(user)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestUserCreateRequiresUsername(t *testing.T) {
	requests := 0
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	conn := rest.NewWithRouter(router).WithTenant("t4711")
	users := NewUsers(&conn)

	err := users.Create(NewUser(&conn, "", "nobody@example.com"))
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Equal(t, 0, requests)
}
