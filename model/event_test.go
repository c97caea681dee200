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
	"github.com/relabs-tech/cirrus/core/rest"
)

func TestEventCreate(t *testing.T) {
	var body map[string]any
	router := mux.NewRouter()
	router.HandleFunc("/event/events", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["id"] = "1201"
		body["creationTime"] = "2024-06-01T12:30:00.000Z"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	}).Methods(http.MethodPost)

	conn := rest.NewWithRouter(router)
	event := NewEvent(&conn, "test_DoorOpened", "4711", "front door opened")
	event.Time = core.Now
	require.NoError(t, event.Set("test_Door.side", "front"))

	created, err := event.Create()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"id": "4711"}, body["source"])
	wireTime, ok := body["time"].(string)
	require.True(t, ok)
	require.NotEqual(t, core.Now, wireTime)
	_, err = core.ParseTime(wireTime)
	assert.NoError(t, err)

	assert.Equal(t, "1201", created.ID)
	assert.Equal(t, "2024-06-01T12:30:00.000Z", created.CreationTime)
	side, err := created.Get("test_Door.side")
	require.NoError(t, err)
	assert.Equal(t, "front", side)
}

func TestEventUpdateSendsOnlyChanges(t *testing.T) {
	doc := map[string]any{
		"id":        "1201",
		"type":      "test_DoorOpened",
		"source":    map[string]any{"id": "4711"},
		"text":      "front door opened",
		"test_Door": map[string]any{"side": "front"},
	}

	var body map[string]any
	router := mux.NewRouter()
	router.HandleFunc("/event/events/1201", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}).Methods(http.MethodPut)

	conn := rest.NewWithRouter(router)
	event := eventFromMap(doc)
	event.conn = &conn

	event.SetText("front door opened and closed")
	_, err := event.Update()
	require.NoError(t, err)

	assert.Equal(t, "front door opened and closed", body["text"])
	// the fixed fields and untouched fragments stay out of the patch
	assert.NotContains(t, body, "type")
	assert.NotContains(t, body, "source")
	assert.NotContains(t, body, "test_Door")
}

func TestEventFixedFieldsAreImmutable(t *testing.T) {
	event := eventFromMap(map[string]any{"id": "1201", "creationTime": "2024-06-01T12:30:00.000Z"})

	err := event.Set("creationTime", "2024-06-02T00:00:00.000Z")
	assert.True(t, errors.Is(err, core.ErrValidation))
	err = event.Set("id", "other")
	assert.True(t, errors.Is(err, core.ErrValidation))

	// updating without any recorded change is caught before any request
	conn := rest.NewWithRouter(mux.NewRouter())
	event.conn = &conn
	_, err = event.Update()
	assert.True(t, errors.Is(err, core.ErrValidation))
}
