// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package notification2

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cirrus/core/rest"
)

func TestParseMessage(t *testing.T) {
	payload := "4660babd-1b46\n" +
		"/t4711/measurements/318\n" +
		"CREATE\n" +
		"\n" +
		`{"id": "318", "type": "test_Current"}`

	message, err := parseMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, "4660babd-1b46", message.ID)
	assert.Equal(t, "/t4711/measurements/318", message.Source)
	assert.Equal(t, "CREATE", message.Action)

	doc, err := message.JSON()
	require.NoError(t, err)
	assert.Equal(t, "318", doc["id"])
}

func TestParseMessageRejectsShortPayload(t *testing.T) {
	_, err := parseMessage("id-only\nsource\nCREATE")
	assert.Error(t, err)
}

func TestTokensGenerate(t *testing.T) {
	var body map[string]any
	router := mux.NewRouter()
	router.HandleFunc("/notification2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token": "tok-1"}`))
	}).Methods(http.MethodPost)

	conn := rest.NewWithRouter(router)
	tokens := NewTokens(&conn)

	token, err := tokens.Generate("mysub", "", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, "mysub", body["subscription"])
	assert.Equal(t, DefaultSubscriber, body["subscriber"])
	assert.Equal(t, float64(30), body["expiresInMinutes"])
}

func TestTokensUnsubscribe(t *testing.T) {
	result := `{"result": "DONE"}`
	router := mux.NewRouter()
	router.HandleFunc("/notification2/unsubscribe", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-1", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(result))
	}).Methods(http.MethodPost)

	conn := rest.NewWithRouter(router)
	tokens := NewTokens(&conn)

	require.NoError(t, tokens.Unsubscribe("tok-1"))

	result = `{"result": "PENDING"}`
	assert.Error(t, tokens.Unsubscribe("tok-1"))
}

func TestWebSocketURI(t *testing.T) {
	conn := rest.NewWithURL("https://demo.cirrus.example")
	tokens := NewTokens(&conn)
	uri, err := tokens.WebSocketURI("tok/1")
	require.NoError(t, err)
	assert.Equal(t, "wss://demo.cirrus.example/notification2/consumer/?token=tok%2F1", uri)

	plain := rest.NewWithURL("http://localhost:8080")
	uri, err = NewTokens(&plain).WebSocketURI("tok-1")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/notification2/consumer/?token=tok-1", uri)
}

func TestListenerReceiveAndAck(t *testing.T) {
	upgrader := websocket.Upgrader{}
	acks := make(chan string, 1)

	router := mux.NewRouter()
	router.HandleFunc("/notification2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token": "tok-1"}`))
	}).Methods(http.MethodPost)
	router.HandleFunc("/notification2/consumer/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-1", r.URL.Query().Get("token"))
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		payload := "4660babd-1b46\n/t4711/alarms/815\nUPDATE\n\n" + `{"id": "815"}`
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(payload)))

		_, ack, err := ws.ReadMessage()
		if err == nil {
			acks <- string(ack)
		}
	})
	server := httptest.NewServer(router)
	defer server.Close()

	conn := rest.NewWithURL(server.URL)
	listener := NewListener(&conn, "mysub")
	defer listener.Close()

	message, err := listener.Receive()
	require.NoError(t, err)
	assert.Equal(t, "4660babd-1b46", message.ID)
	assert.Equal(t, "/t4711/alarms/815", message.Source)
	assert.Equal(t, "UPDATE", message.Action)

	require.NoError(t, message.Ack())
	select {
	case ack := <-acks:
		assert.Equal(t, "4660babd-1b46", ack)
	case <-time.After(5 * time.Second):
		t.Fatal("no acknowledgement received")
	}
}
