// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package notification2

import (
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/logger"
	"github.com/relabs-tech/cirrus/core/rest"
)

// tokenExpiry is the lifetime of the listener's access tokens. Short,
// the listener generates a fresh token on every reconnect.
const tokenExpiry = 2 * time.Minute

// Message is one notification received from the consumer websocket.
//
// The wire format is line-based: the first line carries the message ID,
// the second the notification source, the third the action, and the
// last line the notified object as JSON. Header lines in between are
// ignored.
type Message struct {
	ID     string
	Source string
	Action string
	Body   string

	listener *Listener
}

func parseMessage(payload string) (*Message, error) {
	lines := strings.Split(strings.TrimRight(payload, "\n"), "\n")
	if len(lines) < 4 {
		return nil, core.Errorf(core.ErrValidation, "notification", "", "",
			"malformed notification payload with %d lines", len(lines))
	}
	return &Message{
		ID:     strings.TrimSpace(lines[0]),
		Source: strings.TrimSpace(lines[1]),
		Action: strings.TrimSpace(lines[2]),
		Body:   lines[len(lines)-1],
	}, nil
}

// JSON unmarshals the message body.
func (m *Message) JSON() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(m.Body), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Ack acknowledges the message. Unacknowledged messages are redelivered
// by the platform when the subscriber reconnects.
func (m *Message) Ack() error {
	if m.listener == nil {
		return core.Errorf(nil, "notification", m.ID, "", "message is not attached to a listener")
	}
	return m.listener.send(m.ID)
}

// Listener consumes notifications from one subscription over a
// websocket. The connection is established lazily and re-established
// with a fresh token when it drops.
//
// A listener is used by a single consumer goroutine; Ack may be called
// from another goroutine.
type Listener struct {
	tokens       *Tokens
	subscription string
	subscriber   string

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

// NewListener creates a listener for a subscription, consuming with the
// SDK default subscriber name.
func NewListener(conn *rest.Client, subscription string) *Listener {
	return &Listener{
		tokens:       NewTokens(conn),
		subscription: subscription,
		subscriber:   DefaultSubscriber,
	}
}

// WithSubscriber returns the listener with an explicit subscriber name.
// Distinct subscriber names consume independent copies of the stream.
func (l *Listener) WithSubscriber(subscriber string) *Listener {
	l.subscriber = subscriber
	return l
}

func (l *Listener) connection() (*websocket.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, core.Errorf(nil, "notification", "", "", "listener is closed")
	}
	if l.ws != nil {
		return l.ws, nil
	}
	token, err := l.tokens.Generate(l.subscription, l.subscriber, tokenExpiry)
	if err != nil {
		return nil, err
	}
	uri, err := l.tokens.WebSocketURI(token)
	if err != nil {
		return nil, err
	}
	ws, _, err := websocket.DefaultDialer.Dial(uri, nil)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugf("notification channel for %s established", l.subscription)
	l.ws = ws
	return ws, nil
}

func (l *Listener) dropConnection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ws != nil {
		l.ws.Close()
		l.ws = nil
	}
}

func (l *Listener) send(text string) error {
	ws, err := l.connection()
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// Receive blocks until the next notification arrives and returns it.
// The caller acknowledges the message with Ack once it is processed.
func (l *Listener) Receive() (*Message, error) {
	ws, err := l.connection()
	if err != nil {
		return nil, err
	}
	_, payload, err := ws.ReadMessage()
	if err != nil {
		l.dropConnection()
		return nil, err
	}
	message, err := parseMessage(string(payload))
	if err != nil {
		return nil, err
	}
	message.listener = l
	return message, nil
}

// Listen consumes notifications until the listener is closed, invoking
// the handler for each. Dropped connections are re-established with a
// fresh token; malformed payloads are logged and skipped.
func (l *Listener) Listen(handler func(*Message)) {
	rlog := logger.Default()
	for {
		message, err := l.Receive()
		if err != nil {
			l.mu.Lock()
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			rlog.WithError(err).Warning("notification receive failed, reconnecting")
			time.Sleep(time.Second)
			continue
		}
		handler(message)
	}
}

// Close shuts the listener down and terminates a pending Listen loop.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.ws != nil {
		l.ws.Close()
		l.ws = nil
	}
}
