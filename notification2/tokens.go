// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package notification2 consumes platform change notifications.

Notifications flow through named subscriptions (see model.Subscription).
A subscriber generates a short-lived access token for a subscription and
connects to the consumer websocket with it. Messages must be
acknowledged, unacknowledged messages are redelivered.
*/
package notification2

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/rest"
)

// DefaultSubscriber identifies this SDK as notification consumer when
// no explicit subscriber name is given. Stable across processes so a
// restarted service resumes its own subscriber channel.
var DefaultSubscriber = "cirrus" + strings.ReplaceAll(
	uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/relabs-tech/cirrus")).String(), "-", "")

// Tokens is the API for notification access tokens.
type Tokens struct {
	conn *rest.Client
}

// NewTokens creates the tokens API bound to a connection.
func NewTokens(conn *rest.Client) *Tokens {
	return &Tokens{conn: conn}
}

// Generate creates a new access token for a subscription. The
// subscriber name identifies the consumer channel, pass "" for the SDK
// default. The expiry is rounded down to full minutes.
func (api *Tokens) Generate(subscription, subscriber string, expires time.Duration) (string, error) {
	if subscriber == "" {
		subscriber = DefaultSubscriber
	}
	body := map[string]any{
		"subscriber":       subscriber,
		"subscription":     subscription,
		"expiresInMinutes": int(expires.Minutes()),
	}
	var result struct {
		Token string `json:"token"`
	}
	if _, err := api.conn.Post("/notification2/token", body, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// Unsubscribe invalidates a token and removes its subscriber channel.
func (api *Tokens) Unsubscribe(token string) error {
	var result struct {
		Result string `json:"result"`
	}
	if _, err := api.conn.Post("/notification2/unsubscribe?token="+url.QueryEscape(token), map[string]any{}, &result); err != nil {
		return err
	}
	if result.Result != "DONE" {
		return core.Errorf(nil, "token", "", "", "unexpected unsubscribe result %q", result.Result)
	}
	return nil
}

// WebSocketURI builds the consumer websocket URL for a token.
func (api *Tokens) WebSocketURI(token string) (string, error) {
	u, err := url.Parse(api.conn.BaseURL())
	if err != nil {
		return "", err
	}
	scheme := "wss"
	if u.Scheme == "http" || u.Scheme == "ws" {
		scheme = "ws"
	}
	return scheme + "://" + u.Host + "/notification2/consumer/?token=" + url.QueryEscape(token), nil
}
