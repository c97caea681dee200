// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package mqttconnect connects devices and agents to the platform's
// MQTT endpoint. The broker authenticates with the platform user
// credentials in the "tenant/user" form; the client ID identifies the
// device.
package mqttconnect

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/cirrus/core/logger"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	keepAlive      = 60 * time.Second
)

// Options configure a platform MQTT connection.
type Options struct {
	// BrokerURL of the platform MQTT endpoint, e.g.
	// "ssl://mqtt.cirrus.example:8883".
	BrokerURL string
	// ClientID identifies the device, typically its external ID.
	ClientID string
	Tenant   string
	Username string
	Password string
}

// Handler is invoked for every inbound message on a subscribed topic.
// Handlers run on the client's dispatch goroutines and must not block
// for long.
type Handler func(topic string, payload []byte)

// Listener is a connected MQTT client. Subscriptions survive broker
// reconnects. Safe for concurrent use.
type Listener struct {
	client mqtt.Client

	mu            sync.Mutex
	subscriptions map[string]Handler
}

// Connect establishes the MQTT connection and blocks until the broker
// accepted it or the timeout expired.
func Connect(options Options) (*Listener, error) {
	l := &Listener{subscriptions: map[string]Handler{}}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(options.BrokerURL)
	opts.SetClientID(options.ClientID)
	username := options.Username
	if options.Tenant != "" {
		username = options.Tenant + "/" + options.Username
	}
	opts.SetUsername(username)
	opts.SetPassword(options.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		l.resubscribe()
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Default().WithError(err).Warning("mqtt connection lost")
	})

	l.client = mqtt.NewClient(opts)
	token := l.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, mqtt.ErrNotConnected
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Listener) resubscribe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for topic, handler := range l.subscriptions {
		l.subscribe(topic, handler)
	}
}

func (l *Listener) subscribe(topic string, handler Handler) mqtt.Token {
	return l.client.Subscribe(topic, 1, func(client mqtt.Client, message mqtt.Message) {
		handler(message.Topic(), message.Payload())
	})
}

// Subscribe registers a handler for a topic with QoS 1. The
// subscription is restored automatically after a reconnect.
func (l *Listener) Subscribe(topic string, handler Handler) error {
	l.mu.Lock()
	l.subscriptions[topic] = handler
	l.mu.Unlock()
	token := l.subscribe(topic, handler)
	token.Wait()
	return token.Error()
}

// Unsubscribe removes the topic subscription.
func (l *Listener) Unsubscribe(topic string) error {
	l.mu.Lock()
	delete(l.subscriptions, topic)
	l.mu.Unlock()
	token := l.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

// Publish sends a message with QoS 1 and waits for the broker
// acknowledgement.
func (l *Listener) Publish(topic string, payload []byte) error {
	token := l.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return mqtt.ErrNotConnected
	}
	return token.Error()
}

// Close disconnects from the broker, allowing pending operations a
// short grace period.
func (l *Listener) Close() {
	l.client.Disconnect(1000)
}
