// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/rest"
)

// Notification subscription contexts.
const (
	ContextManagedObject = "mo"
	ContextAPI           = "apis"
	ContextTenant        = "tenant"
)

const subscriptionsPath = "/notification2/subscriptions"

// Subscription represents a notification channel registration. A
// subscription names a context (a single managed object, a set of APIs
// or the whole tenant) whose changes are forwarded to subscribers.
type Subscription struct {
	item
	Name          string
	Context       string
	SourceID      string
	APIs          []string
	TypeFilter    string
	FragmentsOnly []string
}

// NewSubscription builds a subscription for creation.
func NewSubscription(conn *rest.Client, name, context, sourceID string) *Subscription {
	s := &Subscription{
		Name:     name,
		Context:  context,
		SourceID: sourceID,
	}
	s.conn = conn
	return s
}

func subscriptionFromMap(doc map[string]any) *Subscription {
	s := &Subscription{
		Name:     stringField(doc, "subscription"),
		Context:  stringField(doc, "context"),
		SourceID: referenceID(doc, "source"),
	}
	s.ID = stringField(doc, "id")
	if filter, ok := doc["subscriptionFilter"].(map[string]any); ok {
		s.TypeFilter = stringField(filter, "typeFilter")
		if apis, ok := filter["apis"].([]any); ok {
			for _, api := range apis {
				if name, ok := api.(string); ok {
					s.APIs = append(s.APIs, name)
				}
			}
		}
	}
	if fragments, ok := doc["fragmentsToCopy"].([]any); ok {
		for _, f := range fragments {
			if name, ok := f.(string); ok {
				s.FragmentsOnly = append(s.FragmentsOnly, name)
			}
		}
	}
	return s
}

func (s *Subscription) toJSON() map[string]any {
	doc := map[string]any{}
	putString(doc, "subscription", s.Name)
	putString(doc, "context", s.Context)
	if s.SourceID != "" {
		doc["source"] = reference(s.SourceID)
	}
	if len(s.APIs) > 0 || s.TypeFilter != "" {
		filter := map[string]any{}
		if len(s.APIs) > 0 {
			filter["apis"] = s.APIs
		}
		putString(filter, "typeFilter", s.TypeFilter)
		doc["subscriptionFilter"] = filter
	}
	if len(s.FragmentsOnly) > 0 {
		doc["fragmentsToCopy"] = s.FragmentsOnly
	}
	return doc
}

// Create registers the subscription and returns the created instance
// with its platform-assigned ID.
func (s *Subscription) Create() (*Subscription, error) {
	if err := s.assertConn("subscription"); err != nil {
		return nil, err
	}
	if err := s.assertNoID("subscription"); err != nil {
		return nil, err
	}
	body := s.toJSON()
	if err := validateDocument("subscription", subscriptionSchema, body); err != nil {
		return nil, err
	}
	var result map[string]any
	if _, err := s.conn.Post(subscriptionsPath, body, &result); err != nil {
		return nil, wrapStatus(err, "subscription", "")
	}
	created := subscriptionFromMap(result)
	created.conn = s.conn
	return created, nil
}

// Update always fails with core.ErrUnsupported: subscriptions are
// immutable, delete and recreate instead. No request is issued.
func (s *Subscription) Update() (*Subscription, error) {
	return nil, core.Errorf(core.ErrUnsupported, "subscription", s.ID, "",
		"subscriptions cannot be updated, delete and recreate instead")
}

// Delete removes the subscription.
func (s *Subscription) Delete() error {
	if err := s.assertConn("subscription"); err != nil {
		return err
	}
	if err := s.assertID("subscription"); err != nil {
		return err
	}
	_, err := s.conn.Delete(subscriptionsPath + "/" + s.ID)
	return wrapStatus(err, "subscription", s.ID)
}

// Subscriptions is the collection API for notification subscriptions.
type Subscriptions struct {
	collection[Subscription]
}

// NewSubscriptions creates the subscriptions API bound to a connection.
func NewSubscriptions(conn *rest.Client) *Subscriptions {
	return &Subscriptions{collection[Subscription]{
		conn:     conn,
		path:     subscriptionsPath,
		name:     "subscriptions",
		singular: "subscription",
		// the subscription registry has no count endpoint
		countable: false,
		parse: func(doc map[string]any) *Subscription {
			s := subscriptionFromMap(doc)
			s.conn = conn
			return s
		},
	}}
}

// Get reads one subscription by ID.
func (api *Subscriptions) Get(id string) (*Subscription, error) {
	return api.get(id)
}
