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

const eventsPath = "/event/events"

// Event represents one event recorded for a device. Events are
// immutable after creation except for their text and custom fragments.
type Event struct {
	item
	Type         string
	Time         string
	Source       string
	Text         string
	CreationTime string
	UpdatedTime  string
	Fragments    Fragments

	updated updates
}

var eventReserved = []string{
	"type", "time", "source", "text", "creationTime", "lastUpdated",
}

// NewEvent builds an event for creation. Set Time to core.Now to have
// the submission time recorded.
func NewEvent(conn *rest.Client, typ, source, text string) *Event {
	e := &Event{
		Type:      typ,
		Source:    source,
		Text:      text,
		Fragments: Fragments{},
	}
	e.conn = conn
	return e
}

func eventFromMap(doc map[string]any) *Event {
	e := &Event{
		Type:         stringField(doc, "type"),
		Time:         stringField(doc, "time"),
		Source:       referenceID(doc, "source"),
		Text:         stringField(doc, "text"),
		CreationTime: stringField(doc, "creationTime"),
		UpdatedTime:  stringField(doc, "lastUpdated"),
		Fragments:    fragmentsFrom(doc, eventReserved...),
	}
	e.ID = stringField(doc, "id")
	return e
}

// SetText changes the event text and records the change for Update.
func (e *Event) SetText(text string) {
	e.Text = text
	e.updated.mark("text")
}

func (e *Event) field(key string) (any, bool) {
	switch key {
	case "id":
		return e.ID, true
	case "type":
		return e.Type, true
	case "time":
		return e.Time, true
	case "source":
		return e.Source, true
	case "text":
		return e.Text, true
	case "creationTime":
		return e.CreationTime, true
	case "lastUpdated":
		return e.UpdatedTime, true
	}
	return nil, false
}

func (e *Event) setDeclared(key string, value any) (bool, error) {
	switch key {
	case "text":
		s, ok := value.(string)
		if !ok {
			return true, core.Errorf(core.ErrValidation, "event", e.ID, key, "field requires a string value")
		}
		e.SetText(s)
		return true, nil
	case "type", "time", "source":
		s, ok := value.(string)
		if !ok {
			return true, core.Errorf(core.ErrValidation, "event", e.ID, key, "field requires a string value")
		}
		switch key {
		case "type":
			e.Type = s
		case "time":
			e.Time = s
		case "source":
			e.Source = s
		}
		return true, nil
	case "id", "creationTime", "lastUpdated":
		return true, core.Errorf(core.ErrValidation, "event", e.ID, key, "field is read-only")
	}
	return false, nil
}

// Get resolves a declared field or a fragment path.
func (e *Event) Get(path string) (any, error) {
	return getField("event", e.ID, e.field, e.Fragments, path)
}

// Set assigns a declared field or a fragment path and records the
// change for Update.
func (e *Event) Set(path string, value any) error {
	if e.Fragments == nil {
		e.Fragments = Fragments{}
	}
	return setField("event", e.ID, e.setDeclared, e.Fragments, e.updated.mark, path, value)
}

// Has tests for a top-level custom fragment.
func (e *Event) Has(key string) bool {
	return e.Fragments.Has(key)
}

// Keys enumerates the top-level custom fragments.
func (e *Event) Keys() []string {
	return e.Fragments.Keys()
}

func (e *Event) toJSON() map[string]any {
	doc := map[string]any{}
	putString(doc, "type", e.Type)
	putString(doc, "time", core.EnsureTimestring(e.Time))
	if e.Source != "" {
		doc["source"] = reference(e.Source)
	}
	putString(doc, "text", e.Text)
	putFragments(doc, e.Fragments)
	return doc
}

func (e *Event) toDiffJSON() map[string]any {
	doc := map[string]any{}
	if e.updated.contains("text") {
		doc["text"] = e.Text
	}
	putUpdatedFragments(doc, e.Fragments, e.updated)
	return doc
}

// Create submits the event as a new document and returns the created
// instance with its platform-assigned ID.
func (e *Event) Create() (*Event, error) {
	if err := e.assertConn("event"); err != nil {
		return nil, err
	}
	if err := e.assertNoID("event"); err != nil {
		return nil, err
	}
	body := e.toJSON()
	if err := validateDocument("event", eventSchema, body); err != nil {
		return nil, err
	}
	var result map[string]any
	if _, err := e.conn.Post(eventsPath, body, &result); err != nil {
		return nil, wrapStatus(err, "event", "")
	}
	created := eventFromMap(result)
	created.conn = e.conn
	return created, nil
}

// Update writes the text and fragments changed since the event was
// loaded. The fixed event fields are immutable.
func (e *Event) Update() (*Event, error) {
	if err := e.assertConn("event"); err != nil {
		return nil, err
	}
	if err := e.assertID("event"); err != nil {
		return nil, err
	}
	if e.updated.empty() {
		return nil, core.Errorf(core.ErrValidation, "event", e.ID, "", "nothing to update")
	}
	var result map[string]any
	if _, err := e.conn.Put(eventsPath+"/"+e.ID, e.toDiffJSON(), &result); err != nil {
		return nil, wrapStatus(err, "event", e.ID)
	}
	updated := eventFromMap(result)
	updated.conn = e.conn
	return updated, nil
}

// Delete removes the event.
func (e *Event) Delete() error {
	if err := e.assertConn("event"); err != nil {
		return err
	}
	if err := e.assertID("event"); err != nil {
		return err
	}
	_, err := e.conn.Delete(eventsPath + "/" + e.ID)
	return wrapStatus(err, "event", e.ID)
}

// Reload reads the current state of the event from the platform.
func (e *Event) Reload() (*Event, error) {
	if err := e.assertConn("event"); err != nil {
		return nil, err
	}
	if err := e.assertID("event"); err != nil {
		return nil, err
	}
	var doc map[string]any
	if _, err := e.conn.Get(eventsPath+"/"+e.ID, &doc); err != nil {
		return nil, wrapStatus(err, "event", e.ID)
	}
	reloaded := eventFromMap(doc)
	reloaded.conn = e.conn
	return reloaded, nil
}

// Events is the collection API for event objects.
type Events struct {
	collection[Event]
}

// NewEvents creates the events API bound to a connection.
func NewEvents(conn *rest.Client) *Events {
	return &Events{collection[Event]{
		conn:      conn,
		path:      eventsPath,
		name:      "events",
		singular:  "event",
		countable: true,
		parse: func(doc map[string]any) *Event {
			e := eventFromMap(doc)
			e.conn = conn
			return e
		},
	}}
}

// Get reads one event by ID.
func (api *Events) Get(id string) (*Event, error) {
	return api.get(id)
}

// Create submits new events; the passed instances are not modified.
func (api *Events) Create(events ...*Event) error {
	for _, e := range events {
		body := e.toJSON()
		if err := validateDocument("event", eventSchema, body); err != nil {
			return err
		}
		if _, err := api.conn.Post(api.path, body, nil); err != nil {
			return wrapStatus(err, "event", "")
		}
	}
	return nil
}
