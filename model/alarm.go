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

// Alarm severity levels.
const (
	SeverityCritical = "CRITICAL"
	SeverityMajor    = "MAJOR"
	SeverityMinor    = "MINOR"
	SeverityWarning  = "WARNING"
)

// Alarm statuses.
const (
	AlarmActive       = "ACTIVE"
	AlarmAcknowledged = "ACKNOWLEDGED"
	AlarmCleared      = "CLEARED"
)

const alarmsPath = "/alarm/alarms"

// Alarm represents one alarm raised by a device. Status, severity and
// text are mutable through their Set* methods; all other fixed fields
// are set on creation by the caller or by the platform.
type Alarm struct {
	item
	Type                string
	Time                string
	Source              string
	Text                string
	Status              string
	Severity            string
	CreationTime        string
	UpdatedTime         string
	Count               int
	FirstOccurrenceTime string
	Fragments           Fragments

	updated updates
}

// alarm fields which never map to fragments
var alarmReserved = []string{
	"type", "time", "source", "text", "status", "severity",
	"creationTime", "lastUpdated", "count", "firstOccurrenceTime",
}

// NewAlarm builds an alarm for creation. Set Time to core.Now to have
// the submission time recorded; leave it empty to let the platform
// assign its default.
func NewAlarm(conn *rest.Client, typ, source, text, severity string) *Alarm {
	a := &Alarm{
		Type:      typ,
		Source:    source,
		Text:      text,
		Status:    AlarmActive,
		Severity:  severity,
		Fragments: Fragments{},
	}
	a.conn = conn
	return a
}

func alarmFromMap(doc map[string]any) *Alarm {
	a := &Alarm{
		Type:                stringField(doc, "type"),
		Time:                stringField(doc, "time"),
		Source:              referenceID(doc, "source"),
		Text:                stringField(doc, "text"),
		Status:              stringField(doc, "status"),
		Severity:            stringField(doc, "severity"),
		CreationTime:        stringField(doc, "creationTime"),
		UpdatedTime:         stringField(doc, "lastUpdated"),
		Count:               intField(doc, "count"),
		FirstOccurrenceTime: stringField(doc, "firstOccurrenceTime"),
		Fragments:           fragmentsFrom(doc, alarmReserved...),
	}
	a.ID = stringField(doc, "id")
	return a
}

// SetText changes the alarm text and records the change for Update.
func (a *Alarm) SetText(text string) {
	a.Text = text
	a.updated.mark("text")
}

// SetStatus changes the alarm status and records the change for Update.
func (a *Alarm) SetStatus(status string) {
	a.Status = status
	a.updated.mark("status")
}

// SetSeverity changes the alarm severity and records the change for Update.
func (a *Alarm) SetSeverity(severity string) {
	a.Severity = severity
	a.updated.mark("severity")
}

func (a *Alarm) field(key string) (any, bool) {
	switch key {
	case "id":
		return a.ID, true
	case "type":
		return a.Type, true
	case "time":
		return a.Time, true
	case "source":
		return a.Source, true
	case "text":
		return a.Text, true
	case "status":
		return a.Status, true
	case "severity":
		return a.Severity, true
	case "creationTime":
		return a.CreationTime, true
	case "lastUpdated":
		return a.UpdatedTime, true
	case "count":
		return a.Count, true
	case "firstOccurrenceTime":
		return a.FirstOccurrenceTime, true
	}
	return nil, false
}

func (a *Alarm) setDeclared(key string, value any) (bool, error) {
	asString := func() (string, error) {
		s, ok := value.(string)
		if !ok {
			return "", core.Errorf(core.ErrValidation, "alarm", a.ID, key, "field requires a string value")
		}
		return s, nil
	}
	switch key {
	case "text":
		s, err := asString()
		if err == nil {
			a.SetText(s)
		}
		return true, err
	case "status":
		s, err := asString()
		if err == nil {
			a.SetStatus(s)
		}
		return true, err
	case "severity":
		s, err := asString()
		if err == nil {
			a.SetSeverity(s)
		}
		return true, err
	case "type", "time", "source":
		s, err := asString()
		if err != nil {
			return true, err
		}
		switch key {
		case "type":
			a.Type = s
		case "time":
			a.Time = s
		case "source":
			a.Source = s
		}
		return true, nil
	case "id", "creationTime", "lastUpdated", "count", "firstOccurrenceTime":
		return true, core.Errorf(core.ErrValidation, "alarm", a.ID, key, "field is read-only")
	}
	return false, nil
}

// Get resolves a declared field or a fragment path. Both addressing
// modes yield identical results for fragment keys.
func (a *Alarm) Get(path string) (any, error) {
	return getField("alarm", a.ID, a.field, a.Fragments, path)
}

// Set assigns a declared field or a fragment path and records the
// change for Update.
func (a *Alarm) Set(path string, value any) error {
	if a.Fragments == nil {
		a.Fragments = Fragments{}
	}
	return setField("alarm", a.ID, a.setDeclared, a.Fragments, a.updated.mark, path, value)
}

// Has tests for a top-level custom fragment.
func (a *Alarm) Has(key string) bool {
	return a.Fragments.Has(key)
}

// Keys enumerates the top-level custom fragments.
func (a *Alarm) Keys() []string {
	return a.Fragments.Keys()
}

func (a *Alarm) toJSON() map[string]any {
	doc := map[string]any{}
	putString(doc, "type", a.Type)
	putString(doc, "time", core.EnsureTimestring(a.Time))
	if a.Source != "" {
		doc["source"] = reference(a.Source)
	}
	putString(doc, "text", a.Text)
	putString(doc, "status", a.Status)
	putString(doc, "severity", a.Severity)
	putFragments(doc, a.Fragments)
	return doc
}

func (a *Alarm) toDiffJSON() map[string]any {
	doc := map[string]any{}
	if a.updated.contains("text") {
		doc["text"] = a.Text
	}
	if a.updated.contains("status") {
		doc["status"] = a.Status
	}
	if a.updated.contains("severity") {
		doc["severity"] = a.Severity
	}
	putUpdatedFragments(doc, a.Fragments, a.updated)
	return doc
}

// Create submits the alarm as a new document and returns the created
// instance with its platform-assigned ID. Re-raising an alarm which is
// still active for the same source and type fails with core.ErrConflict.
func (a *Alarm) Create() (*Alarm, error) {
	if err := a.assertConn("alarm"); err != nil {
		return nil, err
	}
	if err := a.assertNoID("alarm"); err != nil {
		return nil, err
	}
	body := a.toJSON()
	if err := validateDocument("alarm", alarmSchema, body); err != nil {
		return nil, err
	}
	var result map[string]any
	if _, err := a.conn.Post(alarmsPath, body, &result); err != nil {
		return nil, wrapStatus(err, "alarm", "")
	}
	created := alarmFromMap(result)
	created.conn = a.conn
	return created, nil
}

// Update writes the fields and fragments changed since the alarm was
// loaded. Untouched server-side fragments are never dropped.
func (a *Alarm) Update() (*Alarm, error) {
	if err := a.assertConn("alarm"); err != nil {
		return nil, err
	}
	if err := a.assertID("alarm"); err != nil {
		return nil, err
	}
	if a.updated.empty() {
		return nil, core.Errorf(core.ErrValidation, "alarm", a.ID, "", "nothing to update")
	}
	var result map[string]any
	if _, err := a.conn.Put(alarmsPath+"/"+a.ID, a.toDiffJSON(), &result); err != nil {
		return nil, wrapStatus(err, "alarm", a.ID)
	}
	updated := alarmFromMap(result)
	updated.conn = a.conn
	return updated, nil
}

// Delete removes the alarm. Deleting twice fails with core.ErrNotFound
// on the second call.
func (a *Alarm) Delete() error {
	if err := a.assertConn("alarm"); err != nil {
		return err
	}
	if err := a.assertID("alarm"); err != nil {
		return err
	}
	_, err := a.conn.Delete(alarmsPath + "/" + a.ID)
	return wrapStatus(err, "alarm", a.ID)
}

// Reload reads the current state of the alarm from the platform.
func (a *Alarm) Reload() (*Alarm, error) {
	if err := a.assertConn("alarm"); err != nil {
		return nil, err
	}
	if err := a.assertID("alarm"); err != nil {
		return nil, err
	}
	var doc map[string]any
	if _, err := a.conn.Get(alarmsPath+"/"+a.ID, &doc); err != nil {
		return nil, wrapStatus(err, "alarm", a.ID)
	}
	reloaded := alarmFromMap(doc)
	reloaded.conn = a.conn
	return reloaded, nil
}

// Alarms is the collection API for alarm objects.
type Alarms struct {
	collection[Alarm]
}

// NewAlarms creates the alarms API bound to a connection.
func NewAlarms(conn *rest.Client) *Alarms {
	return &Alarms{collection[Alarm]{
		conn:      conn,
		path:      alarmsPath,
		name:      "alarms",
		singular:  "alarm",
		countable: true,
		parse: func(doc map[string]any) *Alarm {
			a := alarmFromMap(doc)
			a.conn = conn
			return a
		},
	}}
}

// Get reads one alarm by ID.
func (api *Alarms) Get(id string) (*Alarm, error) {
	return api.get(id)
}

// Create submits new alarms; the passed instances are not modified.
func (api *Alarms) Create(alarms ...*Alarm) error {
	for _, a := range alarms {
		body := a.toJSON()
		if err := validateDocument("alarm", alarmSchema, body); err != nil {
			return err
		}
		if _, err := api.conn.Post(api.path, body, nil); err != nil {
			return wrapStatus(err, "alarm", "")
		}
	}
	return nil
}

// Update writes the changed fields of the given alarms.
func (api *Alarms) Update(alarms ...*Alarm) error {
	for _, a := range alarms {
		if err := a.assertID("alarm"); err != nil {
			return err
		}
		if _, err := api.conn.Put(api.objectPath(a.ID), a.toDiffJSON(), nil); err != nil {
			return wrapStatus(err, "alarm", a.ID)
		}
	}
	return nil
}

// ApplyTo writes the model alarm's full document to other alarms by ID.
func (api *Alarms) ApplyTo(model *Alarm, ids ...string) error {
	body := model.toJSON()
	for _, id := range ids {
		if _, err := api.conn.Put(api.objectPath(id), body, nil); err != nil {
			return wrapStatus(err, "alarm", id)
		}
	}
	return nil
}
