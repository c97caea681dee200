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

const measurementsPath = "/measurement/measurements"

// Measurement represents one measurement document. Measurements are
// immutable after creation: Update fails with core.ErrUnsupported and
// issues no request.
type Measurement struct {
	item
	Type      string
	Time      string
	Source    string
	Fragments Fragments
}

var measurementReserved = []string{"type", "time", "source"}

// Value is a single measurement reading within a series fragment, e.g.
// {"pt_current": {"CURR": {"value": 50, "unit": "A"}}}.
type Value struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// NewMeasurement builds a measurement for creation. Set Time to
// core.Now to have the submission time recorded; the sentinel is
// resolved when the measurement is submitted, not earlier.
func NewMeasurement(conn *rest.Client, typ, source string) *Measurement {
	m := &Measurement{
		Type:      typ,
		Source:    source,
		Fragments: Fragments{},
	}
	m.conn = conn
	return m
}

func measurementFromMap(doc map[string]any) *Measurement {
	m := &Measurement{
		Type:      stringField(doc, "type"),
		Time:      stringField(doc, "time"),
		Source:    referenceID(doc, "source"),
		Fragments: fragmentsFrom(doc, measurementReserved...),
	}
	m.ID = stringField(doc, "id")
	return m
}

func (m *Measurement) field(key string) (any, bool) {
	switch key {
	case "id":
		return m.ID, true
	case "type":
		return m.Type, true
	case "time":
		return m.Time, true
	case "source":
		return m.Source, true
	}
	return nil, false
}

func (m *Measurement) setDeclared(key string, value any) (bool, error) {
	switch key {
	case "type", "time", "source":
		s, ok := value.(string)
		if !ok {
			return true, core.Errorf(core.ErrValidation, "measurement", m.ID, key, "field requires a string value")
		}
		switch key {
		case "type":
			m.Type = s
		case "time":
			m.Time = s
		case "source":
			m.Source = s
		}
		return true, nil
	case "id":
		return true, core.Errorf(core.ErrValidation, "measurement", m.ID, key, "field is read-only")
	}
	return false, nil
}

// Get resolves a declared field or a fragment path.
func (m *Measurement) Get(path string) (any, error) {
	return getField("measurement", m.ID, m.field, m.Fragments, path)
}

// Set assigns a declared field or a fragment path. Only meaningful
// before creation; measurements cannot be updated.
func (m *Measurement) Set(path string, value any) error {
	if m.Fragments == nil {
		m.Fragments = Fragments{}
	}
	return setField("measurement", m.ID, m.setDeclared, m.Fragments, func(string) {}, path, value)
}

// Has tests for a top-level custom fragment.
func (m *Measurement) Has(key string) bool {
	return m.Fragments.Has(key)
}

// Keys enumerates the top-level custom fragments.
func (m *Measurement) Keys() []string {
	return m.Fragments.Keys()
}

func (m *Measurement) toJSON() map[string]any {
	doc := map[string]any{}
	putString(doc, "type", m.Type)
	putString(doc, "time", core.EnsureTimestring(m.Time))
	if m.Source != "" {
		doc["source"] = reference(m.Source)
	}
	putFragments(doc, m.Fragments)
	return doc
}

// Create submits the measurement as a new document and returns the
// created instance with its platform-assigned ID.
func (m *Measurement) Create() (*Measurement, error) {
	if err := m.assertConn("measurement"); err != nil {
		return nil, err
	}
	if err := m.assertNoID("measurement"); err != nil {
		return nil, err
	}
	body := m.toJSON()
	if err := validateDocument("measurement", measurementSchema, body); err != nil {
		return nil, err
	}
	var result map[string]any
	if _, err := m.conn.Post(measurementsPath, body, &result); err != nil {
		return nil, wrapStatus(err, "measurement", "")
	}
	created := measurementFromMap(result)
	created.conn = m.conn
	return created, nil
}

// Update always fails with core.ErrUnsupported: measurements are
// immutable within the platform. No request is issued.
func (m *Measurement) Update() (*Measurement, error) {
	return nil, core.Errorf(core.ErrUnsupported, "measurement", m.ID, "",
		"measurements cannot be updated")
}

// Delete removes the measurement.
func (m *Measurement) Delete() error {
	if err := m.assertConn("measurement"); err != nil {
		return err
	}
	if err := m.assertID("measurement"); err != nil {
		return err
	}
	_, err := m.conn.Delete(measurementsPath + "/" + m.ID)
	return wrapStatus(err, "measurement", m.ID)
}

// Reload reads the current state of the measurement from the platform.
func (m *Measurement) Reload() (*Measurement, error) {
	if err := m.assertConn("measurement"); err != nil {
		return nil, err
	}
	if err := m.assertID("measurement"); err != nil {
		return nil, err
	}
	var doc map[string]any
	if _, err := m.conn.Get(measurementsPath+"/"+m.ID, &doc); err != nil {
		return nil, wrapStatus(err, "measurement", m.ID)
	}
	reloaded := measurementFromMap(doc)
	reloaded.conn = m.conn
	return reloaded, nil
}

// Measurements is the collection API for measurement documents.
type Measurements struct {
	collection[Measurement]
}

// NewMeasurements creates the measurements API bound to a connection.
func NewMeasurements(conn *rest.Client) *Measurements {
	return &Measurements{collection[Measurement]{
		conn:      conn,
		path:      measurementsPath,
		name:      "measurements",
		singular:  "measurement",
		countable: true,
		parse: func(doc map[string]any) *Measurement {
			m := measurementFromMap(doc)
			m.conn = conn
			return m
		},
	}}
}

// Get reads one measurement by ID.
func (api *Measurements) Get(id string) (*Measurement, error) {
	return api.get(id)
}

// Create submits new measurements as one collection document, the
// platform's fast path for bulk ingestion.
func (api *Measurements) Create(measurements ...*Measurement) error {
	docs := make([]map[string]any, 0, len(measurements))
	for _, m := range measurements {
		body := m.toJSON()
		if err := validateDocument("measurement", measurementSchema, body); err != nil {
			return err
		}
		docs = append(docs, body)
	}
	if len(docs) == 0 {
		return nil
	}
	bulk := map[string]any{"measurements": docs}
	if _, err := api.conn.Post(api.path, bulk, nil); err != nil {
		return wrapStatus(err, "measurement", "")
	}
	return nil
}
