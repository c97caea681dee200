// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"iter"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/query"
	"github.com/relabs-tech/cirrus/core/rest"
)

const inventoryPath = "/inventory/managedObjects"

// DeviceFragment marks a managed object as a device.
const DeviceFragment = "cirrus_IsDevice"

// AgentFragment marks a managed object as a device agent.
const AgentFragment = "cirrus_IsDeviceAgent"

// ManagedObject represents one entry of the platform inventory. The
// inventory holds virtually any additional information about assets and
// devices; everything beyond the fixed fields is modelled as fragments.
type ManagedObject struct {
	item
	Type         string
	Name         string
	Owner        string
	CreationTime string
	UpdateTime   string
	Fragments    Fragments

	updated updates
}

var managedObjectReserved = []string{
	"type", "name", "owner", "creationTime", "lastUpdated",
	"childDevices", "childAssets", "childAdditions",
	"deviceParents", "assetParents", "additionParents",
}

// NewManagedObject builds an inventory entry for creation.
func NewManagedObject(conn *rest.Client, typ, name string) *ManagedObject {
	mo := &ManagedObject{
		Type:      typ,
		Name:      name,
		Fragments: Fragments{},
	}
	mo.conn = conn
	return mo
}

// NewDevice builds an inventory entry carrying the device marker
// fragment.
func NewDevice(conn *rest.Client, typ, name string) *ManagedObject {
	mo := NewManagedObject(conn, typ, name)
	mo.Fragments[DeviceFragment] = map[string]any{}
	return mo
}

func managedObjectFromMap(doc map[string]any) *ManagedObject {
	mo := &ManagedObject{
		Type:         stringField(doc, "type"),
		Name:         stringField(doc, "name"),
		Owner:        stringField(doc, "owner"),
		CreationTime: stringField(doc, "creationTime"),
		UpdateTime:   stringField(doc, "lastUpdated"),
		Fragments:    fragmentsFrom(doc, managedObjectReserved...),
	}
	mo.ID = stringField(doc, "id")
	return mo
}

// IsDevice reports whether the object carries the device marker.
func (mo *ManagedObject) IsDevice() bool {
	return mo.Fragments.Has(DeviceFragment)
}

// SetType changes the object type and records the change for Update.
func (mo *ManagedObject) SetType(typ string) {
	mo.Type = typ
	mo.updated.mark("type")
}

// SetName changes the object name and records the change for Update.
func (mo *ManagedObject) SetName(name string) {
	mo.Name = name
	mo.updated.mark("name")
}

// SetOwner changes the owning user and records the change for Update.
func (mo *ManagedObject) SetOwner(owner string) {
	mo.Owner = owner
	mo.updated.mark("owner")
}

func (mo *ManagedObject) field(key string) (any, bool) {
	switch key {
	case "id":
		return mo.ID, true
	case "type":
		return mo.Type, true
	case "name":
		return mo.Name, true
	case "owner":
		return mo.Owner, true
	case "creationTime":
		return mo.CreationTime, true
	case "lastUpdated":
		return mo.UpdateTime, true
	}
	return nil, false
}

func (mo *ManagedObject) setDeclared(key string, value any) (bool, error) {
	switch key {
	case "type", "name", "owner":
		s, ok := value.(string)
		if !ok {
			return true, core.Errorf(core.ErrValidation, "managedObject", mo.ID, key, "field requires a string value")
		}
		switch key {
		case "type":
			mo.SetType(s)
		case "name":
			mo.SetName(s)
		case "owner":
			mo.SetOwner(s)
		}
		return true, nil
	case "id", "creationTime", "lastUpdated":
		return true, core.Errorf(core.ErrValidation, "managedObject", mo.ID, key, "field is read-only")
	}
	return false, nil
}

// Get resolves a declared field or a fragment path.
func (mo *ManagedObject) Get(path string) (any, error) {
	return getField("managedObject", mo.ID, mo.field, mo.Fragments, path)
}

// Set assigns a declared field or a fragment path and records the
// change for Update.
func (mo *ManagedObject) Set(path string, value any) error {
	if mo.Fragments == nil {
		mo.Fragments = Fragments{}
	}
	return setField("managedObject", mo.ID, mo.setDeclared, mo.Fragments, mo.updated.mark, path, value)
}

// Has tests for a top-level custom fragment.
func (mo *ManagedObject) Has(key string) bool {
	return mo.Fragments.Has(key)
}

// Keys enumerates the top-level custom fragments.
func (mo *ManagedObject) Keys() []string {
	return mo.Fragments.Keys()
}

func (mo *ManagedObject) toJSON() map[string]any {
	doc := map[string]any{}
	putString(doc, "type", mo.Type)
	putString(doc, "name", mo.Name)
	putString(doc, "owner", mo.Owner)
	putFragments(doc, mo.Fragments)
	return doc
}

func (mo *ManagedObject) toDiffJSON() map[string]any {
	doc := map[string]any{}
	if mo.updated.contains("type") {
		doc["type"] = mo.Type
	}
	if mo.updated.contains("name") {
		doc["name"] = mo.Name
	}
	if mo.updated.contains("owner") {
		doc["owner"] = mo.Owner
	}
	putUpdatedFragments(doc, mo.Fragments, mo.updated)
	return doc
}

// Create submits the object as a new inventory entry and returns the
// created instance with its platform-assigned ID.
func (mo *ManagedObject) Create() (*ManagedObject, error) {
	if err := mo.assertConn("managedObject"); err != nil {
		return nil, err
	}
	if err := mo.assertNoID("managedObject"); err != nil {
		return nil, err
	}
	var result map[string]any
	if _, err := mo.conn.Post(inventoryPath, mo.toJSON(), &result); err != nil {
		return nil, wrapStatus(err, "managedObject", "")
	}
	created := managedObjectFromMap(result)
	created.conn = mo.conn
	return created, nil
}

// Update writes the fields and fragments changed since the object was
// loaded. Untouched server-side fragments are never dropped.
func (mo *ManagedObject) Update() (*ManagedObject, error) {
	if err := mo.assertConn("managedObject"); err != nil {
		return nil, err
	}
	if err := mo.assertID("managedObject"); err != nil {
		return nil, err
	}
	if mo.updated.empty() {
		return nil, core.Errorf(core.ErrValidation, "managedObject", mo.ID, "", "nothing to update")
	}
	var result map[string]any
	if _, err := mo.conn.Put(inventoryPath+"/"+mo.ID, mo.toDiffJSON(), &result); err != nil {
		return nil, wrapStatus(err, "managedObject", mo.ID)
	}
	updated := managedObjectFromMap(result)
	updated.conn = mo.conn
	return updated, nil
}

// Delete removes the object from the inventory.
func (mo *ManagedObject) Delete() error {
	if err := mo.assertConn("managedObject"); err != nil {
		return err
	}
	if err := mo.assertID("managedObject"); err != nil {
		return err
	}
	_, err := mo.conn.Delete(inventoryPath + "/" + mo.ID)
	return wrapStatus(err, "managedObject", mo.ID)
}

// Reload reads the current state of the object from the platform.
func (mo *ManagedObject) Reload() (*ManagedObject, error) {
	if err := mo.assertConn("managedObject"); err != nil {
		return nil, err
	}
	if err := mo.assertID("managedObject"); err != nil {
		return nil, err
	}
	var doc map[string]any
	if _, err := mo.conn.Get(inventoryPath+"/"+mo.ID, &doc); err != nil {
		return nil, wrapStatus(err, "managedObject", mo.ID)
	}
	reloaded := managedObjectFromMap(doc)
	reloaded.conn = mo.conn
	return reloaded, nil
}

// Inventory is the collection API for managed objects.
type Inventory struct {
	collection[ManagedObject]
}

// NewInventory creates the inventory API bound to a connection.
func NewInventory(conn *rest.Client) *Inventory {
	return &Inventory{collection[ManagedObject]{
		conn:      conn,
		path:      inventoryPath,
		name:      "managedObjects",
		singular:  "managedObject",
		countable: true,
		parse: func(doc map[string]any) *ManagedObject {
			mo := managedObjectFromMap(doc)
			mo.conn = conn
			return mo
		},
	}}
}

// Get reads one managed object by ID.
func (api *Inventory) Get(id string) (*ManagedObject, error) {
	return api.get(id)
}

// Create submits new inventory entries; the passed instances are not
// modified.
func (api *Inventory) Create(objects ...*ManagedObject) error {
	for _, mo := range objects {
		if _, err := api.conn.Post(api.path, mo.toJSON(), nil); err != nil {
			return wrapStatus(err, "managedObject", "")
		}
	}
	return nil
}

// Update writes the changed fields of the given objects.
func (api *Inventory) Update(objects ...*ManagedObject) error {
	for _, mo := range objects {
		if err := mo.assertID("managedObject"); err != nil {
			return err
		}
		if _, err := api.conn.Put(api.objectPath(mo.ID), mo.toDiffJSON(), nil); err != nil {
			return wrapStatus(err, "managedObject", mo.ID)
		}
	}
	return nil
}

// ApplyTo writes the model object's full document to other inventory
// entries by ID.
func (api *Inventory) ApplyTo(model *ManagedObject, ids ...string) error {
	body := model.toJSON()
	for _, id := range ids {
		if _, err := api.conn.Put(api.objectPath(id), body, nil); err != nil {
			return wrapStatus(err, "managedObject", id)
		}
	}
	return nil
}

// DeviceInventory is the device view of the inventory: all operations
// are restricted to objects carrying the device marker fragment.
type DeviceInventory struct {
	inventory *Inventory
}

// NewDeviceInventory creates the device inventory API bound to a
// connection.
func NewDeviceInventory(conn *rest.Client) *DeviceInventory {
	return &DeviceInventory{inventory: NewInventory(conn)}
}

func deviceParams(p query.Params) query.Params {
	if p.Fragment == "" && p.Expression == "" {
		p.Fragment = DeviceFragment
	}
	return p
}

// Get reads one device by ID.
func (api *DeviceInventory) Get(id string) (*ManagedObject, error) {
	return api.inventory.Get(id)
}

// Select lazily streams devices matching the filters.
func (api *DeviceInventory) Select(p query.Params) iter.Seq2[*ManagedObject, error] {
	return api.inventory.Select(deviceParams(p))
}

// GetAll eagerly fetches all devices matching the filters.
func (api *DeviceInventory) GetAll(p query.Params) ([]*ManagedObject, error) {
	return api.inventory.GetAll(deviceParams(p))
}

// GetPage fetches one page of devices.
func (api *DeviceInventory) GetPage(p query.Params, number int) ([]*ManagedObject, error) {
	return api.inventory.GetPage(deviceParams(p), number)
}

// Count counts devices matching the filters.
func (api *DeviceInventory) Count(p query.Params) (int, error) {
	return api.inventory.Count(deviceParams(p))
}

// Delete removes devices by ID.
func (api *DeviceInventory) Delete(ids ...string) error {
	return api.inventory.Delete(ids...)
}
