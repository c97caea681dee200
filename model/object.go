// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package model provides typed access to the Cirrus platform resources:
managed objects and devices, measurements, events, alarms, operations,
users, applications and notification subscriptions.

Every resource type wraps a Fragments store for its custom properties
and carries a small set of fixed fields. Objects parsed from the wire
are bound to the originating connection so that instance-level
operations (Update, Delete, Reload) work without extra wiring; objects
built programmatically must be bound explicitly via Bind before use.
*/
package model

import (
	"strings"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/rest"
)

// item is the common base of all resource instances: platform identity
// plus a non-owning reference to the connection used to create it.
type item struct {
	conn *rest.Client
	ID   string
}

// Bind attaches a connection reference to a standalone-built object.
// Objects yielded by the collection APIs are bound automatically.
func (o *item) Bind(conn *rest.Client) {
	o.conn = conn
}

// Connection returns the bound connection reference, or nil.
func (o *item) Connection() *rest.Client {
	return o.conn
}

func (o *item) assertConn(resource string) error {
	if o.conn == nil {
		return core.Errorf(core.ErrValidation, resource, o.ID, "",
			"connection reference must be bound to allow direct platform access")
	}
	return nil
}

func (o *item) assertID(resource string) error {
	if o.ID == "" {
		return core.Errorf(core.ErrValidation, resource, "", "",
			"the object ID must be set to allow direct object access")
	}
	return nil
}

func (o *item) assertNoID(resource string) error {
	if o.ID != "" {
		return core.Errorf(core.ErrValidation, resource, o.ID, "",
			"the object has an ID already, it cannot be created twice")
	}
	return nil
}

// updates records the names of fields and top-level fragments mutated
// since the object was loaded. Update operations send only these.
type updates map[string]struct{}

func (u *updates) mark(name string) {
	if *u == nil {
		*u = updates{}
	}
	(*u)[name] = struct{}{}
}

func (u updates) contains(name string) bool {
	_, ok := u[name]
	return ok
}

func (u updates) empty() bool {
	return len(u) == 0
}

// getField resolves a path with the two-tier lookup all resource types
// share: declared fields first, fragment store second. field reports
// declared top-level names; everything else resolves through frag.
func getField(resource, id string, field func(string) (any, bool), frag Fragments, path string) (any, error) {
	key, _, nested := strings.Cut(path, ".")
	if value, ok := field(key); ok {
		if nested {
			return nil, &core.Error{Kind: core.ErrTypeConflict, Resource: resource, ID: id, Path: path}
		}
		return value, nil
	}
	value, err := frag.Get(path)
	if err != nil {
		decorate(err, resource, id)
		return nil, err
	}
	return value, nil
}

// setField is the write-side counterpart of getField. setDeclared
// reports whether it handled the key as a declared field; otherwise the
// value lands in the fragment store and the top-level key is marked as
// updated.
func setField(resource, id string, setDeclared func(string, any) (bool, error), frag Fragments, mark func(string), path string, value any) error {
	key, _, nested := strings.Cut(path, ".")
	if !nested {
		handled, err := setDeclared(key, value)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}
	if err := frag.Set(path, value); err != nil {
		decorate(err, resource, id)
		return err
	}
	mark(key)
	return nil
}

// decorate adds resource context to a core error in place.
func decorate(err error, resource, id string) {
	if e, ok := err.(*core.Error); ok {
		if e.Resource == "" {
			e.Resource = resource
		}
		if e.ID == "" {
			e.ID = id
		}
	}
}

// wrapStatus decorates a transport error with resource context.
func wrapStatus(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	decorate(err, resource, id)
	return err
}
