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

// User represents a platform user within a tenant. Users are simple
// objects without custom fragments; their identifier on the wire is the
// user name.
type User struct {
	item
	Username  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Enabled   bool

	updated updates
}

// NewUser builds a user for creation.
func NewUser(conn *rest.Client, username, email string) *User {
	u := &User{
		Username: username,
		Email:    email,
		Enabled:  true,
	}
	u.conn = conn
	return u
}

func userFromMap(doc map[string]any) *User {
	u := &User{
		Username:  stringField(doc, "userName"),
		Email:     stringField(doc, "email"),
		FirstName: stringField(doc, "firstName"),
		LastName:  stringField(doc, "lastName"),
		Phone:     stringField(doc, "phone"),
		Enabled:   boolField(doc, "enabled"),
	}
	u.ID = stringField(doc, "id")
	if u.ID == "" {
		u.ID = u.Username
	}
	return u
}

// SetEmail changes the email address and records the change for Update.
func (u *User) SetEmail(email string) {
	u.Email = email
	u.updated.mark("email")
}

// SetName changes first and last name and records the change for Update.
func (u *User) SetName(first, last string) {
	u.FirstName = first
	u.LastName = last
	u.updated.mark("firstName")
	u.updated.mark("lastName")
}

// SetPhone changes the phone number and records the change for Update.
func (u *User) SetPhone(phone string) {
	u.Phone = phone
	u.updated.mark("phone")
}

// SetEnabled enables or disables the user and records the change for
// Update.
func (u *User) SetEnabled(enabled bool) {
	u.Enabled = enabled
	u.updated.mark("enabled")
}

func (u *User) toJSON() map[string]any {
	doc := map[string]any{}
	putString(doc, "userName", u.Username)
	putString(doc, "email", u.Email)
	putString(doc, "firstName", u.FirstName)
	putString(doc, "lastName", u.LastName)
	putString(doc, "phone", u.Phone)
	doc["enabled"] = u.Enabled
	return doc
}

func (u *User) toDiffJSON() map[string]any {
	doc := map[string]any{}
	for _, key := range []string{"email", "firstName", "lastName", "phone", "enabled"} {
		if !u.updated.contains(key) {
			continue
		}
		switch key {
		case "email":
			doc[key] = u.Email
		case "firstName":
			doc[key] = u.FirstName
		case "lastName":
			doc[key] = u.LastName
		case "phone":
			doc[key] = u.Phone
		case "enabled":
			doc[key] = u.Enabled
		}
	}
	return doc
}

// Users is the collection API for the tenant's user management.
type Users struct {
	collection[User]
}

// NewUsers creates the users API bound to a connection. The resource
// is tenant-scoped, the connection must know its tenant ID.
func NewUsers(conn *rest.Client) *Users {
	path := "/user/" + conn.Tenant() + "/users"
	return &Users{collection[User]{
		conn:     conn,
		path:     path,
		name:     "users",
		singular: "user",
		// the user management has no count endpoint
		countable: false,
		parse: func(doc map[string]any) *User {
			u := userFromMap(doc)
			u.conn = conn
			return u
		},
	}}
}

// Get reads one user by user name.
func (api *Users) Get(username string) (*User, error) {
	return api.get(username)
}

// Create submits new users.
func (api *Users) Create(users ...*User) error {
	for _, u := range users {
		body := u.toJSON()
		if err := validateDocument("user", userSchema, body); err != nil {
			return err
		}
		if _, err := api.conn.Post(api.path, body, nil); err != nil {
			return wrapStatus(err, "user", u.Username)
		}
	}
	return nil
}

// Update writes the changed fields of the given users.
func (api *Users) Update(users ...*User) error {
	for _, u := range users {
		if err := u.assertID("user"); err != nil {
			return err
		}
		if u.updated.empty() {
			return core.Errorf(core.ErrValidation, "user", u.ID, "", "nothing to update")
		}
		if _, err := api.conn.Put(api.objectPath(u.ID), u.toDiffJSON(), nil); err != nil {
			return wrapStatus(err, "user", u.ID)
		}
	}
	return nil
}
