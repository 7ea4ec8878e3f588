package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const unregisteredPrefix = "unregistered_"

// ClientRef identifies the client owning a project: either a registered user account
// or a prospect known only by email who has not signed up yet.
type ClientRef struct {
	uid   string
	email string
}

// RegisteredClient refers to an existing user account.
func RegisteredClient(uid string) ClientRef {
	return ClientRef{uid: uid}
}

// UnregisteredClient refers to a prospect without an account.
func UnregisteredClient(email string) ClientRef {
	return ClientRef{email: strings.ToLower(strings.TrimSpace(email))}
}

// ParseClientRef decodes the persisted form produced by String.
func ParseClientRef(s string) ClientRef {
	if email, ok := strings.CutPrefix(s, unregisteredPrefix); ok {
		return UnregisteredClient(email)
	}
	return RegisteredClient(s)
}

func (c ClientRef) IsZero() bool { return c.uid == "" && c.email == "" }

func (c ClientRef) IsRegistered() bool { return c.uid != "" }

// UserID returns the account id for a registered client.
func (c ClientRef) UserID() (string, bool) {
	return c.uid, c.uid != ""
}

// Email returns the contact email for an unregistered client.
func (c ClientRef) Email() (string, bool) {
	return c.email, c.uid == "" && c.email != ""
}

func (c ClientRef) String() string {
	if c.uid != "" {
		return c.uid
	}
	if c.email != "" {
		return unregisteredPrefix + c.email
	}
	return ""
}

func (c ClientRef) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *ClientRef) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = ClientRef{}
	case string:
		*c = ParseClientRef(v)
	case []byte:
		*c = ParseClientRef(string(v))
	default:
		return fmt.Errorf("client ref: unsupported type %T", src)
	}
	return nil
}

func (c ClientRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClientRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = ParseClientRef(s)
	return nil
}

// GormDataType keeps the column a plain string in every dialect.
func (ClientRef) GormDataType() string {
	return "string"
}
