package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRef_Forms(t *testing.T) {
	reg := RegisteredClient("u-1")
	uid, ok := reg.UserID()
	assert.True(t, ok)
	assert.Equal(t, "u-1", uid)
	_, ok = reg.Email()
	assert.False(t, ok)
	assert.Equal(t, "u-1", reg.String())

	un := UnregisteredClient("  A@X.com ")
	assert.False(t, un.IsRegistered())
	email, ok := un.Email()
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", email)
	assert.Equal(t, "unregistered_a@x.com", un.String())

	assert.True(t, ClientRef{}.IsZero())
	assert.Equal(t, "", ClientRef{}.String())
}

func TestClientRef_ParseRoundTrip(t *testing.T) {
	for _, s := range []string{"u-1", "unregistered_a@x.com"} {
		assert.Equal(t, s, ParseClientRef(s).String())
	}
	assert.Equal(t, UnregisteredClient("a@x.com"), ParseClientRef("unregistered_a@x.com"))
}

func TestClientRef_SQL(t *testing.T) {
	v, err := UnregisteredClient("a@x.com").Value()
	require.NoError(t, err)
	assert.Equal(t, "unregistered_a@x.com", v)

	var c ClientRef
	require.NoError(t, c.Scan([]byte("u-9")))
	assert.Equal(t, RegisteredClient("u-9"), c)

	require.NoError(t, c.Scan(nil))
	assert.True(t, c.IsZero())

	assert.Error(t, c.Scan(42))
}

func TestClientRef_JSON(t *testing.T) {
	type doc struct {
		UserID ClientRef `json:"user_id"`
	}

	raw, err := json.Marshal(doc{UserID: UnregisteredClient("a@x.com")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"unregistered_a@x.com"}`, string(raw))

	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u-3"}`), &d))
	assert.Equal(t, RegisteredClient("u-3"), d.UserID)
}

func TestPermissionDeniedError(t *testing.T) {
	err := &PermissionDeniedError{Collection: "projects", Operation: "update", Payload: map[string]any{"id": "p1"}}
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "projects")
}

func TestRole(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("owner").Valid())
	assert.True(t, RoleWritingTeam.IsStaff())
	assert.False(t, RoleReferralPartner.IsStaff())
	assert.True(t, Actor{UID: "a", Role: RoleAdmin}.Is(RoleSalesManager, RoleAdmin))
}
