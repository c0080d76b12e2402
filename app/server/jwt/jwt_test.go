package jwt

import (
	"teamforge/app/server/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyKey(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestSignAndParse(t *testing.T) {
	j, err := New("secret")
	require.NoError(t, err)

	expires := time.Now().Add(time.Hour).Unix()
	user := &User{ID: 42, Role: types.RoleAdmin, Expires: expires}
	token, err := j.SignToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.TokenID)

	parsed, err := j.ParseUser(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), parsed.ID)
	assert.Equal(t, types.RoleAdmin, parsed.Role)
	assert.Equal(t, user.TokenID, parsed.TokenID)
	assert.Equal(t, expires, parsed.Expires)
	assert.True(t, parsed.Identity().IsAdmin())
}

func TestParse_Rejects(t *testing.T) {
	j, _ := New("secret")
	other, _ := New("another")

	expired, err := j.SignToken(&User{ID: 1, Expires: time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)
	forged, err := other.SignToken(&User{ID: 1, Expires: time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	unknownRole, err := j.SignToken(&User{ID: 1, Role: types.Role(7), Expires: time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"expired": expired,
		"forged":  forged,
		"role":    unknownRole,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := j.ParseUser(token)
			assert.Error(t, err)
		})
	}
}
