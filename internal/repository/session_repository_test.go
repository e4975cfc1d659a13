package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "refresh_token:u1", SessionKey("u1"))
}

func TestDenylistKey(t *testing.T) {
	assert.Equal(t, "denylist:eyJhbGci.token", DenylistKey("eyJhbGci.token"))
}

func TestKeyNamespacesAreDisjoint(t *testing.T) {
	// An account id can never collide with a token entry.
	assert.NotEqual(t, SessionKey("x"), DenylistKey("x"))
}
