package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestStatic(t *testing.T) {
	s := NewStatic()

	secret, err := s.GetPassword("nas.local", "alice")
	require.NoError(t, err)
	assert.Equal(t, "", secret, "missing entry reads as empty")

	require.NoError(t, s.SetPassword("nas.local", "alice", "hunter2"))
	require.NoError(t, s.SetPassword("other.local", "alice", "different"))

	secret, err = s.GetPassword("nas.local", "alice")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)

	// Same username on another server keeps its own credential.
	secret, err = s.GetPassword("other.local", "alice")
	require.NoError(t, err)
	assert.Equal(t, "different", secret)

	require.NoError(t, s.DeletePassword("nas.local", "alice"))
	secret, err = s.GetPassword("nas.local", "alice")
	require.NoError(t, err)
	assert.Equal(t, "", secret)
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()

	k := Keyring{}

	secret, err := k.GetPassword("nas.local", "alice")
	require.NoError(t, err, "missing entry is not an error")
	assert.Equal(t, "", secret)

	require.NoError(t, k.SetPassword("nas.local", "alice", "hunter2"))

	secret, err = k.GetPassword("nas.local", "alice")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)

	require.NoError(t, k.DeletePassword("nas.local", "alice"))
	require.NoError(t, k.DeletePassword("nas.local", "alice"), "deleting a missing entry is fine")
}
