package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCredStore(t *testing.T) *CredentialStore {
	t.Helper()
	return NewCredentialStore(filepath.Join(t.TempDir(), "users.json"))
}

func TestAddThenVerify(t *testing.T) {
	s := newTestCredStore(t)

	created, err := s.Add("alice", "s3cret", "alice@example.com")
	require.NoError(t, err)
	require.True(t, created)

	ok, err := s.Verify("alice", "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify("alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Verify("nobody", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddDuplicateUsername(t *testing.T) {
	s := newTestCredStore(t)

	created, err := s.Add("alice", "one", "a@example.com")
	require.NoError(t, err)
	require.True(t, created)

	// Second add fails regardless of password or email.
	created, err = s.Add("alice", "two", "b@example.com")
	require.NoError(t, err)
	assert.False(t, created)

	// Original credentials are untouched.
	ok, err := s.Verify("alice", "one")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetPassword(t *testing.T) {
	s := newTestCredStore(t)
	_, err := s.Add("alice", "oldpass", "alice@example.com")
	require.NoError(t, err)

	ok, err := s.ResetPassword("alice", "alice@example.com", "newpass")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = s.Verify("alice", "newpass")
	assert.True(t, ok)
	ok, _ = s.Verify("alice", "oldpass")
	assert.False(t, ok)
}

func TestResetPasswordWrongEmail(t *testing.T) {
	s := newTestCredStore(t)
	_, err := s.Add("alice", "oldpass", "alice@example.com")
	require.NoError(t, err)

	ok, err := s.ResetPassword("alice", "other@example.com", "newpass")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = s.Verify("alice", "oldpass")
	assert.True(t, ok, "failed reset leaves the original password verifiable")
}

func TestMissingDocumentIsEmptyStore(t *testing.T) {
	s := newTestCredStore(t)

	ok, err := s.Verify("anyone", "anything")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get("anyone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s := NewCredentialStore(path)

	_, err := s.Verify("alice", "pw")
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = s.Add("bob", "pw", "b@example.com")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLegacySHA256HashesVerify(t *testing.T) {
	sum := sha256.Sum256([]byte("pass123"))
	doc := map[string]credRecord{
		"naveen": {Password: hex.EncodeToString(sum[:]), Email: "naveen@example.com"},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	s := NewCredentialStore(path)

	ok, err := s.Verify("naveen", "pass123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify("naveen", "pass124")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewHashesAreBcrypt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	s := NewCredentialStore(path)
	_, err := s.Add("alice", "s3cret", "alice@example.com")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]credRecord
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.True(t, strings.HasPrefix(doc["alice"].Password, "$2"))
}

func TestGetReturnsPublicView(t *testing.T) {
	s := newTestCredStore(t)
	_, err := s.Add("alice", "pw", "alice@example.com")
	require.NoError(t, err)

	u, err := s.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
}
