package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayush/gyancoder/backend/internal/models"
)

func newTestTranscriptStore(t *testing.T) (*TranscriptStore, string) {
	t.Helper()
	root := t.TempDir()
	return NewTranscriptStore(root, zap.NewNop()), root
}

func strptr(s string) *string { return &s }

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Write a bubble sort", "Write_a_bubble_sort"},
		{"  hi!! there  ", "hi_there"},
		{"???", ""},
		{"what's new?", "what_s_new"},
		{strings.Repeat("a", 60), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeTitle(tt.in), "input %q", tt.in)
	}
}

func TestSaveAndListRoundTrip(t *testing.T) {
	s, root := newTestTranscriptStore(t)
	turns := []models.Turn{
		{Role: models.RoleUser, Content: "Write a bubble sort"},
		{Role: models.RoleAssistant, Content: "Here:\n\nDone.", Code: strptr("print(1)")},
	}

	require.NoError(t, s.Save("alice", turns))

	_, err := os.Stat(filepath.Join(root, "alice", "Write_a_bubble_sort.json"))
	require.NoError(t, err, "filename derives from the sanitized first query")

	entries, err := s.List("alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "Write_a_bubble_sort.json", e.Filename)
	assert.Equal(t, "Write a bubble sort", e.FirstQuery)
	assert.Equal(t, turns, e.Messages)

	_, err = time.Parse(models.TimestampLayout, e.Timestamp)
	assert.NoError(t, err)
}

func TestSaveEmptyTurnsIsNoop(t *testing.T) {
	s, root := newTestTranscriptStore(t)

	require.NoError(t, s.Save("alice", nil))

	_, err := os.Stat(filepath.Join(root, "alice"))
	assert.True(t, os.IsNotExist(err), "no user directory is created for an empty save")
}

func TestSaveWithoutUserTurn(t *testing.T) {
	s, _ := newTestTranscriptStore(t)
	turns := []models.Turn{{Role: models.RoleAssistant, Content: "unprompted"}}

	require.NoError(t, s.Save("alice", turns))

	entries, err := s.List("alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "untitled.json", entries[0].Filename)
}

func TestSaveOverwritesSameTitle(t *testing.T) {
	s, _ := newTestTranscriptStore(t)
	turns := []models.Turn{{Role: models.RoleUser, Content: "same question"}}

	require.NoError(t, s.Save("alice", turns))
	longer := append(turns, models.Turn{Role: models.RoleAssistant, Content: "an answer"})
	require.NoError(t, s.Save("alice", longer))

	entries, err := s.List("alice")
	require.NoError(t, err)
	require.Len(t, entries, 1, "same derived filename means last write wins")
	assert.Equal(t, longer, entries[0].Messages)
}

func TestListMissingDirectory(t *testing.T) {
	s, _ := newTestTranscriptStore(t)

	entries, err := s.List("ghost")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListSkipsMalformedFiles(t *testing.T) {
	s, _ := newTestTranscriptStore(t)

	dir, err := s.DirFor("bob")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	require.NoError(t, s.Save("bob", []models.Turn{{Role: models.RoleUser, Content: "ok"}}))

	entries, err := s.List("bob")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok.json", entries[0].Filename)
}

func TestListOrdersByTimestampDescending(t *testing.T) {
	s, _ := newTestTranscriptStore(t)
	dir, err := s.DirFor("carol")
	require.NoError(t, err)

	write := func(name, ts string) {
		doc := models.Transcript{
			FirstQuery: name,
			Timestamp:  ts,
			Messages:   []models.Turn{{Role: models.RoleUser, Content: name}},
		}
		data, err := json.Marshal(doc)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644))
	}
	write("older", "2024-01-02 10:00:00")
	write("newer", "2024-01-03 10:00:00")
	write("newest", "2024-01-04 10:00:00")

	entries, err := s.List("carol")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "newest.json", entries[0].Filename)
	assert.Equal(t, "newer.json", entries[1].Filename)
	assert.Equal(t, "older.json", entries[2].Filename)
}

func TestLoad(t *testing.T) {
	s, _ := newTestTranscriptStore(t)
	turns := []models.Turn{{Role: models.RoleUser, Content: "hello"}}
	require.NoError(t, s.Save("alice", turns))

	doc, err := s.Load("alice", "hello.json")
	require.NoError(t, err)
	assert.Equal(t, turns, doc.Messages)

	_, err = s.Load("alice", "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s, root := newTestTranscriptStore(t)
	require.NoError(t, s.Save("alice", []models.Turn{{Role: models.RoleUser, Content: "keep me"}}))
	require.NoError(t, s.Save("alice", []models.Turn{{Role: models.RoleUser, Content: "drop me"}}))

	removed, err := s.Delete("alice", "missing.json")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Delete("alice", "drop_me.json")
	require.NoError(t, err)
	assert.True(t, removed)

	// Exactly the named file is gone.
	_, err = os.Stat(filepath.Join(root, "alice", "drop_me.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "alice", "keep_me.json"))
	assert.NoError(t, err)
}

func TestDeleteStripsPathComponents(t *testing.T) {
	s, _ := newTestTranscriptStore(t)
	require.NoError(t, s.Save("alice", []models.Turn{{Role: models.RoleUser, Content: "mine"}}))
	require.NoError(t, s.Save("eve", []models.Turn{{Role: models.RoleUser, Content: "hers"}}))

	// A traversal attempt resolves inside eve's own directory.
	removed, err := s.Delete("eve", "../alice/mine.json")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.Load("alice", "mine.json")
	assert.NoError(t, err)
}
