package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayush/gyancoder/backend/internal/models"
)

const titleMaxRunes = 50

// TranscriptStore keeps one JSON file per conversation under a directory per
// user. Filenames are derived from the sanitized first user query, so two
// conversations opening with the same sentence share a file and the later
// save wins.
type TranscriptStore struct {
	root string
	log  *zap.Logger
}

func NewTranscriptStore(root string, log *zap.Logger) *TranscriptStore {
	return &TranscriptStore{root: root, log: log}
}

// DirFor ensures and returns the per-user transcript directory.
func (s *TranscriptStore) DirFor(username string) (string, error) {
	dir := filepath.Join(s.root, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create user dir %s: %w", dir, err)
	}
	return dir, nil
}

// SanitizeTitle derives a filesystem-safe title: the first 50 runes with
// every non-alphanumeric run replaced by a single underscore, edges trimmed.
func SanitizeTitle(title string) string {
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		runes = runes[:titleMaxRunes]
	}
	var b strings.Builder
	lastUnderscore := false
	for _, r := range runes {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// firstQuery returns the content of the first user-role turn.
func firstQuery(turns []models.Turn) string {
	for _, t := range turns {
		if t.Role == models.RoleUser {
			return t.Content
		}
	}
	return ""
}

// Save writes the conversation to <root>/<username>/<sanitized title>.json,
// overwriting any previous file of the same name. Saving an empty turn
// sequence is a no-op.
func (s *TranscriptStore) Save(username string, turns []models.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	dir, err := s.DirFor(username)
	if err != nil {
		return err
	}

	query := firstQuery(turns)
	title := SanitizeTitle(query)
	if title == "" {
		title = "untitled"
	}
	first := query
	if runes := []rune(first); len(runes) > titleMaxRunes {
		first = string(runes[:titleMaxRunes])
	}

	doc := models.Transcript{
		FirstQuery: first,
		Timestamp:  time.Now().Format(models.TimestampLayout),
		Messages:   turns,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	path := filepath.Join(dir, title+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// List returns every parseable transcript of the user, newest first
// (timestamp descending, filename descending as tie-break). Files that fail
// to parse are skipped with a warning instead of failing the listing. An
// absent directory is an empty list.
func (s *TranscriptStore) List(username string) ([]models.TranscriptEntry, error) {
	dir := filepath.Join(s.root, username)
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.TranscriptEntry{}, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	entries := make([]models.TranscriptEntry, 0, len(dirents))
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		doc, err := s.read(filepath.Join(dir, de.Name()))
		if err != nil {
			s.log.Warn("skipping malformed transcript",
				zap.String("user", username),
				zap.String("file", de.Name()),
				zap.Error(err))
			continue
		}
		entries = append(entries, models.TranscriptEntry{Filename: de.Name(), Transcript: *doc})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp > entries[j].Timestamp
		}
		return entries[i].Filename > entries[j].Filename
	})
	return entries, nil
}

// Load returns the named transcript, or ErrNotFound.
func (s *TranscriptStore) Load(username, filename string) (*models.Transcript, error) {
	path := filepath.Join(s.root, username, filepath.Base(filename))
	doc, err := s.read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: transcript %q", ErrNotFound, filename)
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes the named transcript file, reporting whether one existed.
func (s *TranscriptStore) Delete(username, filename string) (bool, error) {
	path := filepath.Join(s.root, username, filepath.Base(filename))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}

func (s *TranscriptStore) read(path string) (*models.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc models.Transcript
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return &doc, nil
}
