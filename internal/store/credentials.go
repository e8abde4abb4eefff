package store

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/gyancoder/backend/internal/models"
)

// credRecord is the on-disk value of the credential document:
// {username: {"password": <hash>, "email": <string>}}.
type credRecord struct {
	Password string `json:"password"`
	Email    string `json:"email"`
}

// CredentialStore owns the username -> {password hash, email} mapping backed
// by a single JSON document. A missing document is an empty store. The whole
// document is rewritten on every mutation.
//
// Hashes are versioned: entries written by older deployments are plain sha256
// hex digests and keep verifying; anything this store writes is bcrypt,
// recognized by the "$2" prefix.
type CredentialStore struct {
	mu   sync.Mutex
	path string
}

func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

func (s *CredentialStore) load() (map[string]credRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]credRecord{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	users := map[string]credRecord{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return users, nil
}

// save rewrites the full document through a temp file so a crash mid-write
// cannot leave a truncated store behind.
func (s *CredentialStore) save(users map[string]credRecord) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", s.path, err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Verify reports whether the password matches the stored hash for username.
// Unknown usernames and wrong passwords are both plain false so callers
// cannot enumerate accounts. The error is only ever a storage failure.
func (s *CredentialStore) Verify(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}
	rec, ok := users[username]
	if !ok {
		return false, nil
	}
	return verifyHash(rec.Password, password), nil
}

// Add creates a new user. It returns false when the username is taken.
// Email format is the caller's responsibility; the store does not re-check.
func (s *CredentialStore) Add(username, password, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}
	if _, exists := users[username]; exists {
		return false, nil
	}
	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	users[username] = credRecord{Password: hash, Email: email}
	if err := s.save(users); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword replaces the stored hash, but only when email matches the
// stored one exactly (case-sensitive).
func (s *CredentialStore) ResetPassword(username, email, newPassword string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}
	rec, ok := users[username]
	if !ok || rec.Email != email {
		return false, nil
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return false, err
	}
	rec.Password = hash
	users[username] = rec
	if err := s.save(users); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the public view of a user, or ErrNotFound.
func (s *CredentialStore) Get(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	rec, ok := users[username]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	return &models.User{Username: username, Email: rec.Email}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyHash(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	// Legacy entry: unsalted sha256 hex digest.
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(stored), []byte(digest)) == 1
}
