// Package localstore persists namespaced JSON snapshots to disk. It is the
// service-side equivalent of the browser's local storage: one file per key,
// a last-updated stamp on every entry, and corrupt entries treated as absent
// rather than fatal.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillora/instructor-os/internal/logger"
)

// Key namespaces. Wizard state and assistant session data live under
// separate keys so either can be evicted independently.
const (
	nsApplication      = "instructor_verification"
	nsAssistantSession = "assistant_session"
)

// ApplicationKey returns the snapshot key for a user's wizard state.
func ApplicationKey(userID string) string {
	return nsApplication + ":" + userID
}

// AssistantSessionKey returns the key for a user's AI-assistant session data.
func AssistantSessionKey(userID string) string {
	return nsAssistantSession + ":" + userID
}

// envelope wraps every stored value with its write time.
type envelope struct {
	LastUpdated time.Time       `json:"last_updated"`
	Data        json.RawMessage `json:"data"`
}

// Store reads and writes JSON snapshots under a root directory.
type Store struct {
	dir string
	log *logger.Logger
}

// New creates a store rooted at dir. The directory is created lazily on the
// first save.
func New(dir string) *Store {
	return &Store{dir: dir, log: logger.Get()}
}

func (s *Store) path(key string) string {
	// keys are namespaced with ':' which is awkward in filenames
	name := strings.ReplaceAll(key, ":", "__") + ".json"
	return filepath.Join(s.dir, name)
}

// Save serializes v under key, stamping last_updated.
func (s *Store) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	env, err := json.Marshal(envelope{LastUpdated: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", key, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	// write-then-rename so a crash mid-write never leaves a truncated snapshot
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, env, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}

	return nil
}

// Load reads the value for key into v. A missing or unparseable snapshot
// returns (false, nil): corruption falls back to defaults, it is never fatal.
func (s *Store) Load(key string, v any) (bool, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Warn().Str("key", key).Err(err).Msg("corrupt snapshot, falling back to defaults")
		return false, nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		s.log.Warn().Str("key", key).Err(err).Msg("corrupt snapshot payload, falling back to defaults")
		return false, nil
	}

	return true, nil
}

// LastUpdated returns the stamp of the stored entry, if any.
func (s *Store) LastUpdated(key string) (time.Time, bool) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		return time.Time{}, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, false
	}
	return env.LastUpdated, true
}

// Delete removes the entry for key. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SizeKB returns the on-disk size of a key's snapshot in kilobytes.
func (s *Store) SizeKB(key string) int {
	info, err := os.Stat(s.path(key))
	if err != nil {
		return 0
	}
	return int(info.Size() / 1024)
}
