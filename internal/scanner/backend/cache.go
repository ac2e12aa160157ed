package backend

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// cachedSession is the persisted login written after a successful sign-in.
type cachedSession struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// sessionCache stores the login under a single JSON file so a restarted
// client can restore its session without re-authenticating.
type sessionCache struct {
	path string
}

func newSessionCache(path string) *sessionCache {
	return &sessionCache{path: path}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "docvault-session.json")
	}
	return filepath.Join(home, ".docvault", "session.json")
}

func (s *sessionCache) load() (cachedSession, bool, error) {
	if s == nil || s.path == "" {
		return cachedSession{}, false, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cachedSession{}, false, nil
		}
		return cachedSession{}, false, err
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil || cached.Token == "" {
		// Corrupt cache is the same as no cache.
		return cachedSession{}, false, nil
	}
	return cached, true, nil
}

func (s *sessionCache) save(cached cachedSession) error {
	if s == nil || s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *sessionCache) clear() error {
	if s == nil || s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
