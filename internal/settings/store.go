package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Well-known setting keys
const (
	KeyActivationKey = "activation_key"
	KeyTheme         = "theme"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("setting not found")

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// Store is the durable operator settings store: process-wide persisted
// key-value state with typed accessors and change notification. Ambient
// globals are avoided; the store is injected where needed.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	watchers map[string][]chan string
}

// Open creates or opens the settings database at the given path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create settings dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping settings db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate settings db: %w", err)
	}

	log.Info().Str("path", path).Msg("settings store opened")
	return &Store{
		db:       db,
		watchers: make(map[string][]chan string),
	}, nil
}

// Close ends every watcher and releases the underlying database
func (s *Store) Close() error {
	s.mu.Lock()
	for _, watchers := range s.watchers {
		for _, ch := range watchers {
			close(ch)
		}
	}
	s.watchers = make(map[string][]chan string)
	s.mu.Unlock()
	return s.db.Close()
}

// GetString reads one setting; ErrNotFound when the key is absent
func (s *Store) GetString(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read setting %q: %w", key, err)
	}
	return value, nil
}

// GetStringDefault reads one setting, falling back when absent
func (s *Store) GetStringDefault(key, fallback string) string {
	value, err := s.GetString(key)
	if err != nil {
		return fallback
	}
	return value
}

// SetString upserts one setting and notifies watchers
func (s *Store) SetString(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write setting %q: %w", key, err)
	}
	s.notify(key, value)
	return nil
}

// GetBool reads one boolean setting
func (s *Store) GetBool(key string) (bool, error) {
	value, err := s.GetString(key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("setting %q is not a bool: %w", key, err)
	}
	return b, nil
}

// SetBool writes one boolean setting
func (s *Store) SetBool(key string, value bool) error {
	return s.SetString(key, strconv.FormatBool(value))
}

// Delete removes one setting. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	s.notify(key, "")
	return nil
}

// Watch returns a channel carrying every new value written to the key,
// plus a cancel func that unsubscribes and closes the channel. Slow
// consumers miss intermediate values rather than blocking writers. The
// channel is also closed when the store closes; cancel stays safe to
// call after that.
func (s *Store) Watch(key string) (<-chan string, func()) {
	ch := make(chan string, 8)
	s.mu.Lock()
	s.watchers[key] = append(s.watchers[key], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		watchers := s.watchers[key]
		for i, c := range watchers {
			if c == ch {
				s.watchers[key] = append(watchers[:i], watchers[i+1:]...)
				s.mu.Unlock()
				close(ch)
				return
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify(key, value string) {
	s.mu.Lock()
	watchers := s.watchers[key]
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- value:
		default:
		}
	}
}
