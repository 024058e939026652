package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys of the two entries kept in durable storage
const (
	tokenKey = "token"
	userKey  = "user"
)

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Session)
}

func (s *subscribers) add(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fns == nil {
		s.fns = make(map[int]func(Session))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) notify(sess Session) {
	s.mu.Lock()
	fns := make([]func(Session), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// MemoryStore keeps the session for the lifetime of the process only
type MemoryStore struct {
	mu      sync.RWMutex
	current Session
	subs    subscribers
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *MemoryStore) Set(token string, user Profile) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidSession)
	}

	m.mu.Lock()
	m.current = Session{User: &user, Token: token}
	sess := m.current
	m.mu.Unlock()

	m.subs.notify(sess)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	m.subs.notify(Session{})
	return nil
}

func (m *MemoryStore) Subscribe(fn func(Session)) func() {
	return m.subs.add(fn)
}

// FileStore persists the session as two key/value entries in a JSON file so
// it survives restarts until an explicit logout.
type FileStore struct {
	path string
	// os.ReadFile outside of tests
	readFile func(string) ([]byte, error)

	mu      sync.RWMutex
	current Session
	subs    subscribers
}

// NewFileStore loads any previously persisted session from path. A missing
// file is an empty session.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path is required")
	}

	s := &FileStore{path: path, readFile: os.ReadFile}
	sess, err := s.load()
	if err != nil {
		return nil, err
	}
	s.current = sess
	return s, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *FileStore) Set(token string, user Profile) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidSession)
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	s.mu.Lock()
	err = s.persistLocked(map[string]string{
		tokenKey: token,
		userKey:  string(userJSON),
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = Session{User: &user, Token: token}
	sess := s.current
	s.mu.Unlock()

	s.subs.notify(sess)
	return nil
}

// Clear erases both entries. Clearing an empty session is a no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		s.mu.Unlock()
		return fmt.Errorf("remove session file: %w", err)
	}
	s.current = Session{}
	s.mu.Unlock()

	s.subs.notify(Session{})
	return nil
}

func (s *FileStore) Subscribe(fn func(Session)) func() {
	return s.subs.add(fn)
}

// Reload re-reads the file and notifies subscribers if another process
// changed it. Returns whether the session changed.
//
// The lock is held across the read so a Set or Clear racing with the watcher
// is never overwritten by what the file held before it.
func (s *FileStore) Reload() (bool, error) {
	s.mu.Lock()
	sess, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if sameSession(s.current, sess) {
		s.mu.Unlock()
		return false, nil
	}
	s.current = sess
	s.mu.Unlock()

	s.subs.notify(sess)
	return true, nil
}

func (s *FileStore) load() (Session, error) {
	b, err := s.readFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return Session{}, nil
	}

	var entries map[string]string
	if err := json.Unmarshal(b, &entries); err != nil {
		return Session{}, fmt.Errorf("%w: decode session file: %v", ErrInvalidSession, err)
	}

	sess := Session{Token: entries[tokenKey]}
	if raw := entries[userKey]; raw != "" {
		var user Profile
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return Session{}, fmt.Errorf("%w: decode stored profile: %v", ErrInvalidSession, err)
		}
		sess.User = &user
	}
	return sess, nil
}

func (s *FileStore) persistLocked(entries map[string]string) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}

	// Write then rename so a concurrent reader never sees half a file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func sameSession(a, b Session) bool {
	if a.Token != b.Token {
		return false
	}
	if (a.User == nil) != (b.User == nil) {
		return false
	}
	if a.User == nil {
		return true
	}
	aj, errA := json.Marshal(a.User)
	bj, errB := json.Marshal(b.User)
	return errA == nil && errB == nil && bytes.Equal(aj, bj)
}
