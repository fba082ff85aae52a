package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"matchpulse/internal/model"
)

const (
	responsePrefix = "resp:"
	prefPrefix     = "pref:"
	inboxKey       = "inbox"
)

// Scope says what a preference blob is attached to.
type Scope string

const (
	ScopeTeam  Scope = "team"
	ScopeMatch Scope = "match"
)

// PrefKey identifies a locally cached preference blob.
type PrefKey struct {
	Scope Scope
	ID    string
}

func TeamPrefKey(teamName string) PrefKey {
	return PrefKey{Scope: ScopeTeam, ID: string(model.NewTeamKey(teamName))}
}

func MatchPrefKey(matchID string) PrefKey {
	return PrefKey{Scope: ScopeMatch, ID: matchID}
}

func (k PrefKey) bytes() []byte {
	return []byte(prefPrefix + string(k.Scope) + ":" + k.ID)
}

// Envelope wraps every cached API response with the time it was stored.
type Envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// LocalStore is the client's key-value storage.
type LocalStore struct {
	db  *leveldb.DB
	now func() time.Time
}

// Open opens or creates the store at path.
func Open(path string) (*LocalStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}
	return &LocalStore{db: db, now: time.Now}, nil
}

// OpenStorage opens the store on an explicit leveldb storage, e.g.
// storage.NewMemStorage().
func OpenStorage(stor storage.Storage) (*LocalStore, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &LocalStore{db: db, now: time.Now}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

// PutResponse caches v under key in a timestamped envelope.
func (s *LocalStore) PutResponse(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(Envelope{Data: data, Timestamp: s.now()})
	if err != nil {
		return err
	}
	return s.db.Put([]byte(responsePrefix+key), raw, nil)
}

// Response decodes the cached response under key into out. It reports false
// when nothing is cached or the entry is older than maxAge. A maxAge of zero
// accepts any age.
func (s *LocalStore) Response(key string, maxAge time.Duration, out any) (bool, error) {
	raw, err := s.db.Get([]byte(responsePrefix+key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("decode envelope %s: %w", key, err)
	}
	if maxAge > 0 && s.now().Sub(env.Timestamp) >= maxAge {
		return false, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, fmt.Errorf("decode response %s: %w", key, err)
	}
	return true, nil
}

func (s *LocalStore) PutPreferences(key PrefKey, prefs model.NotificationPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.db.Put(key.bytes(), raw, nil)
}

// Preferences returns the cached preference copy for key, if any.
func (s *LocalStore) Preferences(key PrefKey) (model.NotificationPreferences, bool, error) {
	var prefs model.NotificationPreferences
	raw, err := s.db.Get(key.bytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return prefs, false, nil
	}
	if err != nil {
		return prefs, false, err
	}
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return prefs, false, fmt.Errorf("decode preferences %s: %w", key.bytes(), err)
	}
	return prefs, true, nil
}

func (s *LocalStore) DeletePreferences(key PrefKey) error {
	return s.db.Delete(key.bytes(), nil)
}

// SaveInbox replaces the persisted notification history.
func (s *LocalStore) SaveInbox(events []model.NotificationEvent) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(inboxKey), raw, nil)
}

// LoadInbox returns the persisted notification history, newest first.
func (s *LocalStore) LoadInbox() ([]model.NotificationEvent, error) {
	raw, err := s.db.Get([]byte(inboxKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var events []model.NotificationEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode inbox: %w", err)
	}
	return events, nil
}
