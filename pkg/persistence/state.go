package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// StateFileName is the file name used inside the auth directory.
const StateFileName = "state.json"

// BotState contains the runtime state of the bot.
type BotState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Account is the JID of the linked account, empty before pairing.
	Account string `json:"account,omitempty"`

	// StartedAt is when the current run started.
	StartedAt time.Time `json:"started_at,omitempty"`

	// LastOpenAt is when a connection last reached the open state.
	LastOpenAt time.Time `json:"last_open_at,omitempty"`

	// LastDisconnect describes the most recent closed connection.
	LastDisconnect *DisconnectRecord `json:"last_disconnect,omitempty"`

	// Attempts counts connection attempts in the current run.
	Attempts int `json:"attempts"`

	// Reconnects counts scheduled reconnections in the current run.
	Reconnects int `json:"reconnects"`

	// CommandsHandled counts replies sent in the current run.
	CommandsHandled int `json:"commands_handled"`

	// Terminated is set once a fatal disconnect stopped the bot.
	Terminated bool `json:"terminated,omitempty"`
}

// DisconnectRecord captures the classifier's verdict for a closed connection.
type DisconnectRecord struct {
	At     time.Time `json:"at"`
	Reason int       `json:"reason"`
	Class  string    `json:"class"`

	// Reconnect reports whether a new attempt was scheduled.
	Reconnect bool `json:"reconnect"`

	// WipeCredentials reports whether the operator was told to wipe credentials.
	WipeCredentials bool `json:"wipe_credentials,omitempty"`
}

// StateStore manages persistence of bot state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a new state store.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// NewStateStoreInDir creates a state store for StateFileName inside dir.
func NewStateStoreInDir(dir string) *StateStore {
	return NewStateStore(filepath.Join(dir, StateFileName))
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save persists the bot state to disk.
func (s *StateStore) Save(state *BotState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(state)
}

func (s *StateStore) save(state *BotState) error {
	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the bot state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*BotState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *StateStore) load() (*BotState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &BotState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Update loads the state (or starts from an empty one), applies fn and saves
// the result, all under the store lock.
func (s *StateStore) Update(fn func(state *BotState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	if state == nil {
		state = &BotState{}
	}
	fn(state)
	return s.save(state)
}
