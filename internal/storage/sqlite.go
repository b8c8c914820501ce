package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

const (
	keyConversation  = "conversation"
	keyActivePersona = "active_persona"
)

// SQLiteStore persists the (conversation, active persona) pair in a local
// SQLite database. Citations are already stripped by the callers; load
// failures always degrade to the default persona with a fresh greeting.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the state database.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// SaveState writes the conversation and active persona id in one
// transaction, so a reload never observes a mixed pair.
func (s *SQLiteStore) SaveState(turns []conv.Turn, personaID string) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to serialize conversation: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.Exec(upsert, keyConversation, string(payload)); err != nil {
		return fmt.Errorf("failed to store conversation: %w", err)
	}
	if _, err := tx.Exec(upsert, keyActivePersona, personaID); err != nil {
		return fmt.Errorf("failed to store active persona: %w", err)
	}

	return tx.Commit()
}

// LoadState restores the persisted pair. Missing keys, malformed JSON and
// unknown persona ids all resolve to (default persona, no turns); the
// session manager turns "no turns" into a single fresh greeting.
func (s *SQLiteStore) LoadState(personas persona.Store) (persona.Persona, []conv.Turn) {
	storedID, err := s.get(keyActivePersona)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[storage] failed to read active persona, using default: %v", err)
		}
		return personas.Default(), nil
	}

	active, ok := personas.FindByID(storedID)
	if !ok {
		log.Printf("[storage] stored persona %q is unknown, using default", storedID)
		return personas.Default(), nil
	}

	raw, err := s.get(keyConversation)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[storage] failed to read conversation, starting fresh: %v", err)
		}
		return active, nil
	}

	var turns []conv.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		log.Printf("[storage] stored conversation is corrupt, starting fresh: %v", err)
		return active, nil
	}
	return active, turns
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	return value, err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
