package journal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS journal_config (
	journal_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	PRIMARY KEY (journal_id, key)
)`

// SQLiteStore keeps every journal config in one SQLite database.
// Marker rows with an empty key record that a journal exists even when it
// has no values yet.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise journal database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(journalID string) (*Config, error) {
	rows, err := s.db.Query(`SELECT key, value FROM journal_config WHERE journal_id = ?`, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal config: %w", err)
	}
	defer rows.Close()

	found := false
	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to read journal config row: %w", err)
		}
		found = true
		if key != "" {
			values[key] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal config: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", journalID, ErrNotFound)
	}

	return NewConfig(journalID, values), nil
}

// Create implements Store.
func (s *SQLiteStore) Create(journalID string, values map[string]string) (*Config, error) {
	cfg := NewConfig(journalID, values)
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save implements Store. The journal's rows are replaced in one transaction.
func (s *SQLiteStore) Save(cfg *Config) (err error) {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM journal_config WHERE journal_id = ?`, cfg.JournalID); err != nil {
		return fmt.Errorf("failed to clear journal config: %w", err)
	}

	insert := `INSERT INTO journal_config (journal_id, key, value) VALUES (?, ?, ?)`
	if _, err = tx.Exec(insert, cfg.JournalID, "", ""); err != nil {
		return fmt.Errorf("failed to write journal marker: %w", err)
	}
	for _, key := range cfg.Keys() {
		if _, err = tx.Exec(insert, cfg.JournalID, key, cfg.Values[key]); err != nil {
			return fmt.Errorf("failed to write journal config key %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal config: %w", err)
	}
	return nil
}
