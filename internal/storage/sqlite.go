//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"genecards/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveCard(ctx context.Context, card model.CardRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeCard(card)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO cards (id, schema_version, codec_version, generation, value, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			generation = excluded.generation,
			value = excluded.value,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, card.ID, card.SchemaVersion, card.CodecVersion, card.Generation, card.Value, card.CreatedAt.UnixNano(), payload)
	return err
}

func (s *SQLiteStore) GetCard(ctx context.Context, id string) (model.CardRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.CardRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM cards WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CardRecord{}, false, nil
		}
		return model.CardRecord{}, false, err
	}

	card, err := DecodeCard(payload)
	if err != nil {
		return model.CardRecord{}, false, fmt.Errorf("decode card %s: %w", id, err)
	}
	return card, true, nil
}

func (s *SQLiteStore) ListCards(ctx context.Context) ([]model.CardRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM cards ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CardRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		card, err := DecodeCard(payload)
		if err != nil {
			return nil, fmt.Errorf("decode card %s: %w", id, err)
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteCard(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lineage WHERE card_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveLineage(ctx context.Context, record model.LineageRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeLineage(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO lineage (card_id, payload)
		VALUES (?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			payload = excluded.payload
	`, record.CardID, payload)
	return err
}

func (s *SQLiteStore) GetLineage(ctx context.Context, cardID string) (model.LineageRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.LineageRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM lineage WHERE card_id = ?`, cardID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LineageRecord{}, false, nil
		}
		return model.LineageRecord{}, false, err
	}

	record, err := DecodeLineage(payload)
	if err != nil {
		return model.LineageRecord{}, false, fmt.Errorf("decode lineage %s: %w", cardID, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			value REAL NOT NULL,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS cards_created_at ON cards (created_at, id);
		CREATE TABLE IF NOT EXISTS lineage (
			card_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
