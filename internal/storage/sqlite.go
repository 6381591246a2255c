package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"hrrnet/internal/model"

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

func (s *SQLiteStore) SaveVocabulary(ctx context.Context, vocab model.VocabularyRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeVocabulary(vocab)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO vocabularies (id, catalog, dimension, created_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			catalog = excluded.catalog,
			dimension = excluded.dimension,
			created_at = excluded.created_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, vocab.ID, vocab.Catalog, vocab.Dimension, vocab.CreatedAt.UnixNano(), vocab.SchemaVersion, vocab.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetVocabulary(ctx context.Context, id string) (model.VocabularyRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.VocabularyRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM vocabularies WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.VocabularyRecord{}, false, nil
		}
		return model.VocabularyRecord{}, false, err
	}

	vocab, err := DecodeVocabulary(payload)
	if err != nil {
		return model.VocabularyRecord{}, false, fmt.Errorf("decode vocabulary %s: %w", id, err)
	}
	return vocab, true, nil
}

func (s *SQLiteStore) ListVocabularies(ctx context.Context) ([]model.RecordSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return querySummaries(ctx, db, `
		SELECT id, catalog, 'vocabulary', dimension, created_at, length(payload)
		FROM vocabularies
		ORDER BY created_at, id
	`)
}

func (s *SQLiteStore) SaveNetwork(ctx context.Context, network model.NetworkRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeNetwork(network)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO networks (id, name, kind, dimension, created_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			dimension = excluded.dimension,
			created_at = excluded.created_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, network.ID, network.Name, network.Kind, network.Dimension, network.CreatedAt.UnixNano(),
		network.SchemaVersion, network.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetNetwork(ctx context.Context, id string) (model.NetworkRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.NetworkRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM networks WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NetworkRecord{}, false, nil
		}
		return model.NetworkRecord{}, false, err
	}

	network, err := DecodeNetwork(payload)
	if err != nil {
		return model.NetworkRecord{}, false, fmt.Errorf("decode network %s: %w", id, err)
	}
	return network, true, nil
}

func (s *SQLiteStore) ListNetworks(ctx context.Context) ([]model.RecordSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return querySummaries(ctx, db, `
		SELECT id, name, kind, dimension, created_at, length(payload)
		FROM networks
		ORDER BY created_at, id
	`)
}

func (s *SQLiteStore) DeleteNetwork(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM networks WHERE id = ?`, id)
	return err
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
		return nil, errNotInitialized
	}
	return s.db, nil
}

func querySummaries(ctx context.Context, db *sql.DB, query string) ([]model.RecordSummary, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RecordSummary
	for rows.Next() {
		var (
			summary model.RecordSummary
			created int64
		)
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Kind, &summary.Dimension, &created, &summary.Size); err != nil {
			return nil, err
		}
		summary.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, summary)
	}
	return out, rows.Err()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vocabularies (
			id TEXT PRIMARY KEY,
			catalog TEXT NOT NULL,
			dimension INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS networks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			dimension INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
