package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/migrations"
)

// sqliteStore is the SQLite-backed implementation of [Store]. All records
// live in a single `records` table keyed by (collection, key); values are
// opaque JSON blobs.
type sqliteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteStore opens (creating if necessary) the SQLite database at dsn,
// verifies the connection and applies pending schema migrations.
func NewSQLiteStore(ctx context.Context, dsn string, log *logger.Logger) (Store, error) {
	if !isMemoryDSN(dsn) {
		if err := createLocalDBFileIfNotExists(dsn); err != nil {
			log.Err(err).Str("func", "NewSQLiteStore").Msg("error creating database file")
			return nil, fmt.Errorf("error creating database file: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewSQLiteStore").Msg("error opening database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewSQLiteStore").Msg("error connecting database (ping)")
		return nil, err
	}

	if err = migrations.Migrate(conn); err != nil {
		log.Err(err).Str("func", "NewSQLiteStore").Msg("error applying migrations")
		return nil, err
	}

	log.Debug().Str("func", "NewSQLiteStore").Msg("connected to database successfully")

	return &sqliteStore{db: conn, logger: log}, nil
}

// NewSQLiteStoreFromDB wraps an already-open connection. Used by tests that
// supply a sqlmock-backed *sql.DB.
func NewSQLiteStoreFromDB(db *sql.DB, log *logger.Logger) Store {
	return &sqliteStore{db: db, logger: log}
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if dir := filepath.Dir(dbFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating DB directory: %w", err)
		}
	}

	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}

func (s *sqliteStore) Get(ctx context.Context, collection, key string) (Record, error) {
	log := logger.FromContext(ctx)

	if collection == "" || key == "" {
		return Record{}, ErrEmptyKey
	}

	query, args, err := sq.Select("collection", "key", "data", "updated_at").
		From("records").
		Where(sq.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "sqliteStore.Get").Msg("failed to build query")
		return Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var rec Record
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&rec.Collection, &rec.Key, &rec.Data, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		log.Err(err).
			Str("func", "sqliteStore.Get").
			Str("collection", collection).
			Str("key", key).
			Msg("failed to execute query")
		return Record{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return rec, nil
}

func (s *sqliteStore) Put(ctx context.Context, record Record) error {
	log := logger.FromContext(ctx)

	if record.Collection == "" || record.Key == "" {
		return ErrEmptyKey
	}

	record.UpdatedAt = time.Now().UTC()

	query, args, err := sq.Insert("records").
		Columns("collection", "key", "data", "updated_at").
		Values(record.Collection, record.Key, record.Data, record.UpdatedAt).
		Suffix("ON CONFLICT(collection, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "sqliteStore.Put").Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqliteStore.Put").
			Str("collection", record.Collection).
			Str("key", record.Key).
			Msg("failed to execute statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrRecordNotSaved
	}

	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, collection, key string) error {
	log := logger.FromContext(ctx)

	if collection == "" || key == "" {
		return ErrEmptyKey
	}

	query, args, err := sq.Delete("records").
		Where(sq.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "sqliteStore.Delete").Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sqliteStore.Delete").
			Str("collection", collection).
			Str("key", key).
			Msg("failed to execute statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *sqliteStore) GetAll(ctx context.Context, collection string) ([]Record, error) {
	log := logger.FromContext(ctx)

	if collection == "" {
		return nil, ErrEmptyKey
	}

	query, args, err := sq.Select("collection", "key", "data", "updated_at").
		From("records").
		Where(sq.Eq{"collection": collection}).
		OrderBy("key ASC").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "sqliteStore.GetAll").Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqliteStore.GetAll").
			Str("collection", collection).
			Msg("failed to execute query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]Record, 0, 16)
	for rows.Next() {
		var rec Record
		if err = rows.Scan(&rec.Collection, &rec.Key, &rec.Data, &rec.UpdatedAt); err != nil {
			log.Err(err).Str("func", "sqliteStore.GetAll").Msg("failed to scan row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}
