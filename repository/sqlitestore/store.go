package sqlitestore

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS sequence_counters (
	jurisdiction_id INTEGER NOT NULL,
	record_type     TEXT    NOT NULL,
	last_issued     INTEGER NOT NULL DEFAULT 0 CHECK (last_issued >= 0),
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL,
	PRIMARY KEY (jurisdiction_id, record_type)
) WITHOUT ROWID;
`

// Config holds the parameters for opening the store.
type Config struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// PoolSize defaults to max(runtime.NumCPU(), 4).
	PoolSize int

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Store is a CounterStore backed by a pool of SQLite connections.
// Store is safe for concurrent use.
type Store struct {
	pool   *sqlitex.Pool
	logger *zap.Logger
	path   string
}

var _ repository.CounterStore = (*Store)(nil)

// Open creates the pool and the schema. The caller must Close the store.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitestore: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: opening %s: %w", cfg.Path, err)
	}

	logger.Info("sqlite counter store opened",
		zap.String("path", cfg.Path),
		zap.Int("pool_size", poolSize),
	)

	return &Store{pool: pool, logger: logger, path: cfg.Path}, nil
}

// Close closes all connections. Blocks until borrowed connections are returned.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		s.logger.Error("sqlite counter store close error", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("sqlitestore: closing %s: %w", s.path, err)
	}
	s.logger.Info("sqlite counter store closed", zap.String("path", s.path))
	return nil
}

func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitestore: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlitestore: schema: %w", err)
	}
	return nil
}

// IncrementAndGet issues the next number for the pair inside an immediate transaction.
// The counter is left untouched when it already equals max.
func (s *Store) IncrementAndGet(ctx context.Context, jurisdictionID uint, recordType string, max int64) (next int64, err error) {
	if max < 1 {
		return 0, fmt.Errorf("sqlitestore: invalid sequence bound %d", max)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: take: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	current, err := currentValue(conn, jurisdictionID, recordType)
	if err != nil {
		return 0, err
	}
	if current >= max {
		return 0, repository.ErrSequenceExhausted
	}

	next = current + 1
	if err = upsert(conn, jurisdictionID, recordType, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Current returns the last issued number for the pair, 0 if none.
func (s *Store) Current(ctx context.Context, jurisdictionID uint, recordType string) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: take: %w", err)
	}
	defer s.pool.Put(conn)

	return currentValue(conn, jurisdictionID, recordType)
}

// All returns every counter ordered by jurisdiction and record type.
func (s *Store) All(ctx context.Context) ([]*models.SequenceCounter, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: take: %w", err)
	}
	defer s.pool.Put(conn)

	var counters []*models.SequenceCounter
	err = sqlitex.Execute(conn,
		`SELECT jurisdiction_id, record_type, last_issued, created_at, updated_at
		 FROM sequence_counters ORDER BY jurisdiction_id, record_type`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				counters = append(counters, &models.SequenceCounter{
					JurisdictionID: uint(stmt.ColumnInt64(0)),
					RecordType:     stmt.ColumnText(1),
					LastIssued:     stmt.ColumnInt64(2),
					CreatedAt:      time.UnixMicro(stmt.ColumnInt64(3)).UTC(),
					UpdatedAt:      time.UnixMicro(stmt.ColumnInt64(4)).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list counters: %w", err)
	}
	return counters, nil
}

// RaiseTo moves the counter up to value. It reports false when the counter was already at
// or above value.
func (s *Store) RaiseTo(ctx context.Context, jurisdictionID uint, recordType string, value int64) (raised bool, err error) {
	if value < 0 {
		return false, fmt.Errorf("sqlitestore: invalid counter value %d", value)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("sqlitestore: take: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return false, fmt.Errorf("sqlitestore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	current, err := currentValue(conn, jurisdictionID, recordType)
	if err != nil {
		return false, err
	}
	if current >= value {
		return false, nil
	}
	if err = upsert(conn, jurisdictionID, recordType, value); err != nil {
		return false, err
	}
	return true, nil
}

func currentValue(conn *sqlite.Conn, jurisdictionID uint, recordType string) (int64, error) {
	var current int64
	err := sqlitex.Execute(conn,
		`SELECT last_issued FROM sequence_counters WHERE jurisdiction_id = ? AND record_type = ?`,
		&sqlitex.ExecOptions{
			Args: []any{int64(jurisdictionID), recordType},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				current = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: read counter: %w", err)
	}
	return current, nil
}

func upsert(conn *sqlite.Conn, jurisdictionID uint, recordType string, value int64) error {
	now := time.Now().UTC().UnixMicro()
	err := sqlitex.Execute(conn,
		`INSERT INTO sequence_counters (jurisdiction_id, record_type, last_issued, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (jurisdiction_id, record_type)
		 DO UPDATE SET last_issued = excluded.last_issued, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{int64(jurisdictionID), recordType, value, now, now},
		})
	if err != nil {
		return fmt.Errorf("sqlitestore: write counter: %w", err)
	}
	return nil
}
