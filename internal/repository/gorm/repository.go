package gormrepository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lottoledger/internal/ledger"
)

var errNoDB = errors.New("store is not initialised")

type Store struct {
	db        *gorm.DB
	txRetries int
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, txRetries: 5}
}

// WithTxRetries sets how often a transaction is retried after a serialization conflict.
func (s *Store) WithTxRetries(n int) *Store {
	if s != nil && n >= 0 {
		s.txRetries = n
	}
	return s
}

// InTx runs fn in a serializable transaction (postgres) or an immediate one
// (sqlite) and retries it on serialization conflicts. fn must be safe to re-run.
func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return ledger.StoreUnavailable(errNoDB)
	}
	var opts []*sql.TxOptions
	if s.isPostgres() {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	backoff := 10 * time.Millisecond
	var err error
	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn, opts...)
		if err == nil || attempt >= s.txRetries || !isSerializationFailure(err) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return classify(err)
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ledger.StoreUnavailable(errNoDB)
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return ledger.StoreUnavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return ledger.StoreUnavailable(err)
	}
	return nil
}

func (s *Store) isPostgres() bool {
	return s.db != nil && s.db.Dialector != nil && s.db.Dialector.Name() == "postgres"
}

// forUpdate adds a row lock where the dialect has one. SQLite serialises
// writers through BEGIN IMMEDIATE instead.
func (s *Store) forUpdate(tx *gorm.DB) *gorm.DB {
	if s.isPostgres() {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ledger.StoreUnavailable(errNoDB)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// classify maps connectivity failures to StoreUnavailable and leaves the rest untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if ledger.KindOf(err) != "" {
		return err
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &connErr),
		errors.As(err, &netErr):
		return ledger.StoreUnavailable(err)
	}
	if strings.Contains(err.Error(), "database is closed") {
		return ledger.StoreUnavailable(err)
	}
	return err
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > ledger.MaxBatchOps {
		return ledger.MaxBatchOps
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
