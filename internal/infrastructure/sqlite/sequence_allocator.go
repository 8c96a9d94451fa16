package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/sequence"
	_ "modernc.org/sqlite"
)

const (
	createCountersTable = `CREATE TABLE IF NOT EXISTS counters (
		name  TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`

	// Upsert + RETURNING makes the increment and the read one atomic statement.
	nextValue = `INSERT INTO counters(name, value) VALUES(?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`

	busyRetries    = 5
	busyRetryDelay = 10 * time.Millisecond
)

// SequenceAllocator backs the allocator contract with a sqlite counters table:
// one row per entity kind, values strictly increasing and never reused, even
// across process restarts.
type SequenceAllocator struct {
	db *sql.DB
}

func Open(path string) (*SequenceAllocator, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createCountersTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create counters table: %w", err)
	}
	return &SequenceAllocator{db: db}, nil
}

func (a *SequenceAllocator) Next(ctx context.Context, kind sequence.Kind) (int64, error) {
	var value int64
	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		err = a.db.QueryRowContext(ctx, nextValue, string(kind)).Scan(&value)
		if err == nil {
			return value, nil
		}
		if !isBusy(err) {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(busyRetryDelay):
		}
	}
	return 0, fmt.Errorf("sqlite: next %s: %w", kind, err)
}

func (a *SequenceAllocator) Close() error {
	return a.db.Close()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
