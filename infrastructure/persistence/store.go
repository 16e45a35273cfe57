package persistence

import (
	"context"

	"catalog/domain/shared"
)

// Reader is the read side every store offers, inside or outside a transaction.
type Reader interface {
	// Load reads one row into dest. Missing rows, and soft-deleted rows unless
	// includeDeleted is set, yield an error wrapping shared.ErrNotFound.
	Load(ctx context.Context, dest shared.Entity, id string, includeDeleted bool) error
	// LoadAll reads every live row of dest's element type into dest (*[]*T).
	// Stores may ignore filter; callers re-check rows in memory.
	LoadAll(ctx context.Context, dest any, filter shared.Filter) error
	History(ctx context.Context, entityType, id string) ([]shared.AuditLog, error)
	Query(ctx context.Context, dest any, sql string, args ...any) error
}

// Writer applies flushed changes. Only transactions write.
type Writer interface {
	Insert(ctx context.Context, entity shared.Entity) error
	// Update replaces the stored row only while its version still equals
	// expectedVersion; otherwise it fails with shared.ErrConcurrencyConflict.
	Update(ctx context.Context, entity shared.Entity, expectedVersion int64) error
	AppendAudit(ctx context.Context, logs []shared.AuditLog) error
}

// Tx is one open database transaction.
type Tx interface {
	Reader
	Writer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Database is a concrete backing store.
type Database interface {
	Reader
	Begin(ctx context.Context) (Tx, error)
}
