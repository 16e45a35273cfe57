// Package memory is an in-process store for the unit of work. Rows are kept
// as JSON; a transaction buffers its writes and validates them against the
// committed versions when it commits.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"catalog/domain/shared"
	"catalog/infrastructure/persistence"
)

type row struct {
	data    []byte
	version int64
	deleted bool
	seq     uint64
}

// Stats counts transaction lifecycle calls
type Stats struct {
	Begins    int64
	Commits   int64
	Rollbacks int64
}

// DB is safe for concurrent use.
type DB struct {
	mu     sync.RWMutex
	tables map[string]map[string]*row
	audit  []shared.AuditLog
	seq    uint64

	begins    atomic.Int64
	commits   atomic.Int64
	rollbacks atomic.Int64
}

func New() *DB {
	return &DB{tables: make(map[string]map[string]*row)}
}

// Stats returns a snapshot of the lifecycle counters
func (db *DB) Stats() Stats {
	return Stats{
		Begins:    db.begins.Load(),
		Commits:   db.commits.Load(),
		Rollbacks: db.rollbacks.Load(),
	}
}

// AuditLogs returns every audit record in append order
func (db *DB) AuditLogs() []shared.AuditLog {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]shared.AuditLog, len(db.audit))
	copy(out, db.audit)
	return out
}

func (db *DB) Begin(ctx context.Context) (persistence.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.begins.Add(1)
	return &tx{db: db, writes: make(map[rowKey]*write)}, nil
}

func (db *DB) Load(ctx context.Context, dest shared.Entity, id string, includeDeleted bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.RLock()
	r := db.row(shared.EntityName(dest), id)
	db.mu.RUnlock()
	return decodeRow(r, dest, includeDeleted)
}

func (db *DB) LoadAll(ctx context.Context, dest any, _ shared.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.RLock()
	rows := db.live(shared.EntityName(dest))
	db.mu.RUnlock()
	return decodeRows(rows, dest)
}

func (db *DB) History(ctx context.Context, entityType, id string) ([]shared.AuditLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []shared.AuditLog
	for _, l := range db.audit {
		if l.EntityType == entityType && l.EntityID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

// Query is not available without a SQL engine
func (db *DB) Query(context.Context, any, string, ...any) error {
	return fmt.Errorf("memory store raw query: %w", shared.ErrUnsupported)
}

// row must be called with mu held.
func (db *DB) row(table, id string) *row {
	return db.tables[table][id]
}

// live must be called with mu held.
func (db *DB) live(table string) []*row {
	var rows []*row
	for _, r := range db.tables[table] {
		if !r.deleted {
			rows = append(rows, r)
		}
	}
	return rows
}

func decodeRow(r *row, dest shared.Entity, includeDeleted bool) error {
	if r == nil || (r.deleted && !includeDeleted) {
		return shared.ErrNotFound
	}
	if err := json.Unmarshal(r.data, dest); err != nil {
		return fmt.Errorf("decode %s row: %w", shared.EntityName(dest), err)
	}
	return nil
}

// decodeRows fills dest (a pointer to a slice) in insertion order.
func decodeRows(rows []*row, dest any) error {
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(r.data)
	}
	buf.WriteByte(']')
	if err := json.Unmarshal(buf.Bytes(), dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", shared.EntityName(dest), err)
	}
	return nil
}

var _ persistence.Database = (*DB)(nil)
