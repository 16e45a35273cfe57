package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"catalog/domain/shared"
	"catalog/infrastructure/persistence"
)

type rowKey struct {
	table string
	id    string
}

type write struct {
	row
	insert bool
	// baseVersion is the committed version this write was made against
	baseVersion int64
}

// tx reads its own writes; other transactions see them only after Commit.
type tx struct {
	db *DB

	mu     sync.Mutex
	writes map[rowKey]*write
	order  []rowKey
	audit  []shared.AuditLog
	done   bool
}

func (t *tx) Load(ctx context.Context, dest shared.Entity, id string, includeDeleted bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if w, ok := t.writes[rowKey{shared.EntityName(dest), id}]; ok {
		return decodeRow(&w.row, dest, includeDeleted)
	}
	t.db.mu.RLock()
	r := t.db.row(shared.EntityName(dest), id)
	t.db.mu.RUnlock()
	return decodeRow(r, dest, includeDeleted)
}

func (t *tx) LoadAll(ctx context.Context, dest any, _ shared.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	table := shared.EntityName(dest)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.db.mu.RLock()
	merged := make(map[string]*row, len(t.db.tables[table]))
	for id, r := range t.db.tables[table] {
		merged[id] = r
	}
	t.db.mu.RUnlock()
	for k, w := range t.writes {
		if k.table == table {
			merged[k.id] = &w.row
		}
	}

	rows := make([]*row, 0, len(merged))
	for _, r := range merged {
		if !r.deleted {
			rows = append(rows, r)
		}
	}
	return decodeRows(rows, dest)
}

func (t *tx) History(ctx context.Context, entityType, id string) ([]shared.AuditLog, error) {
	logs, err := t.db.History(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range t.audit {
		if l.EntityType == entityType && l.EntityID == id {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

func (t *tx) Query(ctx context.Context, dest any, sql string, args ...any) error {
	return t.db.Query(ctx, dest, sql, args...)
}

func (t *tx) Insert(ctx context.Context, entity shared.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base := entity.Base()
	key := rowKey{shared.EntityName(entity), base.ID}
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.table, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable("insert"); err != nil {
		return err
	}
	if _, ok := t.writes[key]; ok {
		return shared.NewConflictError(key.table, fmt.Sprintf("%s %s already exists", key.table, key.id))
	}
	t.db.mu.RLock()
	existing := t.db.row(key.table, key.id)
	t.db.mu.RUnlock()
	if existing != nil {
		return shared.NewConflictError(key.table, fmt.Sprintf("%s %s already exists", key.table, key.id))
	}

	t.put(key, &write{
		row:    row{data: data, version: base.Version, deleted: base.IsDeleted},
		insert: true,
	})
	return nil
}

func (t *tx) Update(ctx context.Context, entity shared.Entity, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base := entity.Base()
	key := rowKey{shared.EntityName(entity), base.ID}
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.table, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable("update"); err != nil {
		return err
	}

	next := &write{row: row{data: data, version: base.Version, deleted: base.IsDeleted}}
	if w, ok := t.writes[key]; ok {
		if w.version != expectedVersion {
			return shared.NewConcurrencyConflictError(key.table, key.id, expectedVersion)
		}
		next.insert, next.baseVersion, next.seq = w.insert, w.baseVersion, w.seq
	} else {
		t.db.mu.RLock()
		current := t.db.row(key.table, key.id)
		t.db.mu.RUnlock()
		if current == nil {
			return shared.NewNotFoundError(key.table)
		}
		if current.version != expectedVersion {
			return shared.NewConcurrencyConflictError(key.table, key.id, expectedVersion)
		}
		next.baseVersion, next.seq = current.version, current.seq
	}
	t.put(key, next)
	return nil
}

func (t *tx) AppendAudit(ctx context.Context, logs []shared.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable("append audit"); err != nil {
		return err
	}
	t.audit = append(t.audit, logs...)
	return nil
}

// Commit re-validates every write against the committed rows and applies
// all of them or none.
func (t *tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable("commit"); err != nil {
		return err
	}
	t.done = true

	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, k := range t.order {
		w := t.writes[k]
		current := db.row(k.table, k.id)
		switch {
		case w.insert && current != nil:
			db.rollbacks.Add(1)
			return shared.NewConflictError(k.table, fmt.Sprintf("%s %s already exists", k.table, k.id))
		case !w.insert && (current == nil || current.version != w.baseVersion):
			db.rollbacks.Add(1)
			return shared.NewConcurrencyConflictError(k.table, k.id, w.baseVersion)
		}
	}

	for _, k := range t.order {
		w := t.writes[k]
		r := w.row
		if w.insert {
			db.seq++
			r.seq = db.seq
		}
		if db.tables[k.table] == nil {
			db.tables[k.table] = make(map[string]*row)
		}
		db.tables[k.table][k.id] = &r
	}
	db.audit = append(db.audit, t.audit...)
	db.commits.Add(1)
	return nil
}

func (t *tx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable("roll back"); err != nil {
		return err
	}
	t.done = true
	t.writes, t.order, t.audit = nil, nil, nil
	t.db.rollbacks.Add(1)
	return nil
}

// put must be called with mu held.
func (t *tx) put(key rowKey, w *write) {
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = w
}

func (t *tx) usable(op string) error {
	if t.done {
		return shared.NewInvalidTransactionStateError(op, "finished")
	}
	return nil
}

var _ persistence.Tx = (*tx)(nil)
