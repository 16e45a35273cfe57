package persistence

import (
	"context"
	"fmt"
	"sync"

	"catalog/domain/shared"

	"go.uber.org/zap"
)

type txState int

const (
	stateIdle txState = iota
	stateActive
	stateCommitted
	stateRolledBack
	stateFailed
)

func (s txState) String() string {
	switch s {
	case stateIdle:
		return "not started"
	case stateActive:
		return "active"
	case stateCommitted:
		return "committed"
	case stateRolledBack:
		return "rolled back"
	default:
		return "failed"
	}
}

// UnitOfWork implements shared.UnitOfWork over any Database.
// It is owned by one pipeline invocation and must not be shared.
type UnitOfWork struct {
	db       Database
	pipeline *SavePipeline
	tracker  *ChangeTracker
	log      *zap.Logger

	mu    sync.Mutex
	state txState
	tx    Tx
}

// NewUnitOfWork creates an idle unit of work
func NewUnitOfWork(db Database, pipeline *SavePipeline, log *zap.Logger) *UnitOfWork {
	if pipeline == nil {
		pipeline = NewSavePipeline()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UnitOfWork{db: db, pipeline: pipeline, tracker: NewChangeTracker(), log: log}
}

// BeginTransaction opens the transaction. Only valid once, on an idle unit of work.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateIdle {
		return shared.NewInvalidTransactionStateError("begin", u.state.String())
	}
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	u.tx = tx
	u.state = stateActive
	return nil
}

// Commit flushes pending changes and commits. When the flush fails the
// transaction stays open so the caller can roll back; when the store rejects
// the commit itself the unit of work is finished.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateActive {
		return shared.NewInvalidTransactionStateError("commit", u.state.String())
	}
	if err := u.flush(ctx, u.tx); err != nil {
		return err
	}
	if err := u.tx.Commit(ctx); err != nil {
		u.state = stateFailed
		u.tx = nil
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.state = stateCommitted
	u.tx = nil
	return nil
}

// Rollback discards the transaction and any pending changes.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateActive {
		return shared.NewInvalidTransactionStateError("roll back", u.state.String())
	}
	u.tracker.Clear()
	err := u.tx.Rollback(ctx)
	u.state = stateRolledBack
	u.tx = nil
	if err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether a transaction is open
func (u *UnitOfWork) InTransaction() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state == stateActive
}

// SaveChanges flushes pending changes. Outside a transaction the flush runs
// in an implicit one that is committed immediately.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch u.state {
	case stateActive:
		return u.flush(ctx, u.tx)
	case stateIdle:
		return u.saveImplicit(ctx)
	default:
		return shared.NewInvalidTransactionStateError("save changes", u.state.String())
	}
}

func (u *UnitOfWork) saveImplicit(ctx context.Context) error {
	if u.tracker.Len() == 0 {
		return nil
	}
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := u.flush(ctx, tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return &shared.RollbackError{Cause: err, Rollback: rbErr}
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) flush(ctx context.Context, tx Tx) error {
	entries := u.tracker.Entries()
	if len(entries) == 0 {
		return nil
	}
	if err := u.pipeline.Save(ctx, tx, entries); err != nil {
		return err
	}
	u.tracker.Clear()
	u.log.Debug("Changes saved", zap.Int("entries", len(entries)))
	return nil
}

// Entities exposes the unit of work to repositories
func (u *UnitOfWork) Entities() shared.EntitySet {
	return entitySet{u}
}

// History returns the audit trail of one entity
func (u *UnitOfWork) History(ctx context.Context, entityType, id string) ([]shared.AuditLog, error) {
	r, err := u.reader("read history")
	if err != nil {
		return nil, err
	}
	return r.History(ctx, entityType, id)
}

// Query runs parameterized read-only SQL
func (u *UnitOfWork) Query(ctx context.Context, dest any, sql string, args ...any) error {
	r, err := u.reader("query")
	if err != nil {
		return err
	}
	return r.Query(ctx, dest, sql, args...)
}

func (u *UnitOfWork) reader(op string) (Reader, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch u.state {
	case stateActive:
		return u.tx, nil
	case stateIdle:
		return u.db, nil
	default:
		return nil, shared.NewInvalidTransactionStateError(op, u.state.String())
	}
}

type entitySet struct{ u *UnitOfWork }

func (s entitySet) Load(ctx context.Context, dest shared.Entity, id string, includeDeleted bool) error {
	r, err := s.u.reader("load")
	if err != nil {
		return err
	}
	return r.Load(ctx, dest, id, includeDeleted)
}

func (s entitySet) LoadAll(ctx context.Context, dest any, filter shared.Filter) error {
	r, err := s.u.reader("load")
	if err != nil {
		return err
	}
	return r.LoadAll(ctx, dest, filter)
}

func (s entitySet) Track(entity shared.Entity, state shared.EntryState) error {
	return s.u.tracker.Track(entity, state)
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)
