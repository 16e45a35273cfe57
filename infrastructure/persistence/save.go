package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"catalog/domain/shared"
)

// Interceptor observes and rewrites tracked entries before they are written.
type Interceptor interface {
	SavingChanges(ctx context.Context, entries []*Entry) error
}

// InterceptorFunc adapts a function to Interceptor
type InterceptorFunc func(ctx context.Context, entries []*Entry) error

func (f InterceptorFunc) SavingChanges(ctx context.Context, entries []*Entry) error {
	return f(ctx, entries)
}

// SavePipeline flushes tracked entries into a transaction:
//
//  1. snapshot the stored row of every modified/deleted entry
//  2. run interceptors in order
//  3. insert or version-checked update each entry
//  4. append the audit records interceptors attached
type SavePipeline struct {
	interceptors []Interceptor
}

// NewSavePipeline creates a pipeline running interceptors in the given order
func NewSavePipeline(interceptors ...Interceptor) *SavePipeline {
	return &SavePipeline{interceptors: interceptors}
}

// Save writes entries through tx. A failure leaves tx open for the caller to roll back.
func (p *SavePipeline) Save(ctx context.Context, tx Tx, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if e.State == shared.EntryAdded {
			continue
		}
		if err := snapshot(ctx, tx, e); err != nil {
			return err
		}
	}

	for _, ic := range p.interceptors {
		if err := ic.SavingChanges(ctx, entries); err != nil {
			return fmt.Errorf("saving changes: %w", err)
		}
	}

	var logs []shared.AuditLog
	for _, e := range entries {
		var err error
		switch e.State {
		case shared.EntryAdded:
			err = tx.Insert(ctx, e.Entity)
		default:
			err = tx.Update(ctx, e.Entity, e.ExpectedVersion)
		}
		if err != nil {
			return err
		}
		if e.Audit != nil {
			logs = append(logs, *e.Audit)
		}
	}

	if len(logs) == 0 {
		return nil
	}
	if err := tx.AppendAudit(ctx, logs); err != nil {
		return fmt.Errorf("append audit logs: %w", err)
	}
	return nil
}

func snapshot(ctx context.Context, tx Tx, e *Entry) error {
	base := e.Entity.Base()
	current := reflect.New(reflect.TypeOf(e.Entity).Elem()).Interface().(shared.Entity)
	if err := tx.Load(ctx, current, base.ID, true); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError(e.EntityType)
		}
		return fmt.Errorf("snapshot %s %s: %w", e.EntityType, base.ID, err)
	}
	if current.Base().IsDeleted {
		return shared.NewNotFoundError(e.EntityType)
	}

	original, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("snapshot %s %s: %w", e.EntityType, base.ID, err)
	}
	e.Original = original
	e.ExpectedVersion = base.Version
	return nil
}
