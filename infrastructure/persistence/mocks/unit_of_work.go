package mocks

import (
	"context"
	"sync"

	"catalog/domain/shared"
)

// MockUnitOfWork is a scriptable UnitOfWork for testing pipeline behaviors.
// It records every lifecycle call and returns the configured errors.
type MockUnitOfWork struct {
	mu sync.Mutex

	BeginErr    error
	CommitErr   error
	RollbackErr error
	// KeepOpenOnCommitErr leaves the transaction open after a failed commit,
	// like a store that rejected the flush but not the transaction.
	KeepOpenOnCommitErr bool

	begins    int
	commits   int
	rollbacks int
	open      bool
}

// NewMockUnitOfWork creates a new MockUnitOfWork instance
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{}
}

func (u *MockUnitOfWork) BeginTransaction(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.begins++
	if u.BeginErr != nil {
		return u.BeginErr
	}
	u.open = true
	return nil
}

func (u *MockUnitOfWork) Commit(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.commits++
	if u.CommitErr != nil {
		u.open = u.KeepOpenOnCommitErr
		return u.CommitErr
	}
	u.open = false
	return nil
}

func (u *MockUnitOfWork) Rollback(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rollbacks++
	u.open = false
	return u.RollbackErr
}

func (u *MockUnitOfWork) InTransaction() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.open
}

func (u *MockUnitOfWork) SaveChanges(context.Context) error { return nil }

func (u *MockUnitOfWork) Entities() shared.EntitySet { return nopEntitySet{} }

func (u *MockUnitOfWork) History(context.Context, string, string) ([]shared.AuditLog, error) {
	return nil, nil
}

func (u *MockUnitOfWork) Query(context.Context, any, string, ...any) error {
	return shared.ErrUnsupported
}

// Calls returns how often begin, commit and rollback were invoked
func (u *MockUnitOfWork) Calls() (begins, commits, rollbacks int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.begins, u.commits, u.rollbacks
}

type nopEntitySet struct{}

func (nopEntitySet) Load(context.Context, shared.Entity, string, bool) error { return shared.ErrNotFound }
func (nopEntitySet) LoadAll(context.Context, any, shared.Filter) error       { return nil }
func (nopEntitySet) Track(shared.Entity, shared.EntryState) error            { return nil }

// MockUnitOfWorkFactory always hands out the same unit of work
type MockUnitOfWorkFactory struct {
	UnitOfWork *MockUnitOfWork
	created    int
	mu         sync.Mutex
}

func NewMockUnitOfWorkFactory(uow *MockUnitOfWork) *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{UnitOfWork: uow}
}

func (f *MockUnitOfWorkFactory) New() shared.UnitOfWork {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return f.UnitOfWork
}

// Created returns how many units of work were handed out
func (f *MockUnitOfWorkFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

var (
	_ shared.UnitOfWork        = (*MockUnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*MockUnitOfWorkFactory)(nil)
)
