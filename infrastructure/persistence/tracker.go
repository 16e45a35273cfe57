package persistence

import (
	"encoding/json"
	"fmt"
	"sync"

	"catalog/domain/shared"
)

// Entry is one tracked change waiting to be flushed.
type Entry struct {
	Entity     shared.Entity
	EntityType string
	State      shared.EntryState

	// Action is the audit action; it keeps the original intent after a
	// delete has been rewritten into an update.
	Action shared.AuditAction

	// Original is the stored row before this save (JSON). Empty for inserts.
	Original json.RawMessage
	// ExpectedVersion is the version the stored row must still carry.
	ExpectedVersion int64

	Audit *shared.AuditLog
}

// ChangeTracker records entity transitions in the order they were made.
type ChangeTracker struct {
	mu      sync.Mutex
	entries []*Entry
	index   map[shared.Entity]*Entry
}

// NewChangeTracker creates an empty tracker
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{index: make(map[shared.Entity]*Entry)}
}

// Track registers a transition. Repeated transitions of the same instance collapse:
//
//	added    + modified → added
//	added    + deleted  → forgotten
//	modified + deleted  → deleted
//	deleted  + anything → deleted
func (t *ChangeTracker) Track(entity shared.Entity, state shared.EntryState) error {
	if entity == nil || entity.Base() == nil {
		return fmt.Errorf("%w: nil entity", shared.ErrInvalidInput)
	}
	name := shared.EntityName(entity)
	if state != shared.EntryAdded && entity.Base().ID == "" {
		return shared.NewValidationError(name, "ID", fmt.Sprintf("%s without id cannot be %s", name, state))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.index[entity]; ok {
		switch {
		case existing.State == shared.EntryAdded && state == shared.EntryDeleted:
			t.forget(entity)
		case existing.State == shared.EntryModified && state == shared.EntryDeleted:
			existing.State = shared.EntryDeleted
			existing.Action = shared.AuditActionDelete
		}
		return nil
	}

	e := &Entry{Entity: entity, EntityType: name, State: state, Action: actionFor(state)}
	t.entries = append(t.entries, e)
	t.index[entity] = e
	return nil
}

func (t *ChangeTracker) forget(entity shared.Entity) {
	delete(t.index, entity)
	for i, e := range t.entries {
		if e.Entity == entity {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Entries returns the pending entries in tracking order
func (t *ChangeTracker) Entries() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of pending entries
func (t *ChangeTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear drops every pending entry
func (t *ChangeTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.index = make(map[shared.Entity]*Entry)
}

func actionFor(state shared.EntryState) shared.AuditAction {
	switch state {
	case shared.EntryAdded:
		return shared.AuditActionCreate
	case shared.EntryDeleted:
		return shared.AuditActionDelete
	default:
		return shared.AuditActionUpdate
	}
}
