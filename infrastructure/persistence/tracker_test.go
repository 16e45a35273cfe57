package persistence

import (
	"testing"

	"catalog/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	shared.BaseEntity
	Name string `json:"name"`
}

func withID(id string) *part {
	p := &part{}
	p.ID = id
	return p
}

func TestChangeTracker_Collapse(t *testing.T) {
	tr := NewChangeTracker()

	added := &part{Name: "new"}
	require.NoError(t, tr.Track(added, shared.EntryAdded))
	require.NoError(t, tr.Track(added, shared.EntryModified))

	modified := withID("p1")
	require.NoError(t, tr.Track(modified, shared.EntryModified))
	require.NoError(t, tr.Track(modified, shared.EntryDeleted))

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, shared.EntryAdded, entries[0].State)
	assert.Equal(t, shared.AuditActionCreate, entries[0].Action)
	assert.Equal(t, shared.EntryDeleted, entries[1].State)
	assert.Equal(t, shared.AuditActionDelete, entries[1].Action)
	assert.Equal(t, "part", entries[1].EntityType)
}

func TestChangeTracker_AddedThenDeletedIsForgotten(t *testing.T) {
	tr := NewChangeTracker()
	p := &part{}
	require.NoError(t, tr.Track(p, shared.EntryAdded))
	require.NoError(t, tr.Track(p, shared.EntryDeleted))
	assert.Zero(t, tr.Len())
}

func TestChangeTracker_RequiresIDForExistingRows(t *testing.T) {
	tr := NewChangeTracker()
	err := tr.Track(&part{}, shared.EntryModified)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Zero(t, tr.Len())

	assert.ErrorIs(t, tr.Track(nil, shared.EntryAdded), shared.ErrInvalidInput)
}

func TestChangeTracker_ClearAndOrder(t *testing.T) {
	tr := NewChangeTracker()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, tr.Track(withID(id), shared.EntryModified))
	}
	entries := tr.Entries()
	ids := []string{entries[0].Entity.Base().ID, entries[1].Entity.Base().ID, entries[2].Entity.Base().ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	tr.Clear()
	assert.Empty(t, tr.Entries())
}
