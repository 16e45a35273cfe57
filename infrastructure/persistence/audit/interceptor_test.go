package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"catalog/domain/shared"
	"catalog/infrastructure/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lamp struct {
	shared.BaseEntity
	Name  string `json:"name"`
	Watts int    `json:"watts"`
}

func fixedInterceptor(now time.Time) *Interceptor {
	i := NewInterceptor(
		WithClock(func() time.Time { return now }),
		WithActorAccessor(shared.ActorAccessorFunc(func(context.Context) shared.Actor {
			return shared.Actor{ID: "carol", Address: "192.0.2.7"}
		})),
	)
	i.newID = func() string { return "generated" }
	return i
}

func TestSavingChanges_Added(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))
	ic := fixedInterceptor(now)

	l := &lamp{Name: "desk", Watts: 40}
	entry := &persistence.Entry{Entity: l, EntityType: "lamp", State: shared.EntryAdded, Action: shared.AuditActionCreate}

	ctx := persistence.ContextWithRequestID(context.Background(), "req-1")
	require.NoError(t, ic.SavingChanges(ctx, []*persistence.Entry{entry}))

	assert.Equal(t, "generated", l.ID)
	assert.Equal(t, now.UTC(), l.CreatedAt)
	assert.Equal(t, "carol", l.CreatedBy)
	assert.Equal(t, int64(1), l.Version)
	assert.Nil(t, l.UpdatedAt)

	require.NotNil(t, entry.Audit)
	assert.Equal(t, shared.AuditActionCreate, entry.Audit.Action)
	assert.Equal(t, "carol", entry.Audit.UserID)
	assert.Equal(t, "192.0.2.7", entry.Audit.Address)
	assert.Equal(t, map[string]string{"request_id": "req-1"}, entry.Audit.Metadata)
	assert.Empty(t, entry.Audit.Before)
	assert.Contains(t, entry.Audit.ChangedFields, "watts")
	assert.NotContains(t, entry.Audit.ChangedFields, "version")
}

func TestSavingChanges_ModifiedKeepsCreationMetadata(t *testing.T) {
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := &lamp{Name: "desk", Watts: 40}
	stored.ID, stored.CreatedAt, stored.CreatedBy, stored.Version = "l1", created, "dave", 3
	original, err := json.Marshal(stored)
	require.NoError(t, err)

	edited := &lamp{Name: "desk", Watts: 60}
	edited.ID, edited.Version = "l1", 3

	entry := &persistence.Entry{
		Entity: edited, EntityType: "lamp", State: shared.EntryModified, Action: shared.AuditActionUpdate,
		Original: original, ExpectedVersion: 3,
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, fixedInterceptor(now).SavingChanges(context.Background(), []*persistence.Entry{entry}))

	assert.Equal(t, created, edited.CreatedAt)
	assert.Equal(t, "dave", edited.CreatedBy)
	require.NotNil(t, edited.UpdatedAt)
	assert.Equal(t, now, *edited.UpdatedAt)
	assert.Equal(t, "carol", *edited.UpdatedBy)
	assert.Equal(t, int64(4), edited.Version)

	assert.Equal(t, []string{"watts"}, entry.Audit.ChangedFields)
	assert.JSONEq(t, string(original), string(entry.Audit.Before))
	assert.Nil(t, entry.Audit.Metadata)
}

func TestSavingChanges_DeleteBecomesSoftDelete(t *testing.T) {
	stored := &lamp{Name: "desk"}
	stored.ID, stored.CreatedBy, stored.Version = "l1", "dave", 1
	original, err := json.Marshal(stored)
	require.NoError(t, err)

	target := &lamp{Name: "desk"}
	target.ID, target.Version = "l1", 1
	entry := &persistence.Entry{
		Entity: target, EntityType: "lamp", State: shared.EntryDeleted, Action: shared.AuditActionDelete,
		Original: original, ExpectedVersion: 1,
	}
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, fixedInterceptor(now).SavingChanges(context.Background(), []*persistence.Entry{entry}))

	assert.Equal(t, shared.EntryModified, entry.State)
	assert.True(t, target.IsDeleted)
	assert.Equal(t, now, *target.DeletedAt)
	assert.Equal(t, "carol", *target.DeletedBy)
	assert.Equal(t, int64(2), target.Version)
	assert.Equal(t, shared.AuditActionDelete, entry.Audit.Action)
	assert.Equal(t, []string{"deleted_at", "deleted_by", "is_deleted"}, entry.Audit.ChangedFields)
}

func TestSavingChanges_DefaultActorIsSystem(t *testing.T) {
	l := &lamp{Name: "floor"}
	entry := &persistence.Entry{Entity: l, EntityType: "lamp", State: shared.EntryAdded, Action: shared.AuditActionCreate}
	require.NoError(t, NewInterceptor().SavingChanges(context.Background(), []*persistence.Entry{entry}))

	assert.Equal(t, shared.SystemActorID, l.CreatedBy)
	assert.NotEmpty(t, l.ID)
	assert.NotEqual(t, l.ID, entry.Audit.ID)
}

func TestChangedFields(t *testing.T) {
	before := json.RawMessage(`{"a":1,"b":"x","version":1,"gone":true}`)
	after := json.RawMessage(`{"a":1,"b":"y","version":2,"c":null}`)

	fields, err := ChangedFields(before, after)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "gone"}, fields)

	_, err = ChangedFields(nil, json.RawMessage(`not json`))
	assert.Error(t, err)
}
