// Package audit 保存拦截器：统一维护实体的审计字段，把删除改写为软删除，并为每次变更生成审计记录。
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"catalog/domain/shared"
	"catalog/infrastructure/persistence"

	"github.com/google/uuid"
)

// 这些字段每次变更都会变化，不计入 ChangedFields
var volatileFields = map[string]struct{}{
	"version":    {},
	"updated_at": {},
	"updated_by": {},
}

// Interceptor stamps audit metadata on every tracked entry.
type Interceptor struct {
	actors shared.ActorAccessor
	now    func() time.Time
	newID  func() string
}

type Option func(*Interceptor)

// WithActorAccessor 替换操作者来源，默认从上下文读取
func WithActorAccessor(a shared.ActorAccessor) Option {
	return func(i *Interceptor) { i.actors = a }
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) { i.now = now }
}

func NewInterceptor(opts ...Option) *Interceptor {
	i := &Interceptor{
		actors: shared.ContextActorAccessor,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SavingChanges 按条目状态处理:
//
//	added    → 分配 ID，写入创建时间/创建人，Version = 1
//	modified → 写入更新时间/更新人，Version + 1
//	deleted  → 改写为 modified：IsDeleted、删除时间/删除人，Version + 1
func (i *Interceptor) SavingChanges(ctx context.Context, entries []*persistence.Entry) error {
	actor := i.actors.CurrentActor(ctx)
	now := i.now().UTC()
	requestID := persistence.RequestIDFromContext(ctx)

	for _, e := range entries {
		base := e.Entity.Base()
		switch e.State {
		case shared.EntryAdded:
			if base.ID == "" {
				base.ID = i.newID()
			}
			base.CreatedAt = now
			base.CreatedBy = actor.ID
			base.UpdatedAt, base.UpdatedBy = nil, nil
			base.IsDeleted, base.DeletedAt, base.DeletedBy = false, nil, nil
			base.Version = 1

		case shared.EntryModified:
			if err := restoreCreation(base, e.Original); err != nil {
				return err
			}
			base.UpdatedAt = &now
			base.UpdatedBy = &actor.ID
			base.Version = e.ExpectedVersion + 1

		case shared.EntryDeleted:
			if err := restoreCreation(base, e.Original); err != nil {
				return err
			}
			base.IsDeleted = true
			base.DeletedAt = &now
			base.DeletedBy = &actor.ID
			base.Version = e.ExpectedVersion + 1
			e.State = shared.EntryModified

		default:
			return fmt.Errorf("%w: unknown entry state %d", shared.ErrInvalidInput, e.State)
		}

		log, err := i.buildLog(e, actor, now, requestID)
		if err != nil {
			return err
		}
		e.Audit = log
	}
	return nil
}

func (i *Interceptor) buildLog(e *persistence.Entry, actor shared.Actor, now time.Time, requestID string) (*shared.AuditLog, error) {
	after, err := json.Marshal(e.Entity)
	if err != nil {
		return nil, fmt.Errorf("marshal %s snapshot: %w", e.EntityType, err)
	}
	changed, err := ChangedFields(e.Original, after)
	if err != nil {
		return nil, err
	}

	log := &shared.AuditLog{
		ID:            i.newID(),
		EntityType:    e.EntityType,
		EntityID:      e.Entity.Base().ID,
		Action:        e.Action,
		After:         after,
		ChangedFields: changed,
		UserID:        actor.ID,
		Timestamp:     now,
		Address:       actor.Address,
	}
	if len(e.Original) > 0 {
		log.Before = e.Original
	}
	if requestID != "" {
		log.Metadata = map[string]string{"request_id": requestID}
	}
	return log, nil
}

// restoreCreation 创建字段只在插入时写入，更新时以库中原值为准
func restoreCreation(base *shared.BaseEntity, original json.RawMessage) error {
	if len(original) == 0 {
		return nil
	}
	var stored shared.BaseEntity
	if err := json.Unmarshal(original, &stored); err != nil {
		return fmt.Errorf("decode stored row: %w", err)
	}
	base.CreatedAt = stored.CreatedAt
	base.CreatedBy = stored.CreatedBy
	return nil
}

// ChangedFields returns the sorted top-level JSON keys whose values differ
// between before and after. An empty before means every key of after.
func ChangedFields(before, after json.RawMessage) ([]string, error) {
	var b, a map[string]json.RawMessage
	if len(before) > 0 {
		if err := json.Unmarshal(before, &b); err != nil {
			return nil, fmt.Errorf("decode before snapshot: %w", err)
		}
	}
	if err := json.Unmarshal(after, &a); err != nil {
		return nil, fmt.Errorf("decode after snapshot: %w", err)
	}

	var fields []string
	for k, v := range a {
		if _, skip := volatileFields[k]; skip {
			continue
		}
		if old, ok := b[k]; ok && bytes.Equal(old, v) {
			continue
		}
		fields = append(fields, k)
	}
	for k := range b {
		if _, skip := volatileFields[k]; skip {
			continue
		}
		if _, ok := a[k]; !ok {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields, nil
}

var _ persistence.Interceptor = (*Interceptor)(nil)
