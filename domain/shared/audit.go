package shared

import (
	"context"
	"encoding/json"
	"time"
)

// AuditAction 审计动作类型
type AuditAction string

const (
	AuditActionCreate AuditAction = "Create"
	AuditActionUpdate AuditAction = "Update"
	AuditActionDelete AuditAction = "Delete"
)

// AuditLog 一次实体变更的只追加记录，由保存拦截器生成，创建后不再修改或删除。
type AuditLog struct {
	ID            string            `json:"id"`
	EntityType    string            `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	Action        AuditAction       `json:"action"`
	Before        json.RawMessage   `json:"before,omitempty"`
	After         json.RawMessage   `json:"after,omitempty"`
	ChangedFields []string          `json:"changed_fields,omitempty"`
	UserID        string            `json:"user_id"`
	Timestamp     time.Time         `json:"timestamp"`
	Address       string            `json:"address,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ============================================================================
// Actor
// ============================================================================

// SystemActorID 上下文中没有操作者时使用的身份
const SystemActorID = "system"

// Actor 当前操作者身份与来源地址，由调用方（API 层）提供
type Actor struct {
	ID      string
	Address string
}

type actorKey struct{}

// WithActor 把操作者放入上下文
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext 读取操作者；缺省为 system
func ActorFromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok && actor.ID != "" {
		return actor
	}
	return Actor{ID: SystemActorID}
}

// ActorAccessor 提供当前操作者。核心流水线不自行解析身份。
type ActorAccessor interface {
	CurrentActor(ctx context.Context) Actor
}

// ActorAccessorFunc 函数适配器
type ActorAccessorFunc func(ctx context.Context) Actor

func (f ActorAccessorFunc) CurrentActor(ctx context.Context) Actor { return f(ctx) }

// ContextActorAccessor 从上下文读取操作者
var ContextActorAccessor ActorAccessor = ActorAccessorFunc(ActorFromContext)
