package shared

import "context"

// UnitOfWork 管理一个逻辑事务的边界。
//
// 生命周期: BeginTransaction → 仓储操作 → Commit | Rollback，之后不可再用。
// 顺序错误（未 Begin 就 Commit、重复 Begin 等）返回 ErrInvalidTransactionState。
// 一个 UnitOfWork 只属于创建它的那一次流水线调用，不能跨并发请求共享。
type UnitOfWork interface {
	BeginTransaction(ctx context.Context) error
	// Commit 先刷新跟踪中的变更，再提交事务
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	InTransaction() bool

	// SaveChanges 通过保存拦截器刷新跟踪中的变更。事务外调用时使用一次性隐式事务。
	SaveChanges(ctx context.Context) error

	// Entities 返回事务范围内的无类型实体集合，仓储建立在其上
	Entities() EntitySet

	// History 返回实体的审计轨迹（包含已软删除实体）
	History(ctx context.Context, entityType, id string) ([]AuditLog, error)

	// Query 执行参数化的只读 SQL，结果扫描进 dest
	Query(ctx context.Context, dest any, sql string, args ...any) error
}

// UnitOfWorkFactory 每次调用返回一个新的 UnitOfWork
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

// EntryState 跟踪条目的状态
type EntryState int

const (
	EntryAdded EntryState = iota + 1
	EntryModified
	EntryDeleted
)

func (s EntryState) String() string {
	switch s {
	case EntryAdded:
		return "added"
	case EntryModified:
		return "modified"
	case EntryDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Filter 参数化查询条件
type Filter struct {
	Where string
	Args  []any
}

// EntitySet 是工作单元对仓储暴露的无类型视图。
// 读取直达存储；写入只登记到变更跟踪器，在 SaveChanges/Commit 时统一刷新。
type EntitySet interface {
	// Load 按 id 读取到 dest；includeDeleted 为 false 时软删除行视为不存在
	Load(ctx context.Context, dest Entity, id string, includeDeleted bool) error
	// LoadAll 读取所有未删除的行到 dest（*[]*T），filter 可为空
	LoadAll(ctx context.Context, dest any, filter Filter) error
	// Track 登记一次变更
	Track(entity Entity, state EntryState) error
}

// ============================================================================
// Context
// ============================================================================

type unitOfWorkKey struct{}

// ContextWithUnitOfWork 把当前事务的工作单元放入上下文
func ContextWithUnitOfWork(ctx context.Context, uow UnitOfWork) context.Context {
	return context.WithValue(ctx, unitOfWorkKey{}, uow)
}

// UnitOfWorkFromContext 取出上下文中的工作单元，不存在时返回 nil
func UnitOfWorkFromContext(ctx context.Context) UnitOfWork {
	if uow, ok := ctx.Value(unitOfWorkKey{}).(UnitOfWork); ok {
		return uow
	}
	return nil
}

// UnitOfWorkOrNew 优先使用上下文中的事务工作单元，否则从工厂新建一个非事务的
func UnitOfWorkOrNew(ctx context.Context, factory UnitOfWorkFactory) UnitOfWork {
	if uow := UnitOfWorkFromContext(ctx); uow != nil {
		return uow
	}
	return factory.New()
}
