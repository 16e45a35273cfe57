package shared

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Repository 事务范围内某一实体类型的仓储句柄，不可跨并发调用共享
type Repository[T Entity] interface {
	Get(ctx context.Context, id string) (T, error)
	// GetIncludingDeleted 直接读取，包括已软删除的行（审计/历史用途）
	GetIncludingDeleted(ctx context.Context, id string) (T, error)
	Find(ctx context.Context, spec Specification[T]) ([]T, error)
	Add(ctx context.Context, entity T) error
	// Update 以实体当前 Version 作为期望版本登记修改
	Update(ctx context.Context, entity T) error
	// Remove 登记删除，保存时转换为软删除
	Remove(ctx context.Context, entity T) error
}

// RepositoryFor 返回 uow 中实体类型 T 的仓储。T 必须是结构体指针（如 *catalog.Product）。
func RepositoryFor[T Entity](uow UnitOfWork) Repository[T] {
	return &repository[T]{set: uow.Entities(), name: EntityName(*new(T))}
}

type repository[T Entity] struct {
	set  EntitySet
	name string
}

func (r *repository[T]) Get(ctx context.Context, id string) (T, error) {
	return r.load(ctx, id, false)
}

func (r *repository[T]) GetIncludingDeleted(ctx context.Context, id string) (T, error) {
	return r.load(ctx, id, true)
}

func (r *repository[T]) load(ctx context.Context, id string, includeDeleted bool) (T, error) {
	var zero T
	entity := newEntity[T]()
	if err := r.set.Load(ctx, entity, id, includeDeleted); err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, NewNotFoundError(r.name)
		}
		return zero, fmt.Errorf("load %s %s: %w", r.name, id, err)
	}
	return entity, nil
}

func (r *repository[T]) Find(ctx context.Context, spec Specification[T]) ([]T, error) {
	if spec == nil {
		spec = All[T]()
	}
	where, args := spec.Clause()

	var rows []T
	if err := r.set.LoadAll(ctx, &rows, Filter{Where: where, Args: args}); err != nil {
		return nil, fmt.Errorf("find %s: %w", r.name, err)
	}

	// The in-memory check is authoritative; stores may ignore the SQL clause.
	out := rows[:0]
	for _, row := range rows {
		if spec.IsSatisfiedBy(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *repository[T]) Add(_ context.Context, entity T) error {
	return r.set.Track(entity, EntryAdded)
}

func (r *repository[T]) Update(_ context.Context, entity T) error {
	return r.set.Track(entity, EntryModified)
}

func (r *repository[T]) Remove(_ context.Context, entity T) error {
	return r.set.Track(entity, EntryDeleted)
}

// newEntity allocates the struct T points to.
func newEntity[T Entity]() T {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("shared: repository entity type %s must be a pointer", t))
	}
	return reflect.New(t.Elem()).Interface().(T)
}
