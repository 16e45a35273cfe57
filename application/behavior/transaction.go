package behavior

import (
	"context"
	"fmt"

	"catalog/application/mediator"
	"catalog/domain/shared"
	"catalog/pkg/metrics"

	"go.uber.org/zap"
)

// Transaction 为命令包裹一个工作单元事务；查询直接放行。
//
// 每个出口都会结束事务:
//   - next 正常返回（包括 Result.Failure）: 提交
//   - next 返回 error、上下文已取消、提交失败: 回滚，返回原始错误
//   - next panic: 回滚后继续 panic
//
// 回滚本身失败时返回 *shared.RollbackError，同时保留原始错误。
type Transaction struct {
	factory shared.UnitOfWorkFactory
	log     *zap.Logger
	metrics *metrics.Collector
}

// NewTransaction 创建事务行为
func NewTransaction(factory shared.UnitOfWorkFactory, log *zap.Logger, collector *metrics.Collector) *Transaction {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transaction{factory: factory, log: log, metrics: collector}
}

// Handle 实现 mediator.Behavior
func (t *Transaction) Handle(ctx context.Context, req mediator.Request, next mediator.Next) (resp any, err error) {
	if !mediator.IsCommand(req) {
		return next(ctx)
	}

	name := mediator.RequestName(req)
	uow := t.factory.New()
	if err := uow.BeginTransaction(ctx); err != nil {
		return nil, fmt.Errorf("begin transaction for %s: %w", name, err)
	}

	defer func() {
		if p := recover(); p != nil {
			// rollback logs its own failure
			_ = t.rollback(ctx, uow, name, fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	resp, err = next(shared.ContextWithUnitOfWork(ctx, uow))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, t.rollback(ctx, uow, name, err)
	}

	if err := uow.Commit(ctx); err != nil {
		if !uow.InTransaction() {
			// The store ended the transaction itself.
			t.metrics.ObserveTransaction(name, "commit_failed")
			t.log.Error("Commit failed", zap.String("request", name), zap.Error(err))
			return nil, err
		}
		return nil, t.rollback(ctx, uow, name, err)
	}

	t.metrics.ObserveTransaction(name, "commit")
	return resp, nil
}

// rollback 回滚并返回应交给调用方的错误。回滚不受调用方取消的影响。
func (t *Transaction) rollback(ctx context.Context, uow shared.UnitOfWork, name string, cause error) error {
	if rbErr := uow.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
		t.metrics.ObserveTransaction(name, "rollback_failed")
		t.log.Error("Rollback failed",
			zap.String("request", name),
			zap.NamedError("cause", cause),
			zap.Error(rbErr))
		return &shared.RollbackError{Cause: cause, Rollback: rbErr}
	}

	t.metrics.ObserveTransaction(name, "rollback")
	t.log.Warn("Transaction rolled back", zap.String("request", name), zap.Error(cause))
	return cause
}

var _ mediator.Behavior = (*Transaction)(nil)
