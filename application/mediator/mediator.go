/*
Package mediator 把请求分发给唯一注册的处理器，并让请求依次穿过行为链。

行为链顺序固定由构造时传入的顺序决定，第一个行为在最外层:

	Validation → Performance → Transaction → Handler

每个行为拿到 next 续延，可以不调用（短路）或调用一次，不能调用两次。
Mediator 本身不含业务逻辑，每次 Send 都新建一条链，并发调用之间没有共享的可变状态。
*/
package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"catalog/domain/shared"
	"catalog/pkg/result"

	"go.uber.org/zap"
)

var (
	// ErrDuplicateHandler 同一请求类型注册了多个处理器
	ErrDuplicateHandler = fmt.Errorf("%w: more than one handler", shared.ErrNoHandlerRegistered)

	// ErrNextCalledTwice 行为多次调用了 next
	ErrNextCalledTwice = errors.New("mediator: next invoked more than once")
)

// Next 代表"链上剩余部分"
type Next func(ctx context.Context) (any, error)

// Behavior 横切逻辑单元: 观察请求，调用 next，观察响应
type Behavior interface {
	Handle(ctx context.Context, req Request, next Next) (any, error)
}

// BehaviorFunc 函数适配器
type BehaviorFunc func(ctx context.Context, req Request, next Next) (any, error)

func (f BehaviorFunc) Handle(ctx context.Context, req Request, next Next) (any, error) {
	return f(ctx, req, next)
}

// Sender 分发请求，返回无类型的 result.Result[T]
type Sender interface {
	Send(ctx context.Context, req Request) (any, error)
}

// Mediator 请求分发器
type Mediator struct {
	handlers  map[reflect.Type]Registration
	behaviors []Behavior
	log       *zap.Logger
}

// Option 配置 Mediator
type Option func(*Mediator)

// WithBehaviors 追加行为，先传入的在外层
func WithBehaviors(behaviors ...Behavior) Option {
	return func(m *Mediator) { m.behaviors = append(m.behaviors, behaviors...) }
}

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(m *Mediator) {
		if log != nil {
			m.log = log
		}
	}
}

// New 构建注册表。同一请求类型重复注册会立即失败。
func New(registrations []Registration, opts ...Option) (*Mediator, error) {
	m := &Mediator{
		handlers: make(map[reflect.Type]Registration, len(registrations)),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	var errs []error
	for _, reg := range registrations {
		if _, exists := m.handlers[reg.requestType]; exists {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateHandler, reg.requestType))
			continue
		}
		m.handlers[reg.requestType] = reg
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	m.log.Debug("Mediator ready",
		zap.Int("handlers", len(m.handlers)),
		zap.Int("behaviors", len(m.behaviors)))
	return m, nil
}

// Require 启动时校验每个请求类型都有处理器
func (m *Mediator) Require(requests ...Request) error {
	var errs []error
	for _, req := range requests {
		if _, ok := m.handlers[reflect.TypeOf(req)]; !ok {
			errs = append(errs, fmt.Errorf("%w for %s", shared.ErrNoHandlerRegistered, RequestName(req)))
		}
	}
	return errors.Join(errs...)
}

// Send 解析处理器并让请求穿过行为链
func (m *Mediator) Send(ctx context.Context, req Request) (any, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", shared.ErrNoHandlerRegistered)
	}
	reg, ok := m.handlers[reflect.TypeOf(req)]
	if !ok {
		return nil, fmt.Errorf("%w for %s", shared.ErrNoHandlerRegistered, RequestName(req))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.chain(req, reg)(ctx)
}

func (m *Mediator) chain(req Request, reg Registration) Next {
	next := Next(func(ctx context.Context) (any, error) {
		return reg.handle(ctx, req)
	})
	for i := len(m.behaviors) - 1; i >= 0; i-- {
		behavior := m.behaviors[i]
		inner := once(next)
		next = func(ctx context.Context) (any, error) {
			return behavior.Handle(ctx, req, inner)
		}
	}
	return next
}

func once(next Next) Next {
	var called atomic.Bool
	return func(ctx context.Context) (any, error) {
		if !called.CompareAndSwap(false, true) {
			return nil, ErrNextCalledTwice
		}
		return next(ctx)
	}
}

// Send 分发请求并取回强类型结果。
// 校验失败（*ValidationError）转换为 result.ValidationFailure，其余错误原样返回。
func Send[T any](ctx context.Context, s Sender, req Request) (result.Result[T], error) {
	out, err := s.Send(ctx, req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return result.ValidationFailure[T](verr.Errors), nil
		}
		return result.Result[T]{}, err
	}
	r, ok := out.(result.Result[T])
	if !ok {
		return result.Result[T]{}, fmt.Errorf("mediator: %s produced %T, want %T", RequestName(req), out, r)
	}
	return r, nil
}
