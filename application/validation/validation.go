/*
Package validation 在请求到达处理器之前运行所有已注册的校验器。

  - 没有校验器: 直接放行，next 的结果原样返回
  - 有校验器: 并发执行，按注册顺序合并字段错误
  - 存在字段错误: 短路，不调用 next，返回 *mediator.ValidationError
*/
package validation

import (
	"context"
	"fmt"
	"reflect"

	"catalog/application/mediator"
	"catalog/pkg/result"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Validator 校验一种请求，返回 (字段, 消息) 列表。
// error 只表示校验器自身无法完成（如存储不可用），不表示校验不通过。
// 校验器之间可能并发执行，不能有相互依赖的副作用。
type Validator[Req mediator.Request] interface {
	Validate(ctx context.Context, req Req) ([]result.FieldError, error)
}

// ValidatorFunc 函数适配器
type ValidatorFunc[Req mediator.Request] func(ctx context.Context, req Req) ([]result.FieldError, error)

func (f ValidatorFunc[Req]) Validate(ctx context.Context, req Req) ([]result.FieldError, error) {
	return f(ctx, req)
}

// Registration 请求类型 → 一个校验器
type Registration struct {
	requestType reflect.Type
	validate    func(ctx context.Context, req mediator.Request) ([]result.FieldError, error)
}

// For 注册强类型校验器
func For[Req mediator.Request](v Validator[Req]) Registration {
	return Registration{
		requestType: reflect.TypeOf((*Req)(nil)).Elem(),
		validate: func(ctx context.Context, req mediator.Request) ([]result.FieldError, error) {
			typed, ok := req.(Req)
			if !ok {
				return nil, fmt.Errorf("validation: %T is not %T", req, typed)
			}
			return v.Validate(ctx, typed)
		},
	}
}

// ForFunc 是 For(ValidatorFunc(fn)) 的简写
func ForFunc[Req mediator.Request](fn func(ctx context.Context, req Req) ([]result.FieldError, error)) Registration {
	return For[Req](ValidatorFunc[Req](fn))
}

// Behavior 校验行为
type Behavior struct {
	validators map[reflect.Type][]Registration
	limit      int
	log        *zap.Logger
}

// Option 配置校验行为
type Option func(*Behavior)

// WithConcurrency 限制单个请求的并发校验器数量，<=0 表示不限
func WithConcurrency(n int) Option {
	return func(b *Behavior) { b.limit = n }
}

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(b *Behavior) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBehavior 按请求类型分组校验器，组内保持注册顺序
func NewBehavior(registrations []Registration, opts ...Option) *Behavior {
	b := &Behavior{
		validators: make(map[reflect.Type][]Registration),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, reg := range registrations {
		b.validators[reg.requestType] = append(b.validators[reg.requestType], reg)
	}
	return b
}

// Count 返回某请求类型注册的校验器数量
func (b *Behavior) Count(req mediator.Request) int {
	return len(b.validators[reflect.TypeOf(req)])
}

// Handle 实现 mediator.Behavior
func (b *Behavior) Handle(ctx context.Context, req mediator.Request, next mediator.Next) (any, error) {
	validators := b.validators[reflect.TypeOf(req)]
	if len(validators) == 0 {
		return next(ctx)
	}

	failures := make([][]result.FieldError, len(validators))
	g, gctx := errgroup.WithContext(ctx)
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i, v := range validators {
		g.Go(func() error {
			f, err := v.validate(gctx, req)
			failures[i] = f
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", mediator.RequestName(req), err)
	}

	merged := result.NewFieldErrors()
	for _, f := range failures {
		for _, fe := range f {
			merged.Add(fe.Field, fe.Message)
		}
	}
	if merged.Len() > 0 {
		b.log.Debug("Request failed validation",
			zap.String("request", mediator.RequestName(req)),
			zap.Stringer("errors", merged))
		return nil, &mediator.ValidationError{Request: mediator.RequestName(req), Errors: merged}
	}

	return next(ctx)
}

var _ mediator.Behavior = (*Behavior)(nil)
