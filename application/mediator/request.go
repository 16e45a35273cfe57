package mediator

import (
	"context"
	"fmt"
	"reflect"

	"catalog/domain/shared"
	"catalog/pkg/result"
)

// Kind 请求种类
type Kind int

const (
	KindCommand Kind = iota + 1
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Request 一次操作的不可变描述。嵌入 Command 或 Query 声明种类。
type Request interface {
	Kind() Kind
}

// Command 嵌入到会修改状态的请求中
type Command struct{}

func (Command) Kind() Kind { return KindCommand }

// Query 嵌入到只读请求中
type Query struct{}

func (Query) Kind() Kind { return KindQuery }

// IsCommand 是否为修改状态的请求
func IsCommand(req Request) bool { return req.Kind() == KindCommand }

// RequestName 请求的类型名，如 "catalog.CreateProduct"
func RequestName(req Request) string {
	t := reflect.TypeOf(req)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// ============================================================================
// 处理器
// ============================================================================

// Handler 处理一种请求，产生 Result[T]。
// 预期内的业务失败用 result.Failure 返回；error 只用于意外或基础设施故障。
type Handler[Req Request, T any] interface {
	Handle(ctx context.Context, req Req) (result.Result[T], error)
}

// HandlerFunc 函数适配器
type HandlerFunc[Req Request, T any] func(ctx context.Context, req Req) (result.Result[T], error)

func (f HandlerFunc[Req, T]) Handle(ctx context.Context, req Req) (result.Result[T], error) {
	return f(ctx, req)
}

// Registration 注册表中的一项: 请求类型 → 处理器
type Registration struct {
	requestType reflect.Type
	handle      func(ctx context.Context, req Request) (any, error)
}

// Handle 把强类型处理器包装成注册项
func Handle[Req Request, T any](h Handler[Req, T]) Registration {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	if reqType.Kind() == reflect.Interface {
		panic(fmt.Sprintf("mediator: handler request type must be concrete, got %s", reqType))
	}
	return Registration{
		requestType: reqType,
		handle: func(ctx context.Context, req Request) (any, error) {
			typed, ok := req.(Req)
			if !ok {
				return nil, fmt.Errorf("%w: %T", shared.ErrNoHandlerRegistered, req)
			}
			r, err := h.Handle(ctx, typed)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// HandleFunc 是 Handle(HandlerFunc(fn)) 的简写
func HandleFunc[Req Request, T any](fn func(ctx context.Context, req Req) (result.Result[T], error)) Registration {
	return Handle[Req, T](HandlerFunc[Req, T](fn))
}

// RequestType 注册的请求类型
func (r Registration) RequestType() reflect.Type { return r.requestType }
