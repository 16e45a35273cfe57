/*
Package shared - 领域层共享类型与错误定义

错误分类:
 1. 哨兵错误(sentinel errors)，用于 errors.Is() 判断
 2. DomainError 在创建时捕获堆栈，延迟格式化（按需打印）
 3. RollbackError 表示回滚本身失败，同时保留原始错误
 4. 领域错误不包含 HTTP 状态码等传输层概念
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// 哨兵错误 (Sentinel Errors)
// ============================================================================

var (
	// ErrNotFound 资源未找到
	ErrNotFound = errors.New("not found")

	// ErrConflict 资源冲突（唯一约束等）
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput 无效输入
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden 禁止访问
	ErrForbidden = errors.New("forbidden")

	// ErrConcurrencyConflict 版本号过期，变更未生效；调用方可重新读取后重试
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrInvalidTransactionState 事务方法调用顺序错误（如未 Begin 就 Commit）
	ErrInvalidTransactionState = errors.New("invalid transaction state")

	// ErrNoHandlerRegistered 请求类型没有注册处理器，属于配置错误
	ErrNoHandlerRegistered = errors.New("no handler registered")

	// ErrRollbackFailed 回滚失败
	ErrRollbackFailed = errors.New("rollback failed")

	// ErrUnsupported 存储后端不支持该操作
	ErrUnsupported = errors.New("operation not supported")
)

// ============================================================================
// 领域错误结构体 (Domain Error)
// ============================================================================

// DomainError 领域错误 - 携带业务上下文和堆栈的结构化错误
type DomainError struct {
	// Err 底层哨兵错误，用于 errors.Is() 判断
	Err error

	// Entity 发生错误的实体名称（如 "Product"）
	Entity string

	// Message 人类可读的错误描述
	Message string

	// Field 可选：发生错误的字段名
	Field string

	stack []uintptr
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Stack 按需格式化堆栈（只在打印日志时调用）
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// CaptureStack 捕获当前调用栈
// skip: 跳过的帧数（通常为 3：Callers, CaptureStack, NewXxxError）
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack 格式化堆栈帧，过滤 runtime 内部帧，最多返回 10 帧
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// ============================================================================
// 领域错误构造函数
// ============================================================================

// NewNotFoundError 创建"未找到"领域错误
func NewNotFoundError(entity string) error {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: entity + " not found",
		stack:   CaptureStack(3),
	}
}

// NewConflictError 创建"冲突"领域错误
func NewConflictError(entity, message string) error {
	return &DomainError{
		Err:     ErrConflict,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

// NewValidationError 创建"校验失败"领域错误
func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// NewConcurrencyConflictError 创建乐观锁冲突错误
func NewConcurrencyConflictError(entity, id string, expectedVersion int64) error {
	return &DomainError{
		Err:     ErrConcurrencyConflict,
		Entity:  entity,
		Message: fmt.Sprintf("%s %s was modified concurrently (expected version %d)", entity, id, expectedVersion),
		stack:   CaptureStack(3),
	}
}

// NewInvalidTransactionStateError 创建事务状态错误
func NewInvalidTransactionStateError(op, state string) error {
	return &DomainError{
		Err:     ErrInvalidTransactionState,
		Entity:  "UnitOfWork",
		Message: fmt.Sprintf("cannot %s: transaction is %s", op, state),
		stack:   CaptureStack(3),
	}
}

// ============================================================================
// RollbackError
// ============================================================================

// RollbackError 回滚本身失败。errors.Is 对 ErrRollbackFailed 与原始错误都成立。
type RollbackError struct {
	Cause    error
	Rollback error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (original error: %v)", e.Rollback, e.Cause)
}

func (e *RollbackError) Unwrap() []error {
	return []error{ErrRollbackFailed, e.Cause, e.Rollback}
}

// Stacker 可提供堆栈的错误接口，API 层用于统一提取堆栈
type Stacker interface {
	Stack() []string
}
