/*
Package errors 应用错误码与领域错误的映射。

领域层只产生哨兵错误与 DomainError，不感知传输层；
这里把它们统一转换为带错误码的 AppError，由 API 层决定 HTTP 状态码。
*/
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"catalog/domain/catalog"
	"catalog/domain/shared"
)

// ErrorCode 错误码
type ErrorCode string

const (
	// 通用错误码
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeUnsupported    ErrorCode = "NOT_IMPLEMENTED"
	CodeTimeout        ErrorCode = "TIMEOUT"
	CodeCanceled       ErrorCode = "CANCELED"

	// 业务错误码
	CodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	CodeDuplicateSKU        ErrorCode = "DUPLICATE_SKU"
	CodeInsufficientStock   ErrorCode = "INSUFFICIENT_STOCK"
)

// StatusClientClosedRequest 客户端在响应前断开
const StatusClientClosedRequest = 499

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode 返回对应的HTTP状态码
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeConcurrencyConflict, CodeDuplicateSKU:
		return http.StatusConflict
	case CodeInsufficientStock:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeUnsupported:
		return http.StatusNotImplemented
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 常用错误构造函数

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// Is 检查是否为特定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// FromDomainError 将领域/基础设施错误映射为应用错误。
// 映射只依赖 errors.Is 判断哨兵错误，不解析错误文本。
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	// 回滚失败优先：即使原始原因是冲突，数据状态也已不确定
	case errors.Is(err, shared.ErrRollbackFailed):
		return Wrap(err, CodeInternal, "internal server error")
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return Wrap(err, CodeConcurrencyConflict, "the resource was modified by another request, reload and retry")
	case errors.Is(err, catalog.ErrDuplicateSKU):
		return Wrap(err, CodeDuplicateSKU, err.Error())
	case errors.Is(err, catalog.ErrInsufficientStock):
		return Wrap(err, CodeInsufficientStock, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		return Wrap(err, CodeNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		return Wrap(err, CodeConflict, err.Error())
	case errors.Is(err, shared.ErrInvalidInput):
		return Wrap(err, CodeValidation, err.Error())
	case errors.Is(err, shared.ErrForbidden):
		return Wrap(err, CodeForbidden, err.Error())
	case errors.Is(err, shared.ErrUnsupported):
		return Wrap(err, CodeUnsupported, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, CodeTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		return Wrap(err, CodeCanceled, "request canceled")
	default:
		return Wrap(err, CodeInternal, "internal server error")
	}
}
