/*
Package result 定义处理器的统一返回值。

Result 是三选一的判别类型:
  - Success(data)             成功，Data 可以是零值
  - Failure(message)          预期内的业务失败
  - ValidationFailure(errors) 字段级校验失败，Error 固定为 "Validation failed"

成功与否只由 IsSuccess 决定，不通过检查 Data 是否为空来推断。
*/
package result

import (
	"encoding/json"
	"fmt"
)

// ValidationFailedMessage is the fixed Error of every ValidationFailure result.
const ValidationFailedMessage = "Validation failed"

// UnknownErrorMessage stands in for a Failure built without a message.
const UnknownErrorMessage = "unknown error"

// Result is the outcome of one handled request.
type Result[T any] struct {
	data             T
	isSuccess        bool
	err              string
	validationErrors *FieldErrors
}

// Success builds a successful result. data may be the zero value of T.
func Success[T any](data T) Result[T] {
	return Result[T]{data: data, isSuccess: true}
}

// Failure builds an expected business failure carrying message.
// An empty message is replaced by UnknownErrorMessage so a failure always carries an error.
func Failure[T any](message string) Result[T] {
	if message == "" {
		message = UnknownErrorMessage
	}
	return Result[T]{err: message}
}

// Failuref is Failure with fmt formatting.
func Failuref[T any](format string, args ...any) Result[T] {
	return Failure[T](fmt.Sprintf(format, args...))
}

// ValidationFailure builds a field-scoped validation failure.
// It panics when fieldErrors is empty: a validation failure without a field is a programming error.
func ValidationFailure[T any](fieldErrors *FieldErrors) Result[T] {
	if fieldErrors.Len() == 0 {
		panic("result: ValidationFailure requires at least one field error")
	}
	return Result[T]{err: ValidationFailedMessage, validationErrors: fieldErrors.Clone()}
}

// IsSuccess reports whether the result is a Success.
func (r Result[T]) IsSuccess() bool { return r.isSuccess }

// IsFailure reports whether the result is a Failure or a ValidationFailure.
func (r Result[T]) IsFailure() bool { return !r.isSuccess }

// IsValidationFailure reports whether the result carries field errors.
func (r Result[T]) IsValidationFailure() bool { return r.validationErrors != nil }

// Data returns the success payload; the zero value of T for failures.
func (r Result[T]) Data() T { return r.data }

// ErrorMessage returns the failure message, or "" on success.
// Not named Error: a Result must never satisfy the error interface.
func (r Result[T]) ErrorMessage() string { return r.err }

// ValidationErrors returns a copy of the field errors, or nil unless this is a ValidationFailure.
func (r Result[T]) ValidationErrors() *FieldErrors {
	if r.validationErrors == nil {
		return nil
	}
	return r.validationErrors.Clone()
}

// Outcome names the variant, used as a metrics/log label.
func (r Result[T]) Outcome() string {
	switch {
	case r.isSuccess:
		return "success"
	case r.validationErrors != nil:
		return "validation_failure"
	default:
		return "failure"
	}
}

// Map transforms the payload of a successful result and keeps failures as they are.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.isSuccess {
		return Result[U]{err: r.err, validationErrors: r.validationErrors}
	}
	return Success(fn(r.data))
}

// MarshalJSON renders the result envelope used by the API layer.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	type envelope struct {
		IsSuccess        bool         `json:"is_success"`
		Data             any          `json:"data,omitempty"`
		Error            string       `json:"error,omitempty"`
		ValidationErrors *FieldErrors `json:"validation_errors,omitempty"`
	}
	env := envelope{IsSuccess: r.isSuccess, Error: r.err, ValidationErrors: r.validationErrors}
	if r.isSuccess {
		env.Data = r.data
	}
	return json.Marshal(env)
}

// Outcome is the untyped view of a Result, implemented by every Result[T].
// The pipeline uses it to label results without knowing T.
type Outcome interface {
	IsSuccess() bool
	ErrorMessage() string
	Outcome() string
}

var _ Outcome = Result[struct{}]{}
