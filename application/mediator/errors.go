package mediator

import (
	"fmt"

	"catalog/domain/shared"
	"catalog/pkg/result"
)

// ValidationError 校验行为短路时返回，携带聚合后的字段错误。
// Send[T] 把它转换为 result.ValidationFailure，不会继续向调用方传播。
type ValidationError struct {
	Request string
	Errors  *result.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Request, e.Errors)
}

func (e *ValidationError) Unwrap() error { return shared.ErrInvalidInput }
