package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"catalog/application/mediator"
	"catalog/pkg/result"

	"github.com/go-playground/validator/v10"
)

var (
	defaultValidate *validator.Validate
	validateOnce    sync.Once
)

func structValidate() *validator.Validate {
	validateOnce.Do(func() {
		defaultValidate = validator.New()
	})
	return defaultValidate
}

// Struct 基于 `validate` 标签的校验器
func Struct[Req mediator.Request]() Validator[Req] {
	return ValidatorFunc[Req](func(ctx context.Context, req Req) ([]result.FieldError, error) {
		err := structValidate().StructCtx(ctx, req)
		if err == nil {
			return nil, nil
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		out := make([]result.FieldError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, result.FieldError{Field: fe.Field(), Message: message(fe)})
		}
		return out, nil
	})
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " is invalid"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters long", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "uuid", "uuid4":
		return fe.Field() + " must be a valid UUID"
	case "alphanum":
		return fe.Field() + " must contain only letters and digits"
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}
