package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"catalog/domain/catalog"
	"catalog/domain/shared"

	"github.com/stretchr/testify/assert"
)

func TestFromDomainError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"not found", shared.NewNotFoundError("Product"), CodeNotFound, http.StatusNotFound},
		{"stale version", shared.NewConcurrencyConflictError("Product", "p1", 3), CodeConcurrencyConflict, http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("save: %w", shared.ErrConflict), CodeConflict, http.StatusConflict},
		{"duplicate sku", catalog.ErrDuplicateSKU, CodeDuplicateSKU, http.StatusConflict},
		{"stock", catalog.ErrInsufficientStock, CodeInsufficientStock, http.StatusUnprocessableEntity},
		{"invalid", catalog.NewInvalidProductError("Price", "price must be positive"), CodeValidation, http.StatusBadRequest},
		{"unsupported", shared.ErrUnsupported, CodeUnsupported, http.StatusNotImplemented},
		{"deadline", context.DeadlineExceeded, CodeTimeout, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, CodeCanceled, StatusClientClosedRequest},
		{"unknown", fmt.Errorf("disk on fire"), CodeInternal, http.StatusInternalServerError},
		{
			"rollback failure wins over its cause",
			&shared.RollbackError{Cause: shared.ErrConcurrencyConflict, Rollback: fmt.Errorf("conn reset")},
			CodeInternal, http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := FromDomainError(tc.err)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.status, appErr.HTTPStatusCode())
			assert.ErrorIs(t, appErr, tc.err)
		})
	}
}

func TestFromDomainErrorKeepsAppError(t *testing.T) {
	original := TooManyRequests("slow down")
	assert.Same(t, original, FromDomainError(fmt.Errorf("wrapped: %w", original)))
	assert.Nil(t, FromDomainError(nil))
	assert.True(t, Is(original, CodeTooManyRequest))
}

func TestInternalErrorHidesDetails(t *testing.T) {
	appErr := FromDomainError(fmt.Errorf("dial tcp 10.0.0.3:3306: connection refused"))
	assert.Equal(t, "internal server error", appErr.Message)
}
