package response

import (
	"net/http"

	"catalog/pkg/errors"
	"catalog/pkg/result"

	"github.com/gin-gonic/gin"
)

func HandleSuccess(c *gin.Context, data interface{}, message string) {
	requestID := getRequestID(c)
	c.JSON(http.StatusOK, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      http.StatusOK,
		RequestID: requestID,
	})
}

func HandleCreated(c *gin.Context, data interface{}, message string) {
	requestID := getRequestID(c)
	c.JSON(http.StatusCreated, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      http.StatusCreated,
		RequestID: requestID,
	})
}

// Outcome 描述一个 Result 如何写成 HTTP 响应
type Outcome struct {
	// Status 成功时的状态码，默认 200
	Status int
	// FailureStatus 业务失败时的状态码，默认 422
	FailureStatus int
	Message       string
}

// HandleResult 写出处理器结果:
//   - 成功: Outcome.Status
//   - 校验失败: 400，errors 字段给出逐字段消息
//   - 业务失败: Outcome.FailureStatus
//
// 成功与否只看 IsSuccess，Data 为零值的成功仍然是成功。
func HandleResult[T any](c *gin.Context, r result.Result[T], o Outcome) {
	requestID := getRequestID(c)
	switch {
	case r.IsSuccess():
		status := o.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, &Response{
			Success:   true,
			Data:      r.Data(),
			Message:   o.Message,
			Code:      status,
			RequestID: requestID,
		})
	case r.IsValidationFailure():
		c.JSON(http.StatusBadRequest, &Response{
			Success:   false,
			Error:     string(errors.CodeValidation),
			Message:   r.ErrorMessage(),
			Errors:    r.ValidationErrors(),
			Code:      http.StatusBadRequest,
			RequestID: requestID,
		})
	default:
		status := o.FailureStatus
		if status == 0 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, &Response{
			Success:   false,
			Error:     http.StatusText(status),
			Message:   r.ErrorMessage(),
			Code:      status,
			RequestID: requestID,
		})
	}
}
