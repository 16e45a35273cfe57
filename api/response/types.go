package response

import "catalog/pkg/result"

// RequestIDKey 是 gin context 中保存请求 ID 的键。
const RequestIDKey = "request_id"

// Response 是统一响应结构。
type Response struct {
	Success   bool                `json:"success"`
	Data      interface{}         `json:"data,omitempty"`
	Error     string              `json:"error,omitempty"`
	Code      int                 `json:"code"`
	Message   string              `json:"message"`
	Errors    *result.FieldErrors `json:"errors,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}
