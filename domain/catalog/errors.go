package catalog

import (
	"errors"

	"catalog/domain/shared"
)

var (
	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateSKU SKU 已被其他商品使用
	ErrDuplicateSKU = errors.New("sku already in use")
)

// NewInvalidProductError 商品字段不满足业务规则
func NewInvalidProductError(field, reason string) error {
	return shared.NewValidationError("Product", field, reason)
}

// NewInvalidCategoryError 分类字段不满足业务规则
func NewInvalidCategoryError(field, reason string) error {
	return shared.NewValidationError("Category", field, reason)
}
