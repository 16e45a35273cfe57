/*
Package catalog 商品目录应用层：命令、查询及其处理器与校验器。

命令经过事务行为，处理器从上下文取得事务内的工作单元；
查询不开启事务，使用 shared.UnitOfWorkOrNew 获得只读工作单元。
*/
package catalog

import "catalog/application/mediator"

// ============================================================================
// Commands
// ============================================================================

// CreateCategory 创建分类
type CreateCategory struct {
	mediator.Command
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// CreateProduct 创建商品
type CreateProduct struct {
	mediator.Command
	Name        string `json:"name" validate:"required,max=200"`
	SKU         string `json:"sku" validate:"required,max=64"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Stock       int    `json:"stock" validate:"gte=0"`
	CategoryID  string `json:"category_id" validate:"omitempty,uuid"`
}

// UpdateProduct 修改商品。Version 必须等于当前存储的版本。
type UpdateProduct struct {
	mediator.Command
	ID          string `json:"-" validate:"required"`
	Version     int64  `json:"version" validate:"gt=0"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	CategoryID  string `json:"category_id" validate:"omitempty,uuid"`
}

// AdjustStock 增减库存
type AdjustStock struct {
	mediator.Command
	ID      string `json:"-" validate:"required"`
	Version int64  `json:"version" validate:"gt=0"`
	Delta   int    `json:"delta"`
}

// DeleteProduct 软删除商品
type DeleteProduct struct {
	mediator.Command
	ID      string `json:"-" validate:"required"`
	Version int64  `json:"version" validate:"gt=0"`
}

// ============================================================================
// Queries
// ============================================================================

// GetProduct 按 ID 读取商品
type GetProduct struct {
	mediator.Query
	ID string `validate:"required"`
}

// ListProducts 按条件列出商品
type ListProducts struct {
	mediator.Query
	CategoryID string `form:"category_id"`
	MinPrice   int64  `form:"min_price" validate:"gte=0"`
	MaxPrice   int64  `form:"max_price" validate:"gte=0"`
	Name       string `form:"name" validate:"max=200"`
	InStock    bool   `form:"in_stock"`
}

// ListCategories 列出所有分类
type ListCategories struct {
	mediator.Query
}

// GetProductHistory 读取商品的审计轨迹（包括已删除商品）
type GetProductHistory struct {
	mediator.Query
	ID string `validate:"required"`
}

// Requests 返回本模块处理的全部请求类型，启动时用于校验注册表
func Requests() []mediator.Request {
	return []mediator.Request{
		CreateCategory{},
		CreateProduct{},
		UpdateProduct{},
		AdjustStock{},
		DeleteProduct{},
		GetProduct{},
		ListProducts{},
		ListCategories{},
		GetProductHistory{},
	}
}
