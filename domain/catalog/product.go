/*
Package catalog 商品目录子域。

Product 与 Category 嵌入 shared.BaseEntity，审计、软删除与版本字段由保存拦截器维护；
本包只负责业务规则（价格、库存、分类归属）。字段导出以便存储层映射。
*/
package catalog

import (
	"strings"

	"catalog/domain/shared"
)

// Category 商品分类
type Category struct {
	shared.BaseEntity
	Name        string `gorm:"size:100;not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// NewCategory 创建分类
func NewCategory(name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidCategoryError("Name", "name must not be empty")
	}
	return &Category{Name: name, Description: strings.TrimSpace(description)}, nil
}

// Product 商品。价格以最小货币单位存储。
type Product struct {
	shared.BaseEntity
	Name        string       `gorm:"size:200;not null" json:"name"`
	SKU         string       `gorm:"column:sku;size:64;not null;index" json:"sku"`
	Description string       `gorm:"type:text" json:"description"`
	Price       shared.Money `gorm:"embedded;embeddedPrefix:price_" json:"price"`
	Stock       int          `gorm:"not null;default:0" json:"stock"`
	CategoryID  string       `gorm:"size:36;index" json:"category_id"`
}

// ProductOptions 创建商品参数
type ProductOptions struct {
	Name        string
	SKU         string
	Description string
	Price       shared.Money
	Stock       int
	CategoryID  string
}

// NewProduct 创建商品
func NewProduct(opts ProductOptions) (*Product, error) {
	p := &Product{
		Name:        strings.TrimSpace(opts.Name),
		SKU:         NormalizeSKU(opts.SKU),
		Description: strings.TrimSpace(opts.Description),
		CategoryID:  opts.CategoryID,
	}
	if p.Name == "" {
		return nil, NewInvalidProductError("Name", "name must not be empty")
	}
	if p.SKU == "" {
		return nil, NewInvalidProductError("SKU", "sku must not be empty")
	}
	if err := p.Reprice(opts.Price); err != nil {
		return nil, err
	}
	if opts.Stock < 0 {
		return nil, NewInvalidProductError("Stock", "stock must not be negative")
	}
	p.Stock = opts.Stock
	return p, nil
}

// NormalizeSKU SKU 不区分大小写，统一存为大写
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// Rename 修改名称与描述
func (p *Product) Rename(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewInvalidProductError("Name", "name must not be empty")
	}
	p.Name = name
	p.Description = strings.TrimSpace(description)
	return nil
}

// Reprice 修改价格，价格必须为正且有币种
func (p *Product) Reprice(price shared.Money) error {
	if !price.IsPositive() {
		return NewInvalidProductError("Price", "price must be positive")
	}
	if len(price.Currency) != 3 {
		return NewInvalidProductError("Price", "currency must be a 3-letter code")
	}
	p.Price = shared.NewMoney(price.Amount, strings.ToUpper(price.Currency))
	return nil
}

// AdjustStock 调整库存，结果不能为负
func (p *Product) AdjustStock(delta int) error {
	if p.Stock+delta < 0 {
		return ErrInsufficientStock
	}
	p.Stock += delta
	return nil
}

// MoveTo 变更分类
func (p *Product) MoveTo(categoryID string) {
	p.CategoryID = categoryID
}

// InStock 是否有货
func (p *Product) InStock() bool {
	return p.Stock > 0
}
