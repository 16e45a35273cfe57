package catalog

import (
	"strings"

	"catalog/domain/shared"
)

// InCategorySpecification filters products by category
type InCategorySpecification struct {
	CategoryID string
}

func (spec InCategorySpecification) IsSatisfiedBy(p *Product) bool {
	return p.CategoryID == spec.CategoryID
}

func (spec InCategorySpecification) Clause() (string, []any) {
	return "category_id = ?", []any{spec.CategoryID}
}

// PriceBetweenSpecification filters products by price amount.
// Max <= 0 means no upper bound.
type PriceBetweenSpecification struct {
	Min int64
	Max int64
}

func (spec PriceBetweenSpecification) IsSatisfiedBy(p *Product) bool {
	return p.Price.Between(spec.Min, spec.Max)
}

func (spec PriceBetweenSpecification) Clause() (string, []any) {
	if spec.Max <= 0 {
		return "price_amount >= ?", []any{spec.Min}
	}
	return "price_amount >= ? AND price_amount <= ?", []any{spec.Min, spec.Max}
}

// NameContainsSpecification case-insensitive substring match on the name
type NameContainsSpecification struct {
	Term string
}

func (spec NameContainsSpecification) IsSatisfiedBy(p *Product) bool {
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(spec.Term))
}

func (spec NameContainsSpecification) Clause() (string, []any) {
	return "LOWER(name) LIKE ?", []any{"%" + escapeLike(strings.ToLower(spec.Term)) + "%"}
}

// InStockSpecification products with stock left
type InStockSpecification struct{}

func (InStockSpecification) IsSatisfiedBy(p *Product) bool { return p.InStock() }

func (InStockSpecification) Clause() (string, []any) { return "stock > ?", []any{0} }

// BySKUSpecification exact SKU match
type BySKUSpecification struct {
	SKU string
}

func (spec BySKUSpecification) IsSatisfiedBy(p *Product) bool {
	return p.SKU == NormalizeSKU(spec.SKU)
}

func (spec BySKUSpecification) Clause() (string, []any) {
	return "sku = ?", []any{NormalizeSKU(spec.SKU)}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ProductFilter 列表查询条件，零值字段不参与过滤
type ProductFilter struct {
	CategoryID string
	MinPrice   int64
	MaxPrice   int64
	Name       string
	InStock    bool
}

// Specification 把过滤条件组合为规约
func (f ProductFilter) Specification() shared.Specification[*Product] {
	spec := shared.All[*Product]()
	if f.CategoryID != "" {
		spec = shared.And[*Product](spec, InCategorySpecification{CategoryID: f.CategoryID})
	}
	if f.MinPrice > 0 || f.MaxPrice > 0 {
		spec = shared.And[*Product](spec, PriceBetweenSpecification{Min: f.MinPrice, Max: f.MaxPrice})
	}
	if f.Name != "" {
		spec = shared.And[*Product](spec, NameContainsSpecification{Term: f.Name})
	}
	if f.InStock {
		spec = shared.And[*Product](spec, InStockSpecification{})
	}
	return spec
}

// Helper functions for common specifications

func NewInCategorySpecification(categoryID string) shared.Specification[*Product] {
	return InCategorySpecification{CategoryID: categoryID}
}

func NewPriceBetweenSpecification(min, max int64) shared.Specification[*Product] {
	return PriceBetweenSpecification{Min: min, Max: max}
}

func NewBySKUSpecification(sku string) shared.Specification[*Product] {
	return BySKUSpecification{SKU: sku}
}
