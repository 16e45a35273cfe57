package catalog

import (
	"catalog/domain/catalog"
	"catalog/domain/shared"
)

func toAuditInfo(b *shared.BaseEntity) AuditInfo {
	return AuditInfo{
		CreatedAt: b.CreatedAt,
		CreatedBy: b.CreatedBy,
		UpdatedAt: b.UpdatedAt,
		UpdatedBy: b.UpdatedBy,
		IsDeleted: b.IsDeleted,
		DeletedAt: b.DeletedAt,
		DeletedBy: b.DeletedBy,
	}
}

func toMoneyResponse(m shared.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount, Currency: m.Currency, Display: m.String()}
}

func toCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Version:     c.Version,
		Audit:       toAuditInfo(&c.BaseEntity),
	}
}

func toProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       toMoneyResponse(p.Price),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Version:     p.Version,
		Audit:       toAuditInfo(&p.BaseEntity),
	}
}

func toProductListResponse(products []*catalog.Product) ProductListResponse {
	items := make([]ProductResponse, len(products))
	for i, p := range products {
		items[i] = toProductResponse(p)
	}
	return ProductListResponse{Items: items, Total: len(items)}
}

func toHistoryResponse(logs []shared.AuditLog) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(logs))
	for i, l := range logs {
		out[i] = HistoryEntryResponse{
			ID:            l.ID,
			Action:        string(l.Action),
			ChangedFields: l.ChangedFields,
			Before:        l.Before,
			After:         l.After,
			UserID:        l.UserID,
			Address:       l.Address,
			Timestamp:     l.Timestamp,
			Metadata:      l.Metadata,
		}
	}
	return out
}
