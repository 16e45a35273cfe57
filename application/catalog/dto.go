package catalog

import (
	"encoding/json"
	"time"
)

// MoneyResponse 表示金额返回模型。
type MoneyResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// AuditInfo 表示实体的审计字段。
type AuditInfo struct {
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	UpdatedBy *string    `json:"updated_by,omitempty"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *string    `json:"deleted_by,omitempty"`
}

// CategoryResponse 表示分类返回模型。
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     int64     `json:"version"`
	Audit       AuditInfo `json:"audit"`
}

// ProductResponse 表示商品返回模型。
type ProductResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	SKU         string        `json:"sku"`
	Description string        `json:"description"`
	Price       MoneyResponse `json:"price"`
	Stock       int           `json:"stock"`
	CategoryID  string        `json:"category_id,omitempty"`
	Version     int64         `json:"version"`
	Audit       AuditInfo     `json:"audit"`
}

// ProductListResponse 表示商品列表返回模型。
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}

// HistoryEntryResponse 表示一条审计记录。
type HistoryEntryResponse struct {
	ID            string            `json:"id"`
	Action        string            `json:"action"`
	ChangedFields []string          `json:"changed_fields"`
	Before        json.RawMessage   `json:"before,omitempty"`
	After         json.RawMessage   `json:"after,omitempty"`
	UserID        string            `json:"user_id"`
	Address       string            `json:"address,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}
