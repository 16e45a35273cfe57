package gormdb

import (
	"encoding/json"
	"fmt"
	"time"

	"catalog/domain/shared"
)

// AuditLogPO 审计日志持久化对象，只插入不更新
type AuditLogPO struct {
	ID            string    `gorm:"primaryKey;size:36"`
	EntityType    string    `gorm:"size:100;not null;index:idx_audit_entity,priority:1"`
	EntityID      string    `gorm:"size:36;not null;index:idx_audit_entity,priority:2"`
	Action        string    `gorm:"size:16;not null"`
	Before        string    `gorm:"type:text"`
	After         string    `gorm:"type:text"`
	ChangedFields string    `gorm:"type:text"` // JSON array
	UserID        string    `gorm:"size:64;not null;index"`
	Timestamp     time.Time `gorm:"not null;index"`
	Address       string    `gorm:"size:64"`
	Metadata      string    `gorm:"type:text"` // JSON object
}

// TableName Specify table name
func (AuditLogPO) TableName() string {
	return "audit_logs"
}

func FromAuditLog(l shared.AuditLog) (*AuditLogPO, error) {
	po := &AuditLogPO{
		ID:         l.ID,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Action:     string(l.Action),
		Before:     string(l.Before),
		After:      string(l.After),
		UserID:     l.UserID,
		Timestamp:  l.Timestamp.UTC(),
		Address:    l.Address,
	}
	if len(l.ChangedFields) > 0 {
		data, err := json.Marshal(l.ChangedFields)
		if err != nil {
			return nil, fmt.Errorf("encode changed fields: %w", err)
		}
		po.ChangedFields = string(data)
	}
	if len(l.Metadata) > 0 {
		data, err := json.Marshal(l.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		po.Metadata = string(data)
	}
	return po, nil
}

func (po *AuditLogPO) ToDomain() (shared.AuditLog, error) {
	l := shared.AuditLog{
		ID:         po.ID,
		EntityType: po.EntityType,
		EntityID:   po.EntityID,
		Action:     shared.AuditAction(po.Action),
		UserID:     po.UserID,
		Timestamp:  po.Timestamp.UTC(),
		Address:    po.Address,
	}
	if po.Before != "" {
		l.Before = json.RawMessage(po.Before)
	}
	if po.After != "" {
		l.After = json.RawMessage(po.After)
	}
	if po.ChangedFields != "" {
		if err := json.Unmarshal([]byte(po.ChangedFields), &l.ChangedFields); err != nil {
			return l, fmt.Errorf("decode changed fields: %w", err)
		}
	}
	if po.Metadata != "" {
		if err := json.Unmarshal([]byte(po.Metadata), &l.Metadata); err != nil {
			return l, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return l, nil
}
