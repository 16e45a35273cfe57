package shared

import (
	"reflect"
	"time"
)

// BaseEntity 所有持久化实体共享的身份、审计与并发字段。
//
// 不变量:
//   - IsDeleted 为 true 的实体不会出现在常规读取结果中
//   - 每次成功变更都会推进 Version
//
// 这些字段由保存拦截器统一维护，业务代码不直接赋值。
type BaseEntity struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime:false" json:"created_at"`
	CreatedBy string     `gorm:"size:64" json:"created_by"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	UpdatedBy *string    `gorm:"size:64" json:"updated_by,omitempty"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *string    `gorm:"size:64" json:"deleted_by,omitempty"`
	Version   int64      `gorm:"not null;default:0" json:"version"`
}

// Base 返回实体的基础字段，嵌入 BaseEntity 的指针类型自动满足 Entity。
func (b *BaseEntity) Base() *BaseEntity { return b }

// Entity 可被工作单元跟踪的持久化对象
type Entity interface {
	Base() *BaseEntity
}

// EntityName 返回实体的类型名（去掉指针），用于审计记录与内存表名
func EntityName(e any) string {
	return EntityTypeName(reflect.TypeOf(e))
}

// EntityTypeName 返回类型名，自动解开指针与切片
func EntityTypeName(t reflect.Type) string {
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
