package gormdb

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog/domain/shared"
	"catalog/infrastructure/persistence"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	mysqlDuplicateEntry = 1062
	pgUniqueViolation   = "23505"
)

// NotDeleted 常规读取的软删除过滤
func NotDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate entry") ||
		strings.Contains(errStr, "1062") ||
		strings.Contains(errStr, "SQLSTATE 23505")
}

// store 是 DB 与 Tx 共用的读写实现
type store struct {
	db *gorm.DB
}

func (s store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s store) Load(ctx context.Context, dest shared.Entity, id string, includeDeleted bool) error {
	q := s.conn(ctx)
	if !includeDeleted {
		q = q.Scopes(NotDeleted)
	}
	if err := q.First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	return nil
}

func (s store) LoadAll(ctx context.Context, dest any, filter shared.Filter) error {
	return liveRows(s.conn(ctx), filter).Find(dest).Error
}

func liveRows(db *gorm.DB, filter shared.Filter) *gorm.DB {
	q := db.Scopes(NotDeleted)
	if filter.Where != "" {
		q = q.Where(filter.Where, filter.Args...)
	}
	return q.Order("created_at, id")
}

func (s store) History(ctx context.Context, entityType, id string) ([]shared.AuditLog, error) {
	var pos []AuditLogPO
	err := s.conn(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, id).
		Order("timestamp, id").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	logs := make([]shared.AuditLog, 0, len(pos))
	for i := range pos {
		l, err := pos[i].ToDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// Query runs sql with placeholders bound to args
func (s store) Query(ctx context.Context, dest any, sql string, args ...any) error {
	return s.conn(ctx).Raw(sql, args...).Scan(dest).Error
}

func (s store) Insert(ctx context.Context, entity shared.Entity) error {
	if err := s.conn(ctx).Create(entity).Error; err != nil {
		if isDuplicateKeyError(err) {
			name := shared.EntityName(entity)
			return shared.NewConflictError(name, fmt.Sprintf("%s %s already exists", name, entity.Base().ID))
		}
		return err
	}
	return nil
}

// Update 严格乐观锁：以期望版本作为更新条件，避免静默覆盖并发写入。
func (s store) Update(ctx context.Context, entity shared.Entity, expectedVersion int64) error {
	base := entity.Base()
	name := shared.EntityName(entity)

	result := versionedUpdate(s.conn(ctx), entity, expectedVersion)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return shared.NewConflictError(name, fmt.Sprintf("%s %s violates a unique constraint", name, base.ID))
		}
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	zero := reflect.New(reflect.TypeOf(entity).Elem()).Interface()
	if err := s.conn(ctx).Model(zero).Where("id = ?", base.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError(name)
	}
	return shared.NewConcurrencyConflictError(name, base.ID, expectedVersion)
}

func versionedUpdate(db *gorm.DB, entity shared.Entity, expectedVersion int64) *gorm.DB {
	return db.Model(entity).
		Where("version = ?", expectedVersion).
		Select("*").
		Updates(entity)
}

func (s store) AppendAudit(ctx context.Context, logs []shared.AuditLog) error {
	pos := make([]*AuditLogPO, 0, len(logs))
	for _, l := range logs {
		po, err := FromAuditLog(l)
		if err != nil {
			return err
		}
		pos = append(pos, po)
	}
	return s.conn(ctx).Create(&pos).Error
}

// DB is the pool-backed Database
type DB struct {
	store
}

func NewDB(db *gorm.DB) *DB {
	return &DB{store{db: db}}
}

// Gorm exposes the pool for migrations and health checks
func (d *DB) Gorm() *gorm.DB {
	return d.db
}

// Begin starts a transaction whose lifetime ends only at Commit or Rollback;
// statements inside it still observe their own context.
func (d *DB) Begin(ctx context.Context) (persistence.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := d.db.WithContext(context.WithoutCancel(ctx)).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &Tx{store{db: tx}}, nil
}

// Tx wraps one gorm transaction
type Tx struct {
	store
}

func (t *Tx) Commit(context.Context) error {
	return t.db.Commit().Error
}

func (t *Tx) Rollback(context.Context) error {
	return t.db.Rollback().Error
}

// AutoMigrate creates or updates the tables of models plus the audit table
func AutoMigrate(db *gorm.DB, models ...any) error {
	return db.AutoMigrate(append(models, &AuditLogPO{})...)
}

var (
	_ persistence.Database = (*DB)(nil)
	_ persistence.Tx       = (*Tx)(nil)
)
