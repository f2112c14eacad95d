package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gestor/internal/store"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SQLiteBackend 用一张 JSON 列的表模拟文档存储。
type SQLiteBackend struct {
	db *gorm.DB
}

var _ store.Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend 包装已有连接并迁移 documents 表。
func NewSQLiteBackend(gdb *gorm.DB) (*SQLiteBackend, error) {
	if err := gdb.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &SQLiteBackend{db: gdb}, nil
}

// DB 暴露底层 gorm 实例，供测试与诊断使用。
func (b *SQLiteBackend) DB() *gorm.DB {
	return b.db
}

// Insert 写入文档，ID 使用 uuid。
func (b *SQLiteBackend) Insert(ctx context.Context, collection string, doc store.Document) (string, error) {
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}

	row := Document{
		DocID:      uuid.NewString(),
		Collection: collection,
		Data:       datatypes.JSON(data),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if err := b.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return row.DocID, nil
}

// Find 将过滤条件编译为 json_extract 谓词。
func (b *SQLiteBackend) Find(ctx context.Context, collection string, filter store.Filter, opts store.FindOptions) ([]store.Document, error) {
	query := b.db.WithContext(ctx).Model(&Document{}).Where("collection = ?", collection)

	for _, cond := range filter.Conditions {
		expr, err := fieldExpr(cond.Field)
		if err != nil {
			return nil, err
		}
		switch cond.Op {
		case store.OpEq:
			if cond.Value == nil {
				query = query.Where(fmt.Sprintf("%s IS NULL", expr))
				continue
			}
			query = query.Where(fmt.Sprintf("%s = ?", expr), cond.Value)
		case store.OpGte:
			query = query.Where(fmt.Sprintf("%s >= ?", expr), cond.Value)
		case store.OpLte:
			query = query.Where(fmt.Sprintf("%s <= ?", expr), cond.Value)
		default:
			return nil, fmt.Errorf("unsupported operator %q", cond.Op)
		}
	}

	if opts.Sort != nil {
		expr, err := fieldExpr(opts.Sort.Field)
		if err != nil {
			return nil, err
		}
		direction := "ASC"
		if opts.Sort.Desc {
			direction = "DESC"
		}
		query = query.Order(fmt.Sprintf("%s %s", expr, direction))
	}
	query = query.Order("seq ASC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var rows []Document
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	docs := make([]store.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toStore()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get 按 uuid 查找文档。
func (b *SQLiteBackend) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	var row Document
	err := b.db.WithContext(ctx).Where("collection = ? AND doc_id = ?", collection, id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc, err := row.toStore()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update 合并字段；只有确实发生变化时才写入并刷新 updated_at。
func (b *SQLiteBackend) Update(ctx context.Context, collection, id string, fields store.Fields, now time.Time) (int64, error) {
	var modified int64
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Document
		if err := tx.Where("collection = ? AND doc_id = ?", collection, id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		current := store.Fields{}
		if err := json.Unmarshal(row.Data, &current); err != nil {
			return fmt.Errorf("decode document %s: %w", id, err)
		}

		changed := false
		for key, value := range fields {
			if old, ok := current[key]; ok && reflect.DeepEqual(old, value) {
				continue
			}
			current[key] = value
			changed = true
		}
		if !changed {
			return nil
		}

		data, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", id, err)
		}

		result := tx.Model(&Document{}).Where("seq = ?", row.Seq).Updates(map[string]any{
			"data":       datatypes.JSON(data),
			"updated_at": now,
		})
		if result.Error != nil {
			return result.Error
		}
		modified = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	return modified, nil
}

// Collections 返回至少有一条文档的集合。
func (b *SQLiteBackend) Collections(ctx context.Context) ([]string, error) {
	var names []string
	if err := b.db.WithContext(ctx).Model(&Document{}).Distinct("collection").Order("collection ASC").Pluck("collection", &names).Error; err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// fieldExpr 把字段名映射为 SQL 表达式；保留字段直接落到列上。
func fieldExpr(field string) (string, error) {
	if err := store.ValidateFieldName(field); err != nil {
		return "", err
	}
	switch field {
	case store.FieldID:
		return "doc_id", nil
	case store.FieldCreatedAt:
		return "created_at", nil
	case store.FieldUpdatedAt:
		return "updated_at", nil
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field), nil
}

func (row Document) toStore() (store.Document, error) {
	fields := store.Fields{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &fields); err != nil {
			return store.Document{}, fmt.Errorf("decode document %s: %w", row.DocID, err)
		}
	}
	return store.Document{
		ID:        row.DocID,
		Fields:    fields,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}
