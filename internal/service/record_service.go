package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
)

// RecordService 负责所有集合的通用创建、列表与单条读取。
// 记录在进入存储前统一填充默认值并校验。
type RecordService struct {
	store *store.Adapter
}

// NewRecordService 构造 RecordService
func NewRecordService(adapter *store.Adapter) *RecordService {
	return &RecordService{store: adapter}
}

// Create 校验记录并写入对应集合，返回新文档的字符串 ID。
func (s *RecordService) Create(ctx context.Context, record schema.Record) (string, error) {
	if err := schema.Prepare(record, s.store.Now()); err != nil {
		return "", err
	}
	id, err := s.store.Create(ctx, record.Collection(), record)
	if err != nil {
		return "", err
	}
	return id, nil
}

// List 按过滤条件返回集合中的文档，limit 为固定上限。
func (s *RecordService) List(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
	docs, err := s.store.Find(ctx, collection, filter, store.Limit(limit))
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Get 读取单个文档
func (s *RecordService) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	doc, err := s.store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%s %s: %w", collection, id, store.ErrNotFound)
		}
		return nil, err
	}
	return doc, nil
}
