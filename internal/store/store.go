package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backend 是具体数据库需要实现的最小能力集合。
// 时间戳与 ID 归一化由 Adapter 负责，Backend 只做持久化。
type Backend interface {
	// Insert 写入文档并返回新分配的字符串 ID。
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	// Find 按过滤条件查询，未指定排序时按存储的自然顺序返回。
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error)
	// Get 按 ID 查询，找不到或 ID 格式非法时返回 ErrNotFound。
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Update 只写入给定字段；没有匹配或字段值未变化时返回 0 且不修改 updated_at。
	Update(ctx context.Context, collection, id string, fields Fields, now time.Time) (int64, error)
	// Collections 返回已有的集合名。
	Collections(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Adapter 是进程级的文档存储句柄，启动时创建一次并显式传给各个服务。
type Adapter struct {
	backend Backend
	now     func() time.Time
}

// Option 配置 Adapter。
type Option func(*Adapter)

// WithClock 替换时间来源，主要用于测试。
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// New 包装 backend；backend 为 nil 时得到一个不可用的句柄，所有数据操作立即返回 ErrStoreUnavailable。
func New(backend Backend, opts ...Option) *Adapter {
	a := &Adapter{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Available 报告存储连接是否已建立，调用方可以在任何操作之前检查。
func (a *Adapter) Available() bool {
	return a != nil && a.backend != nil
}

// Now 返回当前 UTC 时间，派生视图与时间戳共用同一个时钟。
func (a *Adapter) Now() time.Time {
	if a == nil || a.now == nil {
		return time.Now().UTC()
	}
	return a.now().UTC()
}

// Create 写入一条类型化记录或映射，自动设置 created_at 与 updated_at，返回字符串 ID。
func (a *Adapter) Create(ctx context.Context, collection string, record any) (string, error) {
	if !a.Available() {
		return "", ErrStoreUnavailable
	}
	fields, err := toFields(record)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	now := a.Now()
	id, err := a.backend.Insert(ctx, collection, Document{Fields: fields, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	return id, nil
}

// Find 执行过滤查询。结果只在指定排序时有序。
func (a *Adapter) Find(ctx context.Context, collection string, filter Filter, opts ...FindOption) ([]Document, error) {
	if !a.Available() {
		return nil, ErrStoreUnavailable
	}
	normalized, err := filter.normalized()
	if err != nil {
		return nil, err
	}
	var options FindOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.Sort != nil {
		if err := ValidateFieldName(options.Sort.Field); err != nil {
			return nil, err
		}
	}
	docs, err := a.backend.Find(ctx, collection, normalized, options)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// Get 按 ID 读取单个文档。
func (a *Adapter) Get(ctx context.Context, collection, id string) (*Document, error) {
	if !a.Available() {
		return nil, ErrStoreUnavailable
	}
	doc, err := a.backend.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return doc, nil
}

// Update 对 ID 对应的文档做部分更新并刷新 updated_at，返回受影响的文档数。
// 返回 0 时无法区分“不存在”与“没有变化”。
func (a *Adapter) Update(ctx context.Context, collection, id string, partial any) (int64, error) {
	if !a.Available() {
		return 0, ErrStoreUnavailable
	}
	fields, err := toFields(partial)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", collection, err)
	}
	if len(fields) == 0 {
		return 0, nil
	}
	for key := range fields {
		if err := ValidateFieldName(key); err != nil {
			return 0, err
		}
	}
	modified, err := a.backend.Update(ctx, collection, id, fields, a.Now())
	if err != nil {
		return 0, fmt.Errorf("update %s %s: %w", collection, id, err)
	}
	return modified, nil
}

// Collections 列出已有集合，供诊断接口使用。
func (a *Adapter) Collections(ctx context.Context) ([]string, error) {
	if !a.Available() {
		return nil, ErrStoreUnavailable
	}
	return a.backend.Collections(ctx)
}

// Ping 检查连接是否可用。
func (a *Adapter) Ping(ctx context.Context) error {
	if !a.Available() {
		return ErrStoreUnavailable
	}
	return a.backend.Ping(ctx)
}

// Close 释放底层连接；不可用的句柄直接返回 nil。
func (a *Adapter) Close() error {
	if !a.Available() {
		return nil
	}
	return a.backend.Close()
}
