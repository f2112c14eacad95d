// Package store 是文档存储适配层：负责时间戳、标识符归一化以及类型与映射之间的转换。
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStoreUnavailable 在存储连接从未建立（例如缺少配置）时返回
	ErrStoreUnavailable = errors.New("database not available")
	// ErrNotFound 在按 ID 查找不到文档时返回
	ErrNotFound = errors.New("document not found")
	// ErrNotFoundOrUnchanged 在更新没有影响任何文档时返回
	ErrNotFoundOrUnchanged = errors.New("document not found or unchanged")
)

// 适配层管理的保留字段。
const (
	FieldID        = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Fields 是文档的字段映射，取值只包含 JSON 基本类型。
type Fields map[string]any

// Document 是从存储读出的一条文档，ID 始终是字符串。
type Document struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarshalJSON 输出扁平结构：_id、各字段以及 created_at/updated_at。
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+3)
	for key, value := range d.Fields {
		out[key] = value
	}
	out[FieldID] = d.ID
	out[FieldCreatedAt] = d.CreatedAt.UTC()
	out[FieldUpdatedAt] = d.UpdatedAt.UTC()
	return json.Marshal(out)
}

// String 读取字符串字段，缺失或类型不符时返回空串。
func (d Document) String(key string) string {
	if v, ok := d.Fields[key].(string); ok {
		return v
	}
	return ""
}

// Float 读取数值字段。
func (d Document) Float(key string) (float64, bool) {
	switch v := d.Fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Decode 把文档字段显式转换为类型化记录。
func Decode[T any](doc Document) (T, error) {
	var out T
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return out, fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return out, nil
}

// toFields 把类型化记录或映射转换为只含 JSON 基本类型的字段映射。
func toFields(record any) (Fields, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	fields := Fields{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("record must encode to an object: %w", err)
	}
	delete(fields, FieldID)
	delete(fields, "id")
	delete(fields, FieldCreatedAt)
	delete(fields, FieldUpdatedAt)
	return fields, nil
}

// normalizeValue 让过滤条件的取值与存储中的 JSON 表示一致（时间为字符串，数字为 float64）。
func normalizeValue(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
