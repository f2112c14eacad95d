package store

import (
	"fmt"
	"regexp"
)

// Op 是过滤条件的比较方式。
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Condition 是单个字段上的比较。
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter 是按 AND 组合的条件列表，零值匹配全部文档。
type Filter struct {
	Conditions []Condition
}

// Eq 创建一个等值条件的过滤器。
func Eq(field string, value any) Filter {
	return Filter{}.Eq(field, value)
}

// Eq 追加等值条件。
func (f Filter) Eq(field string, value any) Filter {
	return f.with(Condition{Field: field, Op: OpEq, Value: value})
}

// Gte 追加 >= 条件。
func (f Filter) Gte(field string, value any) Filter {
	return f.with(Condition{Field: field, Op: OpGte, Value: value})
}

// Lte 追加 <= 条件。
func (f Filter) Lte(field string, value any) Filter {
	return f.with(Condition{Field: field, Op: OpLte, Value: value})
}

func (f Filter) with(c Condition) Filter {
	conditions := make([]Condition, 0, len(f.Conditions)+1)
	conditions = append(conditions, f.Conditions...)
	return Filter{Conditions: append(conditions, c)}
}

// normalized 校验字段名并把取值转换为存储表示。
func (f Filter) normalized() (Filter, error) {
	out := Filter{Conditions: make([]Condition, 0, len(f.Conditions))}
	for _, c := range f.Conditions {
		if err := ValidateFieldName(c.Field); err != nil {
			return Filter{}, err
		}
		switch c.Op {
		case OpEq, OpGte, OpLte:
		default:
			return Filter{}, fmt.Errorf("store: unsupported operator %q", c.Op)
		}
		value, err := normalizeValue(c.Value)
		if err != nil {
			return Filter{}, fmt.Errorf("store: filter value for %s: %w", c.Field, err)
		}
		out.Conditions = append(out.Conditions, Condition{Field: c.Field, Op: c.Op, Value: value})
	}
	return out, nil
}

// ValidateFieldName 限制字段名为标识符，后端据此安全地拼接查询路径。
func ValidateFieldName(name string) error {
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("store: invalid field name %q", name)
	}
	return nil
}

// Sort 指定单字段排序。
type Sort struct {
	Field string
	Desc  bool
}

// FindOptions 控制 Find 的结果数量与顺序。
type FindOptions struct {
	Limit int
	Sort  *Sort
}

// FindOption 修改 FindOptions。
type FindOption func(*FindOptions)

// Limit 限制返回数量，n<=0 表示不限制。
func Limit(n int) FindOption {
	return func(o *FindOptions) { o.Limit = n }
}

// SortDesc 按字段降序返回。
func SortDesc(field string) FindOption {
	return func(o *FindOptions) { o.Sort = &Sort{Field: field, Desc: true} }
}

// SortAsc 按字段升序返回。
func SortAsc(field string) FindOption {
	return func(o *FindOptions) { o.Sort = &Sort{Field: field} }
}
