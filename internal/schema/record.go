// Package schema 定义每个集合的文档形状，只承担校验与默认值，不含业务行为。
package schema

import (
	"errors"
	"fmt"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// 集合名与原有数据保持一致：实体名小写。
const (
	CollectionUser       = "user"
	CollectionTask       = "task"
	CollectionEvent      = "event"
	CollectionFocusBlock = "focusblock"
	CollectionGoal       = "goal"
	CollectionHealthLog  = "healthlog"
	CollectionMealPlan   = "mealplan"
	CollectionFamilyItem = "familyitem"
	CollectionContact    = "contact"
	CollectionNote       = "note"
	CollectionHabit      = "habit"
	CollectionAIRequest  = "airequest"
)

// Record 是所有可持久化文档的公共契约。
type Record interface {
	Collection() string
	ApplyDefaults(now time.Time)
	Validate() error
}

// Owned 由归属某个用户的文档实现。
type Owned interface {
	OwnerID() string
	SetOwnerID(userID string)
}

// Owner 嵌入到每个用户文档中，提供 user_id 字段。
type Owner struct {
	UserID string `json:"user_id"`
}

// OwnerID 返回文档所属用户。
func (o *Owner) OwnerID() string { return o.UserID }

// SetOwnerID 设置文档所属用户。
func (o *Owner) SetOwnerID(userID string) { o.UserID = userID }

// ValidationError 表示输入不满足集合的文档形状，在访问存储之前返回。
type ValidationError struct {
	Collection string
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Collection, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid 构造一个不绑定具体集合的校验错误。
func Invalid(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

// Prepare 填充默认值并校验，失败时返回 *ValidationError。
func Prepare(r Record, now time.Time) error {
	r.ApplyDefaults(now.UTC())
	if err := r.Validate(); err != nil {
		return &ValidationError{Collection: r.Collection(), Err: err}
	}
	return nil
}

var registry = map[string]func() Record{
	CollectionUser:       func() Record { return &User{} },
	CollectionTask:       func() Record { return &Task{} },
	CollectionEvent:      func() Record { return &Event{} },
	CollectionFocusBlock: func() Record { return &FocusBlock{} },
	CollectionGoal:       func() Record { return &Goal{} },
	CollectionHealthLog:  func() Record { return &HealthLog{} },
	CollectionMealPlan:   func() Record { return &MealPlan{} },
	CollectionFamilyItem: func() Record { return &FamilyItem{} },
	CollectionContact:    func() Record { return &Contact{} },
	CollectionNote:       func() Record { return &Note{} },
	CollectionHabit:      func() Record { return &Habit{} },
	CollectionAIRequest:  func() Record { return &AIRequest{} },
}

// New 返回集合对应的空文档。
func New(collection string) (Record, bool) {
	factory, ok := registry[collection]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Collections 返回所有已知集合名，按字母排序。
func Collections() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// notZeroTime 校验 Date/DateTime 非零值；ozzo 的 Required 只识别 time.Time。
var notZeroTime = validation.By(func(value interface{}) error {
	switch v := value.(type) {
	case DateTime:
		if v.IsZero() {
			return errors.New("cannot be blank")
		}
	case Date:
		if v.IsZero() {
			return errors.New("cannot be blank")
		}
	}
	return nil
})

// notBefore 要求 end 不早于 start。
func notBefore(start *DateTime) validation.Rule {
	return validation.By(func(value interface{}) error {
		end, ok := value.(DateTime)
		if !ok || end.IsZero() || start.IsZero() {
			return nil
		}
		if end.Before(start.Time) {
			return errors.New("must not be before start_time")
		}
		return nil
	})
}
