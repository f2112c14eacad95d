package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout 是仅含日期字段（due_date、birthday、date）的序列化格式。
const DateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// Date 表示不带时间的日历日期，统一落在 UTC 零点。
type Date struct {
	time.Time
}

// NewDate 截取 t 在 UTC 下的年月日。
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate 解析 YYYY-MM-DD，也接受完整的时间戳并截取日期部分。
func ParseDate(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return Date{Time: t}, nil
	}
	dt, err := ParseDateTime(trimmed)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", raw)
	}
	return NewDate(dt.Time), nil
}

// String 返回 YYYY-MM-DD，零值返回空串。
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// SameDay 判断 d 与 t 是否为同一个 UTC 日历日。
func (d Date) SameDay(t time.Time) bool {
	return d.String() == NewDate(t).String()
}

// SameMonthDay 忽略年份比较月和日，用于生日提醒。
func (d Date) SameMonthDay(t time.Time) bool {
	u := t.UTC()
	return d.Month() == u.Month() && d.Day() == u.Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateTime 是精确到秒的 UTC 时间点。
// 序列化为 RFC 3339 定长字符串，存储层可以直接按字典序做范围比较。
type DateTime struct {
	time.Time
}

// NewDateTime 将 t 规整为 UTC 并截断到秒。
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC().Truncate(time.Second)}
}

// ParseDateTime 解析 RFC 3339；不带时区的输入按 UTC 处理。
func ParseDateTime(raw string) (DateTime, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return NewDateTime(t), nil
		}
	}
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return NewDateTime(t), nil
	}
	return DateTime{}, fmt.Errorf("invalid datetime %q", raw)
}

func (t DateTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func (t DateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *DateTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = DateTime{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*t = DateTime{}
		return nil
	}
	parsed, err := ParseDateTime(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
