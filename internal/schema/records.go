package schema

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// 枚举取值。
var (
	TaskPriorities = []interface{}{"low", "medium", "high", "urgent"}
	GoalHorizons   = []interface{}{"annual", "quarterly", "monthly", "weekly"}
	HealthLogTypes = []interface{}{"energy", "mood", "workout", "water", "supplement"}
)

// User 在首次登录时惰性创建，email 实际唯一但不做强制约束，也不校验格式。
type User struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url"`
}

func (*User) Collection() string { return CollectionUser }

func (u *User) ApplyDefaults(time.Time) {
	u.Email = strings.TrimSpace(u.Email)
	u.Name = strings.TrimSpace(u.Name)
}

func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.Required),
		validation.Field(&u.Email, validation.Required),
	)
}

// Task 是待办事项，priority 决定排序权重。
type Task struct {
	Owner
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Scope       string   `json:"scope"`
	Labels      []string `json:"labels"`
	Priority    string   `json:"priority"`
	DueDate     *Date    `json:"due_date"`
	Completed   bool     `json:"completed"`
}

func (*Task) Collection() string { return CollectionTask }

func (t *Task) ApplyDefaults(time.Time) {
	if t.Scope == "" {
		t.Scope = "personal"
	}
	t.Priority = strings.ToLower(strings.TrimSpace(t.Priority))
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
}

func (t *Task) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.UserID, validation.Required),
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.Priority, validation.In(TaskPriorities...)),
	)
}

// Event 是日程中的一个时间段。
type Event struct {
	Owner
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Category    string   `json:"category"`
	StartTime   DateTime `json:"start_time"`
	EndTime     DateTime `json:"end_time"`
	Location    *string  `json:"location"`
	AllDay      bool     `json:"all_day"`
}

func (*Event) Collection() string { return CollectionEvent }

func (e *Event) ApplyDefaults(time.Time) {
	if e.Category == "" {
		e.Category = "personal"
	}
}

func (e *Event) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.UserID, validation.Required),
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.StartTime, notZeroTime),
		validation.Field(&e.EndTime, notZeroTime, notBefore(&e.StartTime)),
	)
}

// EventPatch 描述事件的部分更新，只有非 nil 字段会被写入。
type EventPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	StartTime   *DateTime `json:"start_time,omitempty"`
	EndTime     *DateTime `json:"end_time,omitempty"`
	Location    *string   `json:"location,omitempty"`
	AllDay      *bool     `json:"all_day,omitempty"`
}

// Validate 只校验出现的字段。
func (p *EventPatch) Validate() error {
	err := validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.NilOrNotEmpty),
		validation.Field(&p.Category, validation.NilOrNotEmpty),
	)
	if err != nil {
		return &ValidationError{Collection: CollectionEvent, Err: err}
	}
	if p.StartTime != nil && p.EndTime != nil && p.EndTime.Before(p.StartTime.Time) {
		return Invalid("end_time must not be before start_time")
	}
	return nil
}

// Empty 判断补丁是否没有任何字段。
func (p *EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.StartTime == nil && p.EndTime == nil && p.Location == nil && p.AllDay == nil
}

// FocusBlock 是专注时段。
type FocusBlock struct {
	Owner
	Title     string   `json:"title"`
	StartTime DateTime `json:"start_time"`
	EndTime   DateTime `json:"end_time"`
	Objective *string  `json:"objective"`
}

func (*FocusBlock) Collection() string { return CollectionFocusBlock }

func (*FocusBlock) ApplyDefaults(time.Time) {}

func (f *FocusBlock) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.UserID, validation.Required),
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.StartTime, notZeroTime),
		validation.Field(&f.EndTime, notZeroTime, notBefore(&f.StartTime)),
	)
}

// Goal 是某个周期内的目标，progress 取值 0-100。
type Goal struct {
	Owner
	Title    string   `json:"title"`
	Horizon  string   `json:"horizon"`
	Progress int      `json:"progress"`
	Actions  []string `json:"actions"`
}

func (*Goal) Collection() string { return CollectionGoal }

func (g *Goal) ApplyDefaults(time.Time) {
	g.Horizon = strings.ToLower(strings.TrimSpace(g.Horizon))
	if g.Horizon == "" {
		g.Horizon = "weekly"
	}
	if g.Actions == nil {
		g.Actions = []string{}
	}
}

func (g *Goal) Validate() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.UserID, validation.Required),
		validation.Field(&g.Title, validation.Required),
		validation.Field(&g.Horizon, validation.In(GoalHorizons...)),
		validation.Field(&g.Progress, validation.Min(0), validation.Max(100)),
	)
}

// HealthLog 记录一次健康相关的读数。
type HealthLog struct {
	Owner
	Type      string   `json:"type"`
	Value     float64  `json:"value"`
	Note      *string  `json:"note"`
	Timestamp DateTime `json:"timestamp"`
}

func (*HealthLog) Collection() string { return CollectionHealthLog }

func (h *HealthLog) ApplyDefaults(now time.Time) {
	h.Type = strings.ToLower(strings.TrimSpace(h.Type))
	if h.Type == "" {
		h.Type = "energy"
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = NewDateTime(now)
	}
}

func (h *HealthLog) Validate() error {
	return validation.ValidateStruct(h,
		validation.Field(&h.UserID, validation.Required),
		validation.Field(&h.Type, validation.In(HealthLogTypes...)),
	)
}

// MealPlan 是某一天的饮食计划。
type MealPlan struct {
	Owner
	Date         Date     `json:"date"`
	Meals        []string `json:"meals"`
	Objective    string   `json:"objective"`
	ShoppingList []string `json:"shopping_list"`
}

func (*MealPlan) Collection() string { return CollectionMealPlan }

func (m *MealPlan) ApplyDefaults(time.Time) {
	if m.Objective == "" {
		m.Objective = "energia"
	}
	if m.Meals == nil {
		m.Meals = []string{}
	}
	if m.ShoppingList == nil {
		m.ShoppingList = []string{}
	}
}

func (m *MealPlan) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.UserID, validation.Required),
		validation.Field(&m.Date, notZeroTime),
	)
}

// FamilyItem 是家庭/居家事务：维护、采购、证件等。
type FamilyItem struct {
	Owner
	Type    string  `json:"type"`
	Title   string  `json:"title"`
	DueDate *Date   `json:"due_date"`
	Notes   *string `json:"notes"`
}

func (*FamilyItem) Collection() string { return CollectionFamilyItem }

func (f *FamilyItem) ApplyDefaults(time.Time) {
	if f.Type == "" {
		f.Type = "maintenance"
	}
}

func (f *FamilyItem) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.UserID, validation.Required),
		validation.Field(&f.Title, validation.Required),
	)
}

// Contact 的 birthday 会在仪表盘上生成生日提醒。
type Contact struct {
	Owner
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Notes    *string `json:"notes"`
	Birthday *Date   `json:"birthday"`
}

func (*Contact) Collection() string { return CollectionContact }

func (*Contact) ApplyDefaults(time.Time) {}

func (c *Contact) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.UserID, validation.Required),
		validation.Field(&c.Name, validation.Required),
	)
}

// Note 是笔记，content 按 Markdown 渲染。
type Note struct {
	Owner
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (*Note) Collection() string { return CollectionNote }

func (n *Note) ApplyDefaults(time.Time) {
	if n.Type == "" {
		n.Type = "note"
	}
}

func (n *Note) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.UserID, validation.Required),
		validation.Field(&n.Title, validation.Required),
		validation.Field(&n.Content, validation.Required),
	)
}

// Habit 记录每日目标次数与当日完成次数。
type Habit struct {
	Owner
	Name         string `json:"name"`
	TargetPerDay int    `json:"target_per_day"`
	DoneToday    int    `json:"done_today"`
}

func (*Habit) Collection() string { return CollectionHabit }

func (h *Habit) ApplyDefaults(time.Time) {
	if h.TargetPerDay == 0 {
		h.TargetPerDay = 1
	}
}

func (h *Habit) Validate() error {
	return validation.ValidateStruct(h,
		validation.Field(&h.UserID, validation.Required),
		validation.Field(&h.Name, validation.Required),
		validation.Field(&h.TargetPerDay, validation.Min(1)),
		validation.Field(&h.DoneToday, validation.Min(0)),
	)
}

// AIRequest 是 AI 接口调用的审计记录，只追加。
type AIRequest struct {
	Owner
	Kind       string         `json:"kind"`
	Parameters map[string]any `json:"parameters"`
}

func (*AIRequest) Collection() string { return CollectionAIRequest }

func (a *AIRequest) ApplyDefaults(time.Time) {
	if a.Parameters == nil {
		a.Parameters = map[string]any{}
	}
}

func (a *AIRequest) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.UserID, validation.Required),
		validation.Field(&a.Kind, validation.Required),
	)
}
