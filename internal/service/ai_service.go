package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
)

const (
	prioritizeFetchLimit  = 100
	prioritizeResultLimit = 7
	weeklyEventsLimit     = 500
	goalsReviewLimit      = 200
	goalsReviewSampleSize = 3

	// 无截止日期的任务排在同优先级的最后
	undatedSecondaryKey int64 = -(1 << 62)
)

var priorityWeights = map[string]int{
	"urgent": 4,
	"high":   3,
	"medium": 2,
	"low":    1,
}

// 关键词回复，按顺序匹配，命中第一个即返回。
const (
	centerPlanReply     = "Reorganizei a tua semana com blocos de foco nas manhãs e reuniões à tarde, priorizando tarefas urgentes e alinhadas com os teus objetivos."
	centerMealPlanReply = "Plano alimentar gerado para foco mental e energia estável."
	centerReviewReply   = "Revisão mensal: progresso de 68% nos objetivos trimestrais. Sugestões: reforçar consistência em hábitos chave."
	centerFallbackReply = "Pedido recebido. Em breve, respostas mais inteligentes com base nos teus dados."
	goalsEmptySummary   = "Ainda não tens objetivos definidos. Cria um objetivo para receberes uma revisão."
)

var centerPriorities = []string{"1) Entregar proposta X", "2) Treino 45min", "3) Chamada com equipa"}

var weekdayNames = [7]string{"Segunda-feira", "Terça-feira", "Quarta-feira", "Quinta-feira", "Sexta-feira", "Sábado", "Domingo"}

var weekdayFocus = [7]string{
	"Bloco de foco 09:00-10:30 nas prioridades da semana",
	"Reuniões agrupadas à tarde, manhã livre para trabalho profundo",
	"Revisão a meio da semana e ajuste de prioridades",
	"Bloco de foco 09:00-10:30 e treino ao fim do dia",
	"Fecho de tarefas pendentes e planeamento da próxima semana",
	"Família e descanso ativo",
	"Revisão semanal dos objetivos e preparação da segunda-feira",
}

// CenterReply 是关键词接口的回复，只有命中的字段会被输出。
type CenterReply struct {
	Plan       string   `json:"plan,omitempty"`
	MealPlan   string   `json:"meal_plan,omitempty"`
	Priorities []string `json:"priorities,omitempty"`
	Review     string   `json:"review,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// SuggestedTask 是优先级排序的输出项。
type SuggestedTask struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Priority string  `json:"priority"`
	DueDate  *string `json:"due_date"`
}

// Prioritization 是任务优先级排序结果。
type Prioritization struct {
	SuggestedOrder []SuggestedTask `json:"suggested_order"`
}

// PlanDay 是周计划中的一天。
type PlanDay struct {
	Day   string `json:"day"`
	Date  string `json:"date"`
	Focus string `json:"focus"`
}

// WeeklyPlan 是周计划结果，plan 固定 7 天。
type WeeklyPlan struct {
	WeekStart        string    `json:"week_start"`
	Plan             []PlanDay `json:"plan"`
	EventsConsidered int       `json:"events_considered"`
}

// GoalsReview 是目标回顾。没有目标时序列化为 {summary, actions: []}。
type GoalsReview struct {
	GoalsConsidered int
	AverageProgress int
	Recommendations []string
	Summary         string
}

func (r GoalsReview) MarshalJSON() ([]byte, error) {
	if r.GoalsConsidered == 0 {
		return json.Marshal(struct {
			Summary string   `json:"summary"`
			Actions []string `json:"actions"`
		}{Summary: r.Summary, Actions: []string{}})
	}
	recs := r.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return json.Marshal(struct {
		AverageProgress int      `json:"average_progress"`
		Recommendations []string `json:"recommendations"`
	}{AverageProgress: r.AverageProgress, Recommendations: recs})
}

// AIService 提供基于关键词和简单规则的“AI”接口，每次调用都会写一条审计记录。
type AIService struct {
	store   *store.Adapter
	auditor Auditor
}

// NewAIService 构造 AIService
func NewAIService(adapter *store.Adapter, auditor Auditor) *AIService {
	return &AIService{store: adapter, auditor: auditor}
}

func (s *AIService) audit(userID, kind string, params map[string]any) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(userID, kind, params)
}

// Center 按顺序匹配葡萄牙语关键词并返回固定回复，不访问存储。
func (s *AIService) Center(_ context.Context, userID, prompt string) (CenterReply, error) {
	if strings.TrimSpace(userID) == "" {
		return CenterReply{}, schema.Invalid("user_id is required")
	}
	s.audit(userID, AuditKindCenter, map[string]any{"prompt": prompt})
	logAIExchange(AuditKindCenter, "prompt", prompt)

	reply, matched := matchCenterPrompt(prompt)
	logAIExchange(AuditKindCenter, "reply", matched)
	return reply, nil
}

func matchCenterPrompt(prompt string) (CenterReply, string) {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "organiza a minha semana"):
		return CenterReply{Plan: centerPlanReply}, "plan"
	case strings.Contains(p, "plano alimentar"), strings.Contains(p, "alimentar"):
		return CenterReply{MealPlan: centerMealPlanReply}, "meal_plan"
	case strings.Contains(p, "reformula"), strings.Contains(p, "prioridades"):
		return CenterReply{Priorities: slices.Clone(centerPriorities)}, "priorities"
	case strings.Contains(p, "revisão mensal"), strings.Contains(p, "revisao"):
		return CenterReply{Review: centerReviewReply}, "review"
	}
	return CenterReply{Message: centerFallbackReply}, "message"
}

type scoredTask struct {
	task      SuggestedTask
	weight    int
	secondary int64
}

// Prioritize 对未完成的任务按 (优先级权重, 截止日期远近) 降序排序并返回前 7 个。
// 相同键保持读取顺序。
func (s *AIService) Prioritize(ctx context.Context, userID string, taskContext any) (Prioritization, error) {
	if strings.TrimSpace(userID) == "" {
		return Prioritization{}, schema.Invalid("user_id is required")
	}
	s.audit(userID, AuditKindPrioritize, map[string]any{"context": taskContext})

	docs, err := s.store.Find(ctx, schema.CollectionTask,
		store.Eq("user_id", userID).Eq("completed", false),
		store.Limit(prioritizeFetchLimit))
	if err != nil {
		return Prioritization{}, fmt.Errorf("load tasks: %w", err)
	}

	scored := make([]scoredTask, 0, len(docs))
	for _, doc := range docs {
		scored = append(scored, scoreTask(doc))
	}
	slices.SortStableFunc(scored, func(a, b scoredTask) int {
		if a.weight != b.weight {
			return b.weight - a.weight
		}
		switch {
		case a.secondary > b.secondary:
			return -1
		case a.secondary < b.secondary:
			return 1
		}
		return 0
	})

	if len(scored) > prioritizeResultLimit {
		scored = scored[:prioritizeResultLimit]
	}
	out := Prioritization{SuggestedOrder: make([]SuggestedTask, 0, len(scored))}
	for _, item := range scored {
		out.SuggestedOrder = append(out.SuggestedOrder, item.task)
	}
	return out, nil
}

func scoreTask(doc store.Document) scoredTask {
	priority := doc.String("priority")
	weight, ok := priorityWeights[strings.ToLower(strings.TrimSpace(priority))]
	if !ok {
		weight = priorityWeights["medium"]
	}

	item := scoredTask{
		task:      SuggestedTask{ID: doc.ID, Title: doc.String("title"), Priority: priority},
		weight:    weight,
		secondary: undatedSecondaryKey,
	}
	if raw := doc.String("due_date"); raw != "" {
		if due, err := schema.ParseDate(raw); err == nil {
			dueStr := due.String()
			item.task.DueDate = &dueStr
			item.secondary = -due.Unix()
		}
	}
	return item
}

// WeeklyPlan 生成 7 天的占位计划，并统计该周内开始的事件数量。
// weekStart 为空时取当前 UTC 周的周一。
func (s *AIService) WeeklyPlan(ctx context.Context, userID string, weekStart *schema.Date) (WeeklyPlan, error) {
	if strings.TrimSpace(userID) == "" {
		return WeeklyPlan{}, schema.Invalid("user_id is required")
	}

	start := mondayOf(s.store.Now())
	if weekStart != nil && !weekStart.IsZero() {
		start = *weekStart
	}
	s.audit(userID, AuditKindWeeklyPlan, map[string]any{"week_start": start.String()})

	end := schema.NewDateTime(start.AddDate(0, 0, 7).Add(-time.Second))
	events, err := s.store.Find(ctx, schema.CollectionEvent,
		store.Eq("user_id", userID).
			Gte("start_time", schema.NewDateTime(start.Time)).
			Lte("start_time", end),
		store.Limit(weeklyEventsLimit))
	if err != nil {
		return WeeklyPlan{}, fmt.Errorf("load events: %w", err)
	}

	plan := make([]PlanDay, 0, len(weekdayNames))
	for i := range weekdayNames {
		plan = append(plan, PlanDay{
			Day:   weekdayNames[i],
			Date:  schema.NewDate(start.AddDate(0, 0, i)).String(),
			Focus: weekdayFocus[i],
		})
	}
	return WeeklyPlan{WeekStart: start.String(), Plan: plan, EventsConsidered: len(events)}, nil
}

func mondayOf(now time.Time) schema.Date {
	today := schema.NewDate(now)
	offset := (int(today.Weekday()) + 6) % 7
	return schema.NewDate(today.AddDate(0, 0, -offset))
}

// GoalsReview 计算目标平均进度（四舍六入五成双），建议只取前 3 个目标。
func (s *AIService) GoalsReview(ctx context.Context, userID, horizon string) (GoalsReview, error) {
	if strings.TrimSpace(userID) == "" {
		return GoalsReview{}, schema.Invalid("user_id is required")
	}
	horizon = strings.ToLower(strings.TrimSpace(horizon))
	params := map[string]any{}
	if horizon != "" {
		params["horizon"] = horizon
	}
	s.audit(userID, AuditKindGoalsReview, params)

	filter := store.Eq("user_id", userID)
	if horizon != "" {
		filter = filter.Eq("horizon", horizon)
	}
	docs, err := s.store.Find(ctx, schema.CollectionGoal, filter, store.Limit(goalsReviewLimit))
	if err != nil {
		return GoalsReview{}, fmt.Errorf("load goals: %w", err)
	}
	if len(docs) == 0 {
		return GoalsReview{Summary: goalsEmptySummary}, nil
	}

	var total float64
	for _, doc := range docs {
		progress, _ := doc.Float("progress")
		total += progress
	}
	review := GoalsReview{
		GoalsConsidered: len(docs),
		AverageProgress: int(math.RoundToEven(total / float64(len(docs)))),
	}
	for _, doc := range docs[:min(goalsReviewSampleSize, len(docs))] {
		progress, _ := doc.Float("progress")
		review.Recommendations = append(review.Recommendations,
			fmt.Sprintf("Avança em \"%s\" (progresso atual %d%%): define a próxima ação concreta.", doc.String("title"), int(progress)))
	}
	return review, nil
}
