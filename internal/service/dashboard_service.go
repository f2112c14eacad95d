package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardTaskLimit    = 20
	dashboardEventLimit   = 50
	dashboardHabitLimit   = 20
	dashboardEnergyLimit  = 5
	dashboardContactLimit = 500
	dashboardAlertLimit   = 5

	// DefaultEnergy 在没有能量记录时使用
	DefaultEnergy = 70
)

var dashboardRecommendations = []string{
	"Foca nas 3 prioridades: proposta X, revisão OKRs, treino leve",
	"Agenda um bloco de foco de 90min às 9:00",
	"Hidrata-te: 2 copos de água agora",
}

// Alert 是仪表盘提醒：生日提醒带 name，截止提醒带 title。
type Alert struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
}

// Dashboard 是某个用户当天的汇总视图。
type Dashboard struct {
	Tasks           []store.Document `json:"tasks"`
	Events          []store.Document `json:"events"`
	Habits          []store.Document `json:"habits"`
	Energy          float64          `json:"energy"`
	Alerts          []Alert          `json:"alerts"`
	Recommendations []string         `json:"recommendations"`
}

// DashboardService 汇总任务、事件、习惯、能量与联系人。
type DashboardService struct {
	store *store.Adapter
}

// NewDashboardService 构造 DashboardService
func NewDashboardService(adapter *store.Adapter) *DashboardService {
	return &DashboardService{store: adapter}
}

// Build 并发执行五次读取，任意一次失败整体失败；各次读取之间没有一致性保证。
func (s *DashboardService) Build(ctx context.Context, userID string) (*Dashboard, error) {
	if !s.store.Available() {
		return nil, store.ErrStoreUnavailable
	}

	var tasks, events, habits, energyLogs, contacts []store.Document
	owner := store.Eq("user_id", userID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.store.Find(gctx, schema.CollectionTask, owner.Eq("completed", false), store.Limit(dashboardTaskLimit))
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.store.Find(gctx, schema.CollectionEvent, owner, store.Limit(dashboardEventLimit))
		return err
	})
	g.Go(func() error {
		var err error
		habits, err = s.store.Find(gctx, schema.CollectionHabit, owner, store.Limit(dashboardHabitLimit))
		return err
	})
	g.Go(func() error {
		var err error
		energyLogs, err = s.store.Find(gctx, schema.CollectionHealthLog, owner.Eq("type", "energy"),
			store.SortDesc("timestamp"), store.Limit(dashboardEnergyLimit))
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.store.Find(gctx, schema.CollectionContact, owner, store.Limit(dashboardContactLimit))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	now := s.store.Now()
	return &Dashboard{
		Tasks:           tasks,
		Events:          events,
		Habits:          habits,
		Energy:          latestEnergy(energyLogs),
		Alerts:          buildAlerts(contacts, tasks, now),
		Recommendations: append([]string(nil), dashboardRecommendations...),
	}, nil
}

// latestEnergy 读取按时间倒序的第一条能量记录。
func latestEnergy(logs []store.Document) float64 {
	for _, log := range logs {
		if value, ok := log.Float("value"); ok {
			return value
		}
	}
	return DefaultEnergy
}

// buildAlerts 先扫描联系人生日，再扫描当天到期的任务，最多保留 5 条。
func buildAlerts(contacts, tasks []store.Document, now time.Time) []Alert {
	alerts := []Alert{}
	for _, contact := range contacts {
		raw := contact.String("birthday")
		if raw == "" {
			continue
		}
		birthday, err := schema.ParseDate(raw)
		if err != nil {
			continue
		}
		if birthday.SameMonthDay(now) {
			alerts = append(alerts, Alert{Type: "birthday", Name: contact.String("name")})
		}
	}
	for _, task := range tasks {
		raw := task.String("due_date")
		if raw == "" {
			continue
		}
		due, err := schema.ParseDate(raw)
		if err != nil {
			continue
		}
		if due.SameDay(now) {
			alerts = append(alerts, Alert{Type: "deadline", Title: task.String("title")})
		}
	}
	if len(alerts) > dashboardAlertLimit {
		alerts = alerts[:dashboardAlertLimit]
	}
	return alerts
}
