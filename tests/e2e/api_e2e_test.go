package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gestor/internal/db"
	"github.com/gestor/internal/handler"
	"github.com/gestor/internal/router"
	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/service"
	"github.com/gestor/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2024-05-06 周一
var e2eNow = time.Date(2024, 5, 6, 8, 30, 0, 0, time.UTC)

type e2eSuite struct {
	handler http.Handler
	client  *localClient
	store   *store.Adapter
	audit   *service.AuditLog
	userID  string
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler) *localClient {
	jar, _ := cookiejar.New(nil)
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) *http.Response {
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	c.jar.SetCookies(req.URL, resp.Cookies())
	return resp
}

func TestE2E_AllInterfaces(t *testing.T) {
	suite := newE2ESuite(t)
	suite.login(t)

	t.Run("records", suite.testRecords)
	t.Run("events", suite.testEvents)
	t.Run("dashboard", suite.testDashboard)
	t.Run("ai", suite.testAI)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	backend, err := db.NewSQLiteBackend(gdb)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	adapter := store.New(backend, store.WithClock(func() time.Time { return e2eNow }))
	audit := service.NewAuditLog(adapter, 64)
	t.Cleanup(func() {
		audit.Close()
		_ = adapter.Close()
	})

	r := router.SetupRouter(handler.NewAPI(adapter, audit), "e2e-secret")
	return &e2eSuite{
		handler: r,
		client:  newLocalClient(r),
		store:   adapter,
		audit:   audit,
	}
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()

	resp := s.mustRequestJSON(t, http.MethodPost, "/auth/login", map[string]any{"email": "marta@example.com", "name": "Marta"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %s", resp.StatusCode, readBody(t, resp))
	}
	var login struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	}
	decodeJSON(t, resp, &login)
	if login.Token != "marta@example.com" || login.Name != "Marta" {
		t.Fatalf("unexpected login response: %+v", login)
	}
	s.userID = login.UserID
}

func (s *e2eSuite) testRecords(t *testing.T) {
	// 会话用户作为默认 user_id
	created := s.create(t, "/goals", map[string]any{"title": "Correr 10km", "progress": 40, "horizon": "quarterly"})

	resp := s.mustRequest(t, http.MethodGet, "/goals/"+created, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get goal: %d %s", resp.StatusCode, readBody(t, resp))
	}
	var goal map[string]any
	decodeJSON(t, resp, &goal)
	if goal["_id"] != created || goal["user_id"] != s.userID || goal["created_at"] != goal["updated_at"] {
		t.Fatalf("unexpected goal: %v", goal)
	}

	resp = s.mustRequestJSON(t, http.MethodPost, "/goals", map[string]any{"title": "x", "progress": 150})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid progress should be 422, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, http.MethodGet, "/goals?horizon=quarterly", nil)
	var goals []map[string]any
	decodeJSON(t, resp, &goals)
	if len(goals) != 1 {
		t.Fatalf("expected 1 quarterly goal, got %d", len(goals))
	}

	s.create(t, "/focus-blocks", map[string]any{"title": "Escrita", "start_time": "2024-05-06T09:00:00", "end_time": "2024-05-06T10:30:00"})
	s.create(t, "/family", map[string]any{"title": "Revisão do carro", "due_date": "2024-06-01"})
	s.create(t, "/notes", map[string]any{"title": "Ideias", "content": "- uma\n- duas"})

	resp = s.mustRequest(t, http.MethodGet, "/family?type=maintenance", nil)
	var family []map[string]any
	decodeJSON(t, resp, &family)
	if len(family) != 1 || family[0]["due_date"] != "2024-06-01" {
		t.Fatalf("unexpected family items: %v", family)
	}
}

func (s *e2eSuite) testEvents(t *testing.T) {
	id := s.create(t, "/events", map[string]any{
		"title":      "Reunião de equipa",
		"start_time": "2024-05-06T14:00:00Z",
		"end_time":   "2024-05-06T15:00:00Z",
	})
	s.create(t, "/events", map[string]any{
		"title":      "Jantar",
		"start_time": "2024-05-09T19:00:00Z",
		"end_time":   "2024-05-09T21:00:00Z",
	})

	resp := s.mustRequestJSON(t, http.MethodPatch, "/events/"+id, map[string]any{"location": "Sala 3"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch event: %d %s", resp.StatusCode, readBody(t, resp))
	}
	var patched map[string]string
	decodeJSON(t, resp, &patched)
	if patched["status"] != "updated" || patched["id"] != id {
		t.Fatalf("unexpected patch response: %v", patched)
	}

	resp = s.mustRequestJSON(t, http.MethodPatch, "/events/000000000000000000000000", map[string]any{"title": "x"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown event should be 404, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, http.MethodGet, "/events?start=2024-05-06T00:00:00Z&end=2024-05-07T00:00:00Z", nil)
	var events []map[string]any
	decodeJSON(t, resp, &events)
	if len(events) != 1 || events[0]["location"] != "Sala 3" {
		t.Fatalf("unexpected events in range: %v", events)
	}
}

func (s *e2eSuite) testDashboard(t *testing.T) {
	s.create(t, "/contacts", map[string]any{"name": "Avó Rosa", "birthday": "1950-05-06"})
	s.create(t, "/tasks", map[string]any{"title": "Enviar relatório", "priority": "high", "due_date": "2024-05-06"})
	s.create(t, "/habits", map[string]any{"name": "Beber água", "target_per_day": 8})
	s.create(t, "/health", map[string]any{"type": "energy", "value": 62, "timestamp": "2024-05-06T07:00:00Z"})
	s.create(t, "/health", map[string]any{"type": "energy", "value": 45, "timestamp": "2024-05-05T22:00:00Z"})

	resp := s.mustRequest(t, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: %d %s", resp.StatusCode, readBody(t, resp))
	}
	var dash struct {
		Tasks           []map[string]any    `json:"tasks"`
		Habits          []map[string]any    `json:"habits"`
		Energy          float64             `json:"energy"`
		Alerts          []map[string]string `json:"alerts"`
		Recommendations []string            `json:"recommendations"`
	}
	decodeJSON(t, resp, &dash)
	if dash.Energy != 62 {
		t.Fatalf("expected latest energy 62, got %v", dash.Energy)
	}
	if len(dash.Alerts) != 2 || dash.Alerts[0]["type"] != "birthday" || dash.Alerts[1]["type"] != "deadline" {
		t.Fatalf("unexpected alerts: %v", dash.Alerts)
	}
	if len(dash.Recommendations) != 3 || len(dash.Habits) != 1 || len(dash.Tasks) != 1 {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}
}

func (s *e2eSuite) testAI(t *testing.T) {
	resp := s.mustRequestJSON(t, http.MethodPost, "/ai/center", map[string]any{"prompt": "Organiza a minha semana, por favor"})
	var center map[string]any
	decodeJSON(t, resp, &center)
	if _, ok := center["plan"]; !ok || len(center) != 1 {
		t.Fatalf("unexpected center reply: %v", center)
	}

	s.create(t, "/tasks", map[string]any{"title": "Treino", "priority": "urgent"})
	resp = s.mustRequestJSON(t, http.MethodPost, "/ai/prioritize", map[string]any{"context": "manhã"})
	var prioritized struct {
		SuggestedOrder []map[string]any `json:"suggested_order"`
	}
	decodeJSON(t, resp, &prioritized)
	if len(prioritized.SuggestedOrder) != 2 || prioritized.SuggestedOrder[0]["title"] != "Treino" {
		t.Fatalf("unexpected prioritization: %v", prioritized.SuggestedOrder)
	}

	resp = s.mustRequestJSON(t, http.MethodPost, "/ai/weekly-plan", map[string]any{})
	var plan struct {
		WeekStart        string           `json:"week_start"`
		Plan             []map[string]any `json:"plan"`
		EventsConsidered int              `json:"events_considered"`
	}
	decodeJSON(t, resp, &plan)
	if plan.WeekStart != "2024-05-06" || len(plan.Plan) != 7 || plan.EventsConsidered != 2 {
		t.Fatalf("unexpected weekly plan: %+v", plan)
	}

	resp = s.mustRequestJSON(t, http.MethodPost, "/ai/goals-review", map[string]any{"horizon": "quarterly"})
	var review map[string]any
	decodeJSON(t, resp, &review)
	if review["average_progress"] != float64(40) {
		t.Fatalf("unexpected goals review: %v", review)
	}

	s.audit.Close()
	docs, err := s.store.Find(context.Background(), schema.CollectionAIRequest, store.Eq("user_id", s.userID))
	if err != nil {
		t.Fatalf("find audit records: %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("expected 4 audit records, got %d", len(docs))
	}
}

func (s *e2eSuite) create(t *testing.T, path string, payload map[string]any) string {
	t.Helper()

	resp := s.mustRequestJSON(t, http.MethodPost, path, payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create %s: %d %s", path, resp.StatusCode, readBody(t, resp))
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)
	if created.ID == "" {
		t.Fatalf("create %s returned empty id", path)
	}
	return created.ID
}

func (s *e2eSuite) mustRequest(t *testing.T, method, path string, body io.Reader) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, "http://gestor.local"+path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.client.Do(req)
}

func (s *e2eSuite) mustRequestJSON(t *testing.T, method, path string, payload map[string]any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return s.mustRequest(t, method, path, bytes.NewReader(raw))
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(data)
}
