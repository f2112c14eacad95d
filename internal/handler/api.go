package handler

import (
	"github.com/gestor/internal/service"
	"github.com/gestor/internal/store"
)

// AppName 出现在根路径的响应中。
const AppName = "Gestor de Alta Performance com IA"

// API bundles shared dependencies for HTTP handlers.
type API struct {
	store     *store.Adapter
	records   *service.RecordService
	events    *service.EventService
	auth      *service.AuthService
	dashboard *service.DashboardService
	ai        *service.AIService
}

// NewAPI constructs a handler set with shared services.
// 所有服务共用同一个存储句柄；auditor 接收 AI 接口的审计记录。
func NewAPI(adapter *store.Adapter, auditor service.Auditor) *API {
	return &API{
		store:     adapter,
		records:   service.NewRecordService(adapter),
		events:    service.NewEventService(adapter),
		auth:      service.NewAuthService(adapter),
		dashboard: service.NewDashboardService(adapter),
		ai:        service.NewAIService(adapter, auditor),
	}
}

// Store exposes the document store handle for diagnostics.
func (a *API) Store() *store.Adapter {
	return a.store
}
