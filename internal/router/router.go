package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gestor/internal/handler"
	"github.com/gestor/internal/schema"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "gestor_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog())

	// 允许任意 http/https 来源携带凭据访问，前端部署在独立域名上
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  allowHTTPOrigin,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/", api.Root)
	r.GET("/test", api.TestDatabase)
	r.GET("/healthz", api.HealthCheck)

	auth := r.Group("/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
	}

	for _, route := range handler.CollectionRoutes {
		r.POST(route.Path, api.CreateRecord(route.Collection))
		switch route.Collection {
		case schema.CollectionEvent:
			r.GET(route.Path, api.ListEvents)
			r.PATCH(route.Path+"/:id", api.UpdateEvent)
			r.GET(route.Path+"/:id", api.GetRecord(route.Collection))
		case schema.CollectionNote:
			r.GET(route.Path, api.ListRecords(route))
			r.GET(route.Path+"/:id", api.GetNote)
		default:
			r.GET(route.Path, api.ListRecords(route))
			r.GET(route.Path+"/:id", api.GetRecord(route.Collection))
		}
	}

	r.GET("/dashboard", api.GetDashboard)

	ai := r.Group("/ai")
	{
		ai.POST("/center", api.AICenter)
		ai.POST("/prioritize", api.AIPrioritize)
		ai.POST("/weekly-plan", api.AIWeeklyPlan)
		ai.POST("/goals-review", api.AIGoalsReview)
	}

	return r
}

// allowHTTPOrigin 只放行 http:// 与 https:// 来源，null 和其他 scheme 一律拒绝。
func allowHTTPOrigin(origin string) bool {
	origin = strings.ToLower(origin)
	return strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")
}

// accessLog 用 slog 输出访问日志
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			slog.Error("http request", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("http request", attrs...)
		default:
			slog.Info("http request", attrs...)
		}
	}
}
