package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const diagnosticTimeout = 5 * time.Second

// Root 返回服务名称与状态。
func (a *API) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": AppName, "status": "ok"})
}

// TestDatabase 报告存储连接情况，错误只写入 db_status，不会返回错误状态码。
func (a *API) TestDatabase(c *gin.Context) {
	response := gin.H{"backend": "running", "db": a.store.Available()}
	if !a.store.Available() {
		response["db_status"] = "not_configured"
		c.JSON(http.StatusOK, response)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), diagnosticTimeout)
	defer cancel()

	collections, err := a.store.Collections(ctx)
	if err != nil {
		response["db_status"] = "error: " + err.Error()
		c.JSON(http.StatusOK, response)
		return
	}
	response["collections"] = collections
	response["db_status"] = "connected"
	c.JSON(http.StatusOK, response)
}

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	if !a.store.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), diagnosticTimeout)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}
