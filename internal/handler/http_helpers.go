package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionUserKey = "user_id"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// bindJSON 解析请求体。语法错误返回 400，字段类型或格式错误返回 422。
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.Is(err, io.EOF) || errors.As(err, &syntaxErr) {
			respondError(c, http.StatusBadRequest, message)
			return false
		}
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// respondServiceError 把服务层错误映射为 HTTP 状态码。
func respondServiceError(c *gin.Context, err error) {
	var validationErr *schema.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		respondError(c, http.StatusServiceUnavailable, store.ErrStoreUnavailable.Error())
	case errors.Is(err, store.ErrNotFoundOrUnchanged):
		respondError(c, http.StatusNotFound, store.ErrNotFoundOrUnchanged.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, store.ErrNotFound.Error())
	default:
		c.Error(err)
		slog.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

// resolveUserID 依次使用显式的 user_id、Bearer 令牌和会话中的用户。
func resolveUserID(c *gin.Context, explicit string) string {
	if userID := strings.TrimSpace(explicit); userID != "" {
		return userID
	}
	if token := bearerToken(c); token != "" {
		return token
	}
	// 未挂载会话中间件时 sessions.Default 会 panic
	if _, ok := c.Get(sessions.DefaultKey); ok {
		if userID, ok := sessions.Default(c).Get(sessionUserKey).(string); ok {
			return strings.TrimSpace(userID)
		}
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireUserID 解析用户，缺失时返回 422。
func requireUserID(c *gin.Context, explicit string) (string, bool) {
	userID := resolveUserID(c, explicit)
	if userID == "" {
		respondError(c, http.StatusUnprocessableEntity, "user_id is required")
		return "", false
	}
	return userID, true
}

// documentView 把文档展开为扁平映射，便于附加派生字段。
func documentView(doc store.Document) gin.H {
	view := gin.H{}
	for key, value := range doc.Fields {
		view[key] = value
	}
	view[store.FieldID] = doc.ID
	view[store.FieldCreatedAt] = doc.CreatedAt.UTC()
	view[store.FieldUpdatedAt] = doc.UpdatedAt.UTC()
	return view
}
