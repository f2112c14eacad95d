package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login 处理简化登录：令牌即邮箱，同时写入会话。
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	result, err := a.auth.Login(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if _, ok := c.Get(sessions.DefaultKey); ok {
		session := sessions.Default(c)
		session.Set(sessionUserKey, result.UserID)
		if err := session.Save(); err != nil {
			slog.Warn("failed to save session", slog.Any("error", err))
		}
	}

	c.JSON(http.StatusOK, result)
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	if _, ok := c.Get(sessions.DefaultKey); ok {
		session := sessions.Default(c)
		session.Clear()
		_ = session.Save()
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
