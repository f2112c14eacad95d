package handler

import (
	"net/http"

	"github.com/gestor/internal/schema"
	"github.com/gin-gonic/gin"
)

type centerRequest struct {
	UserID string `json:"user_id"`
	Prompt string `json:"prompt"`
}

type prioritizeRequest struct {
	UserID  string `json:"user_id"`
	Context any    `json:"context"`
}

type weeklyPlanRequest struct {
	UserID    string       `json:"user_id"`
	WeekStart *schema.Date `json:"week_start"`
}

type goalsReviewRequest struct {
	UserID  string `json:"user_id"`
	Horizon string `json:"horizon"`
}

// GetDashboard 返回用户当天的汇总视图。
func (a *API) GetDashboard(c *gin.Context) {
	userID, ok := requireUserID(c, c.Query("user_id"))
	if !ok {
		return
	}

	dashboard, err := a.dashboard.Build(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// AICenter 按关键词返回固定回复。
func (a *API) AICenter(c *gin.Context) {
	var req centerRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}
	userID, ok := requireUserID(c, req.UserID)
	if !ok {
		return
	}

	reply, err := a.ai.Center(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// AIPrioritize 返回建议的任务顺序。
func (a *API) AIPrioritize(c *gin.Context) {
	var req prioritizeRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}
	userID, ok := requireUserID(c, req.UserID)
	if !ok {
		return
	}

	result, err := a.ai.Prioritize(c.Request.Context(), userID, req.Context)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AIWeeklyPlan 返回 7 天的占位计划。
func (a *API) AIWeeklyPlan(c *gin.Context) {
	var req weeklyPlanRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}
	userID, ok := requireUserID(c, req.UserID)
	if !ok {
		return
	}

	plan, err := a.ai.WeeklyPlan(c.Request.Context(), userID, req.WeekStart)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// AIGoalsReview 返回目标回顾。
func (a *API) AIGoalsReview(c *gin.Context) {
	var req goalsReviewRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}
	userID, ok := requireUserID(c, req.UserID)
	if !ok {
		return
	}

	review, err := a.ai.GoalsReview(c.Request.Context(), userID, req.Horizon)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}
