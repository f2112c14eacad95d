package handler

import (
	"net/http"
	"strings"

	"github.com/gestor/internal/schema"
	"github.com/gin-gonic/gin"
)

// ListEvents 返回用户的事件，start 与 end 同时给出时按时间区间过滤。
func (a *API) ListEvents(c *gin.Context) {
	userID, ok := requireUserID(c, c.Query("user_id"))
	if !ok {
		return
	}

	start, ok := parseDateTimeQuery(c, "start")
	if !ok {
		return
	}
	end, ok := parseDateTimeQuery(c, "end")
	if !ok {
		return
	}

	docs, err := a.events.List(c.Request.Context(), userID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// UpdateEvent 对事件做部分更新，没有任何改动时返回 404。
func (a *API) UpdateEvent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var patch schema.EventPatch
	if !bindJSON(c, &patch, "invalid request body") {
		return
	}

	if err := a.events.Update(c.Request.Context(), id, &patch); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "id": id})
}

func parseDateTimeQuery(c *gin.Context, key string) (*schema.DateTime, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	value, err := schema.ParseDateTime(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+key)
		return nil, false
	}
	return &value, true
}
