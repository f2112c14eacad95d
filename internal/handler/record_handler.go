package handler

import (
	"net/http"
	"strings"

	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/service"
	"github.com/gestor/internal/store"
	"github.com/gin-gonic/gin"
)

// queryFilter 把可选的查询参数映射为等值过滤字段。
// Lower 用于写入时会转成小写的枚举字段。
type queryFilter struct {
	Param string
	Field string
	Date  bool
	Lower bool
}

// CollectionRoute 描述一个集合的 REST 路径、列表上限与可选过滤参数。
type CollectionRoute struct {
	Path       string
	Collection string
	Limit      int
	Filters    []queryFilter
}

// CollectionRoutes 列出所有通用集合路由。事件的列表与更新有单独的处理函数。
var CollectionRoutes = []CollectionRoute{
	{Path: "/tasks", Collection: schema.CollectionTask, Limit: 200, Filters: []queryFilter{{Param: "scope", Field: "scope"}}},
	{Path: "/events", Collection: schema.CollectionEvent, Limit: 500},
	{Path: "/focus-blocks", Collection: schema.CollectionFocusBlock, Limit: 200},
	{Path: "/goals", Collection: schema.CollectionGoal, Limit: 200, Filters: []queryFilter{{Param: "horizon", Field: "horizon", Lower: true}}},
	{Path: "/health", Collection: schema.CollectionHealthLog, Limit: 500, Filters: []queryFilter{{Param: "type", Field: "type", Lower: true}}},
	{Path: "/meals", Collection: schema.CollectionMealPlan, Limit: 30, Filters: []queryFilter{{Param: "day", Field: "date", Date: true}}},
	{Path: "/family", Collection: schema.CollectionFamilyItem, Limit: 200, Filters: []queryFilter{{Param: "type", Field: "type"}}},
	{Path: "/contacts", Collection: schema.CollectionContact, Limit: 500},
	{Path: "/notes", Collection: schema.CollectionNote, Limit: 500, Filters: []queryFilter{{Param: "type", Field: "type"}}},
	{Path: "/habits", Collection: schema.CollectionHabit, Limit: 200},
}

type createdResponse struct {
	ID string `json:"id"`
}

// CreateRecord 返回创建某个集合文档的处理函数，body 中缺少 user_id 时使用当前登录用户。
func (a *API) CreateRecord(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, ok := schema.New(collection)
		if !ok {
			respondError(c, http.StatusNotFound, "unknown collection")
			return
		}
		if !bindJSON(c, record, "invalid request body") {
			return
		}

		if owned, ok := record.(schema.Owned); ok && strings.TrimSpace(owned.OwnerID()) == "" {
			owned.SetOwnerID(resolveUserID(c, ""))
		}

		id, err := a.records.Create(c.Request.Context(), record)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, createdResponse{ID: id})
	}
}

// ListRecords 返回列出某个集合中用户文档的处理函数。
func (a *API) ListRecords(route CollectionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c, c.Query("user_id"))
		if !ok {
			return
		}

		filter := store.Eq("user_id", userID)
		for _, f := range route.Filters {
			raw := strings.TrimSpace(c.Query(f.Param))
			if raw == "" {
				continue
			}
			if f.Lower {
				raw = strings.ToLower(raw)
			}
			if !f.Date {
				filter = filter.Eq(f.Field, raw)
				continue
			}
			day, err := schema.ParseDate(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid "+f.Param)
				return
			}
			filter = filter.Eq(f.Field, day)
		}

		docs, err := a.records.List(c.Request.Context(), route.Collection, filter, route.Limit)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

// GetRecord 返回按 ID 读取单个文档的处理函数。
func (a *API) GetRecord(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := a.records.Get(c.Request.Context(), collection, c.Param("id"))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// GetNote 返回笔记及其渲染后的 HTML。
func (a *API) GetNote(c *gin.Context) {
	doc, err := a.records.Get(c.Request.Context(), schema.CollectionNote, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	rendered, err := service.RenderMarkdown(doc.String("content"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	view := documentView(*doc)
	view["content_html"] = rendered
	c.JSON(http.StatusOK, view)
}
