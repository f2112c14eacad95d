package service

import (
	"context"
	"errors"

	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
)

const eventListLimit = 500

// EventService 处理事件的区间查询与部分更新，事件是唯一允许修改的集合。
type EventService struct {
	store *store.Adapter
}

// NewEventService 构造 EventService
func NewEventService(adapter *store.Adapter) *EventService {
	return &EventService{store: adapter}
}

// List 返回用户的事件；start 与 end 同时给出时只保留 start_time >= start 且 end_time <= end 的事件。
func (s *EventService) List(ctx context.Context, userID string, start, end *schema.DateTime) ([]store.Document, error) {
	filter := store.Eq("user_id", userID)
	if start != nil && end != nil {
		filter = filter.Gte("start_time", *start).Lte("end_time", *end)
	}
	return s.store.Find(ctx, schema.CollectionEvent, filter, store.Limit(eventListLimit))
}

// Update 只写入补丁中出现的字段。没有文档被修改时返回 store.ErrNotFoundOrUnchanged。
func (s *EventService) Update(ctx context.Context, id string, patch *schema.EventPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if !s.store.Available() {
		return store.ErrStoreUnavailable
	}
	if patch.Empty() {
		return store.ErrNotFoundOrUnchanged
	}

	// 只修改一端时需要与已存储的另一端比较
	if (patch.StartTime == nil) != (patch.EndTime == nil) {
		if err := s.checkRange(ctx, id, patch); err != nil {
			return err
		}
	}

	modified, err := s.store.Update(ctx, schema.CollectionEvent, id, patch)
	if err != nil {
		return err
	}
	if modified == 0 {
		return store.ErrNotFoundOrUnchanged
	}
	return nil
}

func (s *EventService) checkRange(ctx context.Context, id string, patch *schema.EventPatch) error {
	doc, err := s.store.Get(ctx, schema.CollectionEvent, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFoundOrUnchanged
		}
		return err
	}

	current, err := store.Decode[schema.Event](*doc)
	if err != nil {
		return err
	}
	start, end := current.StartTime, current.EndTime
	if patch.StartTime != nil {
		start = *patch.StartTime
	}
	if patch.EndTime != nil {
		end = *patch.EndTime
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start.Time) {
		return schema.Invalid("end_time must not be before start_time")
	}
	return nil
}
