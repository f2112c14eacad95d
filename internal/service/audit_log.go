package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
)

const (
	defaultAuditBuffer = 256
	auditWriteTimeout  = 5 * time.Second
)

// 审计记录的 kind。
const (
	AuditKindCenter      = "center"
	AuditKindPrioritize  = "prioritize"
	AuditKindWeeklyPlan  = "weekly_plan"
	AuditKindGoalsReview = "goals_review"
)

// Auditor 记录一次 AI 接口调用。实现必须立即返回，不能让调用方失败。
type Auditor interface {
	Record(userID, kind string, params map[string]any)
}

// AuditLog 通过缓冲队列和单个后台协程把 airequest 文档写入存储。
// 写入失败或队列已满时只记日志。
type AuditLog struct {
	store *store.Adapter
	queue chan schema.AIRequest
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ Auditor = (*AuditLog)(nil)

// NewAuditLog 启动写入协程，buffer<=0 时使用默认容量。
func NewAuditLog(adapter *store.Adapter, buffer int) *AuditLog {
	if buffer <= 0 {
		buffer = defaultAuditBuffer
	}
	a := &AuditLog{
		store: adapter,
		queue: make(chan schema.AIRequest, buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

// Record 把审计记录放入队列。
func (a *AuditLog) Record(userID, kind string, params map[string]any) {
	entry := schema.AIRequest{Owner: schema.Owner{UserID: userID}, Kind: kind, Parameters: params}
	if err := schema.Prepare(&entry, a.store.Now()); err != nil {
		slog.Warn("audit record rejected", slog.String("kind", kind), slog.Any("error", err))
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		slog.Warn("audit log closed, dropping record", slog.String("kind", kind))
		return
	}
	select {
	case a.queue <- entry:
	default:
		slog.Warn("audit queue full, dropping record", slog.String("kind", kind), slog.String("user_id", userID))
	}
}

// Close 停止接收新记录并等待队列写完。
func (a *AuditLog) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *AuditLog) run() {
	defer close(a.done)
	for entry := range a.queue {
		a.write(entry)
	}
}

func (a *AuditLog) write(entry schema.AIRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if _, err := a.store.Create(ctx, schema.CollectionAIRequest, &entry); err != nil {
		slog.Warn("audit write failed",
			slog.String("kind", entry.Kind),
			slog.String("user_id", entry.UserID),
			slog.Any("error", err),
		)
	}
}
