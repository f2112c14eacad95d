package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gestor/internal/db"
	"github.com/gestor/internal/schema"
	"github.com/gestor/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2024-05-06 是周一
var testNow = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func setupServiceStore(t *testing.T) *store.Adapter {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	backend, err := db.NewSQLiteBackend(gdb)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	adapter := store.New(backend, store.WithClock(func() time.Time { return testNow }))
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

func seedRecord(t *testing.T, adapter *store.Adapter, record schema.Record) string {
	t.Helper()

	if err := schema.Prepare(record, adapter.Now()); err != nil {
		t.Fatalf("prepare %s: %v", record.Collection(), err)
	}
	id, err := adapter.Create(context.Background(), record.Collection(), record)
	if err != nil {
		t.Fatalf("seed %s: %v", record.Collection(), err)
	}
	return id
}

func countDocuments(t *testing.T, adapter *store.Adapter, collection string, filter store.Filter) int {
	t.Helper()

	docs, err := adapter.Find(context.Background(), collection, filter)
	if err != nil {
		t.Fatalf("count %s: %v", collection, err)
	}
	return len(docs)
}

type auditCall struct {
	UserID string
	Kind   string
	Params map[string]any
}

// recordingAuditor 记录调用，不访问存储。
type recordingAuditor struct {
	mu    sync.Mutex
	calls []auditCall
}

func (r *recordingAuditor) Record(userID, kind string, params map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, auditCall{UserID: userID, Kind: kind, Params: params})
}

func (r *recordingAuditor) Calls() []auditCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auditCall(nil), r.calls...)
}

func date(t *testing.T, raw string) *schema.Date {
	t.Helper()

	d, err := schema.ParseDate(raw)
	if err != nil {
		t.Fatalf("parse date %q: %v", raw, err)
	}
	return &d
}
