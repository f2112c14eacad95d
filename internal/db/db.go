package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gestor/internal/config"
	"github.com/gestor/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotConfigured 表示缺少建立存储连接所需的配置。
var ErrNotConfigured = errors.New("document store not configured")

// Open 根据配置选择后端并建立连接。
// 缺少配置或连接失败时返回 nil Backend，调用方应以不可用句柄继续运行。
func Open(ctx context.Context, cfg config.StoreConfig) (store.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case config.DriverMongo:
		if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.Name) == "" {
			return nil, fmt.Errorf("%w: DATABASE_URL and DATABASE_NAME are required for mongo", ErrNotConfigured)
		}
		backend, err := OpenMongo(ctx, cfg.URL, cfg.Name)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.DriverSQLite, "":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("%w: DATABASE_PATH is required for sqlite", ErrNotConfigured)
		}
		backend, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrNotConfigured, cfg.Driver)
	}
}

// OpenSQLite 打开（必要时创建）SQLite 文件并迁移 documents 表。
func OpenSQLite(databasePath string) (*SQLiteBackend, error) {
	path := strings.TrimSpace(databasePath)
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	backend, err := NewSQLiteBackend(gdb)
	if err != nil {
		if sqlDB, dbErr := gdb.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}

	slog.Info("sqlite document store ready", slog.String("path", path))
	return backend, nil
}

// sqliteDSN 为文件路径补上忙等待，避免并发读写时立即返回 SQLITE_BUSY。
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
