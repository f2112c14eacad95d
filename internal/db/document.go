package db

import (
	"time"

	"gorm.io/datatypes"
)

// Document 是 SQLite 后端的唯一表，所有集合共用。
// Seq 保留插入顺序，作为未排序查询的自然迭代顺序；DocID 是对外暴露的 uuid。
// 时间戳由适配层给出，关闭 gorm 的自动时间。
type Document struct {
	Seq        uint64         `gorm:"primaryKey;autoIncrement"`
	DocID      string         `gorm:"column:doc_id;size:36;uniqueIndex;not null"`
	Collection string         `gorm:"size:64;index;not null"`
	Data       datatypes.JSON `gorm:"type:json;not null"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt  time.Time      `gorm:"not null;autoUpdateTime:false"`
}

// TableName 固定表名
func (Document) TableName() string {
	return "documents"
}
