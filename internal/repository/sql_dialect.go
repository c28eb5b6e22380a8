package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func isPostgres(db *gorm.DB) bool {
	switch dbDialectName(db) {
	case "postgres", "postgresql":
		return true
	default:
		return false
	}
}

// likeOperator postgres 使用 ILIKE 忽略大小写，sqlite 的 LIKE 本身不区分 ASCII 大小写。
func likeOperator(db *gorm.DB) string {
	if isPostgres(db) {
		return "ILIKE"
	}
	return "LIKE"
}

// lockForUpdate 行级锁；sqlite 写事务本身串行，不支持 FOR UPDATE。
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if isPostgres(db) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
