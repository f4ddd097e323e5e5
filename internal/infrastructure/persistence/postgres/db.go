package postgres

import (
	"context"

	"gorm.io/gorm"

	"reflect-story-api/internal/domain/repository"
)

// getDB 返回当前应使用的 DB 句柄
// 上下文中存在事务时优先使用事务句柄，保证事务内的仓储调用落在同一事务上
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
