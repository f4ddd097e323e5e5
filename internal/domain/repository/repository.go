// Package repository 定义数据访问接口
package repository

import (
	"errors"
)

// 存储层统一错误，由具体实现翻译底层驱动错误后返回
var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey 唯一约束冲突
	ErrDuplicateKey = errors.New("duplicate key")
)

// TxKey 事务上下文键，事务内的仓储操作通过 context 取到事务句柄
type TxKey struct{}
