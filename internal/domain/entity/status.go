// Package entity 定义领域实体
package entity

import (
	"time"
)

// StatusCheck 客户端连通性检查记录
type StatusCheck struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientName string    `json:"client_name" gorm:"size:255;not null"`
	Timestamp  time.Time `json:"timestamp" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (StatusCheck) TableName() string {
	return "status_checks"
}
