package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	// 基础信息
	Account   string `gorm:"column:account;uniqueIndex:idx_users_account,where:deleted_at IS NULL"` // 登录账号，未删除的用户中唯一
	Username  string `gorm:"column:username;index"`      // 显示名称
	AvatarURL string `gorm:"column:avatar_url"`          // 头像地址
	Gender    int    `gorm:"column:gender"`              // 性别
	Phone     string `gorm:"column:phone"`
	Email     string `gorm:"column:email"`
	StudentID string `gorm:"column:student_id;uniqueIndex:idx_users_student_id,where:deleted_at IS NULL;size:10"` // 学号，未删除的用户中唯一

	// 权限与状态
	Role   int `gorm:"column:role"`   // 0 普通用户， 1 管理员
	Status int `gorm:"column:status"` // 0 正常， 1 禁用

	// 标签，用于搜索与匹配
	Tags pq.StringArray `gorm:"column:tags;type:text[]"`

	// 登录与授权认证相关
	Password string `gorm:"column:password"` // 密码，使用 argon2id 储存
}
