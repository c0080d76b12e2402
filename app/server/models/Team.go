package models

import (
	"gorm.io/gorm"
	"time"
)

type Team struct {
	gorm.Model

	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description;size:512"`
	MaxNum      int       `gorm:"column:max_num"`          // 最大人数
	Status      int       `gorm:"column:status;index"`     // 0 公开， 1 私有， 2 加密
	Password    string    `gorm:"column:password"`         // 加密队伍的密码，使用 argon2id 储存
	ExpireTime  time.Time `gorm:"column:expire_time;index"` // 过期时间，过期后不能加入也不再展示

	OwnerID uint `gorm:"column:user_id;index"` // 创建人（队长）
}
