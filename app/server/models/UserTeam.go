package models

import "time"

// UserTeam 用户与队伍的成员关系。没有软删除，退出即删除记录，方便重新加入
type UserTeam struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time

	UserID   uint      `gorm:"column:user_id;uniqueIndex:idx_user_team"`
	TeamID   uint      `gorm:"column:team_id;uniqueIndex:idx_user_team;index"`
	JoinTime time.Time `gorm:"column:join_time"`
}
