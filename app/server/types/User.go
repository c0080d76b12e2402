package types

import "time"

type Role int

const (
	RoleNormal Role = iota // 普通用户
	RoleAdmin              // 管理员
)

func (r Role) Valid() bool {
	return r == RoleNormal || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleNormal:
		return "normal"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

type UserStatus int

const (
	UserStatusNormal   UserStatus = iota // 正常
	UserStatusDisabled                   // 已禁用，不能登录
)

type User struct {
	ID           uint
	Account      string // 登录账号，全局唯一
	PasswordHash string // argon2id
	Username     string // 显示名称
	AvatarURL    string
	Gender       int
	Phone        string
	Email        string
	Role         Role
	Status       UserStatus
	Tags         TagSet
	StudentID    string // 学号，全局唯一，定长
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView 是对外暴露的用户信息，不包含任何凭据
type UserView struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Account   string     `json:"userAccount"`
	AvatarURL string     `json:"avatarUrl"`
	Gender    int        `json:"gender"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Tags      TagSet     `json:"tags"`
	Status    UserStatus `json:"userStatus"`
	Role      Role       `json:"userRole"`
	CreatedAt time.Time  `json:"createTime"`
	StudentID string     `json:"studentId"`
}

// Desensitize 脱敏
func (u *User) Desensitize() *UserView {
	if u == nil {
		return nil
	}
	tags := u.Tags
	if tags == nil {
		tags = TagSet{}
	}
	return &UserView{
		ID:        u.ID,
		Username:  u.Username,
		Account:   u.Account,
		AvatarURL: u.AvatarURL,
		Gender:    u.Gender,
		Phone:     u.Phone,
		Email:     u.Email,
		Tags:      tags,
		Status:    u.Status,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		StudentID: u.StudentID,
	}
}

func DesensitizeAll(users []User) []*UserView {
	res := make([]*UserView, 0, len(users))
	for i := range users {
		res = append(res, users[i].Desensitize())
	}
	return res
}
