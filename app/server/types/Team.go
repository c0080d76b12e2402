package types

import "time"

type TeamStatus int

const (
	TeamStatusPublic  TeamStatus = iota // 公开
	TeamStatusPrivate                   // 私有
	TeamStatusSecret                    // 加密，加入需要密码
)

// ParseTeamStatus 把状态码解析为已知的队伍状态
func ParseTeamStatus(code int) (TeamStatus, bool) {
	switch s := TeamStatus(code); s {
	case TeamStatusPublic, TeamStatusPrivate, TeamStatusSecret:
		return s, true
	default:
		return 0, false
	}
}

func (s TeamStatus) String() string {
	switch s {
	case TeamStatusPublic:
		return "PUBLIC"
	case TeamStatusPrivate:
		return "PRIVATE"
	case TeamStatusSecret:
		return "SECRET"
	default:
		return "UNKNOWN"
	}
}

type Team struct {
	ID           uint
	Name         string
	Description  string
	MaxNum       int
	Status       TeamStatus
	PasswordHash string // 仅 SECRET 队伍有值，argon2id
	ExpireTime   time.Time
	OwnerID      uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *Team) Expired(now time.Time) bool {
	return now.After(t.ExpireTime)
}

type Membership struct {
	ID       uint
	UserID   uint
	TeamID   uint
	JoinTime time.Time
}

// TeamView 队伍列表的展示结构，附带创建人与加入情况
type TeamView struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	MaxNum      int        `json:"maxNum"`
	Status      TeamStatus `json:"status"`
	ExpireTime  time.Time  `json:"expireTime"`
	OwnerID     uint       `json:"userId"`
	CreatedAt   time.Time  `json:"createTime"`
	UpdatedAt   time.Time  `json:"updateTime"`
	Owner       *UserView  `json:"createUser,omitempty"`
	HasJoinNum  int        `json:"hasJoinNum"`
	HasJoin     bool       `json:"hasJoin"`
}

func (t *Team) View() *TeamView {
	return &TeamView{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		MaxNum:      t.MaxNum,
		Status:      t.Status,
		ExpireTime:  t.ExpireTime,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
