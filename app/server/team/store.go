package team

import (
	"context"
	"strings"
	"teamforge/app/server/types"
	"time"
)

// Tx 队伍与成员关系的存储操作。不存在的记录返回 nil, nil ，唯一约束冲突返回 errs.ErrDuplicate
type Tx interface {
	// GetTeam lock 为 true 时对队伍行加写锁，直到事务结束
	GetTeam(ctx context.Context, id uint, lock bool) (*types.Team, error)
	CreateTeam(ctx context.Context, team *types.Team) error
	UpdateTeam(ctx context.Context, id uint, patch *Patch) error
	DeleteTeam(ctx context.Context, id uint) error
	CountTeamsByOwner(ctx context.Context, ownerID uint) (int64, error)
	ListTeams(ctx context.Context, q *Query) ([]types.Team, error)

	// LockUser 对用户行加写锁，用于串行化同一用户的配额检查；用户不存在时返回 false
	LockUser(ctx context.Context, userID uint) (bool, error)
	ListUsersByIDs(ctx context.Context, ids []uint) ([]types.User, error)
	DeleteUser(ctx context.Context, id uint) (bool, error)

	CreateMembership(ctx context.Context, m *types.Membership) error
	HasMembership(ctx context.Context, userID, teamID uint) (bool, error)
	DeleteMembership(ctx context.Context, userID, teamID uint) (bool, error)
	DeleteMembershipsByTeam(ctx context.Context, teamID uint) error
	ListMembershipsByTeams(ctx context.Context, teamIDs []uint) ([]types.Membership, error)
	ListMembershipsByUser(ctx context.Context, userID uint) ([]types.Membership, error)
	CountMembers(ctx context.Context, teamID uint) (int64, error)
}

type Store interface {
	Tx
	// Transaction fn 返回错误时整体回滚
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}

// Patch 部分更新，nil 字段保持不变
type Patch struct {
	Name         *string
	Description  *string
	Status       *types.TeamStatus
	PasswordHash *string
	ExpireTime   *time.Time
	OwnerID      *uint
}

func (p *Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil &&
		p.PasswordHash == nil && p.ExpireTime == nil && p.OwnerID == nil
}

// Query 队伍查询条件，零值字段不参与过滤；结果按 id 升序
type Query struct {
	ID          uint
	IDs         []uint // nil 表示不过滤
	SearchText  string // 名称或描述包含
	Name        string
	Description string
	MaxNum      int
	OwnerID     uint
	Status      *types.TeamStatus
	VisibleTo   *uint     // 非 nil 时只返回公开队伍或该用户创建的队伍
	ActiveAt    time.Time // 非零时排除在此时刻已过期的队伍
	Offset      int
	Limit       int // <= 0 表示不分页
}

// Matches 供非 SQL 的存储实现复用的过滤逻辑
func (q *Query) Matches(t *types.Team) bool {
	if q.ID != 0 && t.ID != q.ID {
		return false
	}
	if q.IDs != nil {
		found := false
		for _, id := range q.IDs {
			if id == t.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.SearchText != "" && !contains(t.Name, q.SearchText) && !contains(t.Description, q.SearchText) {
		return false
	}
	if q.Name != "" && !contains(t.Name, q.Name) {
		return false
	}
	if q.Description != "" && !contains(t.Description, q.Description) {
		return false
	}
	if q.MaxNum > 0 && t.MaxNum != q.MaxNum {
		return false
	}
	if q.OwnerID != 0 && t.OwnerID != q.OwnerID {
		return false
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.VisibleTo != nil && t.Status != types.TeamStatusPublic && t.OwnerID != *q.VisibleTo {
		return false
	}
	if !q.ActiveAt.IsZero() && t.Expired(q.ActiveAt) {
		return false
	}
	return true
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
