package team

import (
	"cmp"
	"context"
	"errors"
	"github.com/alexedwards/argon2id"
	"go.uber.org/zap"
	"slices"
	"strings"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/types"
	"time"
)

// Manager 负责队伍与成员关系的全部一致性规则
type Manager struct {
	l          *zap.Logger
	store      Store
	now        func() time.Time
	hashParams *argon2id.Params
}

type Opts func(*Manager)

// WithClock 替换时间来源
func WithClock(now func() time.Time) Opts {
	return func(m *Manager) {
		m.now = now
	}
}

// WithHashParams 替换加密队伍密码的 argon2id 参数
func WithHashParams(params *argon2id.Params) Opts {
	return func(m *Manager) {
		m.hashParams = params
	}
}

func NewManager(l *zap.Logger, store Store, opts ...Opts) *Manager {
	m := &Manager{
		l:          l,
		store:      store,
		now:        time.Now,
		hashParams: argon2id.DefaultParams,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	MaxNum      int        `json:"maxNum"`
	Status      int        `json:"status"`
	Password    string     `json:"password"`
	ExpireTime  *time.Time `json:"expireTime"`
}

type UpdateRequest struct {
	ID          uint       `json:"id"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Status      *int       `json:"status"`
	Password    *string    `json:"password"`
	ExpireTime  *time.Time `json:"expireTime"`
}

type JoinRequest struct {
	TeamID   uint   `json:"teamId"`
	Password string `json:"password"`
}

type QuitRequest struct {
	TeamID uint `json:"teamId"`
}

// internal 把存储层错误包装为 Internal ，业务错误原样返回
func (m *Manager) internal(err error, msg string, fields ...zap.Field) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	m.l.Error(msg, append(fields, zap.Error(err))...)
	return errs.Wrap(errs.Internal, err, msg)
}

func requireIdentity(actor *types.Identity) error {
	if actor == nil || actor.ID == 0 {
		return errs.New(errs.NotAuthenticated, "")
	}
	return nil
}

// CreateTeam 创建队伍，创建者同时成为第一个成员
func (m *Manager) CreateTeam(ctx context.Context, req *CreateRequest, actor *types.Identity) (uint, error) {
	// 1. 请求与登录用户
	if req == nil {
		return 0, errs.New(errs.InvalidArgument, "")
	}
	if err := requireIdentity(actor); err != nil {
		return 0, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return 0, errs.New(errs.InvalidArgument, "队伍名称不能为空")
	}
	// 2. 人数
	if err := validateMaxNum(req.MaxNum); err != nil {
		return 0, err
	}
	// 3. 描述
	if err := validateDescription(req.Description); err != nil {
		return 0, err
	}
	// 4. 状态
	status, err := parseStatus(req.Status)
	if err != nil {
		return 0, err
	}
	// 5. 加密队伍的密码
	var passwordHash string
	if status == types.TeamStatusSecret {
		if err := validatePassword(req.Password); err != nil {
			return 0, err
		}
	}
	// 6. 过期时间
	now := m.now()
	if err := validateExpireTime(req.ExpireTime, now); err != nil {
		return 0, err
	}
	if status == types.TeamStatusSecret {
		if passwordHash, err = argon2id.CreateHash(req.Password, m.hashParams); err != nil {
			return 0, m.internal(err, "创建队伍失败")
		}
	}

	team := &types.Team{
		Name:         req.Name,
		Description:  req.Description,
		MaxNum:       req.MaxNum,
		Status:       status,
		PasswordHash: passwordHash,
		ExpireTime:   *req.ExpireTime,
		OwnerID:      actor.ID,
	}
	err = m.store.Transaction(ctx, func(tx Tx) error {
		// 7. 创建数量配额，锁住用户避免并发创建绕过检查
		exist, err := tx.LockUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !exist {
			return errs.New(errs.NotFound, "用户不存在")
		}
		owned, err := tx.CountTeamsByOwner(ctx, actor.ID)
		if err != nil {
			return err
		}
		if owned >= constants.TeamOwnedQuota {
			return errs.Newf(errs.Conflict, "用户最多创建 %d 个队伍", constants.TeamOwnedQuota)
		}

		if err := tx.CreateTeam(ctx, team); err != nil {
			return err
		}
		if team.ID == 0 {
			return errors.New("team id not assigned")
		}
		return tx.CreateMembership(ctx, &types.Membership{
			UserID:   actor.ID,
			TeamID:   team.ID,
			JoinTime: now,
		})
	})
	if err != nil {
		return 0, m.internal(err, "创建队伍失败", zap.Uint("userID", actor.ID))
	}

	m.l.Info("team created", zap.Uint("teamID", team.ID), zap.Uint("userID", actor.ID))
	return team.ID, nil
}

// UpdateTeam 部分更新，只有创建者或管理员可以操作
func (m *Manager) UpdateTeam(ctx context.Context, req *UpdateRequest, actor *types.Identity) error {
	if req == nil || req.ID == 0 {
		return errs.New(errs.InvalidArgument, "")
	}
	if err := requireIdentity(actor); err != nil {
		return err
	}

	err := m.store.Transaction(ctx, func(tx Tx) error {
		old, err := tx.GetTeam(ctx, req.ID, true)
		if err != nil {
			return err
		}
		if old == nil {
			return errs.New(errs.NotFound, "队伍不存在")
		}
		if !types.Can(actor, types.ActionUpdateTeam, types.Resource{OwnerID: old.OwnerID}) {
			m.l.Info("team update denied", zap.Uint("teamID", old.ID), zap.Uint("userID", actor.ID))
			return errs.New(errs.PermissionDenied, "")
		}

		patch, err := m.buildPatch(req, old)
		if err != nil {
			return err
		}
		if patch.Empty() {
			return errs.New(errs.InvalidArgument, "没有需要更新的字段")
		}
		return tx.UpdateTeam(ctx, old.ID, patch)
	})
	if err != nil {
		return m.internal(err, "更新队伍失败", zap.Uint("teamID", req.ID))
	}
	return nil
}

func (m *Manager) buildPatch(req *UpdateRequest, old *types.Team) (*Patch, error) {
	var patch Patch
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, errs.New(errs.InvalidArgument, "队伍名称不能为空")
		}
		patch.Name = req.Name
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return nil, err
		}
		patch.Description = req.Description
	}
	if req.ExpireTime != nil {
		if err := validateExpireTime(req.ExpireTime, m.now()); err != nil {
			return nil, err
		}
		patch.ExpireTime = req.ExpireTime
	}

	status := old.Status
	if req.Status != nil {
		s, err := parseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		status = s
		patch.Status = &s
	}

	switch {
	case req.Status != nil && status == types.TeamStatusSecret:
		// 改为加密队伍时必须提供新密码
		if req.Password == nil {
			return nil, errs.New(errs.InvalidArgument, "密码不能为空或者过长")
		}
		fallthrough
	case status == types.TeamStatusSecret && req.Password != nil:
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := argon2id.CreateHash(*req.Password, m.hashParams)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	case status != types.TeamStatusSecret && old.PasswordHash != "":
		empty := ""
		patch.PasswordHash = &empty
	}

	return &patch, nil
}

// JoinTeam 加入队伍
func (m *Manager) JoinTeam(ctx context.Context, req *JoinRequest, actor *types.Identity) error {
	if req == nil || req.TeamID == 0 {
		return errs.New(errs.InvalidArgument, "")
	}
	if err := requireIdentity(actor); err != nil {
		return err
	}

	err := m.store.Transaction(ctx, func(tx Tx) error {
		// 锁住队伍行，人数检查与插入之间不会有其他加入
		team, err := tx.GetTeam(ctx, req.TeamID, true)
		if err != nil {
			return err
		}
		if team == nil {
			return errs.New(errs.NotFound, "队伍不存在")
		}
		now := m.now()
		if team.Expired(now) {
			return errs.New(errs.Conflict, "队伍已过期")
		}

		members, err := tx.CountMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		if members >= int64(team.MaxNum) {
			return errs.New(errs.Conflict, "队伍已满")
		}

		joined, err := tx.HasMembership(ctx, actor.ID, team.ID)
		if err != nil {
			return err
		}
		if joined {
			return errs.New(errs.Conflict, "已加入该队伍")
		}

		// 不加锁，避免与删除用户时的加锁顺序相反
		users, err := tx.ListUsersByIDs(ctx, []uint{actor.ID})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return errs.New(errs.NotFound, "用户不存在")
		}

		if team.Status == types.TeamStatusSecret {
			match, _, err := argon2id.CheckHash(req.Password, team.PasswordHash)
			if err != nil {
				return err
			}
			if !match {
				return errs.New(errs.Conflict, "密码错误")
			}
		}

		err = tx.CreateMembership(ctx, &types.Membership{
			UserID:   actor.ID,
			TeamID:   team.ID,
			JoinTime: now,
		})
		if errors.Is(err, errs.ErrDuplicate) {
			return errs.New(errs.Conflict, "已加入该队伍")
		}
		return err
	})
	if err != nil {
		return m.internal(err, "加入队伍失败", zap.Uint("teamID", req.TeamID), zap.Uint("userID", actor.ID))
	}

	m.l.Info("team joined", zap.Uint("teamID", req.TeamID), zap.Uint("userID", actor.ID))
	return nil
}

// QuitTeam 退出队伍。最后一个成员退出时解散队伍；
// 创建者退出时队伍转交给最早加入且未达到创建配额的成员，没有这样的成员时拒绝退出
func (m *Manager) QuitTeam(ctx context.Context, req *QuitRequest, actor *types.Identity) error {
	if req == nil || req.TeamID == 0 {
		return errs.New(errs.InvalidArgument, "")
	}
	if err := requireIdentity(actor); err != nil {
		return err
	}

	err := m.store.Transaction(ctx, func(tx Tx) error {
		team, err := tx.GetTeam(ctx, req.TeamID, true)
		if err != nil {
			return err
		}
		if team == nil {
			return errs.New(errs.NotFound, "队伍不存在")
		}

		removed, err := tx.DeleteMembership(ctx, actor.ID, team.ID)
		if err != nil {
			return err
		}
		if !removed {
			return errs.New(errs.NotFound, "未加入该队伍")
		}
		return m.afterLeave(ctx, tx, team, actor.ID, false)
	})
	if err != nil {
		return m.internal(err, "退出队伍失败", zap.Uint("teamID", req.TeamID), zap.Uint("userID", actor.ID))
	}
	return nil
}

// RemoveUser 删除用户，并对其加入的每个队伍执行退出规则。
// 创建的队伍找不到接手的成员时直接解散
func (m *Manager) RemoveUser(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, errs.New(errs.InvalidArgument, "")
	}

	var deleted bool
	err := m.store.Transaction(ctx, func(tx Tx) error {
		exist, err := tx.LockUser(ctx, userID)
		if err != nil || !exist {
			return err
		}

		memberships, err := tx.ListMembershipsByUser(ctx, userID)
		if err != nil {
			return err
		}
		owned, err := tx.ListTeams(ctx, &Query{OwnerID: userID})
		if err != nil {
			return err
		}
		teamIDs := make([]uint, 0, len(memberships)+len(owned))
		for _, mb := range memberships {
			teamIDs = append(teamIDs, mb.TeamID)
		}
		for _, t := range owned {
			teamIDs = append(teamIDs, t.ID)
		}
		// 按 id 升序加锁
		slices.Sort(teamIDs)
		teamIDs = slices.Compact(teamIDs)

		for _, id := range teamIDs {
			team, err := tx.GetTeam(ctx, id, true)
			if err != nil {
				return err
			}
			if team == nil {
				continue
			}
			if _, err := tx.DeleteMembership(ctx, userID, id); err != nil {
				return err
			}
			if err := m.afterLeave(ctx, tx, team, userID, true); err != nil {
				return err
			}
		}

		deleted, err = tx.DeleteUser(ctx, userID)
		return err
	})
	if err != nil {
		return false, m.internal(err, "删除用户失败", zap.Uint("userID", userID))
	}
	return deleted, nil
}

// afterLeave 在成员关系删除后维护队伍。
// 创建者离开且没有可接手的成员时，disband 为 true 则解散队伍，否则返回冲突
func (m *Manager) afterLeave(ctx context.Context, tx Tx, team *types.Team, userID uint, disband bool) error {
	remaining, err := tx.ListMembershipsByTeams(ctx, []uint{team.ID})
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		m.l.Info("last member quit, team disbanded", zap.Uint("teamID", team.ID))
		return tx.DeleteTeam(ctx, team.ID)
	}
	if team.OwnerID != userID {
		return nil
	}

	next, ok, err := m.successor(ctx, tx, remaining)
	if err != nil {
		return err
	}
	if !ok {
		if !disband {
			return errs.Newf(errs.Conflict, "其他成员创建的队伍均已达到 %d 个，无法转交，请直接解散队伍", constants.TeamOwnedQuota)
		}
		m.l.Info("no member can take over, team disbanded", zap.Uint("teamID", team.ID), zap.Uint("from", userID))
		if err := tx.DeleteMembershipsByTeam(ctx, team.ID); err != nil {
			return err
		}
		return tx.DeleteTeam(ctx, team.ID)
	}

	m.l.Info("team ownership transferred",
		zap.Uint("teamID", team.ID), zap.Uint("from", userID), zap.Uint("to", next))
	return tx.UpdateTeam(ctx, team.ID, &Patch{OwnerID: &next})
}

// successor 按加入顺序找到第一个仍有创建配额的成员，锁住其用户行后计数
func (m *Manager) successor(ctx context.Context, tx Tx, members []types.Membership) (uint, bool, error) {
	slices.SortFunc(members, func(a, b types.Membership) int {
		if c := a.JoinTime.Compare(b.JoinTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for _, mb := range members {
		exist, err := tx.LockUser(ctx, mb.UserID)
		if err != nil {
			return 0, false, err
		}
		if !exist {
			continue
		}
		owned, err := tx.CountTeamsByOwner(ctx, mb.UserID)
		if err != nil {
			return 0, false, err
		}
		if owned < constants.TeamOwnedQuota {
			return mb.UserID, true, nil
		}
	}
	return 0, false, nil
}

// DeleteTeam 解散队伍，同时删除全部成员关系
func (m *Manager) DeleteTeam(ctx context.Context, id uint, actor *types.Identity) error {
	if id == 0 {
		return errs.New(errs.InvalidArgument, "")
	}
	if err := requireIdentity(actor); err != nil {
		return err
	}

	err := m.store.Transaction(ctx, func(tx Tx) error {
		team, err := tx.GetTeam(ctx, id, true)
		if err != nil {
			return err
		}
		if team == nil {
			return errs.New(errs.NotFound, "队伍不存在")
		}
		if !types.Can(actor, types.ActionDeleteTeam, types.Resource{OwnerID: team.OwnerID}) {
			m.l.Info("team delete denied", zap.Uint("teamID", id), zap.Uint("userID", actor.ID))
			return errs.New(errs.PermissionDenied, "")
		}
		if err := tx.DeleteMembershipsByTeam(ctx, id); err != nil {
			return err
		}
		return tx.DeleteTeam(ctx, id)
	})
	if err != nil {
		return m.internal(err, "解散队伍失败", zap.Uint("teamID", id))
	}

	m.l.Info("team deleted", zap.Uint("teamID", id), zap.Uint("userID", actor.ID))
	return nil
}
