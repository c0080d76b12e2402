// Package memory 进程内存储，用于测试与不依赖数据库的开发模式
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"teamforge/app/server/account"
	"teamforge/app/server/errs"
	"teamforge/app/server/match"
	"teamforge/app/server/team"
	"teamforge/app/server/types"
	"time"
)

var (
	_ team.Store    = (*Store)(nil)
	_ account.Store = (*Store)(nil)
	_ match.Store   = (*Store)(nil)
)

// Store 所有操作共用一把锁，事务在持锁期间执行，出错时恢复快照
type Store struct {
	mu   sync.Mutex
	data *data
	now  func() time.Time
}

func New() *Store {
	return &Store{
		data: &data{
			users:       map[uint]types.User{},
			teams:       map[uint]types.Team{},
			memberships: map[uint]types.Membership{},
		},
		now: time.Now,
	}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx team.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.tx()); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) tx() *tx {
	return &tx{d: s.data, now: s.now}
}

type data struct {
	users       map[uint]types.User
	teams       map[uint]types.Team
	memberships map[uint]types.Membership

	lastUserID, lastTeamID, lastMembershipID uint
}

func (d *data) clone() *data {
	c := *d
	c.users = make(map[uint]types.User, len(d.users))
	for id, u := range d.users {
		u.Tags = slices.Clone(u.Tags)
		c.users[id] = u
	}
	c.teams = maps.Clone(d.teams)
	c.memberships = maps.Clone(d.memberships)
	return &c
}

// tx 不加锁的操作集合，调用方负责持有 Store.mu
type tx struct {
	d   *data
	now func() time.Time
}

// sortedKeys 结果按 id 升序，与数据库实现保持一致
func sortedKeys[V any](m map[uint]V) []uint {
	return slices.Sorted(maps.Keys(m))
}

func cloneUser(u types.User) *types.User {
	u.Tags = slices.Clone(u.Tags)
	return &u
}

/* 队伍 */

func (t *tx) GetTeam(_ context.Context, id uint, _ bool) (*types.Team, error) {
	tm, ok := t.d.teams[id]
	if !ok {
		return nil, nil
	}
	return &tm, nil
}

func (t *tx) CreateTeam(_ context.Context, tm *types.Team) error {
	t.d.lastTeamID++
	now := t.now()
	tm.ID = t.d.lastTeamID
	tm.CreatedAt = now
	tm.UpdatedAt = now
	t.d.teams[tm.ID] = *tm
	return nil
}

func (t *tx) UpdateTeam(_ context.Context, id uint, patch *team.Patch) error {
	tm, ok := t.d.teams[id]
	if !ok {
		return nil
	}
	if patch.Name != nil {
		tm.Name = *patch.Name
	}
	if patch.Description != nil {
		tm.Description = *patch.Description
	}
	if patch.Status != nil {
		tm.Status = *patch.Status
	}
	if patch.PasswordHash != nil {
		tm.PasswordHash = *patch.PasswordHash
	}
	if patch.ExpireTime != nil {
		tm.ExpireTime = *patch.ExpireTime
	}
	if patch.OwnerID != nil {
		tm.OwnerID = *patch.OwnerID
	}
	tm.UpdatedAt = t.now()
	t.d.teams[id] = tm
	return nil
}

func (t *tx) DeleteTeam(_ context.Context, id uint) error {
	delete(t.d.teams, id)
	return nil
}

func (t *tx) CountTeamsByOwner(_ context.Context, ownerID uint) (int64, error) {
	var count int64
	for _, tm := range t.d.teams {
		if tm.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (t *tx) ListTeams(_ context.Context, q *team.Query) ([]types.Team, error) {
	res := []types.Team{}
	skipped := 0
	for _, id := range sortedKeys(t.d.teams) {
		tm := t.d.teams[id]
		if !q.Matches(&tm) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		res = append(res, tm)
		if q.Limit > 0 && len(res) >= q.Limit {
			break
		}
	}
	return res, nil
}

/* 成员关系 */

func (t *tx) CreateMembership(_ context.Context, mb *types.Membership) error {
	for _, existing := range t.d.memberships {
		if existing.UserID == mb.UserID && existing.TeamID == mb.TeamID {
			return errs.ErrDuplicate
		}
	}
	t.d.lastMembershipID++
	mb.ID = t.d.lastMembershipID
	t.d.memberships[mb.ID] = *mb
	return nil
}

func (t *tx) HasMembership(_ context.Context, userID, teamID uint) (bool, error) {
	for _, mb := range t.d.memberships {
		if mb.UserID == userID && mb.TeamID == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) DeleteMembership(_ context.Context, userID, teamID uint) (bool, error) {
	for id, mb := range t.d.memberships {
		if mb.UserID == userID && mb.TeamID == teamID {
			delete(t.d.memberships, id)
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) DeleteMembershipsByTeam(_ context.Context, teamID uint) error {
	maps.DeleteFunc(t.d.memberships, func(_ uint, mb types.Membership) bool {
		return mb.TeamID == teamID
	})
	return nil
}

func (t *tx) listMemberships(keep func(mb *types.Membership) bool) []types.Membership {
	res := []types.Membership{}
	for _, id := range sortedKeys(t.d.memberships) {
		mb := t.d.memberships[id]
		if keep(&mb) {
			res = append(res, mb)
		}
	}
	return res
}

func (t *tx) ListMembershipsByTeams(_ context.Context, teamIDs []uint) ([]types.Membership, error) {
	return t.listMemberships(func(mb *types.Membership) bool {
		return slices.Contains(teamIDs, mb.TeamID)
	}), nil
}

func (t *tx) ListMembershipsByUser(_ context.Context, userID uint) ([]types.Membership, error) {
	return t.listMemberships(func(mb *types.Membership) bool {
		return mb.UserID == userID
	}), nil
}

func (t *tx) CountMembers(_ context.Context, teamID uint) (int64, error) {
	var count int64
	for _, mb := range t.d.memberships {
		if mb.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

/* 用户 */

// LockUser 事务本身已经串行化，只确认用户存在
func (t *tx) LockUser(_ context.Context, userID uint) (bool, error) {
	_, ok := t.d.users[userID]
	return ok, nil
}

func (t *tx) listUsers(keep func(u *types.User) bool) []types.User {
	res := []types.User{}
	for _, id := range sortedKeys(t.d.users) {
		u := t.d.users[id]
		if keep(&u) {
			res = append(res, *cloneUser(u))
		}
	}
	return res
}

func (t *tx) findUser(pred func(u *types.User) bool) *types.User {
	for _, u := range t.d.users {
		if pred(&u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (t *tx) GetUser(_ context.Context, id uint) (*types.User, error) {
	u, ok := t.d.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (t *tx) GetUserByAccount(_ context.Context, account string) (*types.User, error) {
	return t.findUser(func(u *types.User) bool { return u.Account == account }), nil
}

func (t *tx) ExistsAccount(ctx context.Context, account string) (bool, error) {
	u, err := t.GetUserByAccount(ctx, account)
	return u != nil, err
}

func (t *tx) ExistsStudentID(_ context.Context, studentID string) (bool, error) {
	return t.findUser(func(u *types.User) bool { return u.StudentID == studentID }) != nil, nil
}

func (t *tx) CreateUser(_ context.Context, u *types.User) error {
	for _, existing := range t.d.users {
		if existing.Account == u.Account || (u.StudentID != "" && existing.StudentID == u.StudentID) {
			return errs.ErrDuplicate
		}
	}
	t.d.lastUserID++
	now := t.now()
	u.ID = t.d.lastUserID
	u.Tags = types.NewTagSet(u.Tags...)
	u.CreatedAt = now
	u.UpdatedAt = now
	t.d.users[u.ID] = *cloneUser(*u)
	return nil
}

func (t *tx) UpdateUser(_ context.Context, id uint, patch *account.Patch) error {
	u, ok := t.d.users[id]
	if !ok {
		return nil
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	if patch.Gender != nil {
		u.Gender = *patch.Gender
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Tags != nil {
		u.Tags = slices.Clone(*patch.Tags)
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	u.UpdatedAt = t.now()
	t.d.users[id] = u
	return nil
}

func (t *tx) DeleteUser(_ context.Context, id uint) (bool, error) {
	if _, ok := t.d.users[id]; !ok {
		return false, nil
	}
	delete(t.d.users, id)
	return true, nil
}

func (t *tx) SearchUsers(_ context.Context, username string) ([]types.User, error) {
	return t.listUsers(func(u *types.User) bool {
		return strings.Contains(u.Username, username)
	}), nil
}

func (t *tx) ListUsersByIDs(_ context.Context, ids []uint) ([]types.User, error) {
	return t.listUsers(func(u *types.User) bool {
		return slices.Contains(ids, u.ID)
	}), nil
}

func (t *tx) ListUsersByTags(_ context.Context, required types.TagSet) ([]types.User, error) {
	return t.listUsers(func(u *types.User) bool {
		return u.Tags.ContainsAll(required)
	}), nil
}

func (t *tx) ListMatchCandidates(_ context.Context, excludeID uint) ([]types.User, error) {
	return t.listUsers(func(u *types.User) bool {
		return u.ID != excludeID && u.Status == types.UserStatusNormal
	}), nil
}
