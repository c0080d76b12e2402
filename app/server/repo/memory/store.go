package memory

import (
	"context"
	"teamforge/app/server/account"
	"teamforge/app/server/team"
	"teamforge/app/server/types"
)

// 事务之外的单次操作，同样持有锁

func (s *Store) GetTeam(ctx context.Context, id uint, lock bool) (*types.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().GetTeam(ctx, id, lock)
}

func (s *Store) CreateTeam(ctx context.Context, tm *types.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().CreateTeam(ctx, tm)
}

func (s *Store) UpdateTeam(ctx context.Context, id uint, patch *team.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().UpdateTeam(ctx, id, patch)
}

func (s *Store) DeleteTeam(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().DeleteTeam(ctx, id)
}

func (s *Store) CountTeamsByOwner(ctx context.Context, ownerID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().CountTeamsByOwner(ctx, ownerID)
}

func (s *Store) ListTeams(ctx context.Context, q *team.Query) ([]types.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ListTeams(ctx, q)
}

func (s *Store) LockUser(ctx context.Context, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().LockUser(ctx, userID)
}

func (s *Store) CreateMembership(ctx context.Context, mb *types.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().CreateMembership(ctx, mb)
}

func (s *Store) HasMembership(ctx context.Context, userID, teamID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().HasMembership(ctx, userID, teamID)
}

func (s *Store) DeleteMembership(ctx context.Context, userID, teamID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().DeleteMembership(ctx, userID, teamID)
}

func (s *Store) DeleteMembershipsByTeam(ctx context.Context, teamID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().DeleteMembershipsByTeam(ctx, teamID)
}

func (s *Store) ListMembershipsByTeams(ctx context.Context, teamIDs []uint) ([]types.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ListMembershipsByTeams(ctx, teamIDs)
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID uint) ([]types.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ListMembershipsByUser(ctx, userID)
}

func (s *Store) CountMembers(ctx context.Context, teamID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().CountMembers(ctx, teamID)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().GetUser(ctx, id)
}

func (s *Store) GetUserByAccount(ctx context.Context, account string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().GetUserByAccount(ctx, account)
}

func (s *Store) ExistsAccount(ctx context.Context, account string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ExistsAccount(ctx, account)
}

func (s *Store) ExistsStudentID(ctx context.Context, studentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ExistsStudentID(ctx, studentID)
}

func (s *Store) CreateUser(ctx context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().CreateUser(ctx, u)
}

func (s *Store) UpdateUser(ctx context.Context, id uint, patch *account.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().UpdateUser(ctx, id, patch)
}

func (s *Store) DeleteUser(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().DeleteUser(ctx, id)
}

func (s *Store) SearchUsers(ctx context.Context, username string) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().SearchUsers(ctx, username)
}

func (s *Store) ListUsersByIDs(ctx context.Context, ids []uint) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ListUsersByIDs(ctx, ids)
}

func (s *Store) ListUsersByTags(ctx context.Context, required types.TagSet) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ListUsersByTags(ctx, required)
}

func (s *Store) ListMatchCandidates(ctx context.Context, excludeID uint) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().ListMatchCandidates(ctx, excludeID)
}
