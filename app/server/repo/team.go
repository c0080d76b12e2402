package repo

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"teamforge/app/server/models"
	"teamforge/app/server/team"
	"teamforge/app/server/types"
)

func teamFromModel(m *models.Team) *types.Team {
	return &types.Team{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		MaxNum:       m.MaxNum,
		Status:       types.TeamStatus(m.Status),
		PasswordHash: m.Password,
		ExpireTime:   m.ExpireTime,
		OwnerID:      m.OwnerID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func membershipFromModel(m *models.UserTeam) types.Membership {
	return types.Membership{
		ID:       m.ID,
		UserID:   m.UserID,
		TeamID:   m.TeamID,
		JoinTime: m.JoinTime,
	}
}

func (r *Repo) GetTeam(ctx context.Context, id uint, lock bool) (*types.Team, error) {
	var m models.Team
	if err := forUpdate(r.db.WithContext(ctx), lock).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return teamFromModel(&m), nil
}

func (r *Repo) CreateTeam(ctx context.Context, t *types.Team) error {
	m := models.Team{
		Name:        t.Name,
		Description: t.Description,
		MaxNum:      t.MaxNum,
		Status:      int(t.Status),
		Password:    t.PasswordHash,
		ExpireTime:  t.ExpireTime,
		OwnerID:     t.OwnerID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	t.ID = m.ID
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *Repo) UpdateTeam(ctx context.Context, id uint, patch *team.Patch) error {
	// 用 map 更新，空字符串等零值也会被写入
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Status != nil {
		updates["status"] = int(*patch.Status)
	}
	if patch.PasswordHash != nil {
		updates["password"] = *patch.PasswordHash
	}
	if patch.ExpireTime != nil {
		updates["expire_time"] = *patch.ExpireTime
	}
	if patch.OwnerID != nil {
		updates["user_id"] = *patch.OwnerID
	}
	if len(updates) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).Updates(updates).Error)
}

func (r *Repo) DeleteTeam(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Team{}, id).Error
}

func (r *Repo) CountTeamsByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Team{}).Where("user_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *Repo) ListTeams(ctx context.Context, q *team.Query) ([]types.Team, error) {
	db := r.db.WithContext(ctx).Model(&models.Team{})
	if q.ID != 0 {
		db = db.Where("id = ?", q.ID)
	}
	if q.IDs != nil {
		db = db.Where("id IN ?", q.IDs)
	}
	if q.SearchText != "" {
		like := likePattern(q.SearchText)
		db = db.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if q.Name != "" {
		db = db.Where("name LIKE ?", likePattern(q.Name))
	}
	if q.Description != "" {
		db = db.Where("description LIKE ?", likePattern(q.Description))
	}
	if q.MaxNum > 0 {
		db = db.Where("max_num = ?", q.MaxNum)
	}
	if q.OwnerID != 0 {
		db = db.Where("user_id = ?", q.OwnerID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", int(*q.Status))
	}
	if q.VisibleTo != nil {
		db = db.Where("status = ? OR user_id = ?", int(types.TeamStatusPublic), *q.VisibleTo)
	}
	if !q.ActiveAt.IsZero() {
		db = db.Where("expire_time >= ?", q.ActiveAt)
	}
	db = db.Order("id")
	if q.Limit > 0 {
		db = db.Offset(q.Offset).Limit(q.Limit)
	}

	var ms []models.Team
	if err := db.Find(&ms).Error; err != nil {
		return nil, err
	}
	teams := make([]types.Team, 0, len(ms))
	for i := range ms {
		teams = append(teams, *teamFromModel(&ms[i]))
	}
	return teams, nil
}

func (r *Repo) LockUser(ctx context.Context, userID uint) (bool, error) {
	var m models.User
	err := forUpdate(r.db.WithContext(ctx), true).Select("id").First(&m, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) CreateMembership(ctx context.Context, mb *types.Membership) error {
	m := models.UserTeam{
		UserID:   mb.UserID,
		TeamID:   mb.TeamID,
		JoinTime: mb.JoinTime,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	mb.ID = m.ID
	return nil
}

func (r *Repo) HasMembership(ctx context.Context, userID, teamID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserTeam{}).
		Where("user_id = ? AND team_id = ?", userID, teamID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repo) DeleteMembership(ctx context.Context, userID, teamID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND team_id = ?", userID, teamID).Delete(&models.UserTeam{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repo) DeleteMembershipsByTeam(ctx context.Context, teamID uint) error {
	return r.db.WithContext(ctx).Where("team_id = ?", teamID).Delete(&models.UserTeam{}).Error
}

func (r *Repo) ListMembershipsByTeams(ctx context.Context, teamIDs []uint) ([]types.Membership, error) {
	return r.listMemberships(ctx, "team_id IN ?", teamIDs)
}

func (r *Repo) ListMembershipsByUser(ctx context.Context, userID uint) ([]types.Membership, error) {
	return r.listMemberships(ctx, "user_id = ?", userID)
}

func (r *Repo) listMemberships(ctx context.Context, query string, args ...any) ([]types.Membership, error) {
	var ms []models.UserTeam
	if err := r.db.WithContext(ctx).Where(query, args...).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	res := make([]types.Membership, 0, len(ms))
	for i := range ms {
		res = append(res, membershipFromModel(&ms[i]))
	}
	return res, nil
}

func (r *Repo) CountMembers(ctx context.Context, teamID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserTeam{}).Where("team_id = ?", teamID).Count(&count).Error
	return count, err
}
