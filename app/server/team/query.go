package team

import (
	"context"
	"go.uber.org/zap"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/types"
)

type ListQuery struct {
	ID          uint   `query:"id"`
	IDs         []uint `query:"ids"`
	SearchText  string `query:"searchText"`
	Name        string `query:"name"`
	Description string `query:"description"`
	MaxNum      int    `query:"maxNum"`
	OwnerID     uint   `query:"userId"`
	Status      *int   // 可选参数，由调用方单独解析
	Page        int    `query:"pageNum"`
	PageSize    int    `query:"pageSize"`
}

func (q *ListQuery) toQuery() (*Query, error) {
	res := &Query{
		ID:          q.ID,
		IDs:         q.IDs,
		SearchText:  q.SearchText,
		Name:        q.Name,
		Description: q.Description,
		MaxNum:      q.MaxNum,
		OwnerID:     q.OwnerID,
	}
	if q.Status != nil {
		status, err := parseStatus(*q.Status)
		if err != nil {
			return nil, err
		}
		res.Status = &status
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = constants.TeamListDefaultPageSize
	} else if size > constants.TeamListMaxPageSize {
		size = constants.TeamListMaxPageSize
	}
	res.Offset = (page - 1) * size
	res.Limit = size
	return res, nil
}

// GetTeam 按 id 获取队伍
func (m *Manager) GetTeam(ctx context.Context, id uint) (*types.TeamView, error) {
	if id == 0 {
		return nil, errs.New(errs.InvalidArgument, "")
	}
	team, err := m.store.GetTeam(ctx, id, false)
	if err != nil {
		return nil, m.internal(err, "获取队伍失败", zap.Uint("teamID", id))
	}
	if team == nil {
		return nil, errs.New(errs.NotFound, "队伍不存在")
	}
	views, err := m.enrich(ctx, []types.Team{*team}, nil)
	if err != nil {
		return nil, m.internal(err, "获取队伍失败", zap.Uint("teamID", id))
	}
	return views[0], nil
}

// ListTeams 查询队伍。非管理员只能看到公开队伍和自己创建的队伍，已过期的队伍不展示
func (m *Manager) ListTeams(ctx context.Context, lq *ListQuery, actor *types.Identity) ([]*types.TeamView, error) {
	if lq == nil {
		lq = &ListQuery{}
	}
	q, err := lq.toQuery()
	if err != nil {
		return nil, err
	}
	return m.list(ctx, q, actor)
}

// ListMyCreated 当前用户创建的队伍
func (m *Manager) ListMyCreated(ctx context.Context, lq *ListQuery, actor *types.Identity) ([]*types.TeamView, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if lq == nil {
		lq = &ListQuery{}
	}
	q, err := lq.toQuery()
	if err != nil {
		return nil, err
	}
	q.OwnerID = actor.ID
	return m.list(ctx, q, actor)
}

// ListMyJoined 当前用户已加入的队伍
func (m *Manager) ListMyJoined(ctx context.Context, lq *ListQuery, actor *types.Identity) ([]*types.TeamView, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if lq == nil {
		lq = &ListQuery{}
	}
	q, err := lq.toQuery()
	if err != nil {
		return nil, err
	}

	memberships, err := m.store.ListMembershipsByUser(ctx, actor.ID)
	if err != nil {
		return nil, m.internal(err, "查询队伍失败", zap.Uint("userID", actor.ID))
	}
	if len(memberships) == 0 {
		return []*types.TeamView{}, nil
	}
	ids := make([]uint, 0, len(memberships))
	for _, mb := range memberships {
		ids = append(ids, mb.TeamID)
	}
	q.IDs = ids
	// 已加入的私有队伍对成员可见
	q.VisibleTo = nil
	q.ActiveAt = m.now()
	return m.query(ctx, q, actor)
}

func (m *Manager) list(ctx context.Context, q *Query, actor *types.Identity) ([]*types.TeamView, error) {
	if !actor.IsAdmin() {
		var viewer uint
		if actor != nil {
			viewer = actor.ID
		}
		q.VisibleTo = &viewer
	}
	q.ActiveAt = m.now()
	return m.query(ctx, q, actor)
}

func (m *Manager) query(ctx context.Context, q *Query, actor *types.Identity) ([]*types.TeamView, error) {
	teams, err := m.store.ListTeams(ctx, q)
	if err != nil {
		return nil, m.internal(err, "查询队伍失败")
	}
	views, err := m.enrich(ctx, teams, actor)
	if err != nil {
		return nil, m.internal(err, "查询队伍失败")
	}
	return views, nil
}

// enrich 附加创建人、已加入人数和当前用户是否已加入；成员关系只按队伍 id 集合查询一次
func (m *Manager) enrich(ctx context.Context, teams []types.Team, actor *types.Identity) ([]*types.TeamView, error) {
	views := make([]*types.TeamView, 0, len(teams))
	if len(teams) == 0 {
		return views, nil
	}

	teamIDs := make([]uint, 0, len(teams))
	ownerIDs := make([]uint, 0, len(teams))
	for i := range teams {
		teamIDs = append(teamIDs, teams[i].ID)
		ownerIDs = append(ownerIDs, teams[i].OwnerID)
	}

	memberships, err := m.store.ListMembershipsByTeams(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	joinNum := make(map[uint]int, len(teams))
	joined := make(map[uint]bool)
	for _, mb := range memberships {
		joinNum[mb.TeamID]++
		if actor != nil && mb.UserID == actor.ID {
			joined[mb.TeamID] = true
		}
	}

	owners, err := m.store.ListUsersByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	ownerByID := make(map[uint]*types.UserView, len(owners))
	for i := range owners {
		ownerByID[owners[i].ID] = owners[i].Desensitize()
	}

	for i := range teams {
		v := teams[i].View()
		v.Owner = ownerByID[v.OwnerID]
		v.HasJoinNum = joinNum[v.ID]
		v.HasJoin = joined[v.ID]
		views = append(views, v)
	}
	return views, nil
}
