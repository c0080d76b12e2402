package match

import (
	"cmp"
	"context"
	"errors"
	"go.uber.org/zap"
	"slices"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/types"
)

type Store interface {
	GetUser(ctx context.Context, id uint) (*types.User, error)
	// ListUsersByTags 返回标签包含全部 required 的用户
	ListUsersByTags(ctx context.Context, required types.TagSet) ([]types.User, error)
	// ListMatchCandidates 返回除 excludeID 之外所有未禁用的用户
	ListMatchCandidates(ctx context.Context, excludeID uint) ([]types.User, error)
}

type Matcher struct {
	l     *zap.Logger
	store Store
}

func NewMatcher(l *zap.Logger, store Store) *Matcher {
	return &Matcher{
		l:     l,
		store: store,
	}
}

func (m *Matcher) internal(err error, msg string, fields ...zap.Field) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	m.l.Error(msg, append(fields, zap.Error(err))...)
	return errs.Wrap(errs.Internal, err, msg)
}

// SearchUsersByTags 查找拥有全部指定标签的用户，结果已脱敏
func (m *Matcher) SearchUsersByTags(ctx context.Context, tags []string) ([]*types.UserView, error) {
	required := types.NewTagSet(tags...)
	if len(required) == 0 {
		return nil, errs.New(errs.InvalidArgument, "标签不能为空")
	}

	users, err := m.store.ListUsersByTags(ctx, required)
	if err != nil {
		return nil, m.internal(err, "搜索用户失败", zap.Strings("tags", required))
	}

	res := make([]*types.UserView, 0, len(users))
	for i := range users {
		// 存储层的过滤结果再确认一次
		if users[i].Tags.ContainsAll(required) {
			res = append(res, users[i].Desensitize())
		}
	}
	return res, nil
}

type scored struct {
	user     *types.User
	distance int
}

// MatchUsers 按标签编辑距离从小到大返回最相似的 num 个用户，距离相同时按 id 升序
func (m *Matcher) MatchUsers(ctx context.Context, num int, actor *types.Identity) ([]*types.UserView, error) {
	if actor == nil || actor.ID == 0 {
		return nil, errs.New(errs.NotAuthenticated, "")
	}
	if num <= 0 || num > constants.UserMatchMaxNum {
		return nil, errs.Newf(errs.InvalidArgument, "匹配数量必须在 1 到 %d 之间", constants.UserMatchMaxNum)
	}

	self, err := m.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, m.internal(err, "匹配用户失败", zap.Uint("userID", actor.ID))
	}
	if self == nil {
		return nil, errs.New(errs.NotFound, "用户不存在")
	}

	candidates, err := m.store.ListMatchCandidates(ctx, actor.ID)
	if err != nil {
		return nil, m.internal(err, "匹配用户失败", zap.Uint("userID", actor.ID))
	}

	ranked := make([]scored, 0, len(candidates))
	for i := range candidates {
		if candidates[i].ID == self.ID {
			continue
		}
		ranked = append(ranked, scored{
			user:     &candidates[i],
			distance: TagDistance(self.Tags, candidates[i].Tags),
		})
	}
	slices.SortFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		return cmp.Compare(a.user.ID, b.user.ID)
	})
	if len(ranked) > num {
		ranked = ranked[:num]
	}

	res := make([]*types.UserView, 0, len(ranked))
	for _, s := range ranked {
		res = append(res, s.user.Desensitize())
	}
	return res, nil
}
