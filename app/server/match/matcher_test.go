package match_test

import (
	"context"
	"fmt"
	"teamforge/app/server/account"
	"teamforge/app/server/errs"
	"teamforge/app/server/match"
	"teamforge/app/server/repo/memory"
	"teamforge/app/server/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store *memory.Store
	m     *match.Matcher
	n     int
}

func setup() *fixture {
	store := memory.New()
	return &fixture{
		store: store,
		m:     match.NewMatcher(zap.NewNop(), store),
	}
}

func (f *fixture) user(t *testing.T, tags ...string) *types.User {
	t.Helper()
	f.n++
	u := &types.User{
		Account:      fmt.Sprintf("u%d", f.n),
		PasswordHash: "secret-hash",
		Username:     fmt.Sprintf("u%d", f.n),
		Tags:         types.NewTagSet(tags...),
		StudentID:    fmt.Sprintf("%010d", f.n),
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func accounts(views []*types.UserView) []string {
	res := make([]string, 0, len(views))
	for _, v := range views {
		res = append(res, v.Account)
	}
	return res
}

func TestSearchUsersByTags(t *testing.T) {
	f := setup()
	ctx := context.Background()
	f.user(t, "java", "go")
	f.user(t, "go", "java", "rust")
	f.user(t, "python")

	res, err := f.m.SearchUsersByTags(ctx, []string{"java", "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, accounts(res))

	res, err = f.m.SearchUsersByTags(ctx, []string{"rust", " rust "})
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, accounts(res))

	res, err = f.m.SearchUsersByTags(ctx, []string{"c++"})
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = f.m.SearchUsersByTags(ctx, nil)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
	_, err = f.m.SearchUsersByTags(ctx, []string{" ", ""})
	assert.True(t, errs.Is(err, errs.InvalidArgument))
}

func TestMatchUsers_Ranking(t *testing.T) {
	f := setup()
	ctx := context.Background()
	self := f.user(t, "java", "go")
	far := f.user(t, "python", "c++", "rust") // 3
	near := f.user(t, "java", "go", "rust")   // 1
	tieA := f.user(t, "java")                 // 1
	exact := f.user(t, "java", "go")          // 0

	// 已禁用的用户不参与匹配
	disabled := f.user(t, "java", "go")
	status := types.UserStatusDisabled
	require.NoError(t, f.store.UpdateUser(ctx, disabled.ID, &account.Patch{Status: &status}))

	me := &types.Identity{ID: self.ID}
	res, err := f.m.MatchUsers(ctx, 3, me)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, exact.ID, res[0].ID)
	// 距离相同按 id 升序
	assert.Equal(t, near.ID, res[1].ID)
	assert.Equal(t, tieA.ID, res[2].ID)

	res, err = f.m.MatchUsers(ctx, 20, me)
	require.NoError(t, err)
	require.Len(t, res, 4)
	assert.Equal(t, far.ID, res[3].ID)
	for _, v := range res {
		assert.NotEqual(t, self.ID, v.ID)
		assert.NotEqual(t, disabled.ID, v.ID)
	}
}

func TestMatchUsers_Errors(t *testing.T) {
	f := setup()
	ctx := context.Background()
	self := f.user(t, "go")
	me := &types.Identity{ID: self.ID}

	_, err := f.m.MatchUsers(ctx, 1, nil)
	assert.True(t, errs.Is(err, errs.NotAuthenticated))
	_, err = f.m.MatchUsers(ctx, 0, me)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
	_, err = f.m.MatchUsers(ctx, 21, me)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
	_, err = f.m.MatchUsers(ctx, 1, &types.Identity{ID: 999})
	assert.True(t, errs.Is(err, errs.NotFound))

	res, err := f.m.MatchUsers(ctx, 5, me)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearchUsersByTags_RequiresEveryTag(t *testing.T) {
	f := setup()
	both := f.user(t, "python", "java", "sql")
	f.user(t, "java")
	f.user(t, "python")

	res, err := f.m.SearchUsersByTags(context.Background(), []string{"java", "python"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, both.ID, res[0].ID)
}
