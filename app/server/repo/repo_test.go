package repo

import (
	"context"
	"sync"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/inits"
	"teamforge/app/server/team"
	"teamforge/app/server/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupTestRepo(t *testing.T) *Repo {
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("teamforge"),
		postgres.WithUsername("teamforge"),
		postgres.WithPassword("teamforge"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := inits.DB(connStr)
	require.NoError(t, err)

	return New(db)
}

func createUser(t *testing.T, r *Repo, account, studentID string, tags ...string) *types.User {
	u := &types.User{
		Account:      account,
		PasswordHash: "hash",
		Username:     account,
		Tags:         types.NewTagSet(tags...),
		StudentID:    studentID,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func TestRepo_Users(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	alice := createUser(t, r, "alice", "2024000001", "java", "go")
	createUser(t, r, "bob", "2024000002", "java", "go", "rust")
	createUser(t, r, "carol", "2024000003", "python")

	// 唯一约束
	err := r.CreateUser(ctx, &types.User{Account: "alice", StudentID: "2024000009"})
	assert.ErrorIs(t, err, errs.ErrDuplicate)
	err = r.CreateUser(ctx, &types.User{Account: "dave", StudentID: "2024000001"})
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	got, err := r.GetUserByAccount(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, types.TagSet{"java", "go"}, got.Tags)

	missing, err := r.GetUser(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	users, err := r.ListUsersByTags(ctx, types.NewTagSet("go", "java"))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = r.ListUsersByTags(ctx, types.NewTagSet("rust"))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Account)

	candidates, err := r.ListMatchCandidates(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	deleted, err := r.DeleteUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = r.DeleteUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// 软删除之后账号与学号可以重新注册
	exist, err := r.ExistsAccount(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exist)
	again := createUser(t, r, "alice", "2024000001")
	assert.NotEqual(t, alice.ID, again.ID)

	exist, err = r.LockUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, exist)
	exist, err = r.LockUser(ctx, again.ID)
	require.NoError(t, err)
	assert.True(t, exist)
}

func TestRepo_TeamTransaction(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	owner := createUser(t, r, "owner", "2024000010")

	tm := &types.Team{
		Name:       "backend",
		MaxNum:     3,
		Status:     types.TeamStatusPublic,
		ExpireTime: time.Now().Add(time.Hour),
		OwnerID:    owner.ID,
	}
	err := r.Transaction(ctx, func(tx team.Tx) error {
		if err := tx.CreateTeam(ctx, tm); err != nil {
			return err
		}
		return tx.CreateMembership(ctx, &types.Membership{UserID: owner.ID, TeamID: tm.ID, JoinTime: time.Now()})
	})
	require.NoError(t, err)
	require.NotZero(t, tm.ID)

	// 事务出错时整体回滚
	rolledBack := &types.Team{Name: "ghost", MaxNum: 2, ExpireTime: time.Now().Add(time.Hour), OwnerID: owner.ID}
	err = r.Transaction(ctx, func(tx team.Tx) error {
		if err := tx.CreateTeam(ctx, rolledBack); err != nil {
			return err
		}
		return tx.CreateMembership(ctx, &types.Membership{UserID: owner.ID, TeamID: tm.ID, JoinTime: time.Now()})
	})
	assert.ErrorIs(t, err, errs.ErrDuplicate)
	ghost, err := r.GetTeam(ctx, rolledBack.ID, false)
	require.NoError(t, err)
	assert.Nil(t, ghost)

	count, err := r.CountTeamsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	newName := "backend-2"
	require.NoError(t, r.UpdateTeam(ctx, tm.ID, &team.Patch{Name: &newName}))
	got, err := r.GetTeam(ctx, tm.ID, false)
	require.NoError(t, err)
	assert.Equal(t, newName, got.Name)

	teams, err := r.ListTeams(ctx, &team.Query{SearchText: "backend", ActiveAt: time.Now()})
	require.NoError(t, err)
	assert.Len(t, teams, 1)
	teams, err = r.ListTeams(ctx, &team.Query{ActiveAt: time.Now().Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, teams)

	require.NoError(t, r.DeleteMembershipsByTeam(ctx, tm.ID))
	members, err := r.CountMembers(ctx, tm.ID)
	require.NoError(t, err)
	assert.Zero(t, members)
}

func TestRepo_JoinRace(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	owner := createUser(t, r, "owner", "2024000020")
	joiners := []*types.User{
		createUser(t, r, "j1", "2024000021"),
		createUser(t, r, "j2", "2024000022"),
		createUser(t, r, "j3", "2024000023"),
		createUser(t, r, "j4", "2024000024"),
	}

	tm := &types.Team{Name: "race", MaxNum: 2, ExpireTime: time.Now().Add(time.Hour), OwnerID: owner.ID}
	require.NoError(t, r.CreateTeam(ctx, tm))
	require.NoError(t, r.CreateMembership(ctx, &types.Membership{UserID: owner.ID, TeamID: tm.ID, JoinTime: time.Now()}))

	// 只剩一个名额，行锁保证只有一个加入成功
	var wg sync.WaitGroup
	for _, u := range joiners {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_ = r.Transaction(ctx, func(tx team.Tx) error {
				if _, err := tx.GetTeam(ctx, tm.ID, true); err != nil {
					return err
				}
				n, err := tx.CountMembers(ctx, tm.ID)
				if err != nil {
					return err
				}
				if n >= int64(tm.MaxNum) {
					return errs.New(errs.Conflict, "")
				}
				return tx.CreateMembership(ctx, &types.Membership{UserID: userID, TeamID: tm.ID, JoinTime: time.Now()})
			})
		}(u.ID)
	}
	wg.Wait()

	members, err := r.CountMembers(ctx, tm.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, members)
}

func TestRepo_RemoveUser(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	m := team.NewManager(zap.NewNop(), r)
	owner := createUser(t, r, "owner", "2024000030")
	busy := createUser(t, r, "busy", "2024000031")
	free := createUser(t, r, "free", "2024000032")
	as := func(u *types.User) *types.Identity { return &types.Identity{ID: u.ID} }

	expire := time.Now().Add(time.Hour)
	req := &team.CreateRequest{Name: "team", MaxNum: 5, ExpireTime: &expire}
	for range constants.TeamOwnedQuota {
		_, err := m.CreateTeam(ctx, req, as(busy))
		require.NoError(t, err)
	}
	id, err := m.CreateTeam(ctx, req, as(owner))
	require.NoError(t, err)
	require.NoError(t, m.JoinTeam(ctx, &team.JoinRequest{TeamID: id}, as(busy)))
	require.NoError(t, m.JoinTeam(ctx, &team.JoinRequest{TeamID: id}, as(free)))

	deleted, err := m.RemoveUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// busy 已满配额，队伍转交给 free
	got, err := r.GetTeam(ctx, id, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, free.ID, got.OwnerID)
	members, err := r.CountMembers(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, members)

	// 已删除的用户不能再创建或加入队伍
	_, err = m.CreateTeam(ctx, req, as(owner))
	assert.True(t, errs.Is(err, errs.NotFound))
	assert.True(t, errs.Is(m.JoinTeam(ctx, &team.JoinRequest{TeamID: id}, as(owner)), errs.NotFound))
}
