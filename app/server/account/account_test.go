package account_test

import (
	"context"
	"fmt"
	"strings"
	"teamforge/app/server/account"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/repo/memory"
	"teamforge/app/server/team"
	"teamforge/app/server/types"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var lightParams = &argon2id.Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func setup() (*account.Service, *memory.Store) {
	s, _, store := setupWithTeams()
	return s, store
}

func setupWithTeams() (*account.Service, *team.Manager, *memory.Store) {
	store := memory.New()
	teams := team.NewManager(zap.NewNop(), store, team.WithHashParams(lightParams))
	return account.NewService(zap.NewNop(), store, teams, account.WithHashParams(lightParams)), teams, store
}

func register(acct, studentID string) *account.RegisterRequest {
	return &account.RegisterRequest{
		Account:       acct,
		Password:      "password123",
		CheckPassword: "password123",
		StudentID:     studentID,
	}
}

func TestRegister_Validation(t *testing.T) {
	s, _ := setup()
	ctx := context.Background()

	cases := map[string]func(r *account.RegisterRequest){
		"blank account":       func(r *account.RegisterRequest) { r.Account = " " },
		"blank student id":    func(r *account.RegisterRequest) { r.StudentID = "" },
		"short password":      func(r *account.RegisterRequest) { r.Password, r.CheckPassword = "short", "short" },
		"password mismatch":   func(r *account.RegisterRequest) { r.CheckPassword = "password124" },
		"student id length":   func(r *account.RegisterRequest) { r.StudentID = "123" },
		"special character":   func(r *account.RegisterRequest) { r.Account = "bad name!" },
		"special character 2": func(r *account.RegisterRequest) { r.Account = "a@b" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := register("alice", "2024000001")
			mutate(req)
			_, err := s.Register(ctx, req)
			assert.True(t, errs.Is(err, errs.InvalidArgument), "got %v", err)
		})
	}

	_, err := s.Register(ctx, nil)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
}

func TestRegister_Duplicates(t *testing.T) {
	s, store := setup()
	ctx := context.Background()

	id, err := s.Register(ctx, register("alice", "2024000001"))
	require.NoError(t, err)
	require.NotZero(t, id)

	_, err = s.Register(ctx, register("alice", "2024000002"))
	assert.True(t, errs.Is(err, errs.Conflict))
	_, err = s.Register(ctx, register("bob", "2024000001"))
	assert.True(t, errs.Is(err, errs.Conflict))

	// 密码只保存哈希
	u, err := store.GetUser(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
}

func TestLogin(t *testing.T) {
	s, store := setup()
	ctx := context.Background()
	id, err := s.Register(ctx, register("alice", "2024000001"))
	require.NoError(t, err)

	user, err := s.Login(ctx, &account.LoginRequest{Account: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, types.RoleNormal, user.Role)

	_, wrongPassword := s.Login(ctx, &account.LoginRequest{Account: "alice", Password: "password124"})
	_, unknown := s.Login(ctx, &account.LoginRequest{Account: "nobody", Password: "password123"})
	assert.True(t, errs.Is(wrongPassword, errs.NotAuthenticated))
	assert.True(t, errs.Is(unknown, errs.NotAuthenticated))
	// 不泄露账号是否存在
	_, msg1 := errs.Public(wrongPassword)
	_, msg2 := errs.Public(unknown)
	assert.Equal(t, msg1, msg2)

	disabled := types.UserStatusDisabled
	require.NoError(t, store.UpdateUser(ctx, id, &account.Patch{Status: &disabled}))
	_, err = s.Login(ctx, &account.LoginRequest{Account: "alice", Password: "password123"})
	assert.True(t, errs.Is(err, errs.PermissionDenied))
}

func TestCurrentAndUpdate(t *testing.T) {
	s, store := setup()
	ctx := context.Background()
	aliceID, err := s.Register(ctx, register("alice", "2024000001"))
	require.NoError(t, err)
	bobID, err := s.Register(ctx, register("bob", "2024000002"))
	require.NoError(t, err)
	admin := &types.User{Account: "admin", Role: types.RoleAdmin, StudentID: "0000000000"}
	require.NoError(t, store.CreateUser(ctx, admin))

	alice := &types.Identity{ID: aliceID}
	bob := &types.Identity{ID: bobID}
	adminID := &types.Identity{ID: admin.ID, Role: types.RoleAdmin}

	name := "Alice"
	tags := []string{"go", "java", "go"}
	require.NoError(t, s.Update(ctx, alice, &account.UpdateRequest{ID: aliceID, Username: &name, Tags: &tags}))

	cur, err := s.Current(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice", cur.Username)
	assert.Equal(t, types.TagSet{"go", "java"}, cur.Tags)

	err = s.Update(ctx, bob, &account.UpdateRequest{ID: aliceID, Username: &name})
	assert.True(t, errs.Is(err, errs.PermissionDenied))
	err = s.Update(ctx, alice, &account.UpdateRequest{ID: aliceID})
	assert.True(t, errs.Is(err, errs.InvalidArgument))

	// 只有管理员可以修改状态
	status := int(types.UserStatusDisabled)
	err = s.Update(ctx, alice, &account.UpdateRequest{ID: aliceID, Status: &status})
	assert.True(t, errs.Is(err, errs.PermissionDenied))
	require.NoError(t, s.Update(ctx, adminID, &account.UpdateRequest{ID: bobID, Status: &status}))

	err = s.Update(ctx, adminID, &account.UpdateRequest{ID: 999, Username: &name})
	assert.True(t, errs.Is(err, errs.NotFound))

	_, err = s.Current(ctx, nil)
	assert.True(t, errs.Is(err, errs.NotAuthenticated))
}

func TestSearchAndDelete(t *testing.T) {
	s, store := setup()
	ctx := context.Background()
	aliceID, err := s.Register(ctx, register("alice", "2024000001"))
	require.NoError(t, err)
	_, err = s.Register(ctx, register("alicia", "2024000002"))
	require.NoError(t, err)
	admin := &types.User{Account: "admin", Role: types.RoleAdmin, StudentID: "0000000000"}
	require.NoError(t, store.CreateUser(ctx, admin))

	alice := &types.Identity{ID: aliceID}
	adminID := &types.Identity{ID: admin.ID, Role: types.RoleAdmin}

	_, err = s.Search(ctx, alice, "ali")
	assert.True(t, errs.Is(err, errs.PermissionDenied))

	users, err := s.Search(ctx, adminID, "ali")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	assert.True(t, errs.Is(s.Delete(ctx, alice, aliceID), errs.PermissionDenied))
	assert.True(t, errs.Is(s.Delete(ctx, adminID, 0), errs.InvalidArgument))
	assert.True(t, errs.Is(s.Delete(ctx, adminID, 999), errs.NotFound))
	require.NoError(t, s.Delete(ctx, adminID, aliceID))

	_, err = s.Current(ctx, alice)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestVerify(t *testing.T) {
	s, store := setup()
	ctx := context.Background()
	id, err := s.Register(ctx, register("alice", "2024000001"))
	require.NoError(t, err)

	identity, err := s.Verify(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &types.Identity{ID: id, Role: types.RoleNormal}, identity)

	// 令牌签发之后被禁用
	disabled := types.UserStatusDisabled
	require.NoError(t, store.UpdateUser(ctx, id, &account.Patch{Status: &disabled}))
	_, err = s.Verify(ctx, id)
	assert.True(t, errs.Is(err, errs.NotAuthenticated))

	_, err = s.Verify(ctx, 999)
	assert.True(t, errs.Is(err, errs.NotAuthenticated))
}

func TestDelete_LeavesTeams(t *testing.T) {
	s, teams, store := setupWithTeams()
	ctx := context.Background()

	ids := map[string]uint{}
	for i, name := range []string{"alice", "bob", "carol", "dave"} {
		id, err := s.Register(ctx, register(name, fmt.Sprintf("202400000%d", i)))
		require.NoError(t, err)
		ids[name] = id
	}
	admin := &types.User{Account: "admin", Role: types.RoleAdmin, StudentID: "0000000000"}
	require.NoError(t, store.CreateUser(ctx, admin))
	adminID := &types.Identity{ID: admin.ID, Role: types.RoleAdmin}
	as := func(name string) *types.Identity { return &types.Identity{ID: ids[name]} }

	expire := time.Now().Add(24 * time.Hour)
	create := func(owner string) uint {
		id, err := teams.CreateTeam(ctx, &team.CreateRequest{Name: owner, MaxNum: 2, ExpireTime: &expire}, as(owner))
		require.NoError(t, err)
		return id
	}

	// bob 是 alice 队伍的成员，同时创建了 carol 加入的队伍和一个只有自己的队伍
	aliceTeam := create("alice")
	require.NoError(t, teams.JoinTeam(ctx, &team.JoinRequest{TeamID: aliceTeam}, as("bob")))
	bobTeam := create("bob")
	require.NoError(t, teams.JoinTeam(ctx, &team.JoinRequest{TeamID: bobTeam}, as("carol")))
	bobSolo := create("bob")

	require.NoError(t, s.Delete(ctx, adminID, ids["bob"]))

	// 成员名额被释放
	require.NoError(t, teams.JoinTeam(ctx, &team.JoinRequest{TeamID: aliceTeam}, as("dave")))

	got, err := teams.GetTeam(ctx, bobTeam)
	require.NoError(t, err)
	assert.Equal(t, ids["carol"], got.OwnerID)

	_, err = teams.GetTeam(ctx, bobSolo)
	assert.True(t, errs.Is(err, errs.NotFound))

	memberships, err := store.ListMembershipsByUser(ctx, ids["bob"])
	require.NoError(t, err)
	assert.Empty(t, memberships)

	// 已删除的用户不能再创建队伍
	_, err = teams.CreateTeam(ctx, &team.CreateRequest{Name: "ghost", MaxNum: 2, ExpireTime: &expire}, as("bob"))
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestDelete_DisbandsWhenNoMemberCanTakeOver(t *testing.T) {
	s, teams, store := setupWithTeams()
	ctx := context.Background()

	aliceID, err := s.Register(ctx, register("alice", "2024000001"))
	require.NoError(t, err)
	bobID, err := s.Register(ctx, register("bob", "2024000002"))
	require.NoError(t, err)
	admin := &types.User{Account: "admin", Role: types.RoleAdmin, StudentID: "0000000000"}
	require.NoError(t, store.CreateUser(ctx, admin))
	alice := &types.Identity{ID: aliceID}
	bob := &types.Identity{ID: bobID}

	expire := time.Now().Add(24 * time.Hour)
	req := &team.CreateRequest{Name: "team", MaxNum: 3, ExpireTime: &expire}
	for range constants.TeamOwnedQuota {
		_, err := teams.CreateTeam(ctx, req, bob)
		require.NoError(t, err)
	}
	aliceTeam, err := teams.CreateTeam(ctx, req, alice)
	require.NoError(t, err)
	require.NoError(t, teams.JoinTeam(ctx, &team.JoinRequest{TeamID: aliceTeam}, bob))

	require.NoError(t, s.Delete(ctx, &types.Identity{ID: admin.ID, Role: types.RoleAdmin}, aliceID))

	_, err = teams.GetTeam(ctx, aliceTeam)
	assert.True(t, errs.Is(err, errs.NotFound))
	owned, err := store.CountTeamsByOwner(ctx, bobID)
	require.NoError(t, err)
	assert.Equal(t, int64(constants.TeamOwnedQuota), owned)
}
