package account

import (
	"context"
	"errors"
	"github.com/alexedwards/argon2id"
	"go.uber.org/zap"
	"regexp"
	"strings"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/types"
	"unicode/utf8"
)

// 账号只允许字母、数字、下划线和连字符
var validAccount = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

// Store 不存在的记录返回 nil, nil ，唯一约束冲突返回 errs.ErrDuplicate
type Store interface {
	GetUser(ctx context.Context, id uint) (*types.User, error)
	GetUserByAccount(ctx context.Context, account string) (*types.User, error)
	ExistsAccount(ctx context.Context, account string) (bool, error)
	ExistsStudentID(ctx context.Context, studentID string) (bool, error)
	CreateUser(ctx context.Context, user *types.User) error
	UpdateUser(ctx context.Context, id uint, patch *Patch) error
	SearchUsers(ctx context.Context, username string) ([]types.User, error)
}

// Patch 部分更新，nil 字段保持不变
type Patch struct {
	Username  *string
	AvatarURL *string
	Gender    *int
	Phone     *string
	Email     *string
	Tags      *types.TagSet
	Status    *types.UserStatus
}

func (p *Patch) Empty() bool {
	return p.Username == nil && p.AvatarURL == nil && p.Gender == nil && p.Phone == nil &&
		p.Email == nil && p.Tags == nil && p.Status == nil
}

// Remover 删除用户，同时维护其队伍与成员关系
type Remover interface {
	RemoveUser(ctx context.Context, userID uint) (bool, error)
}

type Service struct {
	l          *zap.Logger
	store      Store
	remover    Remover
	hashParams *argon2id.Params
}

type Opts func(*Service)

func WithHashParams(params *argon2id.Params) Opts {
	return func(s *Service) {
		s.hashParams = params
	}
}

func NewService(l *zap.Logger, store Store, remover Remover, opts ...Opts) *Service {
	s := &Service{
		l:          l,
		store:      store,
		remover:    remover,
		hashParams: argon2id.DefaultParams,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterRequest struct {
	Account       string `json:"userAccount"`
	Password      string `json:"userPassword"`
	CheckPassword string `json:"checkPassword"`
	StudentID     string `json:"studentId"`
}

type LoginRequest struct {
	Account  string `json:"userAccount"`
	Password string `json:"userPassword"`
}

type UpdateRequest struct {
	ID        uint      `json:"id"`
	Username  *string   `json:"username"`
	AvatarURL *string   `json:"avatarUrl"`
	Gender    *int      `json:"gender"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	Tags      *[]string `json:"tags"`
	Status    *int      `json:"userStatus"` // 仅管理员可修改
}

func (s *Service) internal(err error, msg string, fields ...zap.Field) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	s.l.Error(msg, append(fields, zap.Error(err))...)
	return errs.Wrap(errs.Internal, err, msg)
}

func isBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Register 注册，返回新用户 id
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (uint, error) {
	if req == nil || isBlank(req.Account, req.Password, req.CheckPassword, req.StudentID) {
		return 0, errs.New(errs.InvalidArgument, "参数为空")
	}
	if utf8.RuneCountInString(req.Password) < constants.UserPasswordMinLen ||
		utf8.RuneCountInString(req.CheckPassword) < constants.UserPasswordMinLen {
		return 0, errs.New(errs.InvalidArgument, "密码过短")
	}
	if req.Password != req.CheckPassword {
		return 0, errs.New(errs.InvalidArgument, "两次输入的密码不一致")
	}
	if utf8.RuneCountInString(req.StudentID) != constants.UserStudentIDLen {
		return 0, errs.New(errs.InvalidArgument, "学号格式错误")
	}
	if !validAccount.MatchString(req.Account) {
		return 0, errs.New(errs.InvalidArgument, "账户不能包含特殊字符")
	}

	if exist, err := s.store.ExistsAccount(ctx, req.Account); err != nil {
		return 0, s.internal(err, "注册失败")
	} else if exist {
		return 0, errs.New(errs.Conflict, "账号重复")
	}
	if exist, err := s.store.ExistsStudentID(ctx, req.StudentID); err != nil {
		return 0, s.internal(err, "注册失败")
	} else if exist {
		return 0, errs.New(errs.Conflict, "学号重复")
	}

	hash, err := argon2id.CreateHash(req.Password, s.hashParams)
	if err != nil {
		return 0, s.internal(err, "注册失败")
	}

	user := &types.User{
		Account:      req.Account,
		PasswordHash: hash,
		Username:     req.Account,
		Role:         types.RoleNormal,
		Status:       types.UserStatusNormal,
		Tags:         types.TagSet{},
		StudentID:    req.StudentID,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, errs.ErrDuplicate) {
			return 0, errs.New(errs.Conflict, "账号或学号重复")
		}
		return 0, s.internal(err, "注册失败")
	}

	s.l.Info("user registered", zap.Uint("userID", user.ID))
	return user.ID, nil
}

// Login 校验账号密码，返回脱敏后的用户
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*types.UserView, error) {
	if req == nil || isBlank(req.Account, req.Password) {
		return nil, errs.New(errs.InvalidArgument, "参数为空")
	}

	user, err := s.store.GetUserByAccount(ctx, req.Account)
	if err != nil {
		return nil, s.internal(err, "登录失败")
	}
	if user == nil {
		return nil, errs.New(errs.NotAuthenticated, "账号或密码错误")
	}

	match, _, err := argon2id.CheckHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, s.internal(err, "登录失败", zap.Uint("userID", user.ID))
	}
	if !match {
		return nil, errs.New(errs.NotAuthenticated, "账号或密码错误")
	}
	if user.Status == types.UserStatusDisabled {
		return nil, errs.New(errs.PermissionDenied, "账号已被禁用")
	}

	return user.Desensitize(), nil
}

// Current 重新从存储中读取当前用户
func (s *Service) Current(ctx context.Context, actor *types.Identity) (*types.UserView, error) {
	if actor == nil || actor.ID == 0 {
		return nil, errs.New(errs.NotAuthenticated, "")
	}
	user, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, s.internal(err, "获取用户失败", zap.Uint("userID", actor.ID))
	}
	if user == nil {
		return nil, errs.New(errs.NotFound, "用户不存在")
	}
	return user.Desensitize(), nil
}

// Verify 确认令牌对应的用户仍然存在且未被禁用，返回按存储中角色构造的身份
func (s *Service) Verify(ctx context.Context, id uint) (*types.Identity, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, s.internal(err, "校验用户失败", zap.Uint("userID", id))
	}
	if user == nil {
		return nil, errs.New(errs.NotAuthenticated, "用户不存在")
	}
	if user.Status == types.UserStatusDisabled {
		return nil, errs.New(errs.NotAuthenticated, "账号已被禁用")
	}
	return &types.Identity{ID: user.ID, Role: user.Role}, nil
}

// Search 管理员按显示名称模糊搜索用户
func (s *Service) Search(ctx context.Context, actor *types.Identity, username string) ([]*types.UserView, error) {
	if actor == nil || actor.ID == 0 {
		return nil, errs.New(errs.NotAuthenticated, "")
	}
	if !types.Can(actor, types.ActionSearchUsers, types.Resource{}) {
		return nil, errs.New(errs.PermissionDenied, "")
	}
	users, err := s.store.SearchUsers(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, s.internal(err, "搜索用户失败")
	}
	return types.DesensitizeAll(users), nil
}

// Update 管理员可以修改任何用户，普通用户只能修改自己
func (s *Service) Update(ctx context.Context, actor *types.Identity, req *UpdateRequest) error {
	if req == nil || req.ID == 0 {
		return errs.New(errs.InvalidArgument, "")
	}
	if actor == nil || actor.ID == 0 {
		return errs.New(errs.NotAuthenticated, "")
	}
	if !types.Can(actor, types.ActionUpdateUser, types.Resource{OwnerID: req.ID}) {
		return errs.New(errs.PermissionDenied, "")
	}

	patch := Patch{
		Username:  req.Username,
		AvatarURL: req.AvatarURL,
		Gender:    req.Gender,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	if req.Tags != nil {
		tags := types.NewTagSet(*req.Tags...)
		patch.Tags = &tags
	}
	if req.Status != nil {
		if !actor.IsAdmin() {
			return errs.New(errs.PermissionDenied, "")
		}
		status := types.UserStatus(*req.Status)
		if status != types.UserStatusNormal && status != types.UserStatusDisabled {
			return errs.New(errs.InvalidArgument, "用户状态不满足要求")
		}
		patch.Status = &status
	}
	if patch.Empty() {
		return errs.New(errs.InvalidArgument, "没有需要更新的字段")
	}

	user, err := s.store.GetUser(ctx, req.ID)
	if err != nil {
		return s.internal(err, "更新用户失败", zap.Uint("userID", req.ID))
	}
	if user == nil {
		return errs.New(errs.NotFound, "用户不存在")
	}
	if err := s.store.UpdateUser(ctx, req.ID, &patch); err != nil {
		return s.internal(err, "更新用户失败", zap.Uint("userID", req.ID))
	}
	return nil
}

// Delete 仅管理员可删除用户
func (s *Service) Delete(ctx context.Context, actor *types.Identity, id uint) error {
	if actor == nil || actor.ID == 0 {
		return errs.New(errs.NotAuthenticated, "")
	}
	if !types.Can(actor, types.ActionDeleteUser, types.Resource{OwnerID: id}) {
		return errs.New(errs.PermissionDenied, "")
	}
	if id == 0 {
		return errs.New(errs.InvalidArgument, "")
	}
	deleted, err := s.remover.RemoveUser(ctx, id)
	if err != nil {
		return s.internal(err, "删除用户失败", zap.Uint("userID", id))
	}
	if !deleted {
		return errs.New(errs.NotFound, "用户不存在")
	}
	s.l.Info("user deleted", zap.Uint("userID", id), zap.Uint("by", actor.ID))
	return nil
}
