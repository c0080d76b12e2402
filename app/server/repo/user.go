package repo

import (
	"context"
	"errors"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"teamforge/app/server/account"
	"teamforge/app/server/models"
	"teamforge/app/server/types"
)

func userFromModel(m *models.User) *types.User {
	return &types.User{
		ID:           m.ID,
		Account:      m.Account,
		PasswordHash: m.Password,
		Username:     m.Username,
		AvatarURL:    m.AvatarURL,
		Gender:       m.Gender,
		Phone:        m.Phone,
		Email:        m.Email,
		Role:         types.Role(m.Role),
		Status:       types.UserStatus(m.Status),
		Tags:         types.NewTagSet(m.Tags...),
		StudentID:    m.StudentID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func usersFromModels(ms []models.User) []types.User {
	users := make([]types.User, 0, len(ms))
	for i := range ms {
		users = append(users, *userFromModel(&ms[i]))
	}
	return users
}

func (r *Repo) firstUser(ctx context.Context, query string, args ...any) (*types.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return userFromModel(&m), nil
}

func (r *Repo) GetUser(ctx context.Context, id uint) (*types.User, error) {
	return r.firstUser(ctx, "id = ?", id)
}

func (r *Repo) GetUserByAccount(ctx context.Context, account string) (*types.User, error) {
	return r.firstUser(ctx, "account = ?", account)
}

func (r *Repo) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error
	return count > 0, err
}

func (r *Repo) ExistsAccount(ctx context.Context, account string) (bool, error) {
	return r.exists(ctx, "account = ?", account)
}

func (r *Repo) ExistsStudentID(ctx context.Context, studentID string) (bool, error) {
	return r.exists(ctx, "student_id = ?", studentID)
}

func (r *Repo) CreateUser(ctx context.Context, u *types.User) error {
	m := models.User{
		Account:   u.Account,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		Gender:    u.Gender,
		Phone:     u.Phone,
		Email:     u.Email,
		StudentID: u.StudentID,
		Role:      int(u.Role),
		Status:    int(u.Status),
		Tags:      pq.StringArray(types.NewTagSet(u.Tags...).Strings()),
		Password:  u.PasswordHash,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *Repo) UpdateUser(ctx context.Context, id uint, patch *account.Patch) error {
	updates := map[string]any{}
	if patch.Username != nil {
		updates["username"] = *patch.Username
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = *patch.AvatarURL
	}
	if patch.Gender != nil {
		updates["gender"] = *patch.Gender
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Tags != nil {
		updates["tags"] = pq.StringArray(patch.Tags.Strings())
	}
	if patch.Status != nil {
		updates["status"] = int(*patch.Status)
	}
	if len(updates) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error)
}

func (r *Repo) DeleteUser(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	return res.RowsAffected > 0, res.Error
}

func (r *Repo) SearchUsers(ctx context.Context, username string) ([]types.User, error) {
	db := r.db.WithContext(ctx).Order("id")
	if username != "" {
		db = db.Where("username LIKE ?", likePattern(username))
	}
	var ms []models.User
	if err := db.Find(&ms).Error; err != nil {
		return nil, err
	}
	return usersFromModels(ms), nil
}

func (r *Repo) ListUsersByIDs(ctx context.Context, ids []uint) ([]types.User, error) {
	if len(ids) == 0 {
		return []types.User{}, nil
	}
	var ms []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	return usersFromModels(ms), nil
}

// ListUsersByTags 使用数组包含运算符，由数据库完成超集判断
func (r *Repo) ListUsersByTags(ctx context.Context, required types.TagSet) ([]types.User, error) {
	var ms []models.User
	if err := r.db.WithContext(ctx).
		Where("tags @> ?", pq.StringArray(required.Strings())).
		Order("id").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return usersFromModels(ms), nil
}

func (r *Repo) ListMatchCandidates(ctx context.Context, excludeID uint) ([]types.User, error) {
	var ms []models.User
	if err := r.db.WithContext(ctx).
		Where("id <> ? AND status = ?", excludeID, int(types.UserStatusNormal)).
		Order("id").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return usersFromModels(ms), nil
}
