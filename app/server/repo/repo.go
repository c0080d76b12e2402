package repo

import (
	"context"
	"errors"
	"fmt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"strings"
	"teamforge/app/server/account"
	"teamforge/app/server/errs"
	"teamforge/app/server/match"
	"teamforge/app/server/team"
)

var (
	_ team.Store    = (*Repo)(nil)
	_ account.Store = (*Repo)(nil)
	_ match.Store   = (*Repo)(nil)
)

// Repo 基于 gorm 的持久化实现，同时服务于队伍、账户与匹配
type Repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Transaction(ctx context.Context, fn func(tx team.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{db: tx})
	})
}

// translate 需要 gorm.Config{TranslateError: true}
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", errs.ErrDuplicate, err)
	}
	return err
}

func forUpdate(db *gorm.DB, lock bool) *gorm.DB {
	if lock {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
