package handlers

import (
	"context"
	"go.uber.org/zap"
	"teamforge/app/server/account"
	"teamforge/app/server/jwt"
	"teamforge/app/server/match"
	"teamforge/app/server/session"
	"teamforge/app/server/team"
	"time"
)

type App struct {
	l        *zap.Logger      // 日志
	accounts *account.Service // 账户
	teams    *team.Manager    // 队伍
	matcher  *match.Matcher   // 标签搜索与匹配
	jwt      *jwt.JWT         // JWT ，用于无状态验证
	revoker  session.Revoker  // 已注销的会话

	tokenDuration time.Duration
	ping          func(ctx context.Context) error // 健康检查时确认存储可用，可以为 nil
}

type Opts func(*App)

func WithPing(ping func(ctx context.Context) error) Opts {
	return func(a *App) {
		a.ping = ping
	}
}

func NewApp(
	l *zap.Logger,
	accounts *account.Service,
	teams *team.Manager,
	matcher *match.Matcher,
	j *jwt.JWT,
	revoker session.Revoker,
	tokenDuration time.Duration,
	opts ...Opts,
) *App {
	a := &App{
		l:             l,
		accounts:      accounts,
		teams:         teams,
		matcher:       matcher,
		jwt:           j,
		revoker:       revoker,
		tokenDuration: tokenDuration,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
