package middlewares

import (
	"context"
	"errors"
	"fmt"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/jwt"
	"teamforge/app/server/session"
	"teamforge/app/server/types"
)

// Verifier 确认令牌中的用户仍然有效，返回最新的身份
type Verifier interface {
	Verify(ctx context.Context, id uint) (*types.Identity, error)
}

// UserAuth 解析 Bearer 令牌，把 *jwt.User 存入 context 。
// 用户已被删除或禁用时，未过期的令牌同样无效。
// optional 为 true 时允许不携带令牌的匿名请求通过，但携带了无效令牌仍然拒绝
func UserAuth(j *jwt.JWT, revoker session.Revoker, users Verifier, l *zap.Logger, optional bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             constants.ContextKeySession,
		ContinueOnIgnoredError: optional,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			// 验证 token
			user, err := j.ParseUser(auth)
			if err != nil {
				return nil, err
			}

			// 已注销的会话
			revoked, err := revoker.Revoked(c.Request().Context(), user.TokenID)
			if err != nil {
				l.Error("failed to query revoked session", zap.Uint("userID", user.ID), zap.Error(err))
				return nil, fmt.Errorf("query revoked session: %w", err)
			}
			if revoked {
				return nil, errors.New("session revoked")
			}

			// 用户状态，角色以存储为准
			identity, err := users.Verify(c.Request().Context(), user.ID)
			if err != nil {
				return nil, err
			}
			user.Role = identity.Role

			return user, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var te *echojwt.TokenExtractionError
			if optional && errors.As(err, &te) {
				// 匿名访问
				return nil
			}
			// 交给全局的错误处理渲染
			var e *errs.Error
			if errors.As(err, &e) {
				return e
			}
			return errs.Wrap(errs.NotAuthenticated, err, "")
		},
	})
}

// Session 取出当前会话，未登录时返回 nil
func Session(c echo.Context) *jwt.User {
	user, _ := c.Get(constants.ContextKeySession).(*jwt.User)
	return user
}
