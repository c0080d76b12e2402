package handlers

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"teamforge/app/server/account"
	"teamforge/app/server/errs"
	"teamforge/app/server/jwt"
	"teamforge/app/server/middlewares"
	"teamforge/app/server/types"
	"time"
)

type LoginResult struct {
	Token string          `json:"token"`
	User  *types.UserView `json:"user"`
}

type DeleteRequest struct {
	ID uint `json:"id"`
}

func (a *App) UserRegister(c echo.Context) error {
	var req account.RegisterRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}

	id, err := a.accounts.Register(c.Request().Context(), &req)
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, id)
}

func (a *App) UserLogin(c echo.Context) error {
	var req account.LoginRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}

	user, err := a.accounts.Login(c.Request().Context(), &req)
	if err != nil {
		return a.er(c, err)
	}

	// 签出 JWT
	token, err := a.jwt.SignToken(&jwt.User{
		ID:      user.ID,
		Role:    user.Role,
		Expires: time.Now().Add(a.tokenDuration).Unix(),
	})
	if err != nil {
		a.l.Error("failed to sign token", zap.Uint("userID", user.ID), zap.Error(err))
		return a.er(c, err)
	}

	return a.ok(c, &LoginResult{
		Token: token,
		User:  user,
	})
}

func (a *App) UserLogout(c echo.Context) error {
	sess := middlewares.Session(c)
	if sess == nil {
		return a.er(c, errs.New(errs.NotAuthenticated, ""))
	}
	if err := a.revoker.Revoke(c.Request().Context(), sess.TokenID, sess.ExpiresAt()); err != nil {
		return a.er(c, err)
	}
	return a.ok(c, true)
}

func (a *App) UserCurrent(c echo.Context) error {
	user, err := a.accounts.Current(c.Request().Context(), a.identity(c))
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, user)
}

func (a *App) UserSearch(c echo.Context) error {
	users, err := a.accounts.Search(c.Request().Context(), a.identity(c), c.QueryParam("username"))
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, users)
}

func (a *App) UserSearchByTags(c echo.Context) error {
	users, err := a.matcher.SearchUsersByTags(c.Request().Context(), c.QueryParams()["tagNameList"])
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, users)
}

func (a *App) UserMatch(c echo.Context) error {
	var num int
	if err := echo.QueryParamsBinder(c).Int("num", &num).BindError(); err != nil {
		return a.er(c, errs.New(errs.InvalidArgument, ""))
	}

	users, err := a.matcher.MatchUsers(c.Request().Context(), num, a.identity(c))
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, users)
}

func (a *App) UserUpdate(c echo.Context) error {
	var req account.UpdateRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}
	if err := a.accounts.Update(c.Request().Context(), a.identity(c), &req); err != nil {
		return a.er(c, err)
	}
	return a.ok(c, true)
}

func (a *App) UserDelete(c echo.Context) error {
	var req DeleteRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}
	if err := a.accounts.Delete(c.Request().Context(), a.identity(c), req.ID); err != nil {
		return a.er(c, err)
	}
	return a.ok(c, true)
}
