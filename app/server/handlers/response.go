package handlers

import (
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"net/http"
	"teamforge/app/server/errs"
	"teamforge/app/server/middlewares"
	"teamforge/app/server/types"
)

type Response struct {
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

var statusByKind = map[errs.Kind]int{
	errs.InvalidArgument:  http.StatusBadRequest,
	errs.NotAuthenticated: http.StatusUnauthorized,
	errs.PermissionDenied: http.StatusForbidden,
	errs.NotFound:         http.StatusNotFound,
	errs.Conflict:         http.StatusConflict,
	errs.Internal:         http.StatusInternalServerError,
}

func (a *App) ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, &Response{
		Code:    0,
		Data:    data,
		Message: "ok",
	})
}

// er 把业务错误渲染为对应的状态码，内部错误的细节不会返回给客户端
func (a *App) er(c echo.Context, err error) error {
	kind := errs.KindOf(err)
	code, msg := errs.Public(err)
	if kind == errs.Internal {
		a.l.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.JSON(statusByKind[kind], &Response{
		Code:    code,
		Message: msg,
	})
}

// bind 绑定失败统一视为参数错误
func (a *App) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		a.l.Debug("failed to bind request", zap.Error(err))
		return errs.New(errs.InvalidArgument, "")
	}
	return nil
}

// identity 当前登录用户，匿名请求返回 nil
func (a *App) identity(c echo.Context) *types.Identity {
	if user := middlewares.Session(c); user != nil {
		return user.Identity()
	}
	return nil
}

// HTTPErrorHandler 替换 echo 默认的错误处理，保持统一的返回结构
func (a *App) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && errs.KindOf(err) == errs.Internal {
		kind := errs.Internal
		for k, status := range statusByKind {
			if status == he.Code {
				kind = k
				break
			}
		}
		if kind == errs.Internal && he.Code < http.StatusInternalServerError {
			// 例如 405 ，沿用原始状态码
			_ = c.JSON(he.Code, &Response{Code: he.Code * 100, Message: fmt.Sprint(he.Message)})
			return
		}
		err = errs.Wrap(kind, he, "")
	}

	if rerr := a.er(c, err); rerr != nil {
		a.l.Error("failed to write error response", zap.Error(rerr))
	}
}
