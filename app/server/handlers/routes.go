package handlers

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"teamforge/app/server/apidocs"
	"teamforge/app/server/middlewares"
)

type authMode int

const (
	authNone     authMode = iota // 不解析令牌
	authOptional                 // 有令牌则解析，匿名也可以访问
	authRequired                 // 必须登录
)

type route struct {
	method  string
	path    string
	summary string
	tag     string
	auth    authMode
	handler echo.HandlerFunc
}

func (a *App) routes() []route {
	return []route{
		{http.MethodGet, "/api/healthcheck", "健康检查", "common", authNone, a.HealthCheck},

		{http.MethodPost, "/api/user/register", "注册", "user", authNone, a.UserRegister},
		{http.MethodPost, "/api/user/login", "登录", "user", authNone, a.UserLogin},
		{http.MethodPost, "/api/user/logout", "注销当前会话", "user", authRequired, a.UserLogout},
		{http.MethodGet, "/api/user/current", "当前用户", "user", authRequired, a.UserCurrent},
		{http.MethodGet, "/api/user/search", "按名称搜索用户（管理员）", "user", authRequired, a.UserSearch},
		{http.MethodGet, "/api/user/search/tags", "按标签搜索用户", "user", authNone, a.UserSearchByTags},
		{http.MethodGet, "/api/user/match", "推荐标签相似的用户", "user", authRequired, a.UserMatch},
		{http.MethodPost, "/api/user/update", "更新用户信息", "user", authRequired, a.UserUpdate},
		{http.MethodPost, "/api/user/delete", "删除用户（管理员）", "user", authRequired, a.UserDelete},

		{http.MethodPost, "/api/team/add", "创建队伍", "team", authRequired, a.TeamAdd},
		{http.MethodPost, "/api/team/update", "更新队伍", "team", authRequired, a.TeamUpdate},
		{http.MethodGet, "/api/team/get", "获取队伍", "team", authNone, a.TeamGet},
		{http.MethodGet, "/api/team/list", "查询队伍", "team", authOptional, a.TeamList},
		{http.MethodGet, "/api/team/list/my/create", "我创建的队伍", "team", authRequired, a.TeamListMyCreate},
		{http.MethodGet, "/api/team/list/my/join", "我加入的队伍", "team", authRequired, a.TeamListMyJoin},
		{http.MethodPost, "/api/team/join", "加入队伍", "team", authRequired, a.TeamJoin},
		{http.MethodPost, "/api/team/quit", "退出队伍", "team", authRequired, a.TeamQuit},
		{http.MethodPost, "/api/team/delete", "解散队伍", "team", authRequired, a.TeamDelete},
	}
}

// RegisterHandlers 绑定全部接口，返回的列表用于生成接口文档
func (a *App) RegisterHandlers(e *echo.Echo) []apidocs.Operation {
	required := middlewares.UserAuth(a.jwt, a.revoker, a.accounts, a.l, false)
	optional := middlewares.UserAuth(a.jwt, a.revoker, a.accounts, a.l, true)

	ops := make([]apidocs.Operation, 0, len(a.routes()))
	for _, r := range a.routes() {
		var m []echo.MiddlewareFunc
		switch r.auth {
		case authRequired:
			m = append(m, required)
		case authOptional:
			m = append(m, optional)
		}
		e.Add(r.method, r.path, r.handler, m...)

		ops = append(ops, apidocs.Operation{
			Method:  r.method,
			Path:    r.path,
			Summary: r.summary,
			Tag:     r.tag,
			Auth:    r.auth == authRequired,
		})
	}
	return ops
}
