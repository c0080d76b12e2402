package handlers

import (
	"github.com/labstack/echo/v4"
	"strconv"
	"teamforge/app/server/errs"
	"teamforge/app/server/team"
)

func (a *App) TeamAdd(c echo.Context) error {
	var req team.CreateRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}

	id, err := a.teams.CreateTeam(c.Request().Context(), &req, a.identity(c))
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, id)
}

func (a *App) TeamUpdate(c echo.Context) error {
	var req team.UpdateRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}
	if err := a.teams.UpdateTeam(c.Request().Context(), &req, a.identity(c)); err != nil {
		return a.er(c, err)
	}
	return a.ok(c, true)
}

func (a *App) TeamGet(c echo.Context) error {
	var id uint
	if err := echo.QueryParamsBinder(c).Uint("id", &id).BindError(); err != nil {
		return a.er(c, errs.New(errs.InvalidArgument, ""))
	}

	res, err := a.teams.GetTeam(c.Request().Context(), id)
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, res)
}

// bindListQuery status 为可选的整数，需要区分未提供与 0
func (a *App) bindListQuery(c echo.Context) (*team.ListQuery, error) {
	var q team.ListQuery
	if err := a.bind(c, &q); err != nil {
		return nil, err
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errs.New(errs.InvalidArgument, "队伍状态不满足要求")
		}
		q.Status = &status
	}
	return &q, nil
}

func (a *App) TeamList(c echo.Context) error {
	q, err := a.bindListQuery(c)
	if err != nil {
		return a.er(c, err)
	}

	res, err := a.teams.ListTeams(c.Request().Context(), q, a.identity(c))
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, res)
}

func (a *App) TeamListMyCreate(c echo.Context) error {
	q, err := a.bindListQuery(c)
	if err != nil {
		return a.er(c, err)
	}

	res, err := a.teams.ListMyCreated(c.Request().Context(), q, a.identity(c))
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, res)
}

func (a *App) TeamListMyJoin(c echo.Context) error {
	q, err := a.bindListQuery(c)
	if err != nil {
		return a.er(c, err)
	}

	res, err := a.teams.ListMyJoined(c.Request().Context(), q, a.identity(c))
	if err != nil {
		return a.er(c, err)
	}
	return a.ok(c, res)
}

func (a *App) TeamJoin(c echo.Context) error {
	var req team.JoinRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}
	if err := a.teams.JoinTeam(c.Request().Context(), &req, a.identity(c)); err != nil {
		return a.er(c, err)
	}
	return a.ok(c, true)
}

func (a *App) TeamQuit(c echo.Context) error {
	var req team.QuitRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}
	if err := a.teams.QuitTeam(c.Request().Context(), &req, a.identity(c)); err != nil {
		return a.er(c, err)
	}
	return a.ok(c, true)
}

func (a *App) TeamDelete(c echo.Context) error {
	var req DeleteRequest
	if err := a.bind(c, &req); err != nil {
		return a.er(c, err)
	}
	if err := a.teams.DeleteTeam(c.Request().Context(), req.ID, a.identity(c)); err != nil {
		return a.er(c, err)
	}
	return a.ok(c, true)
}
