package team

import (
	"strings"
	"teamforge/app/server/constants"
	"teamforge/app/server/errs"
	"teamforge/app/server/types"
	"time"
	"unicode/utf8"
)

func validateMaxNum(maxNum int) error {
	if maxNum <= constants.TeamMaxNumLower || maxNum > constants.TeamMaxNumUpper {
		return errs.New(errs.InvalidArgument, "队伍人数不满足要求")
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > constants.TeamDescriptionMaxLen {
		return errs.New(errs.InvalidArgument, "队伍描述过长")
	}
	return nil
}

func parseStatus(code int) (types.TeamStatus, error) {
	status, ok := types.ParseTeamStatus(code)
	if !ok {
		return 0, errs.New(errs.InvalidArgument, "队伍状态不满足要求")
	}
	return status, nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" || utf8.RuneCountInString(password) > constants.TeamPasswordMaxLen {
		return errs.New(errs.InvalidArgument, "密码不能为空或者过长")
	}
	return nil
}

func validateExpireTime(expireTime *time.Time, now time.Time) error {
	if expireTime == nil || !expireTime.After(now) {
		return errs.New(errs.InvalidArgument, "过期时间必须晚于当前时间")
	}
	return nil
}
