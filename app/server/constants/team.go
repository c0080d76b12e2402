package constants

// 队伍限制
const (
	TeamMaxNumUpper         = 20  // 队伍最大人数上限（含）
	TeamMaxNumLower         = 1   // 队伍最大人数必须严格大于此值
	TeamDescriptionMaxLen   = 512 // 队伍描述最大长度
	TeamPasswordMaxLen      = 32  // 加密队伍密码最大长度
	TeamOwnedQuota          = 5   // 每个用户最多创建的队伍数
	TeamListDefaultPageSize = 10
	TeamListMaxPageSize     = 100
)
