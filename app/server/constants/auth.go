package constants

import "time"

const (
	AuthTokenDuration = 24 * time.Hour // 默认令牌有效期
)

// 账户限制
const (
	UserPasswordMinLen = 8
	UserStudentIDLen   = 10
	UserMatchMaxNum    = 20 // 单次匹配最多返回的用户数
)

const (
	ContextKeySession = "session" // echo context 中保存当前会话（*jwt.User）的 key
)
