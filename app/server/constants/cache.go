package constants

import "time"

// 会话相关的 redis key
const (
	CacheKeyRevokedToken = "teamforge:session:revoked:%s" // %s -> jti
)

const (
	// 吊销记录的最短保留时间，避免时钟误差导致过早失效
	CacheExpireRevokedTokenMin = 1 * time.Minute
)
