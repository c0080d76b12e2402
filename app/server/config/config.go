package config

import "time"

type Config struct {
	System struct {
		IsProd                bool   // 是否为生产环境
		IsHTTPS               bool   // 是否部署在 HTTPS 之后，影响文档中声明的服务地址
		Listen                string // 监听地址
		Storage               string // 存储实现： postgres 或 memory
		DBConnectionString    string // Postgres 数据库的连接字符串
		RedisConnectionString string // Redis 数据库的连接字符串，留空则在进程内记录已注销的会话
	}
	Security struct {
		SignatureSecretKey string        // 签名密钥，用于签发 JWT ，更新会导致旧有会话失效
		TokenDuration      time.Duration // 令牌有效期
	}
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)
