package inits

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"teamforge/app/server/config"
	"teamforge/app/server/constants"
	"time"
)

func Config() (*config.Config, error) {
	// .env 文件是可选的，只在本地开发时使用
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg config.Config
	{
		mode, exist := os.LookupEnv("MODE")
		cfg.System.IsProd = exist && strings.HasPrefix(strings.ToLower(mode), "p")
	}

	if https, exist := os.LookupEnv("HTTPS"); exist {
		isHTTPS, err := strconv.ParseBool(https)
		if err != nil {
			return nil, fmt.Errorf("HTTPS should be a boolean: %w", err)
		}
		cfg.System.IsHTTPS = isHTTPS
	}

	if listen, exist := os.LookupEnv("LISTEN"); !exist {
		cfg.System.Listen = ":1323" // 默认监听地址
	} else {
		cfg.System.Listen = listen
	}

	switch storage := strings.ToLower(os.Getenv("STORAGE")); storage {
	case "", config.StoragePostgres:
		cfg.System.Storage = config.StoragePostgres
		if dbconn, exist := os.LookupEnv("DB_CONN"); !exist {
			return nil, fmt.Errorf("DB_CONN environment variable not set")
		} else {
			cfg.System.DBConnectionString = dbconn
		}
	case config.StorageMemory:
		cfg.System.Storage = config.StorageMemory
	default:
		return nil, fmt.Errorf("unknown STORAGE: %s", storage)
	}

	cfg.System.RedisConnectionString = os.Getenv("REDIS_CONN")

	if sigsk, exist := os.LookupEnv("SIGNATURE_SECRET_KEY"); !exist {
		return nil, fmt.Errorf("SIGNATURE_SECRET_KEY environment variable not set")
	} else {
		cfg.Security.SignatureSecretKey = sigsk
	}

	if durationStr, exist := os.LookupEnv("TOKEN_DURATION"); !exist {
		cfg.Security.TokenDuration = constants.AuthTokenDuration
	} else if d, err := time.ParseDuration(durationStr); err != nil || d <= 0 {
		return nil, fmt.Errorf("TOKEN_DURATION should be a valid positive duration")
	} else {
		cfg.Security.TokenDuration = d
	}

	return &cfg, nil
}
