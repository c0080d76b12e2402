package main

import (
	"context"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"log"
	"teamforge/app/server/account"
	"teamforge/app/server/apidocs"
	"teamforge/app/server/config"
	"teamforge/app/server/handlers"
	"teamforge/app/server/inits"
	"teamforge/app/server/jwt"
	"teamforge/app/server/match"
	"teamforge/app/server/repo"
	"teamforge/app/server/repo/memory"
	"teamforge/app/server/session"
	"teamforge/app/server/team"
)

func main() {
	// 初始化配置
	cfg, err := inits.Config()
	if err != nil {
		log.Fatal(fmt.Errorf("error loading config: %w", err))
	}

	// 初始化日志
	l, err := inits.Logger(!cfg.System.IsProd)
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing logger: %w", err))
	}
	defer l.Sync()

	// 切换日志系统
	l.Debug("logger initialized")

	// 初始化存储
	var (
		teamStore    team.Store
		accountStore account.Store
		matchStore   match.Store
		ping         func(ctx context.Context) error
	)
	switch cfg.System.Storage {
	case config.StorageMemory:
		l.Warn("using in-memory storage, all data will be lost on restart")
		store := memory.New()
		teamStore, accountStore, matchStore = store, store, store
	default:
		db, err := inits.DB(cfg.System.DBConnectionString)
		if err != nil {
			l.Fatal("error initializing DB connection", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			l.Fatal("error initializing DB connection", zap.Error(err))
		}
		store := repo.New(db)
		teamStore, accountStore, matchStore = store, store, store
		ping = sqlDB.PingContext
	}

	// 初始化 redis 连接，用于记录已注销的会话
	rdb, err := inits.Redis(cfg.System.RedisConnectionString)
	if err != nil {
		l.Fatal("error initializing Redis connection", zap.Error(err))
	}
	var revoker session.Revoker
	if rdb != nil {
		revoker = session.NewRedisRevoker(rdb)
	} else {
		l.Warn("REDIS_CONN not set, revoked sessions are kept in process memory")
		revoker = session.NewMemoryRevoker()
	}

	// 初始化 JWT
	j, err := jwt.New(cfg.Security.SignatureSecretKey)
	if err != nil {
		l.Fatal("error initializing JWT", zap.Error(err))
	}

	// 准备 handler app
	teams := team.NewManager(l.Named("team"), teamStore)
	handlerApp := handlers.NewApp(
		l,
		account.NewService(l.Named("account"), accountStore, teams),
		teams,
		match.NewMatcher(l.Named("match"), matchStore),
		j,
		revoker,
		cfg.Security.TokenDuration,
		handlers.WithPing(ping),
	)

	// 准备 echo 服务
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlerApp.HTTPErrorHandler
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l.Info("request",
				zap.String("URI", v.URI),
				zap.Int("status", v.Status),
			)

			return nil
		},
	}))
	e.Use(middleware.Recover())

	// 绑定 echo 服务
	ops := handlerApp.RegisterHandlers(e)

	// 添加 API 文档，生产环境只允许本机访问
	var docOpts []apidocs.Opts
	if cfg.System.IsHTTPS {
		docOpts = append(docOpts, apidocs.WithHTTPS())
	}
	if cfg.System.IsProd {
		docOpts = append(docOpts, apidocs.WithAuthorizer(apidocs.LocalOnly))
	}
	if doc, err := apidocs.Doc("/api", apidocs.Build("teamforge", "1.0.0", ops), docOpts...); err != nil {
		l.Error("error initializing api docs", zap.Error(err))
	} else {
		e.Pre(doc)
	}

	// 启动 echo 服务
	if err := e.Start(cfg.System.Listen); err != nil {
		l.Fatal("shutting down the server", zap.Error(err))
	}
}
