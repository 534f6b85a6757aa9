package main

import (
	"log"

	"github.com/blues/cfl/internal/config"
	"github.com/blues/cfl/internal/database"
	"github.com/blues/cfl/internal/event"
	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/logger"
	"github.com/blues/cfl/internal/router"
	"github.com/blues/cfl/internal/scheduler"
	"github.com/blues/cfl/internal/treasury"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Output, cfg.Log.File); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化事件分发器
	dispatcher, err := event.NewDispatcher(cfg.Event.PoolSize,
		event.NewJournalProcessor(db),
		event.NewLogProcessor(),
	)
	if err != nil {
		logger.Fatal("Failed to initialize event dispatcher: %v", err)
	}
	defer dispatcher.Close()

	// 初始化账本引擎
	engine, err := ledger.Init(db, cfg.Platform.OwnerAddress, cfg.Platform.FeeBasisPoints,
		treasury.NewJournal(db), dispatcher)
	if err != nil {
		logger.Fatal("Failed to initialize ledger engine: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, engine, cfg)

	// 启动定时任务
	manager := scheduler.Start(db, engine, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
