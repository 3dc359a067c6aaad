package main

import (
	"flag"
	"log"
	"path/filepath"

	"quiz_platform_backend/internal/app"
	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/pkg/logger"
)

// @title Quiz Platform API
// @version 1.0
// @description AI 出题与自适应作答服务
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("Database migration finished, exiting")
		return
	}

	application.WatchConfig(filepath.Join(*configDir, "config.yaml"))
	application.Run()
}
