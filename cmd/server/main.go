package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/panacea/internal/config"
	"github.com/panacea/internal/db"
	"github.com/panacea/internal/handler"
	"github.com/panacea/internal/reminder"
	"github.com/panacea/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	api := handler.NewAPI(db.DB)

	// 每日待办摘要
	tasks, chats, users, settings := api.Services()
	digest := reminder.New(tasks, chats, users, settings)
	if err := digest.Start(cfg.ReminderCron); err != nil {
		log.Fatalf("failed to start reminder scheduler: %v", err)
	}
	defer digest.Stop()

	// 设置并运行 Gin 服务器
	r := router.Setup(api, cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
