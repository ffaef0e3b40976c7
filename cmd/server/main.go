package main

import (
	"log"
	"time"

	"github.com/hearthpoints/internal/config"
	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/router"
	"github.com/hearthpoints/internal/service"
	"github.com/hearthpoints/internal/telemetry"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 每日账本快照任务
	ledger := service.NewLedgerService(db.DB)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SnapshotSpec, func() {
		rows, err := ledger.SnapshotAll(time.Now())
		if err != nil {
			log.Printf("ledger snapshot failed: %v", err)
			return
		}
		telemetry.SnapshotRowsTotal.Add(float64(rows))
		log.Printf("ledger snapshot wrote %d rows", rows)
	}); err != nil {
		log.Fatalf("failed to schedule ledger snapshot: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg, db.DB)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
