// finalize 一次性任务：将评价宽限期已过的指派标记为完成。
// 由外部调度器（cron / Kubernetes CronJob）周期性执行；rating.grace_period 为 0 时直接退出。
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/repository"
	"github.com/jlayese/translator-service-application/internal/service"
	"github.com/jlayese/translator-service-application/pkg/database"
	applogger "github.com/jlayese/translator-service-application/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "finalize")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Rating.GracePeriod <= 0 {
		logger.Info("未配置评价宽限期，跳过")
		return
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	repo := repository.NewRepository(db)
	ratings := service.NewRatingService(repo, cfg.Rating.GracePeriod, cfg.Database.QueryTimeout, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := ratings.FinalizeOverdue(ctx, time.Now())
	if err != nil {
		logger.Error("批量完成超期指派失败", zap.Int("finalized", n), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("批量完成超期指派", zap.Int("finalized", n))
}
