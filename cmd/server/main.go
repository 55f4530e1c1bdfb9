package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamestore/internal/config"
	"gamestore/internal/handler"
	"gamestore/internal/infrastructure/cache"
	"gamestore/internal/infrastructure/database"
	"gamestore/internal/infrastructure/health"
	"gamestore/internal/infrastructure/mq"
	"gamestore/internal/job"
	"gamestore/internal/seed"
	"gamestore/internal/service"
	"gamestore/pkg/idgen"
	"gamestore/pkg/logger"
)

func main() {
	configPath := os.Getenv("GAMESTORE_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatalf("加载配置失败: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	if err := idgen.Init(int64(cfg.Server.WorkerID)); err != nil {
		logger.Fatalf("初始化 ID 生成器失败: %v", err)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close(db)

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := cache.NewRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatalf("初始化 Redis 失败: %v", err)
	}
	defer redisClient.Close()

	if cfg.Business.SeedDemoData {
		if err := seed.DemoData(ctx, db); err != nil {
			logger.Errorf("写入演示数据失败: %v", err)
		}
	}

	// 启动后台任务
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(&cfg.Kafka)
		if err != nil {
			logger.Fatalf("初始化 Kafka 失败: %v", err)
		}
		defer producer.Close()

		outboxSender := job.NewOutboxSender(db, producer, cfg)
		go outboxSender.Start(ctx)
	} else {
		logger.Warn("Kafka 未启用，outbox 消息只落库不投递")
	}

	if cfg.Business.RankingRefreshMinutes > 0 {
		rankingService := service.NewRankingService(db, redisClient, cfg)
		refreshJob := job.NewRankingRefreshJob(rankingService, time.Duration(cfg.Business.RankingRefreshMinutes)*time.Minute)
		go refreshJob.Start(ctx)
	}

	if cfg.Server.GRPCPort > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatalf("获取底层 DB 失败: %v", err)
		}
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			logger.Fatalf("gRPC 监听失败: %v", err)
		}
		healthServer := health.NewServer(sqlDB, 10*time.Second)
		go func() {
			logger.Infof("gRPC 健康检查启动，监听端口: %d", cfg.Server.GRPCPort)
			if err := healthServer.Run(ctx, lis); err != nil {
				logger.Errorf("gRPC 健康检查退出: %v", err)
			}
		}()
	}

	router := handler.SetupRouter(db, redisClient, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("服务启动，监听端口: %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("服务关闭异常: %v", err)
	}

	logger.Info("服务已关闭")
}
