package cache

import (
	"context"
	"fmt"
	"time"

	"gamestore/internal/config"
	"gamestore/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// NewRedis 创建客户端并 Ping 校验连通性
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	logger.Info("Redis 连接成功")
	return client, nil
}
