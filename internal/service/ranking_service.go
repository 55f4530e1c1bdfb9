package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamestore/internal/config"
	"gamestore/internal/infrastructure/lock"
	"gamestore/internal/model"
	"gamestore/internal/repository"
	"gamestore/pkg/logger"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const rankDateLayout = "2006-01-02"

type RankingService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	myGameRepo  *repository.MyGameRepository
	rankingRepo *repository.RankingRepository
	outboxRepo  *repository.OutboxRepository
}

func NewRankingService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *RankingService {
	return &RankingService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		myGameRepo:  repository.NewMyGameRepository(db),
		rankingRepo: repository.NewRankingRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type RankingResult struct {
	RankDate string             `json:"rank_date"`
	Top      []model.RankedGame `json:"top5"`
}

// Recompute 重算并整表替换排行榜
//
// 没有任何销量时返回 NotFound，已有排行榜保持不变。
func (s *RankingService) Recompute(ctx context.Context) (*RankingResult, error) {
	rankingLock := lock.NewRankingLock(s.redisClient, s.lockTTL())
	if err := rankingLock.LockWithDefaults(ctx); err != nil {
		if errors.Is(err, lock.ErrLockFailed) {
			return nil, &Error{Kind: KindConflict, Message: "ranking recomputation in progress", Err: err}
		}
		return nil, StorageFailure("acquire ranking lock", err)
	}
	defer func() {
		if err := rankingLock.Unlock(context.Background()); err != nil {
			logger.Warnf("释放排行榜锁失败: key=%s, err=%v", rankingLock.Key(), err)
		}
	}()

	candidates, err := s.myGameRepo.TopSellers(ctx, nil, s.cfg.Business.RankingCandidates)
	if err != nil {
		return nil, StorageFailure("aggregate sales", err)
	}
	if len(candidates) == 0 {
		return nil, NotFound("no sales data")
	}
	if len(candidates) > s.cfg.Business.RankingSize {
		candidates = candidates[:s.cfg.Business.RankingSize]
	}

	now := time.Now()
	rankDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	rows := make([]*model.GameRanking, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, &model.GameRanking{
			GameID:       c.GameID,
			RankPosition: i + 1,
			RankDate:     rankDate,
		})
	}

	var ranked []model.RankedGame
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rankingRepo.Replace(ctx, tx, rows); err != nil {
			return fmt.Errorf("替换排行榜失败: %w", err)
		}

		list, err := s.rankingRepo.ListRanked(ctx, tx)
		if err != nil {
			return fmt.Errorf("读取排行榜失败: %w", err)
		}
		ranked = list

		return s.writeOutbox(ctx, tx, rankDate, ranked)
	})
	if err != nil {
		return nil, asError("recompute ranking", err)
	}

	if len(ranked) < s.cfg.Business.RankingSize {
		logger.Warnf("排行榜不足 %d 条: 写入 %d 条, 读回 %d 条", s.cfg.Business.RankingSize, len(rows), len(ranked))
	}

	return &RankingResult{
		RankDate: rankDate.Format(rankDateLayout),
		Top:      ranked,
	}, nil
}

// Current 返回已存储的排行榜，不触发重算
func (s *RankingService) Current(ctx context.Context) ([]model.RankedGame, error) {
	ranked, err := s.rankingRepo.ListRanked(ctx, nil)
	if err != nil {
		return nil, StorageFailure("load ranking", err)
	}
	return ranked, nil
}

func (s *RankingService) writeOutbox(ctx context.Context, tx *gorm.DB, rankDate time.Time, ranked []model.RankedGame) error {
	gameIDs := make([]int64, 0, len(ranked))
	for _, r := range ranked {
		gameIDs = append(gameIDs, r.GameID)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"rank_date": rankDate.Format(rankDateLayout),
		"game_ids":  gameIDs,
	})
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	return s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: "ranking-" + rankDate.Format(rankDateLayout),
		Topic:      s.cfg.Kafka.Topic.Ranking,
		EventType:  model.EventRankingUpdated,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}

func (s *RankingService) lockTTL() time.Duration {
	if s.cfg.Business.LockTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.cfg.Business.LockTimeoutSeconds) * time.Second
}
