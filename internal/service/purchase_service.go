package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamestore/internal/config"
	"gamestore/internal/infrastructure/lock"
	"gamestore/internal/model"
	"gamestore/internal/repository"
	"gamestore/pkg/idgen"
	"gamestore/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	userRepo    *repository.UserRepository
	cartRepo    *repository.CartRepository
	myGameRepo  *repository.MyGameRepository
	walletRepo  *repository.WalletRepository
	outboxRepo  *repository.OutboxRepository
}

func NewPurchaseService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PurchaseService {
	return &PurchaseService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		userRepo:    repository.NewUserRepository(db),
		cartRepo:    repository.NewCartRepository(db),
		myGameRepo:  repository.NewMyGameRepository(db),
		walletRepo:  repository.NewWalletRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type PurchaseRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

type PurchaseResult struct {
	UserID           int64           `json:"user_id"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PurchasedGames   []string        `json:"purchased_games"`
	TransactionNo    string          `json:"transaction_no"`
}

// Purchase 结算用户购物车中的全部游戏
//
// 按 game_id 升序逐项扣款，任意一项余额不足则整批回滚。
// 同一用户的结算先由 Redis 锁串行，事务内再对用户行加 FOR UPDATE。
func (s *PurchaseService) Purchase(ctx context.Context, userID int64) (*PurchaseResult, error) {
	purchaseLock := lock.NewPurchaseLock(s.redisClient, userID, s.lockTTL())
	if err := purchaseLock.LockWithDefaults(ctx); err != nil {
		if errors.Is(err, lock.ErrLockFailed) {
			return nil, &Error{Kind: KindConflict, Message: "purchase already in progress", Err: err}
		}
		return nil, StorageFailure("acquire purchase lock", err)
	}
	defer func() {
		if err := purchaseLock.Unlock(context.Background()); err != nil {
			logger.Warnf("释放结算锁失败: key=%s, err=%v", purchaseLock.Key(), err)
		}
	}()

	var result *PurchaseResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.checkout(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, asError("purchase", err)
	}

	logger.Infof("结算成功: userID=%d, total=%s, balance=%s, games=%v",
		userID, result.TotalSpent, result.RemainingBalance, result.PurchasedGames)
	return result, nil
}

func (s *PurchaseService) checkout(ctx context.Context, tx *gorm.DB, userID int64) (*PurchaseResult, error) {
	cart, err := s.cartRepo.GetActiveByUserID(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, NotFound("cart not found")
		}
		return nil, fmt.Errorf("查询购物车失败: %w", err)
	}

	lines, err := s.cartRepo.ListLines(ctx, tx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("查询购物车明细失败: %w", err)
	}
	if len(lines) == 0 {
		return nil, NotFound("cart is empty")
	}

	user, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	before := user.WalletBalance
	running := before
	total := decimal.Zero
	names := make([]string, 0, len(lines))
	gameIDs := make([]int64, 0, len(lines))

	for _, line := range lines {
		lineTotal := line.LineTotal()
		if running.LessThan(lineTotal) {
			return nil, InsufficientFunds(line.Name)
		}

		// 绕过加购校验写入的已拥有游戏，按冲突处理
		owned, err := s.myGameRepo.Exists(ctx, tx, userID, line.GameID)
		if err != nil {
			return nil, fmt.Errorf("查询拥有记录失败: %w", err)
		}
		if owned {
			return nil, Conflict(fmt.Sprintf("game already owned: %s", line.Name))
		}

		running = running.Sub(lineTotal)
		total = total.Add(lineTotal)

		if err := s.userRepo.SetBalance(ctx, tx, userID, running); err != nil {
			return nil, fmt.Errorf("更新余额失败: %w", err)
		}
		if err := s.myGameRepo.Create(ctx, tx, &model.MyGame{UserID: userID, GameID: line.GameID}); err != nil {
			return nil, fmt.Errorf("写入拥有记录失败: %w", err)
		}
		if err := s.cartRepo.RemoveItem(ctx, tx, cart.ID, line.GameID); err != nil {
			return nil, fmt.Errorf("移除购物车行失败: %w", err)
		}

		names = append(names, line.Name)
		gameIDs = append(gameIDs, line.GameID)
	}

	entry := &model.WalletTransaction{
		TransactionNo: idgen.GeneratePurchaseNo(),
		UserID:        userID,
		Type:          model.TransactionTypePurchase,
		Note:          strings.Join(names, ", "),
		Amount:        total,
		BalanceBefore: before,
		BalanceAfter:  running,
	}
	if err := s.walletRepo.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("记录流水失败: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"transaction_no":    entry.TransactionNo,
		"user_id":           userID,
		"game_ids":          gameIDs,
		"total_spent":       total.StringFixed(2),
		"remaining_balance": running.StringFixed(2),
		"purchased_at":      time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("序列化消息失败: %w", err)
	}
	outboxMsg := &model.OutboxMessage{
		MessageKey: entry.TransactionNo,
		Topic:      s.cfg.Kafka.Topic.Purchase,
		EventType:  model.EventPurchaseCompleted,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
		return nil, fmt.Errorf("写入消息失败: %w", err)
	}

	return &PurchaseResult{
		UserID:           userID,
		TotalSpent:       total,
		RemainingBalance: running,
		PurchasedGames:   names,
		TransactionNo:    entry.TransactionNo,
	}, nil
}

func (s *PurchaseService) lockTTL() time.Duration {
	if s.cfg.Business.LockTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.cfg.Business.LockTimeoutSeconds) * time.Second
}
