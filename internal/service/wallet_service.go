package service

import (
	"context"
	"errors"

	"gamestore/internal/model"
	"gamestore/internal/repository"
	"gamestore/pkg/idgen"
	"gamestore/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const depositNote = "Wallet Balance"

type WalletService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	walletRepo *repository.WalletRepository
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		walletRepo: repository.NewWalletRepository(db),
	}
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type DepositResult struct {
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	TransactionNo string          `json:"transaction_no"`
}

type History struct {
	Items    []*model.WalletTransaction `json:"items"`
	Total    int64                      `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
}

// Deposit 加锁读余额、加款、记一条 DEPOSIT 流水
func (s *WalletService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*DepositResult, error) {
	// 按分取整后再校验，0.004 这类金额视为 0
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, InvalidInput("amount must be greater than 0")
	}

	result := &DepositResult{UserID: userID, Amount: amount}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return NotFound("user not found")
			}
			return err
		}

		after := user.WalletBalance.Add(amount)
		if err := s.userRepo.SetBalance(ctx, tx, userID, after); err != nil {
			return err
		}

		entry := &model.WalletTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        userID,
			Type:          model.TransactionTypeDeposit,
			Note:          depositNote,
			Amount:        amount,
			BalanceBefore: user.WalletBalance,
			BalanceAfter:  after,
		}
		if err := s.walletRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		result.WalletBalance = after
		result.TransactionNo = entry.TransactionNo
		return nil
	})
	if err != nil {
		return nil, asError("deposit", err)
	}

	logger.Infof("充值成功: userID=%d, amount=%s, balance=%s", userID, amount, result.WalletBalance)
	return result, nil
}

func (s *WalletService) History(ctx context.Context, userID int64, page, pageSize int) (*History, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	if _, err := s.userRepo.GetByID(ctx, nil, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, StorageFailure("load user", err)
	}

	items, total, err := s.walletRepo.ListByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, StorageFailure("list wallet transactions", err)
	}
	return &History{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}
