package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeDeposit  = "DEPOSIT"
	TransactionTypePurchase = "PURCHASE"
)

// WalletTransaction 钱包流水，只追加不修改
// 每次充值一条；每个购买批次一条，note 为本批次游戏名
type WalletTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	Type          string          `gorm:"type:varchar(16);not null" json:"type"`
	Note          string          `gorm:"type:varchar(1024)" json:"note"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
