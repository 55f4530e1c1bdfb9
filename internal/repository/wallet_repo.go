package repository

import (
	"context"

	"gamestore/internal/model"

	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.WalletTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// ListByUserID 分页查询流水，最新在前
func (r *WalletRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.WalletTransaction, int64, error) {
	var (
		entries []*model.WalletTransaction
		total   int64
	)
	query := r.db.WithContext(ctx).Model(&model.WalletTransaction{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	return entries, total, err
}
