package repository

import (
	"context"

	"gamestore/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create 必须传入业务事务，事件与业务数据一起提交或回滚
func (r *OutboxRepository) Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(msg).Error
}

func (r *OutboxRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*model.OutboxMessage, error) {
	var messages []*model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", model.OutboxStatusSent).Error
}

// RecordFailure 重试次数加一，达到上限后转为 FAILED 不再投递
func (r *OutboxRepository) RecordFailure(ctx context.Context, msg *model.OutboxMessage, maxRetry int) error {
	status := model.OutboxStatusPending
	if msg.RetryCount+1 >= maxRetry {
		status = model.OutboxStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"status":      status,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
}
