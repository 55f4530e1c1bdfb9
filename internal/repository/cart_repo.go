package repository

import (
	"context"
	"errors"

	"gamestore/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Create(ctx context.Context, tx *gorm.DB, cart *model.Cart) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(cart).Error
}

func (r *CartRepository) GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID int64) (*model.Cart, error) {
	if tx == nil {
		tx = r.db
	}
	var cart model.Cart
	err := tx.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateActive 正常情况下注册时已建好购物车，这里兜底补建
func (r *CartRepository) GetOrCreateActive(ctx context.Context, tx *gorm.DB, userID int64) (*model.Cart, error) {
	if tx == nil {
		tx = r.db
	}
	cart, err := r.GetActiveByUserID(ctx, tx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	err = tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&model.Cart{UserID: userID, Status: model.CartStatusActive}).Error
	if err != nil {
		return nil, err
	}
	return r.GetActiveByUserID(ctx, tx, userID)
}

func (r *CartRepository) ItemExists(ctx context.Context, tx *gorm.DB, cartID, gameID int64) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND game_id = ?", cartID, gameID).
		Count(&count).Error
	return count > 0, err
}

func (r *CartRepository) AddItem(ctx context.Context, tx *gorm.DB, item *model.CartItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (r *CartRepository) RemoveItem(ctx context.Context, tx *gorm.DB, cartID, gameID int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Where("cart_id = ? AND game_id = ?", cartID, gameID).
		Delete(&model.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// ListLines 购物车行联表游戏当前价格，按 game_id 升序，结算顺序即此顺序
func (r *CartRepository) ListLines(ctx context.Context, tx *gorm.DB, cartID int64) ([]model.CartLine, error) {
	if tx == nil {
		tx = r.db
	}
	lines := make([]model.CartLine, 0)
	err := tx.WithContext(ctx).
		Table("cart_items AS ci").
		Select("ci.game_id, g.name, g.price, g.image, ci.quantity").
		Joins("JOIN games AS g ON g.id = ci.game_id").
		Where("ci.cart_id = ?", cartID).
		Order("ci.game_id ASC").
		Scan(&lines).Error
	return lines, err
}
