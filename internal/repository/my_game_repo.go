package repository

import (
	"context"

	"gamestore/internal/model"

	"gorm.io/gorm"
)

type MyGameRepository struct {
	db *gorm.DB
}

func NewMyGameRepository(db *gorm.DB) *MyGameRepository {
	return &MyGameRepository{db: db}
}

func (r *MyGameRepository) Create(ctx context.Context, tx *gorm.DB, owned *model.MyGame) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(owned).Error
}

func (r *MyGameRepository) Exists(ctx context.Context, tx *gorm.DB, userID, gameID int64) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.MyGame{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).Error
	return count > 0, err
}

// TopSellers 按拥有记录数降序，销量相同按 game_id 升序
func (r *MyGameRepository) TopSellers(ctx context.Context, tx *gorm.DB, limit int) ([]model.GameSales, error) {
	if tx == nil {
		tx = r.db
	}
	sales := make([]model.GameSales, 0, limit)
	err := tx.WithContext(ctx).
		Model(&model.MyGame{}).
		Select("game_id, COUNT(*) AS total_sales").
		Group("game_id").
		Order("total_sales DESC, game_id ASC").
		Limit(limit).
		Scan(&sales).Error
	return sales, err
}

func (r *MyGameRepository) ListOwned(ctx context.Context, userID int64) ([]model.OwnedGame, error) {
	games := make([]model.OwnedGame, 0)
	err := r.db.WithContext(ctx).
		Table("my_games AS m").
		Select("m.game_id, g.name, g.price, g.image, m.purchased_at").
		Joins("JOIN games AS g ON g.id = m.game_id").
		Where("m.user_id = ?", userID).
		Order("m.purchased_at DESC, m.game_id ASC").
		Scan(&games).Error
	return games, err
}
