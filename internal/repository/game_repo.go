package repository

import (
	"context"
	"errors"

	"gamestore/internal/model"

	"gorm.io/gorm"
)

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, tx *gorm.DB, gameID int64) (*model.Game, error) {
	if tx == nil {
		tx = r.db
	}
	var game model.Game
	err := tx.WithContext(ctx).Where("id = ?", gameID).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Game{}).Count(&count).Error
	return count, err
}

func (r *GameRepository) CreateCategories(ctx context.Context, tx *gorm.DB, categories []*model.GameCategory) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&categories).Error
}

func (r *GameRepository) CreateGames(ctx context.Context, tx *gorm.DB, games []*model.Game) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&games).Error
}
