package repository

import (
	"context"

	"gamestore/internal/model"

	"gorm.io/gorm"
)

type RankingRepository struct {
	db *gorm.DB
}

func NewRankingRepository(db *gorm.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

// Replace 整表替换：先清空再按名次写入
func (r *RankingRepository) Replace(ctx context.Context, tx *gorm.DB, rows []*model.GameRanking) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Where("1 = 1").Delete(&model.GameRanking{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&rows).Error
}

// ListRanked 排行榜联表游戏详情与当前销量
func (r *RankingRepository) ListRanked(ctx context.Context, tx *gorm.DB) ([]model.RankedGame, error) {
	if tx == nil {
		tx = r.db
	}
	ranked := make([]model.RankedGame, 0)
	err := tx.WithContext(ctx).
		Table("game_rankings AS r").
		Select("r.rank_position, r.game_id, g.name, g.price, g.image, COUNT(m.id) AS total_sales").
		Joins("JOIN games AS g ON g.id = r.game_id").
		Joins("LEFT JOIN my_games AS m ON m.game_id = r.game_id").
		Group("r.rank_position, r.game_id, g.name, g.price, g.image").
		Order("r.rank_position ASC").
		Scan(&ranked).Error
	return ranked, err
}
