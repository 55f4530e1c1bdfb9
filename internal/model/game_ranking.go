package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameRanking 派生表，每次重算整体替换
type GameRanking struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID       int64     `gorm:"not null;index" json:"game_id"`
	RankPosition int       `gorm:"not null" json:"rank"`
	RankDate     time.Time `gorm:"type:date;not null" json:"rank_date"`
}

func (GameRanking) TableName() string {
	return "game_rankings"
}

// RankedGame 排行榜行与游戏详情、销量的联表结果
type RankedGame struct {
	Rank       int             `gorm:"column:rank_position" json:"rank"`
	GameID     int64           `json:"game_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Image      *string         `json:"image"`
	TotalSales int64           `json:"total_sales"`
}
