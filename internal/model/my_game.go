package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MyGame 拥有记录：既是防重复购买的依据，也是排行榜的销量来源
type MyGame struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"not null;uniqueIndex:idx_user_game" json:"user_id"`
	GameID      int64     `gorm:"not null;uniqueIndex:idx_user_game;index" json:"game_id"`
	PurchasedAt time.Time `gorm:"autoCreateTime" json:"purchased_at"`
}

func (MyGame) TableName() string {
	return "my_games"
}

// GameSales 按游戏聚合的拥有记录数
type GameSales struct {
	GameID     int64 `json:"game_id"`
	TotalSales int64 `json:"total_sales"`
}

// OwnedGame 游戏库视图
type OwnedGame struct {
	GameID      int64           `json:"game_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image"`
	PurchasedAt time.Time       `json:"purchased_at"`
}
