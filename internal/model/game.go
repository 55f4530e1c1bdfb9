package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GameCategory struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"category_id"`
	CategoryName string `gorm:"type:varchar(64);uniqueIndex;not null" json:"category_name"`
}

func (GameCategory) TableName() string {
	return "game_categories"
}

// Game 商品目录，价格在购买时实时读取
type Game struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"game_id"`
	Name        string          `gorm:"type:varchar(128);index;not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Description *string         `gorm:"type:text" json:"description"`
	ReleaseDate *time.Time      `gorm:"type:date" json:"release_date"`
	Image       *string         `gorm:"type:varchar(512)" json:"image"`
	CategoryID  int64           `gorm:"index;not null" json:"category_id"`
	CreatedBy   int64           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Game) TableName() string {
	return "games"
}
