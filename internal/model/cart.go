package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const CartStatusActive = "ACTIVE"

// Cart 每个用户只有一个 ACTIVE 购物车，注册时创建
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"cart_id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Status    string    `gorm:"type:varchar(16);not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem 同一购物车内同一游戏只能有一行，重复添加直接拒绝
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"cart_item_id"`
	CartID    int64     `gorm:"not null;uniqueIndex:idx_cart_game" json:"cart_id"`
	GameID    int64     `gorm:"not null;uniqueIndex:idx_cart_game" json:"game_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// CartLine 购物车行与游戏当前价格的联表结果
type CartLine struct {
	GameID   int64           `json:"game_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    *string         `json:"image"`
	Quantity int             `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
