package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户表，钱包余额只会被充值和购买修改
type User struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Username      string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email         string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Password      string          `gorm:"type:varchar(128);not null" json:"-"` // bcrypt 哈希
	ProfileImage  *string         `gorm:"type:varchar(512)" json:"profile_image"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"wallet_balance"`
	Role          string          `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
