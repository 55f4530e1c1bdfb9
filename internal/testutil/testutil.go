// Package testutil 为各层测试提供内存数据库、内存 Redis 和示例数据
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"gamestore/internal/config"
	"gamestore/internal/infrastructure/database"
	"gamestore/internal/model"
	"gamestore/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

// NewDB 每个测试独立的内存库；单连接，事务内只能使用 tx
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateUser 建用户并建空购物车，与注册流程一致
func CreateUser(t *testing.T, db *gorm.DB, name string, balance string) *model.User {
	t.Helper()

	user := &model.User{
		Username:      name,
		Email:         name + "@example.com",
		Password:      "x",
		WalletBalance: Money(balance),
		Role:          model.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&model.Cart{UserID: user.ID, Status: model.CartStatusActive}).Error)
	return user
}

func CreateGame(t *testing.T, db *gorm.DB, name string, price string) *model.Game {
	t.Helper()

	game := &model.Game{
		Name:       name,
		Price:      Money(price),
		CategoryID: 1,
		CreatedBy:  1,
	}
	require.NoError(t, db.Create(game).Error)
	return game
}

// PutInCart 直接写购物车行，绕过业务校验
func PutInCart(t *testing.T, db *gorm.DB, userID, gameID int64, quantity int) {
	t.Helper()

	var cart model.Cart
	require.NoError(t, db.Where("user_id = ?", userID).First(&cart).Error)
	require.NoError(t, db.Create(&model.CartItem{CartID: cart.ID, GameID: gameID, Quantity: quantity}).Error)
}

// GiveOwnership 直接写拥有记录，用于构造销量
func GiveOwnership(t *testing.T, db *gorm.DB, userID, gameID int64) {
	t.Helper()
	require.NoError(t, db.Create(&model.MyGame{UserID: userID, GameID: gameID}).Error)
}

func Balance(t *testing.T, db *gorm.DB, userID int64) decimal.Decimal {
	t.Helper()

	var user model.User
	require.NoError(t, db.WithContext(context.Background()).First(&user, userID).Error)
	return user.WalletBalance
}

// Config 测试用配置，Kafka 关闭
func Config() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "mysql"},
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				Purchase: "gamestore.purchase",
				Ranking:  "gamestore.ranking",
			},
		},
		Business: config.BusinessConfig{
			RankingSize:        5,
			RankingCandidates:  10,
			LockTimeoutSeconds: 30,
			MaxRetryCount:      3,
		},
		Log: config.LogConfig{Level: "error"},
	}
}

// FailCreate 让之后对 table 的 INSERT 返回错误，用于验证事务回滚
func FailCreate(t *testing.T, db *gorm.DB, table string) {
	t.Helper()

	err := db.Callback().Create().Before("gorm:create").Register("testutil:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("injected insert failure on " + table))
		}
	})
	require.NoError(t, err)
}
