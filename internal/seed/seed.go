// Package seed 写入演示用的分类、游戏和管理员账号
package seed

import (
	"context"
	"errors"
	"fmt"

	"gamestore/internal/model"
	"gamestore/internal/repository"
	"gamestore/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@gamestore.local"
	adminPassword = "admin123"
)

type demoGame struct {
	name     string
	price    string
	category string
}

var demoCategories = []string{"Action", "RPG", "Strategy", "Indie"}

var demoGames = []demoGame{
	{"Elden Ring", "59.99", "RPG"},
	{"Hades", "24.99", "Indie"},
	{"Civilization VI", "29.99", "Strategy"},
	{"DOOM Eternal", "39.99", "Action"},
	{"Stardew Valley", "14.99", "Indie"},
	{"The Witcher 3", "19.99", "RPG"},
	{"Age of Empires IV", "39.99", "Strategy"},
}

// DemoData 目录为空时写入演示数据，已有游戏则跳过
func DemoData(ctx context.Context, db *gorm.DB) error {
	games := repository.NewGameRepository(db)
	users := repository.NewUserRepository(db)

	count, err := games.Count(ctx)
	if err != nil {
		return fmt.Errorf("统计游戏数量失败: %w", err)
	}
	if count > 0 {
		logger.Info("[Seed] 游戏目录已有数据，跳过")
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin, err := ensureAdmin(ctx, tx, users)
		if err != nil {
			return err
		}

		categories := make([]*model.GameCategory, 0, len(demoCategories))
		for _, name := range demoCategories {
			categories = append(categories, &model.GameCategory{CategoryName: name})
		}
		if err := games.CreateCategories(ctx, tx, categories); err != nil {
			return fmt.Errorf("写入分类失败: %w", err)
		}
		byName := make(map[string]int64, len(categories))
		for _, c := range categories {
			byName[c.CategoryName] = c.ID
		}

		rows := make([]*model.Game, 0, len(demoGames))
		for _, g := range demoGames {
			rows = append(rows, &model.Game{
				Name:       g.name,
				Price:      decimal.RequireFromString(g.price),
				CategoryID: byName[g.category],
				CreatedBy:  admin.ID,
			})
		}
		if err := games.CreateGames(ctx, tx, rows); err != nil {
			return fmt.Errorf("写入游戏失败: %w", err)
		}

		logger.Infof("[Seed] 写入 %d 个分类、%d 个游戏", len(categories), len(rows))
		return nil
	})
}

func ensureAdmin(ctx context.Context, tx *gorm.DB, users *repository.UserRepository) (*model.User, error) {
	var admin model.User
	err := tx.WithContext(ctx).Where("email = ?", adminEmail).First(&admin).Error
	if err == nil {
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询管理员失败: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin = model.User{
		Username: "admin",
		Email:    adminEmail,
		Password: string(hash),
		Role:     model.RoleAdmin,
	}
	if err := users.Create(ctx, tx, &admin); err != nil {
		return nil, fmt.Errorf("创建管理员失败: %w", err)
	}
	if err := tx.WithContext(ctx).Create(&model.Cart{UserID: admin.ID, Status: model.CartStatusActive}).Error; err != nil {
		return nil, fmt.Errorf("创建管理员购物车失败: %w", err)
	}
	logger.Infof("[Seed] 创建管理员账号: %s", adminEmail)
	return &admin, nil
}
