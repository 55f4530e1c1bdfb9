package repository

import (
	"context"
	"errors"

	"gamestore/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, tx *gorm.DB, user *model.User) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Exists(ctx context.Context, tx *gorm.DB, username, email string) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

// UsernameTaken 用户名是否已被其他用户占用
func (r *UserRepository) UsernameTaken(ctx context.Context, tx *gorm.DB, username string, excludeID int64) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) GetByID(ctx context.Context, tx *gorm.DB, userID int64) (*model.User, error) {
	if tx == nil {
		tx = r.db
	}
	var user model.User
	err := tx.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 行锁读取，必须在事务内调用
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, userID int64) (*model.User, error) {
	var user model.User
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// SetBalance 写入已算好的余额；调用方需先 GetByIDForUpdate
func (r *UserRepository) SetBalance(ctx context.Context, tx *gorm.DB, userID int64, balance decimal.Decimal) error {
	return tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", balance).Error
}

func (r *UserRepository) UpdateProfile(ctx context.Context, tx *gorm.DB, userID int64, username string, profileImage *string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"username":      username,
			"profile_image": profileImage,
		}).Error
}
