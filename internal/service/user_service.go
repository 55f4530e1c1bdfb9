package service

import (
	"context"
	"errors"
	"strings"

	"gamestore/internal/model"
	"gamestore/internal/repository"
	"gamestore/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	cartRepo *repository.CartRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:       db,
		userRepo: repository.NewUserRepository(db),
		cartRepo: repository.NewCartRepository(db),
	}
}

type RegisterRequest struct {
	Username     string  `json:"username" binding:"required,max=64"`
	Email        string  `json:"email" binding:"required,email,max=128"`
	Password     string  `json:"password" binding:"required,min=6"`
	ProfileImage *string `json:"profile_image"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest 字段为空表示保持原值
type UpdateUserRequest struct {
	Username     *string `json:"username" binding:"omitempty,max=64"`
	ProfileImage *string `json:"profile_image" binding:"omitempty,max=512"`
}

// Register 用户与空购物车在同一事务中创建
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, InvalidInput("username, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, InvalidInput("password cannot be hashed")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		Password:     string(hash),
		ProfileImage: req.ProfileImage,
		Role:         model.RoleUser,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.userRepo.Exists(ctx, tx, username, email)
		if err != nil {
			return err
		}
		if exists {
			return Conflict(repository.ErrDuplicateUser.Error())
		}
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.cartRepo.Create(ctx, tx, &model.Cart{UserID: user.ID, Status: model.CartStatusActive})
	})
	if err != nil {
		return nil, asError("register user", err)
	}

	logger.Infof("用户注册成功: userID=%d, username=%s", user.ID, user.Username)
	return user, nil
}

// Login 邮箱不存在与密码错误返回同一错误
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, InvalidInput("invalid email or password")
		}
		return nil, StorageFailure("load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, InvalidInput("invalid email or password")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, StorageFailure("load user", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, StorageFailure("list users", err)
	}
	return users, nil
}

// Update 修改用户名与头像地址；头像的转码上传不在此处理，只保存地址
func (s *UserService) Update(ctx context.Context, userID int64, req *UpdateUserRequest) (*model.User, error) {
	var user *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return NotFound("user not found")
			}
			return err
		}

		username := current.Username
		if req.Username != nil {
			if trimmed := strings.TrimSpace(*req.Username); trimmed != "" {
				username = trimmed
			}
		}
		if username != current.Username {
			taken, err := s.userRepo.UsernameTaken(ctx, tx, username, userID)
			if err != nil {
				return err
			}
			if taken {
				return Conflict("username already taken")
			}
		}

		profileImage := current.ProfileImage
		if req.ProfileImage != nil && strings.TrimSpace(*req.ProfileImage) != "" {
			image := strings.TrimSpace(*req.ProfileImage)
			profileImage = &image
		}

		if err := s.userRepo.UpdateProfile(ctx, tx, userID, username, profileImage); err != nil {
			return err
		}
		current.Username = username
		current.ProfileImage = profileImage
		user = current
		return nil
	})
	if err != nil {
		return nil, asError("update user", err)
	}

	logger.Infof("用户信息已更新: userID=%d, username=%s", user.ID, user.Username)
	return user, nil
}
