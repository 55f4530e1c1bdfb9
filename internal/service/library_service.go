package service

import (
	"context"
	"errors"

	"gamestore/internal/model"
	"gamestore/internal/repository"

	"gorm.io/gorm"
)

type LibraryService struct {
	userRepo   *repository.UserRepository
	myGameRepo *repository.MyGameRepository
}

func NewLibraryService(db *gorm.DB) *LibraryService {
	return &LibraryService{
		userRepo:   repository.NewUserRepository(db),
		myGameRepo: repository.NewMyGameRepository(db),
	}
}

func (s *LibraryService) List(ctx context.Context, userID int64) ([]model.OwnedGame, error) {
	if _, err := s.userRepo.GetByID(ctx, nil, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, StorageFailure("load user", err)
	}

	games, err := s.myGameRepo.ListOwned(ctx, userID)
	if err != nil {
		return nil, StorageFailure("list owned games", err)
	}
	return games, nil
}
