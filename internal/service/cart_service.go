package service

import (
	"context"
	"errors"

	"gamestore/internal/model"
	"gamestore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	gameRepo   *repository.GameRepository
	cartRepo   *repository.CartRepository
	myGameRepo *repository.MyGameRepository
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		gameRepo:   repository.NewGameRepository(db),
		cartRepo:   repository.NewCartRepository(db),
		myGameRepo: repository.NewMyGameRepository(db),
	}
}

type AddCartItemRequest struct {
	UserID   int64 `json:"user_id" binding:"required,gt=0"`
	GameID   int64 `json:"game_id" binding:"required,gt=0"`
	Quantity *int  `json:"quantity"`
}

type RemoveCartItemRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
	GameID int64 `json:"game_id" binding:"required,gt=0"`
}

type CartItemView struct {
	GameID    int64           `json:"game_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     *string         `json:"image"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	UserID     int64           `json:"user_id"`
	Items      []CartItemView  `json:"items"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Add quantity 为空时按 1 处理；已拥有或已在购物车中的游戏拒绝添加
func (s *CartService) Add(ctx context.Context, userID, gameID int64, quantity *int) (*model.CartItem, error) {
	qty := 1
	if quantity != nil {
		qty = *quantity
	}
	if qty < 1 {
		return nil, InvalidInput("quantity must be at least 1")
	}

	item := &model.CartItem{GameID: gameID, Quantity: qty}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.GetByID(ctx, tx, userID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return NotFound("user not found")
			}
			return err
		}
		if _, err := s.gameRepo.GetByID(ctx, tx, gameID); err != nil {
			if errors.Is(err, repository.ErrGameNotFound) {
				return NotFound("game not found")
			}
			return err
		}

		owned, err := s.myGameRepo.Exists(ctx, tx, userID, gameID)
		if err != nil {
			return err
		}
		if owned {
			return Conflict("game already owned")
		}

		cart, err := s.cartRepo.GetOrCreateActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		inCart, err := s.cartRepo.ItemExists(ctx, tx, cart.ID, gameID)
		if err != nil {
			return err
		}
		if inCart {
			return Conflict(repository.ErrDuplicateCartItem.Error())
		}

		item.CartID = cart.ID
		return s.cartRepo.AddItem(ctx, tx, item)
	})
	if err != nil {
		return nil, asError("add cart item", err)
	}
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID, gameID int64) error {
	cart, err := s.cartRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return NotFound("cart not found")
		}
		return StorageFailure("load cart", err)
	}

	if err := s.cartRepo.RemoveItem(ctx, nil, cart.ID, gameID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return NotFound("game not in cart")
		}
		return StorageFailure("remove cart item", err)
	}
	return nil
}

// List 按当前价格计算行小计与合计
func (s *CartService) List(ctx context.Context, userID int64) (*CartView, error) {
	cart, err := s.cartRepo.GetActiveByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, NotFound("cart not found")
		}
		return nil, StorageFailure("load cart", err)
	}

	lines, err := s.cartRepo.ListLines(ctx, nil, cart.ID)
	if err != nil {
		return nil, StorageFailure("list cart items", err)
	}

	view := &CartView{UserID: userID, Items: make([]CartItemView, 0, len(lines)), GrandTotal: decimal.Zero}
	for _, line := range lines {
		total := line.LineTotal()
		view.Items = append(view.Items, CartItemView{
			GameID:    line.GameID,
			Name:      line.Name,
			Price:     line.Price,
			Image:     line.Image,
			Quantity:  line.Quantity,
			LineTotal: total,
		})
		view.GrandTotal = view.GrandTotal.Add(total)
	}
	return view, nil
}
