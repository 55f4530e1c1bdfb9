package handler

import (
	"errors"
	"net/http"
	"strconv"

	"gamestore/internal/config"
	"gamestore/internal/service"
	"gamestore/pkg/logger"
	"gamestore/pkg/response"
	"gamestore/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	userService     *service.UserService
	walletService   *service.WalletService
	cartService     *service.CartService
	purchaseService *service.PurchaseService
	rankingService  *service.RankingService
	libraryService  *service.LibraryService
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		userService:     service.NewUserService(db),
		walletService:   service.NewWalletService(db),
		cartService:     service.NewCartService(db),
		purchaseService: service.NewPurchaseService(db, rdb, cfg),
		rankingService:  service.NewRankingService(db, rdb, cfg),
		libraryService:  service.NewLibraryService(db),
	}
}

// renderError 按错误类型映射 HTTP 状态码与业务码
func renderError(c *gin.Context, err error) {
	var e *service.Error
	if !errors.As(err, &e) {
		logger.Errorf("[HTTP] 未分类错误: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.ServerError(c, "internal server error")
		return
	}

	kind := string(e.Kind)
	switch e.Kind {
	case service.KindNotFound:
		response.Error(c, http.StatusNotFound, response.CodeNotFound, kind, e.Message)
	case service.KindConflict:
		response.Error(c, http.StatusBadRequest, response.CodeConflict, kind, e.Message)
	case service.KindInsufficientFunds:
		response.Error(c, http.StatusBadRequest, response.CodeInsufficientFunds, kind, e.Message)
	case service.KindInvalidInput:
		response.Error(c, http.StatusBadRequest, response.CodeParamError, kind, e.Message)
	default:
		logger.Errorf("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.ServerError(c, e.Message)
	}
}

func bindError(c *gin.Context, err error) {
	response.ParamError(c, validation.Message(err))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// ============================================================
// 用户
// ============================================================

// Register POST /users/register
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, "user registered", user)
}

// Login POST /users/login
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		if service.KindOf(err) == service.KindInvalidInput {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, string(service.KindInvalidInput), "invalid email or password")
			return
		}
		renderError(c, err)
		return
	}
	response.Success(c, "login successful", user)
}

// ListUsers GET /users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "ok", users)
}

// GetUser GET /users/:id
func (h *Handler) GetUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "ok", user)
}

// UpdateUser PUT /users/:id/update
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, &req)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "user updated", user)
}

// ============================================================
// 钱包
// ============================================================

// Deposit POST /users/:id/deposit
func (h *Handler) Deposit(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	var req service.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.walletService.Deposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "deposit successful", result)
}

// WalletHistory GET /users/:id/transactions?page=1&page_size=20
func (h *Handler) WalletHistory(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	history, err := h.walletService.History(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "ok", history)
}

// ============================================================
// 购物车与结算
// ============================================================

// AddCartItem POST /users/cartitem/add
func (h *Handler) AddCartItem(c *gin.Context) {
	var req service.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.cartService.Add(c.Request.Context(), req.UserID, req.GameID, req.Quantity)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, "game added to cart", item)
}

// RemoveCartItem DELETE /users/cartitem/remove
func (h *Handler) RemoveCartItem(c *gin.Context) {
	var req service.RemoveCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.cartService.Remove(c.Request.Context(), req.UserID, req.GameID); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "game removed from cart", gin.H{
		"user_id": req.UserID,
		"game_id": req.GameID,
	})
}

// ListCart GET /users/cartitemall/:id
func (h *Handler) ListCart(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.cartService.List(c.Request.Context(), userID)
	if err != nil {
		renderError(c, err)
		return
	}
	if len(view.Items) == 0 {
		response.Success(c, "cart is empty", view)
		return
	}
	response.Success(c, "ok", view)
}

// Buy POST /users/cartitem/buy
func (h *Handler) Buy(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.purchaseService.Purchase(c.Request.Context(), req.UserID)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "purchase successful", result)
}

// ============================================================
// 游戏
// ============================================================

// Ranking GET /games/ranking，每次请求都会重算
func (h *Handler) Ranking(c *gin.Context) {
	result, err := h.rankingService.Recompute(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "ranking updated", result)
}

// Library GET /games/library/:id
func (h *Handler) Library(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	games, err := h.libraryService.List(c.Request.Context(), userID)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, "ok", games)
}
