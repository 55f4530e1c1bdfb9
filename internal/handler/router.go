package handler

import (
	"net/http"

	"gamestore/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg)

	users := r.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id/update", h.UpdateUser)
		users.POST("/:id/deposit", h.Deposit)
		users.GET("/:id/transactions", h.WalletHistory)

		users.POST("/cartitem/add", h.AddCartItem)
		users.DELETE("/cartitem/remove", h.RemoveCartItem)
		users.POST("/cartitem/buy", h.Buy)
		users.GET("/cartitemall/:id", h.ListCart)
	}

	games := r.Group("/games")
	{
		games.GET("/ranking", h.Ranking)
		games.GET("/library/:id", h.Library)
	}

	r.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status})
	})

	return r
}
