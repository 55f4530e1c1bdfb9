package service_test

import (
	"context"
	"fmt"
	"testing"

	"gamestore/internal/model"
	"gamestore/internal/service"
	"gamestore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPurchaseService(t *testing.T) (*service.PurchaseService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	return service.NewPurchaseService(db, rdb, testutil.Config()), db
}

func count(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}

func TestPurchase_InsufficientFundsRollsBackWholeBatch(t *testing.T) {
	svc, db := newPurchaseService(t)
	user := testutil.CreateUser(t, db, "alice", "100")
	a := testutil.CreateGame(t, db, "Game A", "30")
	b := testutil.CreateGame(t, db, "Game B", "80")
	testutil.PutInCart(t, db, user.ID, a.ID, 1)
	testutil.PutInCart(t, db, user.ID, b.ID, 1)

	_, err := svc.Purchase(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, service.KindInsufficientFunds, service.KindOf(err))
	assert.Contains(t, err.Error(), "Game B")

	assert.True(t, testutil.Balance(t, db, user.ID).Equal(testutil.Money("100")))
	assert.Zero(t, count(t, db, &model.MyGame{}, "user_id = ?", user.ID))
	assert.Equal(t, int64(2), count(t, db, &model.CartItem{}, "1 = 1"))
	assert.Zero(t, count(t, db, &model.WalletTransaction{}, "user_id = ?", user.ID))
	assert.Zero(t, count(t, db, &model.OutboxMessage{}, "1 = 1"))
}

func TestPurchase_Success(t *testing.T) {
	svc, db := newPurchaseService(t)
	user := testutil.CreateUser(t, db, "bob", "100")
	a := testutil.CreateGame(t, db, "Alpha", "30")
	b := testutil.CreateGame(t, db, "Beta", "20")
	testutil.PutInCart(t, db, user.ID, b.ID, 2)
	testutil.PutInCart(t, db, user.ID, a.ID, 1)

	res, err := svc.Purchase(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, res.UserID)
	assert.True(t, res.TotalSpent.Equal(testutil.Money("70")), res.TotalSpent.String())
	assert.True(t, res.RemainingBalance.Equal(testutil.Money("30")), res.RemainingBalance.String())
	assert.Equal(t, []string{"Alpha", "Beta"}, res.PurchasedGames)
	assert.NotEmpty(t, res.TransactionNo)

	assert.True(t, testutil.Balance(t, db, user.ID).Equal(testutil.Money("30")))
	assert.Equal(t, int64(2), count(t, db, &model.MyGame{}, "user_id = ?", user.ID))
	assert.Zero(t, count(t, db, &model.CartItem{}, "1 = 1"))

	var entries []model.WalletTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TransactionTypePurchase, entries[0].Type)
	assert.Equal(t, "Alpha, Beta", entries[0].Note)
	assert.True(t, entries[0].Amount.Equal(testutil.Money("70")))
	assert.True(t, entries[0].BalanceBefore.Equal(testutil.Money("100")))
	assert.True(t, entries[0].BalanceAfter.Equal(testutil.Money("30")))

	var msgs []model.OutboxMessage
	require.NoError(t, db.Find(&msgs).Error)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.EventPurchaseCompleted, msgs[0].EventType)
	assert.Equal(t, "gamestore.purchase", msgs[0].Topic)
	assert.Equal(t, res.TransactionNo, msgs[0].MessageKey)
}

func TestPurchase_UsesPriceAtCheckout(t *testing.T) {
	svc, db := newPurchaseService(t)
	user := testutil.CreateUser(t, db, "carol", "50")
	g := testutil.CreateGame(t, db, "Gamma", "10")
	testutil.PutInCart(t, db, user.ID, g.ID, 1)

	require.NoError(t, db.Model(&model.Game{}).Where("id = ?", g.ID).Update("price", testutil.Money("25")).Error)

	res, err := svc.Purchase(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, res.TotalSpent.Equal(testutil.Money("25")))
	assert.True(t, res.RemainingBalance.Equal(testutil.Money("25")))
}

func TestPurchase_ExactBalanceIsEnough(t *testing.T) {
	svc, db := newPurchaseService(t)
	user := testutil.CreateUser(t, db, "dave", "60")
	g := testutil.CreateGame(t, db, "Delta", "30")
	testutil.PutInCart(t, db, user.ID, g.ID, 2)

	res, err := svc.Purchase(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, res.RemainingBalance.IsZero())
}

func TestPurchase_NotFoundCases(t *testing.T) {
	svc, db := newPurchaseService(t)
	ctx := context.Background()

	t.Run("cart missing", func(t *testing.T) {
		_, err := svc.Purchase(ctx, 404)
		require.Error(t, err)
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
		assert.Contains(t, err.Error(), "cart not found")
	})

	t.Run("cart empty", func(t *testing.T) {
		user := testutil.CreateUser(t, db, "empty", "10")
		_, err := svc.Purchase(ctx, user.ID)
		require.Error(t, err)
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
		assert.Contains(t, err.Error(), "cart is empty")
	})

	t.Run("user missing", func(t *testing.T) {
		g := testutil.CreateGame(t, db, "Orphan", "1")
		cart := &model.Cart{UserID: 9999, Status: model.CartStatusActive}
		require.NoError(t, db.Create(cart).Error)
		require.NoError(t, db.Create(&model.CartItem{CartID: cart.ID, GameID: g.ID, Quantity: 1}).Error)

		_, err := svc.Purchase(ctx, 9999)
		require.Error(t, err)
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
		assert.Contains(t, err.Error(), "user not found")
		assert.Equal(t, int64(1), count(t, db, &model.CartItem{}, "cart_id = ?", cart.ID))
	})
}

func TestPurchase_ReleasesLock(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	svc := service.NewPurchaseService(db, rdb, testutil.Config())
	user := testutil.CreateUser(t, db, "erin", "5")

	_, err := svc.Purchase(context.Background(), user.ID)
	require.Error(t, err)
	assert.False(t, mr.Exists(fmt.Sprintf("purchase:lock:user:%d", user.ID)))
}

func TestPurchase_OwnedGameMidBatchRollsBack(t *testing.T) {
	svc, db := newPurchaseService(t)
	user := testutil.CreateUser(t, db, "frank", "100")
	a := testutil.CreateGame(t, db, "Affordable", "30")
	b := testutil.CreateGame(t, db, "Already Owned", "20")
	testutil.GiveOwnership(t, db, user.ID, b.ID)
	testutil.PutInCart(t, db, user.ID, a.ID, 1)
	testutil.PutInCart(t, db, user.ID, b.ID, 1)

	_, err := svc.Purchase(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, service.KindConflict, service.KindOf(err))
	assert.Contains(t, err.Error(), "game already owned")

	assert.True(t, testutil.Balance(t, db, user.ID).Equal(testutil.Money("100")))
	assert.Zero(t, count(t, db, &model.MyGame{}, "user_id = ? AND game_id = ?", user.ID, a.ID))
	assert.Equal(t, int64(1), count(t, db, &model.MyGame{}, "user_id = ?", user.ID))
	assert.Equal(t, int64(2), count(t, db, &model.CartItem{}, "1 = 1"))
	assert.Zero(t, count(t, db, &model.WalletTransaction{}, "user_id = ?", user.ID))
}

func TestPurchase_StorageFailureRollsBack(t *testing.T) {
	svc, db := newPurchaseService(t)
	user := testutil.CreateUser(t, db, "grace", "100")
	a := testutil.CreateGame(t, db, "One", "30")
	b := testutil.CreateGame(t, db, "Two", "20")
	testutil.PutInCart(t, db, user.ID, a.ID, 1)
	testutil.PutInCart(t, db, user.ID, b.ID, 1)

	// 流水写入失败时，前面已执行的扣款、拥有记录和购物车删除都要回滚
	testutil.FailCreate(t, db, "wallet_transactions")

	_, err := svc.Purchase(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, service.KindStorageFailure, service.KindOf(err))

	assert.True(t, testutil.Balance(t, db, user.ID).Equal(testutil.Money("100")))
	assert.Zero(t, count(t, db, &model.MyGame{}, "user_id = ?", user.ID))
	assert.Equal(t, int64(2), count(t, db, &model.CartItem{}, "1 = 1"))
	assert.Zero(t, count(t, db, &model.OutboxMessage{}, "1 = 1"))
}
