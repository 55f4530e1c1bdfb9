package service_test

import (
	"context"
	"testing"

	"gamestore/internal/model"
	"gamestore/internal/service"
	"gamestore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletService_Deposit(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewWalletService(db)
	user := testutil.CreateUser(t, db, "alice", "10")
	ctx := context.Background()

	res, err := svc.Deposit(ctx, user.ID, testutil.Money("25.50"))
	require.NoError(t, err)
	assert.True(t, res.WalletBalance.Equal(testutil.Money("35.50")))
	assert.NotEmpty(t, res.TransactionNo)
	assert.True(t, testutil.Balance(t, db, user.ID).Equal(testutil.Money("35.50")))

	_, err = svc.Deposit(ctx, user.ID, testutil.Money("4.50"))
	require.NoError(t, err)

	history, err := svc.History(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, int64(2), history.Total)
	assert.Equal(t, model.TransactionTypeDeposit, history.Items[0].Type)
	assert.Equal(t, "Wallet Balance", history.Items[0].Note)
	assert.True(t, history.Items[0].BalanceAfter.Equal(testutil.Money("40")))
	assert.True(t, history.Items[1].BalanceBefore.Equal(testutil.Money("10")))
}

func TestWalletService_DepositRejections(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewWalletService(db)
	user := testutil.CreateUser(t, db, "bob", "10")
	ctx := context.Background()

	_, err := svc.Deposit(ctx, user.ID, testutil.Money("0"))
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))

	_, err = svc.Deposit(ctx, user.ID, testutil.Money("-5"))
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))

	_, err = svc.Deposit(ctx, 999, testutil.Money("5"))
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	assert.True(t, testutil.Balance(t, db, user.ID).Equal(testutil.Money("10")))
}

func TestLibraryService_List(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	purchases := service.NewPurchaseService(db, rdb, testutil.Config())
	library := service.NewLibraryService(db)
	user := testutil.CreateUser(t, db, "carol", "100")
	g := testutil.CreateGame(t, db, "Hades", "20")
	testutil.PutInCart(t, db, user.ID, g.ID, 1)
	ctx := context.Background()

	empty, err := library.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = purchases.Purchase(ctx, user.ID)
	require.NoError(t, err)

	owned, err := library.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Hades", owned[0].Name)

	_, err = library.List(ctx, 999)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, service.Kind(""), service.KindOf(nil))
	assert.Equal(t, service.KindStorageFailure, service.KindOf(assert.AnError))
	assert.Equal(t, service.KindInsufficientFunds, service.KindOf(service.InsufficientFunds("X")))
}

func TestWalletService_DepositSubCentRejected(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewWalletService(db)
	user := testutil.CreateUser(t, db, "dave", "10")
	ctx := context.Background()

	_, err := svc.Deposit(ctx, user.ID, testutil.Money("0.004"))
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))

	var entries int64
	require.NoError(t, db.Model(&model.WalletTransaction{}).Where("user_id = ?", user.ID).Count(&entries).Error)
	assert.Zero(t, entries)
	assert.True(t, testutil.Balance(t, db, user.ID).Equal(testutil.Money("10")))

	res, err := svc.Deposit(ctx, user.ID, testutil.Money("0.005"))
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(testutil.Money("0.01")))
}
