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

func TestUserService_RegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, &service.RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, user.WalletBalance.IsZero())

	var carts int64
	require.NoError(t, db.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)

	logged, err := svc.Login(ctx, &service.LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(ctx, &service.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))

	_, err = svc.Login(ctx, &service.LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewUserService(db)
	ctx := context.Background()
	req := &service.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "secret123"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, &service.RegisterRequest{Username: "bob", Email: "other@example.com", Password: "secret123"})
	assert.Equal(t, service.KindConflict, service.KindOf(err))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_Get(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewUserService(db)
	user := testutil.CreateUser(t, db, "carol", "12.34")

	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, got.WalletBalance.Equal(testutil.Money("12.34")))

	_, err = svc.Get(context.Background(), 999)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestUserService_RegisterBlankFields(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewUserService(db)

	_, err := svc.Register(context.Background(), &service.RegisterRequest{Username: "  ", Email: "x@example.com", Password: "p"})
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))
}

func strPtr(s string) *string { return &s }

func TestUserService_Update(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewUserService(db)
	alice := testutil.CreateUser(t, db, "alice", "0")
	testutil.CreateUser(t, db, "bob", "0")
	ctx := context.Background()

	updated, err := svc.Update(ctx, alice.ID, &service.UpdateUserRequest{
		Username:     strPtr("alice2"),
		ProfileImage: strPtr("https://cdn.example.com/alice.webp"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	require.NotNil(t, updated.ProfileImage)

	// 未提供的字段保持原值
	updated, err = svc.Update(ctx, alice.ID, &service.UpdateUserRequest{Username: strPtr("alice3")})
	require.NoError(t, err)
	require.NotNil(t, updated.ProfileImage)
	assert.Equal(t, "https://cdn.example.com/alice.webp", *updated.ProfileImage)

	stored, err := svc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice3", stored.Username)
	require.NotNil(t, stored.ProfileImage)

	_, err = svc.Update(ctx, alice.ID, &service.UpdateUserRequest{Username: strPtr("bob")})
	assert.Equal(t, service.KindConflict, service.KindOf(err))

	_, err = svc.Update(ctx, alice.ID, &service.UpdateUserRequest{Username: strPtr("alice3")})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, 999, &service.UpdateUserRequest{Username: strPtr("ghost")})
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}
