package seed_test

import (
	"context"
	"testing"

	"gamestore/internal/model"
	"gamestore/internal/seed"
	"gamestore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoData(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, seed.DemoData(ctx, db))
	require.NoError(t, seed.DemoData(ctx, db))

	var games, categories, admins int64
	require.NoError(t, db.Model(&model.Game{}).Count(&games).Error)
	require.NoError(t, db.Model(&model.GameCategory{}).Count(&categories).Error)
	require.NoError(t, db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error)

	assert.Equal(t, int64(7), games)
	assert.Equal(t, int64(4), categories)
	assert.Equal(t, int64(1), admins)

	var game model.Game
	require.NoError(t, db.Where("name = ?", "Hades").First(&game).Error)
	assert.True(t, game.Price.Equal(testutil.Money("24.99")))
	assert.NotZero(t, game.CategoryID)
}
