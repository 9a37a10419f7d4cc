package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/services"
)

func TestCheckAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		qty  int
		want string
	}{
		{10, services.InStock},
		{6, services.InStock},
		{5, services.LowStock},
		{1, services.LowStock},
		{0, services.OutOfStock},
	}
	for _, c := range cases {
		require.NoError(t, e.catalog.SetStock(ctx, "tenis-01", c.qty))
		got, err := e.inv.CheckAvailability(ctx, "tenis-01")
		require.NoError(t, err)
		assert.Equal(t, c.want, got.Status, "qty=%d", c.qty)
		assert.Equal(t, c.qty, got.Qty)
	}

	_, err := e.inv.CheckAvailability(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCheckAvailability_FollowsThreshold(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	st, err := e.settings.Load(ctx)
	require.NoError(t, err)
	st.LowStockThreshold = 10
	require.NoError(t, e.settings.Save(ctx, st))

	got, err := e.inv.CheckAvailability(ctx, "smartwatch-01")
	require.NoError(t, err)
	assert.Equal(t, services.LowStock, got.Status)

	low, err := e.inv.LowStock(ctx)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, p := range low {
		ids[p.ID] = true
	}
	assert.True(t, ids["smartwatch-01"])
	assert.True(t, ids["panela-01"])
	assert.False(t, ids["fone-bt-01"])
}

func TestCheckAvailability_InactiveIsOut(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.catalog.DeleteProduct(ctx, "fone-bt-01"))

	got, err := e.inv.CheckAvailability(ctx, "fone-bt-01")
	require.NoError(t, err)
	assert.Equal(t, services.OutOfStock, got.Status)
}
