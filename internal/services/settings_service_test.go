package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/domain"
	"superloja/internal/repos"
	"superloja/internal/services"
)

func TestDecodeStoreSettings_Legacy(t *testing.T) {
	st, bad := services.DecodeStoreSettings(map[string]string{
		"store_name":          " Loja da Ana ",
		"frete_gratis_minimo": "R$ 1.234,56",
		"shipping_fee":        "12,90",
		"auctions_enabled":    "não",
		"chatbot_enabled":     "sim",
		"low_stock_threshold": "3",
	})
	assert.Empty(t, bad)
	assert.Equal(t, "Loja da Ana", st.StoreName)
	assert.Equal(t, domain.Money(123456), st.FreeShippingThreshold)
	assert.Equal(t, domain.Money(1290), st.ShippingFee)
	assert.False(t, st.AuctionsEnabled)
	assert.True(t, st.ChatbotEnabled)
	assert.Equal(t, 3, st.LowStockThreshold)
}

func TestDecodeStoreSettings_NewKeyWins(t *testing.T) {
	st, _ := services.DecodeStoreSettings(map[string]string{
		"free_shipping_threshold": "300.00",
		"frete_gratis_minimo":     "100,00",
	})
	assert.Equal(t, domain.Money(30000), st.FreeShippingThreshold)
}

func TestDecodeStoreSettings_BadValuesFallBack(t *testing.T) {
	def := domain.DefaultStoreSettings()
	st, bad := services.DecodeStoreSettings(map[string]string{
		"shipping_fee":        "grátis",
		"auctions_enabled":    "talvez",
		"low_stock_threshold": "-4",
		"contact_email":       "nobody",
		"currency":            "usd",
	})
	assert.Equal(t, def.ShippingFee, st.ShippingFee)
	assert.Equal(t, def.AuctionsEnabled, st.AuctionsEnabled)
	assert.Equal(t, def.LowStockThreshold, st.LowStockThreshold)
	assert.Equal(t, def.ContactEmail, st.ContactEmail)
	assert.Equal(t, "BRL", st.Currency)
	assert.ElementsMatch(t, []string{"shipping_fee", "auctions_enabled", "low_stock_threshold", "contact_email", "currency"}, bad)
}

func TestParseMoney(t *testing.T) {
	cases := map[string]domain.Money{
		"10":          1000,
		"10.5":        1050,
		"10,50":       1050,
		"R$ 1.234,56": 123456,
		" 0,01 ":      1,
	}
	for in, want := range cases {
		got, ok := services.ParseMoney(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "abc", "-3"} {
		_, ok := services.ParseMoney(in)
		assert.False(t, ok, in)
	}
}

func TestSettings_SaveLoadDropsLegacyKey(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	kv := repos.NewSettingsRepo(e.db)
	require.NoError(t, kv.Put(ctx, "frete_gratis_minimo", "99,90"))

	st, err := e.settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(9990), st.FreeShippingThreshold)

	st.StoreName = "SuperLoja Centro"
	st.MaintenanceMode = true
	require.NoError(t, e.settings.Save(ctx, st))

	rows, err := kv.All(ctx)
	require.NoError(t, err)
	assert.NotContains(t, rows, "frete_gratis_minimo")
	assert.Equal(t, "99.90", rows["free_shipping_threshold"])

	again, err := e.settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, again)

	st.Currency = "USD"
	assert.ErrorIs(t, e.settings.Save(ctx, st), services.ErrInvalidInput)
}

func TestSettings_AI(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ai, err := e.settings.LoadAI(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAISettings(), ai)

	ai.MinConfidence = 0.5
	ai.Greeting = "Bem-vindo!"
	require.NoError(t, e.settings.SaveAI(ctx, ai))
	got, err := e.settings.LoadAI(ctx)
	require.NoError(t, err)
	assert.Equal(t, ai, got)

	ai.MinConfidence = 2
	assert.ErrorIs(t, e.settings.SaveAI(ctx, ai), services.ErrInvalidInput)
}
