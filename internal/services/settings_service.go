package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"superloja/internal/domain"
	applog "superloja/internal/log"
	"superloja/internal/repos"
	"superloja/internal/validate"
)

// Keys of the settings table. frete_gratis_minimo is the pre-rename spelling of free_shipping_threshold.
const (
	keyStoreName          = "store_name"
	keyContactEmail       = "contact_email"
	keyWhatsApp           = "whatsapp"
	keyCurrency           = "currency"
	keyShippingFee        = "shipping_fee"
	keyFreeShipping       = "free_shipping_threshold"
	keyFreeShippingLegacy = "frete_gratis_minimo"
	keyAuctionsEnabled    = "auctions_enabled"
	keyChatbotEnabled     = "chatbot_enabled"
	keyMaintenance        = "maintenance_mode"
	keyLowStock           = "low_stock_threshold"

	keyAIEnabled       = "enabled"
	keyAIGreeting      = "greeting"
	keyAIFallback      = "fallback_message"
	keyAIMinConfidence = "min_confidence"
)

type SettingsService struct {
	DB    *sqlx.DB
	Store *repos.KVRepo
	AI    *repos.KVRepo
}

func NewSettingsService(db *sqlx.DB) *SettingsService {
	return &SettingsService{DB: db, Store: repos.NewSettingsRepo(db), AI: repos.NewAISettingsRepo(db)}
}

// Load reads the store settings, upgrading legacy values and falling back to defaults for anything invalid.
func (s *SettingsService) Load(ctx context.Context) (domain.StoreSettings, error) {
	rows, err := s.Store.All(ctx)
	if err != nil {
		return domain.StoreSettings{}, err
	}
	st, bad := DecodeStoreSettings(rows)
	for _, k := range bad {
		applog.Std().WithField("key", k).Warn("settings.invalid_value")
	}
	return st, nil
}

// Save validates st and upserts every key.
func (s *SettingsService) Save(ctx context.Context, st domain.StoreSettings) error {
	st.ContactEmail = strings.TrimSpace(st.ContactEmail)
	st.StoreName = strings.TrimSpace(st.StoreName)
	if err := validate.Struct(st); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		kv := s.Store.WithTx(tx)
		for k, v := range EncodeStoreSettings(st) {
			if err := kv.Put(ctx, k, v); err != nil {
				return err
			}
		}
		return kv.Delete(ctx, keyFreeShippingLegacy)
	})
}

// DecodeStoreSettings maps raw rows onto the typed struct. It returns the keys whose
// stored value could not be used.
func DecodeStoreSettings(rows map[string]string) (domain.StoreSettings, []string) {
	st := domain.DefaultStoreSettings()
	var bad []string

	freeShipping := keyFreeShipping
	if _, ok := rows[keyFreeShipping]; !ok {
		freeShipping = keyFreeShippingLegacy
	}

	str := func(k string, dst *string) {
		if v, ok := rows[k]; ok {
			*dst = strings.TrimSpace(v)
		}
	}
	flag := func(k string, dst *bool) {
		v, ok := rows[k]
		if !ok {
			return
		}
		b, ok := ParseBool(v)
		if !ok {
			bad = append(bad, k)
			return
		}
		*dst = b
	}
	money := func(k string, dst *domain.Money) {
		v, ok := rows[k]
		if !ok {
			return
		}
		m, ok := ParseMoney(v)
		if !ok {
			bad = append(bad, k)
			return
		}
		*dst = m
	}

	str(keyStoreName, &st.StoreName)
	str(keyContactEmail, &st.ContactEmail)
	str(keyWhatsApp, &st.WhatsApp)
	str(keyCurrency, &st.Currency)
	st.Currency = strings.ToUpper(st.Currency)
	money(keyShippingFee, &st.ShippingFee)
	money(freeShipping, &st.FreeShippingThreshold)
	flag(keyAuctionsEnabled, &st.AuctionsEnabled)
	flag(keyChatbotEnabled, &st.ChatbotEnabled)
	flag(keyMaintenance, &st.MaintenanceMode)
	if v, ok := rows[keyLowStock]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			st.LowStockThreshold = n
		} else {
			bad = append(bad, keyLowStock)
		}
	}

	// a value that parsed but breaks a constraint is reset field by field
	def := domain.DefaultStoreSettings()
	for i := 0; i < 16; i++ {
		err := validate.Struct(st)
		if err == nil {
			break
		}
		fe, ok := err.(*validate.FieldError)
		if !ok {
			return def, append(bad, "*")
		}
		bad = append(bad, fe.Field)
		switch fe.Field {
		case "store_name":
			st.StoreName = def.StoreName
		case "contact_email":
			st.ContactEmail = def.ContactEmail
		case "whatsapp":
			st.WhatsApp = def.WhatsApp
		case "currency":
			st.Currency = def.Currency
		case "shipping_fee_cents":
			st.ShippingFee = def.ShippingFee
		case "free_shipping_threshold_cents":
			st.FreeShippingThreshold = def.FreeShippingThreshold
		case "low_stock_threshold":
			st.LowStockThreshold = def.LowStockThreshold
		default:
			return def, bad
		}
	}
	return st, bad
}

func EncodeStoreSettings(st domain.StoreSettings) map[string]string {
	return map[string]string{
		keyStoreName:       st.StoreName,
		keyContactEmail:    st.ContactEmail,
		keyWhatsApp:        st.WhatsApp,
		keyCurrency:        st.Currency,
		keyShippingFee:     formatDecimal(st.ShippingFee),
		keyFreeShipping:    formatDecimal(st.FreeShippingThreshold),
		keyAuctionsEnabled: strconv.FormatBool(st.AuctionsEnabled),
		keyChatbotEnabled:  strconv.FormatBool(st.ChatbotEnabled),
		keyMaintenance:     strconv.FormatBool(st.MaintenanceMode),
		keyLowStock:        strconv.Itoa(st.LowStockThreshold),
	}
}

// ParseBool accepts the spellings found in older rows: sim/não, yes/no, 1/0, on/off, true/false.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "sim", "s", "yes", "y", "on":
		return true, true
	case "false", "0", "não", "nao", "n", "no", "off", "":
		return false, true
	}
	return false, false
}

// ParseMoney reads reais written as "R$ 1.234,56", "10,50" or "10.50" into cents.
func ParseMoney(s string) (domain.Money, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return domain.Reais(f), true
}

func formatDecimal(m domain.Money) string {
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}

// LoadAI reads chatbot settings with the same fallback rules as Load.
func (s *SettingsService) LoadAI(ctx context.Context) (domain.AISettings, error) {
	rows, err := s.AI.All(ctx)
	if err != nil {
		return domain.AISettings{}, err
	}
	out := domain.DefaultAISettings()
	if v, ok := rows[keyAIEnabled]; ok {
		if b, ok := ParseBool(v); ok {
			out.Enabled = b
		}
	}
	if v, ok := rows[keyAIGreeting]; ok {
		out.Greeting = v
	}
	if v, ok := rows[keyAIFallback]; ok && strings.TrimSpace(v) != "" {
		out.FallbackMessage = v
	}
	if v, ok := rows[keyAIMinConfidence]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			out.MinConfidence = f
		}
	}
	if err := validate.Struct(out); err != nil {
		applog.Std().WithFields(logrus.Fields{"err": err.Error()}).Warn("settings.ai_invalid")
		return domain.DefaultAISettings(), nil
	}
	return out, nil
}

func (s *SettingsService) SaveAI(ctx context.Context, in domain.AISettings) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		kv := s.AI.WithTx(tx)
		for k, v := range map[string]string{
			keyAIEnabled:       strconv.FormatBool(in.Enabled),
			keyAIGreeting:      in.Greeting,
			keyAIFallback:      in.FallbackMessage,
			keyAIMinConfidence: strconv.FormatFloat(in.MinConfidence, 'f', -1, 64),
		} {
			if err := kv.Put(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}
