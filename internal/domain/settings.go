package domain

// StoreSettings replaces the free-form settings rows with typed fields.
type StoreSettings struct {
	StoreName             string `json:"store_name" validate:"required,max=80"`
	ContactEmail          string `json:"contact_email" validate:"omitempty,email"`
	WhatsApp              string `json:"whatsapp" validate:"max=20"`
	Currency              string `json:"currency" validate:"eq=BRL"`
	ShippingFee           Money  `json:"shipping_fee_cents" validate:"gte=0"`
	FreeShippingThreshold Money  `json:"free_shipping_threshold_cents" validate:"gte=0"`
	AuctionsEnabled       bool   `json:"auctions_enabled"`
	ChatbotEnabled        bool   `json:"chatbot_enabled"`
	MaintenanceMode       bool   `json:"maintenance_mode"`
	LowStockThreshold     int    `json:"low_stock_threshold" validate:"gte=0,lte=1000"`
}

func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		StoreName:             "SuperLoja",
		Currency:              "BRL",
		ShippingFee:           1500,
		FreeShippingThreshold: 20000,
		AuctionsEnabled:       true,
		ChatbotEnabled:        true,
		LowStockThreshold:     5,
	}
}

const (
	NotifyOrderPlaced = "order_placed"
	NotifyOutbid      = "outbid"
	NotifyAuctionWon  = "auction_won"
	NotifyOrderStatus = "order_status"
)

type Notification struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Kind      string `db:"kind" json:"kind"`
	Title     string `db:"title" json:"title"`
	Body      string `db:"body" json:"body"`
	Read      bool   `db:"is_read" json:"is_read"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// NotificationSettings toggles delivery per kind; the zero row means everything on.
type NotificationSettings struct {
	UserID      string `db:"user_id" json:"-"`
	OrderPlaced bool   `db:"order_placed" json:"order_placed"`
	Outbid      bool   `db:"outbid" json:"outbid"`
	AuctionWon  bool   `db:"auction_won" json:"auction_won"`
	OrderStatus bool   `db:"order_status" json:"order_status"`
}

func DefaultNotificationSettings(userID string) NotificationSettings {
	return NotificationSettings{UserID: userID, OrderPlaced: true, Outbid: true, AuctionWon: true, OrderStatus: true}
}

func (s NotificationSettings) Allows(kind string) bool {
	switch kind {
	case NotifyOrderPlaced:
		return s.OrderPlaced
	case NotifyOutbid:
		return s.Outbid
	case NotifyAuctionWon:
		return s.AuctionWon
	case NotifyOrderStatus:
		return s.OrderStatus
	}
	return false
}
