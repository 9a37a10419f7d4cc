package domain

const (
	ChannelWeb = "web"
	ChannelPOS = "pos"
)

var OrderStatuses = []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled"}
var PaymentStatuses = []string{"pending", "paid", "failed", "refunded"}
var PaymentMethods = []string{"pix", "card", "cash", "transfer"}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func ValidOrderStatus(s string) bool   { return oneOf(s, OrderStatuses) }
func ValidPaymentStatus(s string) bool { return oneOf(s, PaymentStatuses) }
func ValidPaymentMethod(s string) bool { return oneOf(s, PaymentMethods) }
func ValidRequestStatus(s string) bool { return oneOf(s, RequestStatuses) }

type Order struct {
	ID              string `db:"id" json:"id"`
	SessionID       string `db:"session_id" json:"-"`
	UserID          string `db:"user_id" json:"user_id,omitempty"`
	Channel         string `db:"channel" json:"channel"`
	CustomerName    string `db:"customer_name" json:"customer_name"`
	CustomerEmail   string `db:"customer_email" json:"customer_email"`
	CustomerPhone   string `db:"customer_phone" json:"customer_phone"`
	ShippingAddress string `db:"shipping_address" json:"shipping_address"`
	Fulfillment     string `db:"fulfillment" json:"fulfillment"`
	PaymentMethod   string `db:"payment_method" json:"payment_method"`
	PaymentStatus   string `db:"payment_status" json:"payment_status"`
	Status          string `db:"status" json:"status"`
	Total           Money  `db:"total_cents" json:"total_cents"`
	PaymentProofURL string `db:"payment_proof_url" json:"payment_proof_url,omitempty"`
	Notes           string `db:"notes" json:"notes,omitempty"`
	CreatedAt       string `db:"created_at" json:"created_at"`
}

type OrderItem struct {
	OrderID     string `db:"order_id" json:"-"`
	ProductID   string `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   Money  `db:"unit_price_cents" json:"unit_price_cents"`
}

func (i OrderItem) Subtotal() Money { return i.UnitPrice * Money(i.Quantity) }

// OrderTotal is the single definition of an order total: Σ unit_price × quantity.
func OrderTotal(items []OrderItem) Money {
	var t Money
	for _, it := range items {
		t += it.Subtotal()
	}
	return t
}
