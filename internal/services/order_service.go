package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
	"superloja/internal/metrics"
	"superloja/internal/repos"
	"superloja/internal/storage"
	"superloja/internal/validate"
)

type CheckoutInput struct {
	CustomerName    string `json:"customer_name" form:"customer_name" validate:"required,max=80"`
	CustomerEmail   string `json:"customer_email" form:"customer_email" validate:"required,email,max=120"`
	CustomerPhone   string `json:"customer_phone" form:"customer_phone" validate:"required,phone"`
	ShippingAddress string `json:"shipping_address" form:"shipping_address" validate:"max=300"`
	Fulfillment     string `json:"fulfillment" form:"fulfillment" validate:"required,oneof=delivery pickup"`
	PaymentMethod   string `json:"payment_method" form:"payment_method" validate:"required,oneof=pix card cash transfer"`
	Notes           string `json:"notes" form:"notes" validate:"max=500"`
}

func (in *CheckoutInput) normalize() error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Fulfillment == "" {
		in.Fulfillment = "delivery"
	}
	if err := validate.Struct(*in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Fulfillment == "delivery" && in.ShippingAddress == "" {
		return fmt.Errorf("%w: shipping_address required for delivery", ErrInvalidInput)
	}
	return nil
}

type OrderService struct {
	DB     *sqlx.DB
	Carts  *repos.CartRepo
	Prods  *repos.ProductRepo
	Promos *repos.PromotionRepo
	Orders *repos.OrderRepo
	Notify *NotificationService
	Proofs *storage.Bucket
	Now    func() time.Time
}

func NewOrderService(db *sqlx.DB, notify *NotificationService, proofs *storage.Bucket) *OrderService {
	return &OrderService{
		DB:     db,
		Carts:  repos.NewCartRepo(db),
		Prods:  repos.NewProductRepo(db),
		Promos: repos.NewPromotionRepo(db),
		Orders: repos.NewOrderRepo(db),
		Notify: notify,
		Proofs: proofs,
		Now:    time.Now,
	}
}

func (s *OrderService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Line is one product and quantity requested for an order.
type Line struct {
	ProductID string `json:"product_id" validate:"required,slug"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=50"`
}

// Place turns the session cart into an order. Stock, the order rows and the cart clear
// commit together or not at all; prices are recomputed here, never taken from the client.
func (s *OrderService) Place(ctx context.Context, sessionID, userID string, in CheckoutInput) (string, error) {
	if err := in.normalize(); err != nil {
		return "", err
	}
	o := domain.Order{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		UserID:          userID,
		Channel:         domain.ChannelWeb,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		ShippingAddress: in.ShippingAddress,
		Fulfillment:     in.Fulfillment,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   "pending",
		Status:          "pending",
		Notes:           in.Notes,
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := s.Carts.WithTx(tx)
		cartID, err := carts.EnsureCart(ctx, sessionID)
		if err != nil {
			return err
		}
		cl, err := carts.Lines(ctx, cartID)
		if err != nil {
			return err
		}
		if len(cl) == 0 {
			return ErrCartEmpty
		}
		lines := make([]Line, 0, len(cl))
		for _, l := range cl {
			lines = append(lines, Line{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		if err := s.write(ctx, tx, &o, lines); err != nil {
			return err
		}
		if err := carts.Clear(ctx, cartID); err != nil {
			return err
		}
		if s.Notify != nil {
			_, err := s.Notify.SendTx(ctx, tx, domain.Notification{
				UserID: userID,
				Kind:   domain.NotifyOrderPlaced,
				Title:  "Pedido recebido",
				Body:   fmt.Sprintf("Pedido %s no valor de %s", shortOrderID(o.ID), o.Total),
			})
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	metrics.Orders.WithLabelValues(domain.ChannelWeb).Inc()
	return o.ID, nil
}

// write prices the lines, takes the stock and inserts the order header and items.
func (s *OrderService) write(ctx context.Context, tx *sqlx.Tx, o *domain.Order, lines []Line) error {
	prods := s.Prods.WithTx(tx)
	promos, err := s.Promos.WithTx(tx).Active(ctx, s.now())
	if err != nil {
		return err
	}
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, err := prods.Get(ctx, l.ProductID)
		if err != nil {
			return err
		}
		if !p.Active || p.IsAuction {
			return fmt.Errorf("%w: %s is not for sale", ErrInvalidInput, p.ID)
		}
		if err := prods.DecrementStock(ctx, p.ID, l.Quantity); err != nil {
			return err
		}
		items = append(items, domain.OrderItem{
			OrderID:     o.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   view(p, promos).EffectivePrice,
		})
	}
	o.Total = domain.OrderTotal(items)
	orders := s.Orders.WithTx(tx)
	if err := orders.Create(ctx, *o); err != nil {
		return err
	}
	for _, it := range items {
		if err := orders.InsertItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

type POSInput struct {
	Items         []Line `json:"items" validate:"required,min=1,max=100,dive"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=pix card cash transfer"`
	CustomerName  string `json:"customer_name" validate:"max=80"`
}

// PlacePOS records a counter sale: already paid and handed over.
func (s *OrderService) PlacePOS(ctx context.Context, in POSInput) (string, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.CustomerName == "" {
		in.CustomerName = "Balcão"
	}
	o := domain.Order{
		ID:            uuid.NewString(),
		Channel:       domain.ChannelPOS,
		CustomerName:  in.CustomerName,
		Fulfillment:   "pickup",
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: "paid",
		Status:        "delivered",
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return s.write(ctx, tx, &o, mergeLines(in.Items))
	})
	if err != nil {
		return "", err
	}
	metrics.Orders.WithLabelValues(domain.ChannelPOS).Inc()
	return o.ID, nil
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(in []Line) []Line {
	idx := map[string]int{}
	out := make([]Line, 0, len(in))
	for _, l := range in {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

type OrderDetail struct {
	Order domain.Order       `json:"order"`
	Items []domain.OrderItem `json:"items"`
	Total domain.Money       `json:"total_cents"`
}

// Viewer identifies who is asking for an order.
type Viewer struct {
	SessionID string
	UserID    string
	Admin     bool
}

func (v Viewer) owns(o domain.Order) bool {
	if v.Admin {
		return true
	}
	if v.UserID != "" && o.UserID == v.UserID {
		return true
	}
	return v.SessionID != "" && o.SessionID == v.SessionID
}

// Get returns the order if the viewer owns it; strangers get ErrNotFound, not a hint that it exists.
func (s *OrderService) Get(ctx context.Context, id string, v Viewer) (OrderDetail, error) {
	o, items, err := s.Orders.Get(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	if !v.owns(o) {
		return OrderDetail{}, ErrNotOwner
	}
	return OrderDetail{Order: o, Items: items, Total: domain.OrderTotal(items)}, nil
}

func (s *OrderService) History(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

func (s *OrderService) Latest(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.Orders.ListLatest(ctx, limit)
}

// UpdateStatus changes order and/or payment status; empty leaves a field as is.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status, paymentStatus string) error {
	if status == "" && paymentStatus == "" {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if status != "" && !domain.ValidOrderStatus(status) {
		return fmt.Errorf("%w: order status %q", ErrInvalidInput, status)
	}
	if paymentStatus != "" && !domain.ValidPaymentStatus(paymentStatus) {
		return fmt.Errorf("%w: payment status %q", ErrInvalidInput, paymentStatus)
	}
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := s.Orders.WithTx(tx)
		if err := orders.UpdateStatus(ctx, id, status, paymentStatus); err != nil {
			return err
		}
		if s.Notify == nil || status == "" {
			return nil
		}
		o, _, err := orders.Get(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.Notify.SendTx(ctx, tx, domain.Notification{
			UserID: o.UserID,
			Kind:   domain.NotifyOrderStatus,
			Title:  "Pedido atualizado",
			Body:   fmt.Sprintf("Pedido %s agora está %s", shortOrderID(o.ID), status),
		})
		return err
	})
}

// proofPath is where an order's payment proof is served after the owner check. The
// proofs bucket itself is never exposed under /media.
const proofPath = "/api/v1/orders/%s/payment-proof/%s"

// AttachPaymentProof stores the uploaded proof and links it to the order.
func (s *OrderService) AttachPaymentProof(ctx context.Context, id string, v Viewer, data []byte) (string, error) {
	if _, err := s.Get(ctx, id, v); err != nil {
		return "", err
	}
	key, err := s.Proofs.Upload(ctx, id, data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return "", errors.Join(ErrInvalidInput, err)
		}
		return "", err
	}
	url := fmt.Sprintf(proofPath, id, path.Base(key))
	if err := s.Orders.SetPaymentProof(ctx, id, url); err != nil {
		_ = s.Proofs.Remove(key)
		return "", err
	}
	return url, nil
}

// PaymentProof returns the order's current proof and its content type. Only the
// order's owner or an admin gets it; a replaced proof is ErrNotFound.
func (s *OrderService) PaymentProof(ctx context.Context, id, file string, v Viewer) ([]byte, string, error) {
	d, err := s.Get(ctx, id, v)
	if err != nil {
		return nil, "", err
	}
	if file == "" || d.Order.PaymentProofURL != fmt.Sprintf(proofPath, id, file) {
		return nil, "", ErrNotFound
	}
	rc, err := s.Proofs.Open(id + "/" + file)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrBadKey) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", err
	}
	ct, _, err := s.Proofs.Sniff(data)
	if err != nil {
		return nil, "", err
	}
	return data, ct, nil
}

func shortOrderID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
