package handlers

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"superloja/internal/invoice"
	applog "superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

// MaxUpload bounds payment proofs and product images.
const MaxUpload = 8 << 20

type OrderHandler struct {
	Cookies
	Order    *services.OrderService
	Auth     *services.AuthService
	Settings *services.SettingsService
	// BaseURL prefixes the order link encoded in invoice QR codes.
	BaseURL string
}

func isForm(c *fiber.Ctx) bool {
	ct := string(c.Request().Header.ContentType())
	return strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}

// POST /api/v1/orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := h.SID(c)
	var in services.CheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	orderID, err := h.Order.Place(c.UserContext(), sid, userID(c), in)
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"sid": sid, "error": err.Error()})
		return fail(c, "order.place.fail", err)
	}
	d, err := h.Order.Get(c.UserContext(), orderID, services.Viewer{SessionID: sid, UserID: userID(c)})
	if err != nil {
		return fail(c, "order.place.fail", err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":     orderID,
		"server_total": int64(d.Order.Total),
		"items":        len(d.Items),
	})
	if isForm(c) {
		return c.Redirect("/order/" + orderID)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (h *OrderHandler) load(c *fiber.Ctx) (services.OrderDetail, error) {
	oid := c.Params("id")
	if _, ok := validate.ID(oid); !ok {
		return services.OrderDetail{}, services.ErrNotFound
	}
	d, err := h.Order.Get(c.UserContext(), oid, viewer(c, h.Auth))
	if errors.Is(err, services.ErrNotOwner) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
	}
	return d, err
}

// GET /order/:id
func (h *OrderHandler) Page(c *fiber.Ctx) error {
	d, err := h.load(c)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFoundPage(c, fiber.StatusNotFound, "Pedido não encontrado")
		}
		return err
	}
	return render(c, "order", fiber.Map{"Order": d.Order, "Items": d.Items, "Total": d.Total})
}

// GET /api/v1/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	d, err := h.load(c)
	if err != nil {
		return fail(c, "order.view.fail", err)
	}
	return c.JSON(d)
}

// GET /api/v1/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Order.History(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "orders.history.fail", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// readUpload returns the bytes of the multipart field "file".
func readUpload(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, errors.Join(services.ErrInvalidInput, err)
	}
	if fh.Size > MaxUpload {
		return nil, fiber.ErrRequestEntityTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxUpload))
}

// POST /api/v1/orders/:id/payment-proof
func (h *OrderHandler) PaymentProof(c *fiber.Ctx) error {
	data, err := readUpload(c)
	if err != nil {
		if errors.Is(err, fiber.ErrRequestEntityTooLarge) {
			return err
		}
		return fail(c, "order.proof.fail", err)
	}
	oid := c.Params("id")
	url, err := h.Order.AttachPaymentProof(c.UserContext(), oid, viewer(c, h.Auth), data)
	if err != nil {
		if errors.Is(err, services.ErrNotOwner) {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return fail(c, "order.proof.fail", err)
	}
	applog.Audit(c, "order.proof.upload", map[string]any{"order_id": oid})
	return c.JSON(fiber.Map{"payment_proof_url": url})
}

// GET /api/v1/orders/:id/payment-proof/:file
func (h *OrderHandler) ViewPaymentProof(c *fiber.Ctx) error {
	oid := c.Params("id")
	if _, ok := validate.ID(oid); !ok {
		return fail(c, "order.proof.view.fail", services.ErrNotFound)
	}
	data, ct, err := h.Order.PaymentProof(c.UserContext(), oid, c.Params("file"), viewer(c, h.Auth))
	if err != nil {
		if errors.Is(err, services.ErrNotOwner) {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return fail(c, "order.proof.view.fail", err)
	}
	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(data)
}

func (h *OrderHandler) doc(c *fiber.Ctx, d services.OrderDetail) (invoice.Doc, error) {
	st, err := h.Settings.Load(c.UserContext())
	if err != nil {
		return invoice.Doc{}, err
	}
	return invoice.Doc{
		StoreName: st.StoreName,
		Order:     d.Order,
		Items:     d.Items,
		OrderURL:  strings.TrimRight(h.BaseURL, "/") + "/order/" + d.Order.ID,
	}, nil
}

func sendPDF(c *fiber.Ctx, name string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}

// GET /api/v1/orders/:id/invoice.pdf
func (h *OrderHandler) Invoice(c *fiber.Ctx) error {
	d, err := h.load(c)
	if err != nil {
		return fail(c, "order.invoice.fail", err)
	}
	doc, err := h.doc(c, d)
	if err != nil {
		return fail(c, "order.invoice.fail", err)
	}
	return sendPDF(c, "pedido-"+d.Order.ID+".pdf", func(w io.Writer) error { return invoice.Render(w, doc) })
}

// ---------- admin ----------

// GET /admin/api/orders
func (h *OrderHandler) Latest(c *fiber.Ctx) error {
	ords, err := h.Order.Latest(c.UserContext(), 100)
	if err != nil {
		return fail(c, "admin.orders.list.fail", err)
	}
	return c.JSON(fiber.Map{"orders": ords})
}

type statusInput struct {
	Status        string `json:"status" form:"status"`
	PaymentStatus string `json:"payment_status" form:"payment_status"`
}

// POST /admin/api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var in statusInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	if err := h.Order.UpdateStatus(c.UserContext(), id, in.Status, in.PaymentStatus); err != nil {
		return fail(c, "admin.orders.update.fail", err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": in.Status, "payment_status": in.PaymentStatus})
	return c.JSON(fiber.Map{"order_id": id, "status": in.Status, "payment_status": in.PaymentStatus})
}

// POST /admin/api/pos
func (h *OrderHandler) PlacePOS(c *fiber.Ctx) error {
	var in services.POSInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	id, err := h.Order.PlacePOS(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.pos.fail", err)
	}
	d, err := h.Order.Get(c.UserContext(), id, services.Viewer{Admin: true})
	if err != nil {
		return fail(c, "admin.pos.fail", err)
	}
	applog.Audit(c, "admin.pos.sale", map[string]any{"order_id": id, "total": int64(d.Total)})
	return c.Status(fiber.StatusCreated).JSON(d)
}

// GET /admin/api/pos/:id/receipt.pdf
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	d, err := h.Order.Get(c.UserContext(), c.Params("id"), services.Viewer{Admin: true})
	if err != nil {
		return fail(c, "admin.pos.receipt.fail", err)
	}
	doc, err := h.doc(c, d)
	if err != nil {
		return fail(c, "admin.pos.receipt.fail", err)
	}
	return sendPDF(c, "recibo-"+d.Order.ID+".pdf", func(w io.Writer) error { return invoice.Receipt(w, doc) })
}
