package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"superloja/internal/domain"
	"superloja/internal/log"
	"superloja/internal/services"
)

type AuctionHandler struct {
	Auctions *services.AuctionService
}

// GET /api/v1/auctions
func (h *AuctionHandler) List(c *fiber.Ctx) error {
	ps, err := h.Auctions.List(c.UserContext())
	if err != nil {
		return fail(c, "auctions.list.fail", err)
	}
	return c.JSON(fiber.Map{"auctions": ps})
}

// GET /api/v1/auctions/:id
func (h *AuctionHandler) View(c *fiber.Ctx) error {
	v, err := h.Auctions.View(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "auctions.view.fail", err)
	}
	return c.JSON(v)
}

type bidInput struct {
	Amount domain.Money `json:"amount_cents" form:"amount_cents"`
}

// POST /api/v1/auctions/:id/bids
func (h *AuctionHandler) Bid(c *fiber.Ctx) error {
	var in bidInput
	if err := c.BodyParser(&in); err != nil || in.Amount <= 0 {
		return badRequest(c, "amount_cents")
	}
	pid := c.Params("id")
	bid, err := h.Auctions.PlaceBid(c.UserContext(), pid, userID(c), in.Amount)
	if err != nil {
		log.Info(c, "auction.bid.reject", map[string]any{"product": pid, "amount": int64(in.Amount), "reason": err.Error()})
		return fail(c, "auction.bid.fail", err)
	}
	log.Audit(c, "auction.bid", map[string]any{"product": pid, "bid": bid.ID, "amount": int64(bid.Amount)})
	return c.Status(fiber.StatusCreated).JSON(bid)
}

// PUT /admin/api/auctions/:id
func (h *AuctionHandler) Configure(c *fiber.Ctx) error {
	var in services.AuctionConfig
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	pid := c.Params("id")
	if err := h.Auctions.Configure(c.UserContext(), pid, in); err != nil {
		return fail(c, "admin.auctions.configure.fail", err)
	}
	log.Audit(c, "admin.auctions.configure", map[string]any{
		"product":   pid,
		"starting":  int64(in.StartingBid),
		"increment": int64(in.Increment),
		"end":       in.End.UTC().Format(time.RFC3339),
	})
	v, err := h.Auctions.View(c.UserContext(), pid)
	if err != nil {
		return fail(c, "admin.auctions.configure.fail", err)
	}
	return c.JSON(v)
}

// POST /admin/api/auctions/close
func (h *AuctionHandler) CloseDue(c *fiber.Ctx) error {
	n, err := h.Auctions.CloseDue(c.UserContext(), time.Now())
	if err != nil {
		return fail(c, "admin.auctions.close.fail", err)
	}
	log.Audit(c, "admin.auctions.close", map[string]any{"closed": n})
	return c.JSON(fiber.Map{"closed": n})
}
