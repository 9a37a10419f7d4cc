package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"superloja/internal/banner"
	"superloja/internal/imageedit"
	applog "superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/validate"
)

type errorMapping struct {
	err    error
	status int
	msg    string
}

// Order matters: the first match wins.
var errorTable = []errorMapping{
	{services.ErrBadCreds, fiber.StatusUnauthorized, "E-mail ou senha inválidos"},
	{services.ErrForbidden, fiber.StatusForbidden, "Acesso negado"},
	{services.ErrNotFound, fiber.StatusNotFound, "Não encontrado"},
	{services.ErrEmailTaken, fiber.StatusConflict, "E-mail já cadastrado"},
	{services.ErrWeakPassword, fiber.StatusBadRequest, "A senha precisa de 8 caracteres com maiúscula, minúscula, número e símbolo"},
	{services.ErrCartEmpty, fiber.StatusBadRequest, "Seu carrinho está vazio"},
	{services.ErrInsufficientStock, fiber.StatusConflict, "Estoque insuficiente para um dos itens"},
	{services.ErrNotAuction, fiber.StatusBadRequest, "Este produto não está em leilão"},
	{services.ErrAuctionsDisabled, fiber.StatusForbidden, "Leilões estão desativados"},
	{services.ErrAuctionNotStarted, fiber.StatusConflict, "O leilão ainda não começou"},
	{services.ErrAuctionClosed, fiber.StatusConflict, "O leilão foi encerrado"},
	{services.ErrBidTooLow, fiber.StatusBadRequest, "Lance abaixo do mínimo"},
	{services.ErrBidConflict, fiber.StatusConflict, "O leilão recebeu outro lance, tente novamente"},
	{services.ErrOwnAuctionWinning, fiber.StatusConflict, "Você já tem o maior lance"},
	{services.ErrChatbotDisabled, fiber.StatusServiceUnavailable, "O assistente está desativado"},
	{services.ErrStoreInMaintenance, fiber.StatusServiceUnavailable, "Loja em manutenção, volte em breve"},
	{banner.ErrSize, fiber.StatusBadRequest, "Tamanho de banner inválido"},
	{banner.ErrBadColor, fiber.StatusBadRequest, "Cor inválida"},
	{imageedit.ErrBadDataURL, fiber.StatusBadRequest, "Imagem inválida"},
	{imageedit.ErrMaskSize, fiber.StatusBadGateway, "Máscara de recorte inválida"},
	{services.ErrInvalidInput, fiber.StatusBadRequest, "Dados inválidos"},
}

// classify maps a service error to a status and user-facing message. Unknown errors are 500s.
func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.msg
		}
	}
	var fe *validate.FieldError
	if errors.As(err, &fe) {
		return fiber.StatusBadRequest, "Dados inválidos"
	}
	return fiber.StatusInternalServerError, "Algo deu errado. Tente novamente."
}

// fail writes the JSON error for err. Client errors carry the detail; server errors
// are logged under action and never leak their text.
func fail(c *fiber.Ctx, action string, err error) error {
	status, msg := classify(err)
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	if status == fiber.StatusBadRequest {
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg, "detail": err.Error()})
}

func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Dados inválidos", "detail": "invalid " + field})
}

// ErrorHandler renders a friendly page, or JSON on API routes, without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	msg := "Algo deu errado. Tente novamente."
	switch {
	case status >= fiber.StatusInternalServerError:
		applog.Error(c, "server.error", err, nil)
	case status == fiber.StatusNotFound:
		msg = "Página não encontrada"
	case status == fiber.StatusRequestEntityTooLarge:
		msg = "Arquivo grande demais"
	default:
		msg = "Requisição inválida"
	}
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(status).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}

// NotFound is the catch-all route.
func NotFound(c *fiber.Ctx) error {
	if wantsJSON(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Não encontrado"})
	}
	return notFoundPage(c, fiber.StatusNotFound, "Página não encontrada")
}
