package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"

	"superloja/internal/banner"
	"superloja/internal/imageedit"
	applog "superloja/internal/log"
	"superloja/internal/services"
	"superloja/internal/storage"
	"superloja/internal/validate"
)

// MediaHandler serves stored objects and the admin image tools.
type MediaHandler struct {
	Store     *storage.Store
	Images    *services.ImageService
	Segmenter imageedit.Segmenter
}

// GET /media/*
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	path := c.Params("*")
	rawLower := strings.ToLower(path)
	// Block encoded traversal attempts as well as raw .. or null bytes
	if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": path})
		return c.SendStatus(fiber.StatusNotFound)
	}
	clean := filepath.Clean(path)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		applog.Security(c, "media.traversal.block", map[string]any{"path": path})
		return c.SendStatus(fiber.StatusNotFound)
	}
	// Proofs are served only through the owner-checked order route.
	if bucket, _, _ := strings.Cut(filepath.ToSlash(clean), "/"); bucket == storage.PaymentProofs {
		applog.Security(c, "media.proof.block", map[string]any{"path": path})
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendFile(filepath.Join(h.Store.Root(), clean), true)
}

// GET /admin/api/products/:id/images
func (h *MediaHandler) ListImages(c *fiber.Ctx) error {
	imgs, err := h.Images.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.images.list.fail", err)
	}
	return c.JSON(fiber.Map{"images": imgs})
}

// POST /admin/api/products/:id/images (multipart "file")
func (h *MediaHandler) UploadImage(c *fiber.Ctx) error {
	data, err := readUpload(c)
	if err != nil {
		if errors.Is(err, fiber.ErrRequestEntityTooLarge) {
			return err
		}
		return fail(c, "admin.images.upload.fail", err)
	}
	pid := c.Params("id")
	img, err := h.Images.Upload(c.UserContext(), pid, data)
	if err != nil {
		return fail(c, "admin.images.upload.fail", err)
	}
	applog.Audit(c, "admin.images.upload", map[string]any{"product": pid, "image_id": img.ID})
	return c.Status(fiber.StatusCreated).JSON(img)
}

// DELETE /admin/api/products/:id/images/:imageId
func (h *MediaHandler) RemoveImage(c *fiber.Ctx) error {
	pid, iid := c.Params("id"), c.Params("imageId")
	if err := h.Images.Remove(c.UserContext(), pid, iid); err != nil {
		return fail(c, "admin.images.remove.fail", err)
	}
	applog.Audit(c, "admin.images.remove", map[string]any{"product": pid, "image_id": iid})
	return c.SendStatus(fiber.StatusNoContent)
}

type editInput struct {
	Image       string                 `json:"image"`
	Adjustments *imageedit.Adjustments `json:"adjustments"`
	Reset       bool                   `json:"reset"`
}

func (h *MediaHandler) editor(c *fiber.Ctx) (*imageedit.Editor, editInput, error) {
	var in editInput
	if err := c.BodyParser(&in); err != nil {
		return nil, in, errors.Join(services.ErrInvalidInput, err)
	}
	if in.Adjustments == nil {
		d := imageedit.Defaults()
		in.Adjustments = &d
	}
	if err := validate.Struct(in.Adjustments); err != nil {
		return nil, in, err
	}
	ed, err := imageedit.NewEditor(in.Image)
	return ed, in, err
}

// POST /admin/api/images/edit
func (h *MediaHandler) Edit(c *fiber.Ctx) error {
	ed, in, err := h.editor(c)
	if err != nil {
		return fail(c, "admin.images.edit.fail", err)
	}
	if in.Reset {
		return c.JSON(fiber.Map{"image": ed.Reset(), "adjustments": imageedit.Defaults()})
	}
	out, err := ed.Apply(*in.Adjustments)
	if err != nil {
		return fail(c, "admin.images.edit.fail", err)
	}
	return c.JSON(fiber.Map{"image": out, "adjustments": ed.Adjustments()})
}

// POST /admin/api/images/remove-background
func (h *MediaHandler) RemoveBackground(c *fiber.Ctx) error {
	if h.Segmenter == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Remoção de fundo indisponível"})
	}
	ed, in, err := h.editor(c)
	if err != nil {
		return fail(c, "admin.images.background.fail", err)
	}
	if _, err := ed.Apply(*in.Adjustments); err != nil {
		return fail(c, "admin.images.background.fail", err)
	}
	out, err := ed.RemoveBackground(c.UserContext(), h.Segmenter)
	if err != nil {
		if errors.Is(err, imageedit.ErrMaskSize) {
			return fail(c, "admin.images.background.fail", err)
		}
		applog.Error(c, "admin.images.background.fail", err, nil)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Não foi possível remover o fundo"})
	}
	return c.JSON(fiber.Map{"image": out})
}

// POST /admin/api/banners
func (h *MediaHandler) Banner(c *fiber.Ctx) error {
	var spec banner.Spec
	if err := c.BodyParser(&spec); err != nil {
		return badRequest(c, "body")
	}
	if err := validate.Struct(spec); err != nil {
		return fail(c, "admin.banner.fail", err)
	}
	if spec.ProductID != "" {
		p, rc, err := h.Images.Main(c.UserContext(), spec.ProductID)
		if err != nil {
			return fail(c, "admin.banner.fail", err)
		}
		if rc != nil {
			img, derr := imaging.Decode(rc)
			rc.Close()
			if derr != nil {
				return fail(c, "admin.banner.fail", derr)
			}
			spec.Product = img
		}
		if spec.Title == "" {
			spec.Title = p.Name
		}
		if spec.Price == 0 {
			spec.Price = p.Price
		}
	}
	png, err := banner.Generate(spec)
	if err != nil {
		return fail(c, "admin.banner.fail", err)
	}
	applog.Audit(c, "admin.banner.generate", map[string]any{"product": spec.ProductID, "width": spec.Width, "height": spec.Height})
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
