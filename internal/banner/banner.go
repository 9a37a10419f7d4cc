// Package banner composes promotional banners as PNG images.
package banner

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"superloja/internal/domain"
	"superloja/internal/imageedit"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 400
	MaxWidth      = 2400
	MaxHeight     = 1200
)

var (
	ErrSize     = errors.New("banner size out of range")
	ErrBadColor = errors.New("invalid hex colour")
)

type Spec struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Background string       `json:"background"`
	TextColor  string       `json:"text_color"`
	Title      string       `json:"title" validate:"max=80"`
	Subtitle   string       `json:"subtitle" validate:"max=120"`
	Price      domain.Money `json:"price_cents"`
	ProductID  string       `json:"product_id"`
	Product    image.Image  `json:"-"`
}

func (s *Spec) defaults() {
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.Background == "" {
		s.Background = "#1e3a8a"
	}
	if s.TextColor == "" {
		s.TextColor = "#ffffff"
	}
}

// Generate renders s and returns PNG bytes.
func Generate(s Spec) ([]byte, error) {
	img, err := Render(s)
	if err != nil {
		return nil, err
	}
	return imageedit.EncodePNG(img)
}

func Render(s Spec) (*image.NRGBA, error) {
	s.defaults()
	if s.Width < 100 || s.Height < 50 || s.Width > MaxWidth || s.Height > MaxHeight {
		return nil, fmt.Errorf("%w: %dx%d", ErrSize, s.Width, s.Height)
	}
	bg, err := ParseHex(s.Background)
	if err != nil {
		return nil, err
	}
	fg, err := ParseHex(s.TextColor)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(s.Width, s.Height, bg)
	pad := s.Height / 10
	textW := s.Width * 60 / 100

	if s.Product != nil {
		fit := imaging.Fit(s.Product, s.Width*35/100, s.Height-2*pad, imaging.Lanczos)
		fb := fit.Bounds()
		canvas = imaging.Overlay(canvas, fit, image.Pt(s.Width-fb.Dx()-pad, (s.Height-fb.Dy())/2), 1)
	} else {
		textW = s.Width - 2*pad
	}

	y := pad
	if s.Title != "" {
		t := text(s.Title, fg, textW, max(1, s.Height/80))
		canvas = imaging.Overlay(canvas, t, image.Pt(pad, y), 1)
		y += t.Bounds().Dy() + pad/2
	}
	if s.Subtitle != "" {
		t := text(s.Subtitle, fg, textW, max(1, s.Height/160))
		canvas = imaging.Overlay(canvas, t, image.Pt(pad, y), 1)
	}
	if s.Price > 0 {
		label := text(s.Price.String(), bg, textW, max(1, s.Height/120))
		lb := label.Bounds()
		tag := imaging.New(lb.Dx()+pad, lb.Dy()+pad/2, fg)
		tag = imaging.Overlay(tag, label, image.Pt(pad/2, pad/4), 1)
		canvas = imaging.Overlay(canvas, tag, image.Pt(pad, s.Height-tag.Bounds().Dy()-pad), 1)
	}
	return canvas, nil
}

// text draws s with the 7x13 bitmap face, scaled up by the largest factor
// not exceeding scale that keeps it within maxW.
func text(s string, col color.Color, maxW, scale int) *image.NRGBA {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	for scale > 1 && w*scale > maxW {
		scale--
	}
	for w > maxW && len(s) > 1 {
		r := []rune(s)
		s = string(r[:len(r)-1])
		w = font.MeasureString(face, s).Ceil()
	}
	h := face.Height
	dst := image.NewNRGBA(image.Rect(0, 0, max(w, 1), h))
	d := font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face, Dot: fixed.P(0, face.Ascent)}
	d.DrawString(s)
	if scale == 1 {
		return dst
	}
	return imaging.Resize(dst, dst.Bounds().Dx()*scale, dst.Bounds().Dy()*scale, imaging.NearestNeighbor)
}

// ParseHex reads #rgb or #rrggbb.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
