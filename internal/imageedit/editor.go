// Package imageedit applies colour adjustments and background removal to an
// uploaded image, always starting from the original bytes.
package imageedit

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	ErrBadDataURL = errors.New("invalid image data url")
	ErrMaskSize   = errors.New("mask size does not match image")
)

// Adjustments use CSS filter semantics: percentages for brightness, contrast
// and saturation (100 is identity) and degrees for hue rotation.
type Adjustments struct {
	Brightness float64 `json:"brightness" validate:"gte=0,lte=300"`
	Contrast   float64 `json:"contrast" validate:"gte=0,lte=300"`
	Saturation float64 `json:"saturation" validate:"gte=0,lte=300"`
	Hue        float64 `json:"hue" validate:"gte=-360,lte=360"`
}

func Defaults() Adjustments {
	return Adjustments{Brightness: 100, Contrast: 100, Saturation: 100, Hue: 0}
}

func (a Adjustments) identity() bool { return a == Defaults() }

// Segmenter returns a foreground mask for img: 255 keeps a pixel, 0 clears it.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (*image.Gray, error)
}

type Editor struct {
	original string
	src      image.Image
	adj      Adjustments
}

// NewEditor decodes a data URL (png, jpeg or gif).
func NewEditor(dataURL string) (*Editor, error) {
	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return &Editor{original: dataURL, src: img, adj: Defaults()}, nil
}

func (e *Editor) Adjustments() Adjustments { return e.adj }

func (e *Editor) Original() string { return e.original }

// Apply renders adj over the original image and returns a PNG data URL.
func (e *Editor) Apply(adj Adjustments) (string, error) {
	e.adj = adj
	return encodeDataURL(e.render())
}

// Reset restores the default adjustments and returns the original data URL unchanged.
func (e *Editor) Reset() string {
	e.adj = Defaults()
	return e.original
}

// RemoveBackground masks the currently adjusted image with seg's output.
func (e *Editor) RemoveBackground(ctx context.Context, seg Segmenter) (string, error) {
	current := e.render()
	mask, err := seg.Segment(ctx, current)
	if err != nil {
		return "", fmt.Errorf("segmentation: %w", err)
	}
	out, err := applyMask(current, mask)
	if err != nil {
		return "", err
	}
	return encodeDataURL(out)
}

func (e *Editor) render() *image.NRGBA {
	if e.adj.identity() {
		return imaging.Clone(e.src)
	}
	m := filterMatrix(e.adj)
	return imaging.AdjustFunc(e.src, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
		nr := m[0][0]*r + m[0][1]*g + m[0][2]*b + m[0][3]
		ng := m[1][0]*r + m[1][1]*g + m[1][2]*b + m[1][3]
		nb := m[2][0]*r + m[2][1]*g + m[2][2]*b + m[2][3]
		return color.NRGBA{R: clamp(nr), G: clamp(ng), B: clamp(nb), A: c.A}
	})
}

func applyMask(img *image.NRGBA, mask *image.Gray) (*image.NRGBA, error) {
	if mask == nil || mask.Bounds().Dx() != img.Bounds().Dx() || mask.Bounds().Dy() != img.Bounds().Dy() {
		return nil, ErrMaskSize
	}
	out := imaging.Clone(img)
	b := out.Bounds()
	mb := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			m := mask.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y
			out.Pix[i+3] = uint8(uint16(out.Pix[i+3]) * uint16(m) / 255)
		}
	}
	return out, nil
}

type matrix [3][4]float64

func mul(a, b matrix) matrix {
	var out matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			v := a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
			if j == 3 {
				v += a[i][3]
			}
			out[i][j] = v
		}
	}
	return out
}

// filterMatrix composes brightness, contrast, saturate and hue-rotate in that order.
func filterMatrix(a Adjustments) matrix {
	br := a.Brightness / 100
	ct := a.Contrast / 100
	s := a.Saturation / 100
	off := 0.5 - 0.5*ct

	brightness := matrix{{br, 0, 0, 0}, {0, br, 0, 0}, {0, 0, br, 0}}
	contrast := matrix{{ct, 0, 0, off}, {0, ct, 0, off}, {0, 0, ct, off}}
	saturate := matrix{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s, 0},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s, 0},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s, 0},
	}
	rad := a.Hue * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	hue := matrix{
		{0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928, 0},
		{0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283, 0},
		{0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072, 0},
	}
	return mul(hue, mul(saturate, mul(contrast, brightness)))
}

func clamp(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func decodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrBadDataURL
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
		return nil, ErrBadDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return raw, nil
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeDataURL(img image.Image) (string, error) {
	raw, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// DataURL wraps already-encoded bytes.
func DataURL(contentType string, raw []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}
