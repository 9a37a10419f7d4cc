package banner

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAndBackground(t *testing.T) {
	img, err := Render(Spec{Background: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, DefaultWidth, DefaultHeight), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(DefaultWidth-1, DefaultHeight-1))
}

func TestGenerateWithEverything(t *testing.T) {
	product := imaging.New(300, 600, color.NRGBA{G: 200, A: 255})
	raw, err := Generate(Spec{
		Width: 1000, Height: 300, Background: "#123", TextColor: "#fff",
		Title: "Semana do Consumidor", Subtitle: "Até 40% em eletrônicos", Price: 19990,
		Product: product,
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1000, 300), img.Bounds())

	// product sits on the right half
	r, g, _, _ := img.At(900, 150).RGBA()
	assert.Equal(t, uint32(0), r>>8)
	assert.Equal(t, uint32(200), g>>8)
}

func TestRejectsBadInput(t *testing.T) {
	_, err := Render(Spec{Width: 5000, Height: 400})
	assert.ErrorIs(t, err, ErrSize)
	_, err = Render(Spec{Width: 2400, Height: 1300})
	assert.ErrorIs(t, err, ErrSize)
	_, err = Render(Spec{Background: "blue"})
	assert.ErrorIs(t, err, ErrBadColor)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#0a0B0c")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 10, G: 11, B: 12, A: 255}, c)
	c, err = ParseHex("fff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, c)
}
