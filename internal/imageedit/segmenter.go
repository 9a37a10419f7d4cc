package imageedit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"net/http"
	"time"
)

// HTTPSegmenter posts a PNG to URL and expects a grayscale PNG mask back.
type HTTPSegmenter struct {
	URL    string
	Client *http.Client
}

func NewHTTPSegmenter(url string) *HTTPSegmenter {
	return &HTTPSegmenter{URL: url, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *HTTPSegmenter) Segment(ctx context.Context, img image.Image) (*image.Gray, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("segmentation service not configured")
	}
	body, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segmentation service: status %d", resp.StatusCode)
	}
	m, _, err := image.Decode(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("segmentation mask: %w", err)
	}
	if g, ok := m.(*image.Gray); ok {
		return g, nil
	}
	g := image.NewGray(m.Bounds())
	draw.Draw(g, g.Bounds(), m, m.Bounds().Min, draw.Src)
	return g, nil
}
