// Package storage keeps uploaded objects on local disk, one directory per bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	ProductImages = "product-images"
	VariantImages = "variant-images"
	PaymentProofs = "payment-proofs"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrBadKey          = errors.New("invalid object key")
)

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store is the root directory holding every bucket.
type Store struct {
	root      string
	urlPrefix string
	buckets   map[string]*Bucket
}

// New creates the bucket directories under root. urlPrefix is the path the
// media route is mounted on, usually "/media".
func New(root, urlPrefix string) (*Store, error) {
	s := &Store{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/"), buckets: map[string]*Bucket{}}
	proofTypes := map[string]string{"application/pdf": ".pdf"}
	for k, v := range imageTypes {
		proofTypes[k] = v
	}
	for name, accept := range map[string]map[string]string{
		ProductImages: imageTypes,
		VariantImages: imageTypes,
		PaymentProofs: proofTypes,
	} {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		s.buckets[name] = &Bucket{name: name, dir: dir, urlPrefix: s.urlPrefix, accept: accept}
	}
	return s, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) Bucket(name string) *Bucket { return s.buckets[name] }

type Bucket struct {
	name      string
	dir       string
	urlPrefix string
	accept    map[string]string
}

func (b *Bucket) Name() string { return b.name }

// Sniff returns the content type and file extension for data, or
// ErrUnsupportedType when the bucket does not accept it.
func (b *Bucket) Sniff(data []byte) (string, string, error) {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ext, ok := b.accept[ct]
	if !ok {
		return ct, "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ct, ext, nil
}

// Upload sniffs data, stores it under prefix/<uuid><ext> and returns the key.
func (b *Bucket) Upload(ctx context.Context, prefix string, data []byte) (string, error) {
	ct, ext, err := b.Sniff(data)
	if err != nil {
		return "", err
	}
	key := path.Join(prefix, uuid.NewString()+ext)
	if err := b.Put(ctx, key, bytes.NewReader(data), ct); err != nil {
		return "", err
	}
	return key, nil
}

// Put writes r to key. The file appears atomically.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if _, ok := b.accept[contentType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), full)
}

func (b *Bucket) Open(key string) (io.ReadCloser, error) {
	full, err := b.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Remove deletes key; a missing object is not an error.
func (b *Bucket) Remove(key string) error {
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (b *Bucket) PublicURL(key string) string {
	return b.urlPrefix + "/" + b.name + "/" + key
}

// KeyFromURL reverses PublicURL. The bool is false for URLs outside this bucket.
func (b *Bucket) KeyFromURL(u string) (string, bool) {
	p := b.urlPrefix + "/" + b.name + "/"
	if !strings.HasPrefix(u, p) {
		return "", false
	}
	return strings.TrimPrefix(u, p), true
}

func (b *Bucket) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") || strings.ContainsRune(key, 0) {
		return "", ErrBadKey
	}
	return filepath.Join(b.dir, filepath.FromSlash(clean)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
