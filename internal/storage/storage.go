// Package storage keeps movie poster images.  Posters are validated in
// memory (size and sniffed type) before a PosterStore writes them under a
// random key; the key is what the movies table stores.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-review/internal/config"
)

var (
	// ErrTooLarge is returned by ReadImage when the upload exceeds the limit.
	ErrTooLarge = errors.New("poster is too large")
	// ErrNotImage is returned by ReadImage for anything but jpeg/png/gif/webp.
	ErrNotImage = errors.New("poster is not a supported image")
)

//go:generate mockgen -source=storage.go -destination=../mock/poster_store_mock.go -package=mock

// PosterStore persists poster images.
type PosterStore interface {
	// Save writes img under a new key and returns the key.
	Save(ctx context.Context, img Image) (string, error)
	// Delete removes the object stored under key.  Missing objects are not
	// an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}

// Image is a validated upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ReadImage reads at most max bytes from r and checks that they form a
// supported image.
func ReadImage(r io.Reader, max int64) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return Image{}, fmt.Errorf("read poster: %w", err)
	}
	if int64(len(data)) > max {
		return Image{}, ErrTooLarge
	}
	ct := http.DetectContentType(data)
	ext, ok := imageTypes[ct]
	if !ok {
		return Image{}, ErrNotImage
	}
	return Image{Data: data, ContentType: ct, Ext: ext}, nil
}

func (img Image) reader() io.Reader { return bytes.NewReader(img.Data) }

// NewKey returns a random object key for an image with extension ext.
func NewKey(ext string) string {
	return "posters/" + uuid.NewString() + ext
}

// validKey rejects keys that could escape the poster prefix.
func validKey(key string) bool {
	return strings.HasPrefix(key, "posters/") && !strings.Contains(key, "..") && !strings.Contains(key, "\\")
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (PosterStore, error) {
	switch cfg.Driver {
	case "local":
		return NewLocal(cfg.MediaDir, cfg.MediaURL), nil
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
