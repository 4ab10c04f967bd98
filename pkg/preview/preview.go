// Package preview renders thumbnail previews of staged images and stores them
// next to the uploads they belong to.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/JaimeStill/pdfdesk/pkg/storage"
	"github.com/JaimeStill/pdfdesk/pkg/upload"
)

// DefaultSize is the longest edge of a thumbnail in pixels.
const DefaultSize = 160

// ErrUnsupportedImage indicates the staged file could not be decoded as an image.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Generator implements upload.Generator on top of blob storage.
// Preview handles are storage keys.
type Generator struct {
	store storage.System
	size  int
}

// New creates a Generator writing thumbnails of at most size pixels.
func New(store storage.System, size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{store: store, size: size}
}

// Key returns the storage key of the preview for slotID.
func Key(slotID string) string {
	return fmt.Sprintf("previews/%s.png", slotID)
}

// Generate decodes the staged image, scales it down and stores it as PNG.
func (g *Generator) Generate(ctx context.Context, slotID string, f upload.File) (string, error) {
	data, _, err := storage.ReadAll(ctx, g.store, f.Key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedImage, f.Name, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Thumbnail(img, g.size)); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}

	key := Key(slotID)
	if err := g.store.Upload(ctx, key, &buf, "image/png"); err != nil {
		return "", err
	}
	return key, nil
}

// Release deletes a stored preview. Missing previews are not an error.
func (g *Generator) Release(ctx context.Context, handle string) error {
	if err := g.store.Delete(ctx, handle); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// Thumbnail scales img so its longest edge is at most size, preserving the
// aspect ratio. Images already within bounds are copied unscaled.
func Thumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if longest := max(w, h); longest > size {
		w = max(1, w*size/longest)
		h = max(1, h*size/longest)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
