// Package templates loads and caches condition template bitmaps.
package templates

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/nfnt/resize"

	"pixelwarden/infrastructure/logging"
)

// Provider loads template bitmaps from a filesystem and caches decoded,
// sized variants. A missing template is not an error: Supply returns a nil
// image so the caller can fail the owning condition closed for the frame.
type Provider struct {
	fsys   fs.FS
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[cacheKey]image.Image
}

type cacheKey struct {
	id     string
	width  int
	height int
}

// NewProvider creates a template provider backed by fsys. Template IDs are
// resolved as "templates/<id>.png" within the filesystem.
func NewProvider(fsys fs.FS) *Provider {
	return &Provider{
		fsys:   fsys,
		logger: logging.L().With("component", "templates"),
		cache:  make(map[cacheKey]image.Image),
	}
}

// Supply returns the template bitmap for id, resized to width x height.
// Width and height of zero request the natural size. A template that does
// not exist yields (nil, nil); a template that exists but cannot be decoded
// yields an error.
func (p *Provider) Supply(ctx context.Context, id string, width, height int) (image.Image, error) {
	if id == "" {
		return nil, nil
	}

	key := cacheKey{id: id, width: width, height: height}
	p.mu.RLock()
	img, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return img, nil
	}

	data, err := fs.ReadFile(p.fsys, p.path(id))
	if err != nil {
		p.logger.Debug("template not found", "template", id, "error", err)
		return nil, nil
	}

	img, err = png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %q: %w", id, err)
	}

	if width > 0 && height > 0 {
		img = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	}

	p.mu.Lock()
	p.cache[key] = img
	p.mu.Unlock()

	return img, nil
}

// Invalidate drops all cached variants of id, forcing a reload on next use.
func (p *Provider) Invalidate(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.cache {
		if key.id == id {
			delete(p.cache, key)
		}
	}
}

func (p *Provider) path(id string) string {
	return "templates/" + id + ".png"
}
