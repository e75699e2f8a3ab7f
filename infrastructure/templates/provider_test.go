package templates

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"templates/button.png": &fstest.MapFile{
			Data: encodePNG(t, 20, 10, color.RGBA{R: 200, G: 100, B: 50, A: 255}),
		},
		"templates/broken.png": &fstest.MapFile{
			Data: []byte("not a png"),
		},
	}
}

func TestProvider_SupplyNaturalSize(t *testing.T) {
	p := NewProvider(testFS(t))

	img, err := p.Supply(context.Background(), "button", 0, 0)
	if err != nil {
		t.Fatalf("Supply returned error: %v", err)
	}
	if img == nil {
		t.Fatal("Expected an image for an existing template")
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("Expected natural size 20x10, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestProvider_SupplyResized(t *testing.T) {
	p := NewProvider(testFS(t))

	img, err := p.Supply(context.Background(), "button", 40, 20)
	if err != nil {
		t.Fatalf("Supply returned error: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("Expected resized 40x20, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestProvider_SupplyMissing(t *testing.T) {
	p := NewProvider(testFS(t))

	img, err := p.Supply(context.Background(), "no-such-template", 0, 0)
	if err != nil {
		t.Fatalf("A missing template must not be an error, got %v", err)
	}
	if img != nil {
		t.Error("Expected nil image for a missing template")
	}
}

func TestProvider_SupplyEmptyID(t *testing.T) {
	p := NewProvider(testFS(t))

	img, err := p.Supply(context.Background(), "", 0, 0)
	if err != nil || img != nil {
		t.Errorf("Empty ID must yield (nil, nil), got (%v, %v)", img, err)
	}
}

func TestProvider_SupplyUndecodable(t *testing.T) {
	p := NewProvider(testFS(t))

	if _, err := p.Supply(context.Background(), "broken", 0, 0); err == nil {
		t.Error("Expected an error for an undecodable template")
	}
}

func TestProvider_CacheAndInvalidate(t *testing.T) {
	fsys := testFS(t)
	p := NewProvider(fsys)

	if _, err := p.Supply(context.Background(), "button", 0, 0); err != nil {
		t.Fatalf("Supply returned error: %v", err)
	}

	// The cached variant survives removal from the backing filesystem.
	delete(fsys, "templates/button.png")
	img, err := p.Supply(context.Background(), "button", 0, 0)
	if err != nil || img == nil {
		t.Fatalf("Expected cached image, got (%v, %v)", img, err)
	}

	// Invalidation forces a reload, which now misses.
	p.Invalidate("button")
	img, err = p.Supply(context.Background(), "button", 0, 0)
	if err != nil {
		t.Fatalf("Supply returned error: %v", err)
	}
	if img != nil {
		t.Error("Expected nil image after invalidation of a removed template")
	}
}
