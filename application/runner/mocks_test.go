package runner

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"pixelwarden/application/processing"
)

// fakeDriver is an in-memory capture.Driver that serves programmable frames
// and records injected input.
type fakeDriver struct {
	mu      sync.Mutex
	running bool

	frames     func(n int) (image.Image, error)
	captures   int
	navigated  []string
	clicks     []image.Point
	swipes     [][4]float64
	startErr   error
	stopCalled bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		frames: func(int) (image.Image, error) {
			return solidFrame(64, 48, color.RGBA{R: 30, G: 30, B: 30, A: 255}), nil
		},
	}
}

func solidFrame(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func (d *fakeDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.running = true
	return nil
}

func (d *fakeDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.stopCalled = true
	return nil
}

func (d *fakeDriver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *fakeDriver) CaptureScreen(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	n := d.captures
	d.captures++
	frames := d.frames
	d.mu.Unlock()
	return frames(n)
}

func (d *fakeDriver) Click(ctx context.Context, x, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks = append(d.clicks, image.Pt(int(x), int(y)))
	return nil
}

func (d *fakeDriver) Swipe(ctx context.Context, fromX, fromY, toX, toY float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.swipes = append(d.swipes, [4]float64{fromX, fromY, toX, toY})
	return nil
}

func (d *fakeDriver) SetViewport(ctx context.Context, width, height int) error {
	return nil
}

func (d *fakeDriver) clickCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clicks)
}

func (d *fakeDriver) captureCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.captures
}

// scriptedDetector is a processing.ImageDetector with a fixed answer.
type scriptedDetector struct {
	mu         sync.Mutex
	detectAll  bool
	setupCalls int
}

func (d *scriptedDetector) SetupDetection(frame image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setupCalls++
}

func (d *scriptedDetector) RefreshCalibration() {}

func (d *scriptedDetector) DetectTemplate(template image.Image, threshold int) processing.DetectionResult {
	return d.answer()
}

func (d *scriptedDetector) DetectTemplateIn(template image.Image, area image.Rectangle, threshold int) processing.DetectionResult {
	return d.answer()
}

func (d *scriptedDetector) answer() processing.DetectionResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detectAll {
		return processing.DetectionResult{Detected: true, Position: image.Pt(10, 20), Confidence: 99}
	}
	return processing.DetectionResult{Confidence: 10}
}

func (d *scriptedDetector) passes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setupCalls
}

// stubSupplier always provides a 1x1 template.
func stubSupplier(ctx context.Context, templateID string, width, height int) (image.Image, error) {
	if templateID == "" {
		return nil, fmt.Errorf("empty template id")
	}
	return solidFrame(1, 1, color.RGBA{A: 255}), nil
}
