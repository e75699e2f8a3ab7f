package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// ChromeDPDriver implements Driver using chromedp.
type ChromeDPDriver struct {
	config      *DriverConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	running     bool
}

// NewChromeDPDriver creates a new ChromeDP-based capture driver.
func NewChromeDPDriver(config *DriverConfig) *ChromeDPDriver {
	if config == nil {
		config = DefaultDriverConfig()
	}
	return &ChromeDPDriver{
		config: config,
	}
}

// buildExecAllocatorOptions builds chromedp options from config.
func (d *ChromeDPDriver) buildExecAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.Flag("hide-scrollbars", d.config.HideScrollbars),
		chromedp.Flag("mute-audio", d.config.MuteAudio),
		chromedp.Flag("disable-gpu", d.config.DisableGPU),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(d.config.WindowWidth, d.config.WindowHeight),
	)

	if d.config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(d.config.UserDataDir))
	}

	return opts
}

// Start initializes the browser instance.
func (d *ChromeDPDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("capture surface already running")
	}

	// Create allocator context from context.Background() to ensure browser lifecycle
	// is independent of the caller's context
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(
		context.Background(),
		d.buildExecAllocatorOptions()...,
	)

	d.ctx, d.cancel = chromedp.NewContext(d.allocCtx)

	d.running = true
	return nil
}

// Stop closes the browser and releases resources.
func (d *ChromeDPDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.running = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	d.ctx = nil
	d.allocCtx = nil
	return nil
}

// IsRunning returns true if the capture surface is active.
func (d *ChromeDPDriver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// browserContext snapshots the current browser context under the lock.
func (d *ChromeDPDriver) browserContext() (context.Context, error) {
	d.mu.Lock()
	browserCtx := d.ctx
	running := d.running
	d.mu.Unlock()

	if !running || browserCtx == nil {
		return nil, fmt.Errorf("capture surface not running")
	}
	return browserCtx, nil
}

// Navigate navigates to the specified URL.
func (d *ChromeDPDriver) Navigate(ctx context.Context, url string) error {
	browserCtx, err := d.browserContext()
	if err != nil {
		return err
	}

	return chromedp.Run(browserCtx, chromedp.Navigate(url))
}

// Click performs a mouse click at the specified coordinates.
func (d *ChromeDPDriver) Click(ctx context.Context, x, y float64) error {
	browserCtx, err := d.browserContext()
	if err != nil {
		return err
	}

	// Add timeout protection
	timeoutCtx, cancel := context.WithTimeout(browserCtx, 5*time.Second)
	defer cancel()

	return chromedp.Run(timeoutCtx,
		chromedp.MouseClickXY(x, y, chromedp.ButtonLeft),
	)
}

// Swipe performs a mouse drag from one point to another.
// It interpolates intermediate points for smooth, realistic dragging.
func (d *ChromeDPDriver) Swipe(ctx context.Context, fromX, fromY, toX, toY float64) error {
	browserCtx, err := d.browserContext()
	if err != nil {
		return err
	}

	return chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		const frameInterval = time.Second / 60 // ~16.67ms per frame

		// Press at start position
		p := &input.DispatchMouseEventParams{
			Type:       input.MousePressed,
			X:          fromX,
			Y:          fromY,
			Button:     input.Left,
			ClickCount: 1,
		}
		if err := p.Do(ctx); err != nil {
			return err
		}

		// Interpolate intermediate points for smooth dragging
		const steps = 10
		deltaX := (toX - fromX) / float64(steps)
		deltaY := (toY - fromY) / float64(steps)

		for i := 1; i <= steps; i++ {
			p.Type = input.MouseMoved
			p.X = fromX + deltaX*float64(i)
			p.Y = fromY + deltaY*float64(i)

			if err := p.Do(ctx); err != nil {
				return err
			}

			time.Sleep(frameInterval)
		}

		// Release at end position
		p.Type = input.MouseReleased
		return p.Do(ctx)
	}))
}

// CaptureScreen captures the current browser screen.
func (d *ChromeDPDriver) CaptureScreen(ctx context.Context) (image.Image, error) {
	browserCtx, err := d.browserContext()
	if err != nil {
		return nil, err
	}

	// Add timeout protection
	timeoutCtx, cancel := context.WithTimeout(browserCtx, 3*time.Second)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(timeoutCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	return img, nil
}

// SetViewport sets the browser viewport size.
func (d *ChromeDPDriver) SetViewport(ctx context.Context, width, height int) error {
	browserCtx, err := d.browserContext()
	if err != nil {
		return err
	}

	return chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(width), int64(height)),
	)
}
