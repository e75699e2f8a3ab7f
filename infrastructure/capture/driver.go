// Package capture provides the screen capture and input injection surface.
package capture

import (
	"context"
	"image"
)

// Driver defines the interface for the capture/input surface.
// This abstraction allows for different backends (ChromeDP, a recorded
// frame source for tests, etc.)
type Driver interface {
	// Start initializes the capture surface.
	Start(ctx context.Context) error

	// Stop closes the surface and releases resources.
	Stop() error

	// IsRunning returns true if the surface is active.
	IsRunning() bool

	// Navigate points the surface at the specified URL.
	Navigate(ctx context.Context, url string) error

	// CaptureScreen captures the current frame.
	CaptureScreen(ctx context.Context) (image.Image, error)

	// Click performs a mouse click at the specified coordinates.
	Click(ctx context.Context, x, y float64) error

	// Swipe performs a mouse drag from one point to another over the
	// given duration.
	Swipe(ctx context.Context, fromX, fromY, toX, toY float64) error

	// SetViewport sets the capture viewport size. Changing the viewport
	// invalidates any detector calibration derived from frame dimensions.
	SetViewport(ctx context.Context, width, height int) error
}

// DriverConfig holds configuration for capture drivers.
type DriverConfig struct {
	// Headless runs the browser without a visible window.
	Headless bool

	// WindowWidth is the browser window width.
	WindowWidth int

	// WindowHeight is the browser window height.
	WindowHeight int

	// ViewportWidth is the viewport width.
	ViewportWidth int

	// ViewportHeight is the viewport height.
	ViewportHeight int

	// DisableGPU disables GPU acceleration.
	DisableGPU bool

	// MuteAudio mutes browser audio.
	MuteAudio bool

	// HideScrollbars hides scrollbars.
	HideScrollbars bool

	// UserDataDir specifies a custom user data directory.
	UserDataDir string
}

// DefaultDriverConfig returns default capture configuration.
func DefaultDriverConfig() *DriverConfig {
	return &DriverConfig{
		Headless:       true,
		WindowWidth:    1280,
		WindowHeight:   800,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		DisableGPU:     false,
		MuteAudio:      true,
		HideScrollbars: true,
	}
}
