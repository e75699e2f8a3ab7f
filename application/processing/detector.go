// Package processing implements the per-frame evaluation loop: condition
// evaluation against an image detector, event matching with short-circuit
// AND/OR semantics, end-condition bookkeeping and the frame pass orchestrator.
package processing

import (
	"context"
	"errors"
	"image"

	"pixelwarden/domain/scenario"
)

// ErrInvalidDetectionType reports a detection type outside the known set.
// This is a broken upstream invariant, not a recoverable condition: it
// propagates out of the frame pass and terminates the run.
var ErrInvalidDetectionType = errors.New("invalid detection type")

// DetectionResult is the outcome of matching one condition template against
// the current frame. It is produced once per condition per frame and never
// mutated afterwards.
type DetectionResult struct {
	// Detected reports whether the template was found.
	Detected bool

	// Position is the center of the best match in frame coordinates.
	Position image.Point

	// Confidence is the match confidence in percent (0-100).
	Confidence float64
}

// ImageDetector is the opaque visual-matching capability. Implementations
// compare a template bitmap against the frame loaded by SetupDetection.
//
// Detector calls are sequenced by the single processing task; implementations
// may keep per-frame state between SetupDetection and the Detect calls.
type ImageDetector interface {
	// SetupDetection loads the raw capture as the current frame. It may
	// reuse a previously allocated buffer to avoid per-frame allocation.
	SetupDetection(frame image.Image)

	// RefreshCalibration recomputes detector scaling after the screen
	// metrics changed (e.g. a resolution change). Called at most once per
	// invalidation, never per frame.
	RefreshCalibration()

	// DetectTemplate searches the entire current frame for the template.
	DetectTemplate(template image.Image, threshold int) DetectionResult

	// DetectTemplateIn compares the template against the given region of
	// the current frame.
	DetectTemplateIn(template image.Image, area image.Rectangle, threshold int) DetectionResult
}

// BitmapSupplier provides the template bitmap for a condition, sized to the
// requested dimensions. Width and height of zero request the template's
// natural size. Returning a nil image signals "template unavailable", which
// fails the owning event closed for this frame without halting the scenario.
type BitmapSupplier func(ctx context.Context, templateID string, width, height int) (image.Image, error)

// ActionExecutor dispatches a matched event's actions. The frame pass does
// not wait for completion; execution is fire-and-forget from the loop's
// perspective. The position is the deciding condition's detection position,
// or nil when the match carries none.
type ActionExecutor interface {
	ExecuteActions(actions []scenario.Action, position *image.Point)
}
