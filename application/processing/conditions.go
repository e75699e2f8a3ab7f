package processing

import (
	"context"
	"fmt"
	"log/slog"

	"pixelwarden/domain/scenario"
)

// conditionEvaluator evaluates a single condition against the current frame.
type conditionEvaluator struct {
	detector ImageDetector
	supplier BitmapSupplier
	logger   *slog.Logger
}

// Evaluate runs one condition against the frame currently loaded in the
// detector. The boolean reports whether evaluation was possible at all: a
// condition without a template, or whose template cannot be supplied, yields
// ok=false so the owning event fails closed for this frame.
//
// An unknown detection type is a contract violation and is returned as an
// error; it must propagate, not be masked.
func (e *conditionEvaluator) Evaluate(ctx context.Context, cond *scenario.Condition) (DetectionResult, bool, error) {
	if cond.TemplateID == "" {
		return DetectionResult{}, false, nil
	}

	width, height := 0, 0
	if cond.DetectionType == scenario.DetectExact {
		width, height = cond.Area.Dx(), cond.Area.Dy()
	}

	template, err := e.supplier(ctx, cond.TemplateID, width, height)
	if err != nil {
		e.logger.Debug("Template unavailable", "template", cond.TemplateID, "error", err)
		return DetectionResult{}, false, nil
	}
	if template == nil {
		return DetectionResult{}, false, nil
	}

	switch cond.DetectionType {
	case scenario.DetectExact:
		return e.detector.DetectTemplateIn(template, cond.Area, cond.Threshold), true, nil
	case scenario.DetectWholeScreen:
		return e.detector.DetectTemplate(template, cond.Threshold), true, nil
	default:
		return DetectionResult{}, false, fmt.Errorf("%w: %d", ErrInvalidDetectionType, int(cond.DetectionType))
	}
}
