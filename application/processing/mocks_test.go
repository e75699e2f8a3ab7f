package processing

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"pixelwarden/domain/scenario"
)

// fakeTemplate is a stand-in template bitmap that carries its id so the
// fake detector can look up a scripted result.
type fakeTemplate struct {
	id string
}

func (t *fakeTemplate) ColorModel() color.Model { return color.RGBAModel }
func (t *fakeTemplate) Bounds() image.Rectangle { return image.Rect(0, 0, 1, 1) }
func (t *fakeTemplate) At(x, y int) color.Color { return color.RGBA{} }

// fakeDetector returns scripted results per template id and records calls.
type fakeDetector struct {
	results      map[string]DetectionResult
	setupCalls   int
	refreshCalls int
	detectCalls  []string
}

func newFakeDetector() *fakeDetector {
	return &fakeDetector{results: make(map[string]DetectionResult)}
}

func (d *fakeDetector) detect(template image.Image) DetectionResult {
	ft, ok := template.(*fakeTemplate)
	if !ok {
		return DetectionResult{}
	}
	d.detectCalls = append(d.detectCalls, ft.id)
	return d.results[ft.id]
}

func (d *fakeDetector) SetupDetection(frame image.Image) { d.setupCalls++ }
func (d *fakeDetector) RefreshCalibration()              { d.refreshCalls++ }

func (d *fakeDetector) DetectTemplate(template image.Image, threshold int) DetectionResult {
	return d.detect(template)
}

func (d *fakeDetector) DetectTemplateIn(template image.Image, area image.Rectangle, threshold int) DetectionResult {
	return d.detect(template)
}

// fakeSupplier serves fakeTemplates, with configurable missing ids.
type fakeSupplier struct {
	missing map[string]bool
	failing map[string]bool
	calls   int
}

func newFakeSupplier() *fakeSupplier {
	return &fakeSupplier{missing: make(map[string]bool), failing: make(map[string]bool)}
}

func (s *fakeSupplier) supply(ctx context.Context, id string, width, height int) (image.Image, error) {
	s.calls++
	if s.failing[id] {
		return nil, fmt.Errorf("decode failed for %s", id)
	}
	if s.missing[id] {
		return nil, nil
	}
	return &fakeTemplate{id: id}, nil
}

// fakeExecutor records dispatched actions.
type fakeExecutor struct {
	mu        sync.Mutex
	dispatches int
	lastActions []scenario.Action
	lastPos     *image.Point
}

func (e *fakeExecutor) ExecuteActions(actions []scenario.Action, position *image.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatches++
	e.lastActions = actions
	e.lastPos = position
}

// recordingListener records the order of progress notifications.
type recordingListener struct {
	calls []string
}

func (l *recordingListener) OnFrameProcessingStarted()   { l.calls = append(l.calls, "frame-start") }
func (l *recordingListener) OnFrameProcessingCompleted() { l.calls = append(l.calls, "frame-done") }

func (l *recordingListener) OnEventProcessingStarted(ev *scenario.Event) {
	l.calls = append(l.calls, "event-start:"+ev.ID)
}

func (l *recordingListener) OnEventProcessingCompleted(ev *scenario.Event, outcome EventOutcome) {
	l.calls = append(l.calls, fmt.Sprintf("event-done:%s:%v", ev.ID, outcome.Matched))
}

func (l *recordingListener) OnConditionProcessingStarted(cond *scenario.Condition) {
	l.calls = append(l.calls, "cond-start:"+cond.Name)
}

func (l *recordingListener) OnConditionProcessingCompleted(cond *scenario.Condition, result DetectionResult, ok bool) {
	l.calls = append(l.calls, fmt.Sprintf("cond-done:%s:%v", cond.Name, ok))
}

// condition builds a whole-screen condition asserting presence by default.
func condition(name, templateID string, shouldBeDetected bool) *scenario.Condition {
	return &scenario.Condition{
		Name:             name,
		TemplateID:       templateID,
		DetectionType:    scenario.DetectWholeScreen,
		Threshold:        80,
		ShouldBeDetected: shouldBeDetected,
	}
}

// testFrame is a minimal frame image for ProcessFrame calls.
func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}
