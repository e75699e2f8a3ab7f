// Package detection implements template matching against captured frames
// using mean absolute pixel difference as the similarity measure.
package detection

import (
	"image"
	"image/draw"
	"sync"

	"github.com/nfnt/resize"

	"pixelwarden/application/processing"
)

// DefaultQuality bounds the longer frame edge used for whole-screen searches
// when the scenario does not specify a detection quality.
const DefaultQuality = 480

// Detector matches template bitmaps against the current frame. All methods
// are called from a single processing task; the per-frame buffers are not
// safe for concurrent use.
type Detector struct {
	// quality bounds the longer edge of the downscaled search frame.
	quality int

	mu sync.Mutex

	// frame is the current full-resolution capture, converted to RGBA.
	frame *image.RGBA

	// scaled is the quality-bounded downscale of frame used by
	// whole-screen searches. Rebuilt lazily after each SetupDetection.
	scaled *image.RGBA

	// ratio maps full-resolution coordinates to scaled coordinates.
	// Recomputed by RefreshCalibration and on frame size changes.
	ratio float64
}

// NewDetector creates a detector with the given quality bound.
// A quality of zero or less falls back to DefaultQuality.
func NewDetector(quality int) *Detector {
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Detector{quality: quality, ratio: 1}
}

// SetupDetection loads the capture as the current frame, reusing the
// previous RGBA buffer when dimensions are unchanged.
func (d *Detector) SetupDetection(frame image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil {
		d.frame = nil
		d.scaled = nil
		return
	}

	bounds := frame.Bounds()
	sizeChanged := d.frame == nil || d.frame.Bounds().Dx() != bounds.Dx() || d.frame.Bounds().Dy() != bounds.Dy()
	if sizeChanged {
		d.frame = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}
	draw.Draw(d.frame, d.frame.Bounds(), frame, bounds.Min, draw.Src)

	// The downscale is derived from the frame; it must be rebuilt.
	d.scaled = nil
	if sizeChanged {
		d.recalibrateLocked()
	}
}

// RefreshCalibration recomputes the search scale from the current frame
// dimensions. Called after screen metrics change, never per frame.
func (d *Detector) RefreshCalibration() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recalibrateLocked()
	d.scaled = nil
}

func (d *Detector) recalibrateLocked() {
	d.ratio = 1
	if d.frame == nil {
		return
	}
	longest := d.frame.Bounds().Dx()
	if h := d.frame.Bounds().Dy(); h > longest {
		longest = h
	}
	if longest > d.quality {
		d.ratio = float64(d.quality) / float64(longest)
	}
}

// DetectTemplate searches the entire current frame for the template.
// The search runs on a quality-bounded downscale: a coarse pass locates the
// best candidate region, then a fine pass refines it at stride one.
func (d *Detector) DetectTemplate(template image.Image, threshold int) processing.DetectionResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frame == nil || template == nil {
		return processing.DetectionResult{}
	}

	haystack := d.scaledFrameLocked()
	needle := toRGBA(downscale(template, d.ratio))

	tw, th := needle.Bounds().Dx(), needle.Bounds().Dy()
	if tw == 0 || th == 0 || tw > haystack.Bounds().Dx() || th > haystack.Bounds().Dy() {
		return processing.DetectionResult{}
	}

	// Coarse pass over the whole downscaled frame.
	stride := tw / 4
	if stride < 1 {
		stride = 1
	}
	bestX, bestY, bestDiff := searchRegion(haystack, needle, haystack.Bounds(), stride)

	// Fine pass around the coarse winner.
	if stride > 1 {
		refine := image.Rect(bestX-stride, bestY-stride, bestX+stride+tw, bestY+stride+th)
		refine = refine.Intersect(haystack.Bounds())
		bestX, bestY, bestDiff = searchRegion(haystack, needle, refine, 1)
	}

	confidence := confidenceFromDiff(bestDiff)
	if confidence < float64(threshold) {
		return processing.DetectionResult{Confidence: confidence}
	}

	// Map the match center back to full-resolution frame coordinates.
	cx := float64(bestX) + float64(tw)/2
	cy := float64(bestY) + float64(th)/2
	return processing.DetectionResult{
		Detected:   true,
		Position:   image.Pt(int(cx/d.ratio), int(cy/d.ratio)),
		Confidence: confidence,
	}
}

// DetectTemplateIn compares the template against the given region of the
// current frame at full resolution. The template is expected to already be
// sized to the region.
func (d *Detector) DetectTemplateIn(template image.Image, area image.Rectangle, threshold int) processing.DetectionResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frame == nil || template == nil {
		return processing.DetectionResult{}
	}

	area = area.Intersect(d.frame.Bounds())
	needle := toRGBA(template)
	if area.Empty() || needle.Bounds().Dx() != area.Dx() || needle.Bounds().Dy() != area.Dy() {
		return processing.DetectionResult{}
	}

	diff := regionDiff(d.frame, needle, area.Min.X, area.Min.Y)
	confidence := confidenceFromDiff(diff)
	if confidence < float64(threshold) {
		return processing.DetectionResult{Confidence: confidence}
	}

	center := image.Pt(area.Min.X+area.Dx()/2, area.Min.Y+area.Dy()/2)
	return processing.DetectionResult{
		Detected:   true,
		Position:   center,
		Confidence: confidence,
	}
}

// scaledFrameLocked returns the quality-bounded downscale of the current
// frame, building it on first use after SetupDetection.
func (d *Detector) scaledFrameLocked() *image.RGBA {
	if d.scaled == nil {
		d.scaled = toRGBA(downscale(d.frame, d.ratio))
	}
	return d.scaled
}

// downscale resizes img by the given ratio using Lanczos resampling.
// A ratio of 1 returns img unchanged.
func downscale(img image.Image, ratio float64) image.Image {
	if ratio >= 1 || img == nil {
		return img
	}
	w := uint(float64(img.Bounds().Dx()) * ratio)
	h := uint(float64(img.Bounds().Dy()) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return resize.Resize(w, h, img, resize.Lanczos3)
}

// toRGBA converts img to RGBA, translating bounds to the origin.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == image.Pt(0, 0) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// searchRegion slides needle over the candidate top-left positions inside
// region at the given stride and returns the position with the smallest
// mean absolute difference.
func searchRegion(haystack, needle *image.RGBA, region image.Rectangle, stride int) (int, int, float64) {
	tw, th := needle.Bounds().Dx(), needle.Bounds().Dy()
	maxX := region.Max.X - tw
	maxY := region.Max.Y - th

	bestX, bestY := region.Min.X, region.Min.Y
	bestDiff := 256.0

	for y := region.Min.Y; y <= maxY; y += stride {
		for x := region.Min.X; x <= maxX; x += stride {
			diff := regionDiff(haystack, needle, x, y)
			if diff < bestDiff {
				bestX, bestY, bestDiff = x, y, diff
			}
		}
	}
	return bestX, bestY, bestDiff
}

// regionDiff computes the mean absolute per-channel difference between
// needle and the haystack region whose top-left corner is (ox, oy).
func regionDiff(haystack, needle *image.RGBA, ox, oy int) float64 {
	tw, th := needle.Bounds().Dx(), needle.Bounds().Dy()
	var total uint64

	for y := 0; y < th; y++ {
		hRow := haystack.PixOffset(ox, oy+y)
		nRow := needle.PixOffset(0, y)
		for x := 0; x < tw; x++ {
			hi := hRow + x*4
			ni := nRow + x*4
			total += uint64(absDiff(haystack.Pix[hi], needle.Pix[ni]))
			total += uint64(absDiff(haystack.Pix[hi+1], needle.Pix[ni+1]))
			total += uint64(absDiff(haystack.Pix[hi+2], needle.Pix[ni+2]))
		}
	}

	return float64(total) / float64(tw*th*3)
}

// confidenceFromDiff maps a mean absolute difference (0-255) to a match
// confidence percentage (100 = identical).
func confidenceFromDiff(diff float64) float64 {
	if diff > 255 {
		diff = 255
	}
	return 100 * (1 - diff/255)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
