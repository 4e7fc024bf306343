package scroll

import "math"

const (
	minThumbRatio = 0.05
	// DefaultMinThumbSize is the smallest thumb drawn, in pixels
	DefaultMinThumbSize = 20
)

// ThumbGeometry is the size and position of a vertical scrollbar thumb
type ThumbGeometry struct {
	Size    float64
	Offset  float64
	Visible bool
}

// Thumb computes the scrollbar thumb for a viewport over content of
// totalHeight. The thumb is hidden when everything fits. minSize <= 0 uses
// DefaultMinThumbSize.
func Thumb(viewportHeight, totalHeight, scrollTop, minSize float64) ThumbGeometry {
	if viewportHeight <= 0 || totalHeight <= viewportHeight {
		return ThumbGeometry{}
	}
	if minSize <= 0 {
		minSize = DefaultMinThumbSize
	}

	ratio := math.Max(viewportHeight/totalHeight, minThumbRatio)
	size := math.Min(viewportHeight, math.Max(ratio*viewportHeight, minSize))

	track := viewportHeight - size
	scrollable := totalHeight - viewportHeight
	offset := 0.0
	if track > 0 {
		offset = math.Max(0, math.Min(scrollTop, scrollable)) / scrollable * track
	}
	return ThumbGeometry{Size: size, Offset: offset, Visible: true}
}

// Fraction converts a thumb offset back into a position in [0, 1] along the
// scrollable content.
func (g ThumbGeometry) Fraction(offset, viewportHeight float64) float64 {
	track := viewportHeight - g.Size
	if track <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, offset/track))
}
