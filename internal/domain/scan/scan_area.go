package scan

import (
	"fmt"

	"github.com/wmsexpress/backend/internal/domain/shared"
)

// DefaultAreaRatio is the scan square side as a fraction of the viewport width
const DefaultAreaRatio = 0.7

// CodeType is a barcode symbology reported by the camera
type CodeType string

const (
	CodeTypeQR    CodeType = "qr"
	CodeTypeEAN13 CodeType = "ean-13"
)

// IsValid returns true if the code type is supported
func (t CodeType) IsValid() bool {
	switch t {
	case CodeTypeQR, CodeTypeEAN13:
		return true
	}
	return false
}

// String returns the string representation of CodeType
func (t CodeType) String() string {
	return string(t)
}

// Point is a pixel coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a pixel extent
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds is the bounding box of a detected code in viewport pixels. Origin or
// Size is nil when the camera reported partial geometry.
type Bounds struct {
	Origin *Point `json:"origin,omitempty"`
	Size   *Size  `json:"size,omitempty"`
}

// Complete reports whether both the origin and the size are known
func (b *Bounds) Complete() bool {
	return b != nil && b.Origin != nil && b.Size != nil
}

// Detection is one code found in a camera frame. Bounds is nil when the camera
// could not report geometry.
type Detection struct {
	Type   CodeType `json:"type"`
	Value  string   `json:"value"`
	Bounds *Bounds  `json:"bounds,omitempty"`
}

// Viewport is the camera preview size in pixels
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area is the central square a code must lie in to be accepted
type Area struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// NewArea builds the centered scan square for the viewport. The side is ratio × viewport width.
func NewArea(viewport Viewport, ratio float64) (Area, error) {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return Area{}, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("viewport must have a positive size, got %gx%g", viewport.Width, viewport.Height))
	}
	if ratio <= 0 || ratio > 1 {
		return Area{}, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("scan area ratio must be in (0,1], got %g", ratio))
	}

	side := viewport.Width * ratio
	left := (viewport.Width - side) / 2
	top := (viewport.Height - side) / 2
	return Area{
		Left:   left,
		Top:    top,
		Right:  left + side,
		Bottom: top + side,
	}, nil
}

// Side returns the side length of the square
func (a Area) Side() float64 {
	return a.Right - a.Left
}

// Contains reports whether the detection lies fully inside the area, edges included.
// Detections without a complete origin and size are accepted.
func (a Area) Contains(d Detection) bool {
	if !d.Bounds.Complete() {
		return true
	}
	o, s := d.Bounds.Origin, d.Bounds.Size
	return o.X >= a.Left &&
		o.X+s.Width <= a.Right &&
		o.Y >= a.Top &&
		o.Y+s.Height <= a.Bottom
}

// Filter returns the detections inside the area, preserving their order
func (a Area) Filter(detections []Detection) []Detection {
	inside := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if a.Contains(d) {
			inside = append(inside, d)
		}
	}
	return inside
}
