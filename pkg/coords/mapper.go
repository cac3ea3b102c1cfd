// Package coords converts pointer positions from display space to image pixel space.
package coords

import "github.com/menta2k/image-annotator/pkg/types"

// Map converts a pointer position in display space into image pixel space.
// No rounding is applied. A non-positive displayed size is treated as an
// unscaled axis.
func Map(p types.Point, m types.ElementMetrics) types.Point {
	scaleX, scaleY := Scale(m)
	return types.Point{
		X: (p.X - m.Display.Left) * scaleX,
		Y: (p.Y - m.Display.Top) * scaleY,
	}
}

// Scale returns the intrinsic-to-displayed ratio on each axis
func Scale(m types.ElementMetrics) (float64, float64) {
	return axisScale(m.IntrinsicWidth, m.Display.Width), axisScale(m.IntrinsicHeight, m.Display.Height)
}

func axisScale(intrinsic int, displayed float64) float64 {
	if displayed <= 0 {
		return 1
	}
	return float64(intrinsic) / displayed
}
