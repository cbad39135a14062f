package engine

import "math"

// FitToRectangle returns the orthographic view size that shows a rectangle
// with the given half extents on a screen of the given aspect (width/height).
func FitToRectangle(halfWidth, halfHeight, aspect float64) float64 {
	if aspect <= 0 {
		return halfHeight
	}
	return math.Max(halfHeight, halfWidth/aspect)
}

// FitToTargetDimensions returns the view size that fits a width x height
// target, letterboxing on whichever axis is tighter.
func FitToTargetDimensions(width, height, screenAspect float64) float64 {
	if height <= 0 || screenAspect <= 0 {
		return height / 2
	}
	if screenAspect < width/height {
		return width / screenAspect / 2
	}
	return height / 2
}

// LevelViewSize returns the framing size for a level: its camera target when
// set, otherwise its bounds.
func LevelViewSize(l *Level, screenAspect float64) float64 {
	if l.CameraTarget != nil {
		return FitToTargetDimensions(l.CameraTarget.Width, l.CameraTarget.Height, screenAspect)
	}
	half := l.Bounds.HalfExtents()
	return FitToRectangle(half.X, half.Y, screenAspect)
}
