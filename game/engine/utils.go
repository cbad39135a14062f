package engine

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func lerpFloat(a, b, t float64) float64 {
	return a + (b-a)*clamp01(t)
}

// Average returns the arithmetic mean of the points, or the zero vector.
func Average(points []Vec2) Vec2 {
	if len(points) == 0 {
		return Vec2{}
	}
	var sum Vec2
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(points)))
}

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	dx := from.Col - to.Col
	if dx < 0 {
		dx = -dx
	}
	dy := from.Row - to.Row
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
