package draw

import "math"

// circleSegments is the polygon resolution used for filled circles.
const circleSegments = 24

// CirclePoints writes a circleSegments-gon approximating the circle into dst
// and returns it. dst is grown if needed.
func CirclePoints(dst []Point, cx, cy, radius float64) []Point {
	if cap(dst) < circleSegments {
		dst = make([]Point, circleSegments)
	}
	dst = dst[:circleSegments]
	for i := range dst {
		a := 2 * math.Pi * float64(i) / circleSegments
		dst[i] = Point{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)}
	}
	return dst
}

// RectPoints writes the four corners of an axis-aligned rectangle into dst.
func RectPoints(dst []Point, x, y, width, height float64) []Point {
	if cap(dst) < 4 {
		dst = make([]Point, 4)
	}
	dst = dst[:4]
	dst[0] = Point{X: x, Y: y}
	dst[1] = Point{X: x + width, Y: y}
	dst[2] = Point{X: x + width, Y: y + height}
	dst[3] = Point{X: x, Y: y + height}
	return dst
}
