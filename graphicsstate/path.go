package graphicsstate

import "math"

// Point is a position in user space.
type Point struct {
	X, Y float64
}

// FilledRect records an axis-aligned rectangle painted with a fill
// operator, with the fill color in effect at paint time.
type FilledRect struct {
	X, Y, W, H float64
	Color      [3]float64
}

// Area returns the rectangle's area.
func (r FilledRect) Area() float64 {
	return r.W * r.H
}

// Path accumulates path construction operators between painting
// operators, enough to recognize rectangular subpaths.
type Path struct {
	subpaths [][]Point
	current  []Point
	hasCurve bool
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath (the m operator).
func (p *Path) MoveTo(x, y float64) {
	p.flushSubpath()
	p.current = append(p.current, Point{x, y})
}

// LineTo extends the current subpath (the l operator).
func (p *Path) LineTo(x, y float64) {
	p.current = append(p.current, Point{x, y})
}

// CurveTo records that the current subpath contains a curve (the c, v,
// and y operators). Curved subpaths are never rectangles, so only the
// end point is tracked.
func (p *Path) CurveTo(x3, y3 float64) {
	p.hasCurve = true
	p.current = append(p.current, Point{x3, y3})
}

// Rect appends a complete rectangular subpath (the re operator).
func (p *Path) Rect(x, y, w, h float64) {
	p.flushSubpath()
	p.subpaths = append(p.subpaths, []Point{
		{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h},
	})
}

// ClosePath ends the current subpath (the h operator).
func (p *Path) ClosePath() {
	p.flushSubpath()
}

// Reset discards all accumulated path data. Painting operators call
// this after consuming the path.
func (p *Path) Reset() {
	p.subpaths = nil
	p.current = nil
	p.hasCurve = false
}

func (p *Path) flushSubpath() {
	if len(p.current) > 0 {
		if !p.hasCurve {
			p.subpaths = append(p.subpaths, p.current)
		}
		p.current = nil
	}
	p.hasCurve = false
}

// Rectangles returns the axis-aligned rectangles among the accumulated
// subpaths, transformed by ctm.
func (p *Path) Rectangles(ctm Matrix) []FilledRect {
	p.flushSubpath()

	var rects []FilledRect
	for _, sub := range p.subpaths {
		rect, ok := rectFromPoints(sub)
		if !ok {
			continue
		}

		x0, y0 := ctm.Transform(rect.X, rect.Y)
		x1, y1 := ctm.Transform(rect.X+rect.W, rect.Y+rect.H)
		rects = append(rects, FilledRect{
			X: math.Min(x0, x1),
			Y: math.Min(y0, y1),
			W: math.Abs(x1 - x0),
			H: math.Abs(y1 - y0),
		})
	}
	return rects
}

// rectFromPoints recognizes a 4 or 5 point subpath that traces an
// axis-aligned rectangle. The fifth point, when present, must repeat
// the first.
func rectFromPoints(pts []Point) (FilledRect, bool) {
	if len(pts) == 5 {
		if !samePoint(pts[0], pts[4]) {
			return FilledRect{}, false
		}
		pts = pts[:4]
	}
	if len(pts) != 4 {
		return FilledRect{}, false
	}

	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts[1:] {
		minX = math.Min(minX, pt.X)
		maxX = math.Max(maxX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}

	// Every corner must sit on the bounding box for the outline to be
	// axis aligned.
	for _, pt := range pts {
		onX := nearlyEqual(pt.X, minX) || nearlyEqual(pt.X, maxX)
		onY := nearlyEqual(pt.Y, minY) || nearlyEqual(pt.Y, maxY)
		if !onX || !onY {
			return FilledRect{}, false
		}
	}

	return FilledRect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

func samePoint(a, b Point) bool {
	return nearlyEqual(a.X, b.X) && nearlyEqual(a.Y, b.Y)
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
