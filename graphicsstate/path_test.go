package graphicsstate

import (
	"math"
	"testing"
)

func TestPathRectOperator(t *testing.T) {
	p := NewPath()
	p.Rect(10, 20, 100, 50)

	rects := p.Rectangles(IdentityMatrix())
	if len(rects) != 1 {
		t.Fatalf("got %d rects, want 1", len(rects))
	}
	r := rects[0]
	if r.X != 10 || r.Y != 20 || r.W != 100 || r.H != 50 {
		t.Errorf("rect = %+v", r)
	}
	if r.Area() != 5000 {
		t.Errorf("area = %g, want 5000", r.Area())
	}
}

func TestPathExplicitRectangle(t *testing.T) {
	// m/l/l/l/h outline of the same rectangle.
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(612, 0)
	p.LineTo(612, 792)
	p.LineTo(0, 792)
	p.ClosePath()

	rects := p.Rectangles(IdentityMatrix())
	if len(rects) != 1 {
		t.Fatalf("got %d rects, want 1", len(rects))
	}
	if rects[0].W != 612 || rects[0].H != 792 {
		t.Errorf("rect = %+v", rects[0])
	}
}

func TestPathFivePointRectangle(t *testing.T) {
	// Closing line back to the start instead of h.
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)
	p.LineTo(0, 10)
	p.LineTo(0, 0)

	rects := p.Rectangles(IdentityMatrix())
	if len(rects) != 1 {
		t.Fatalf("got %d rects, want 1", len(rects))
	}
}

func TestPathRejectsNonRectangles(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Path)
	}{
		{
			name: "triangle",
			build: func(p *Path) {
				p.MoveTo(0, 0)
				p.LineTo(10, 0)
				p.LineTo(5, 10)
				p.ClosePath()
			},
		},
		{
			name: "diamond",
			build: func(p *Path) {
				p.MoveTo(5, 0)
				p.LineTo(10, 5)
				p.LineTo(5, 10)
				p.LineTo(0, 5)
				p.ClosePath()
			},
		},
		{
			name: "curved outline",
			build: func(p *Path) {
				p.MoveTo(0, 0)
				p.LineTo(10, 0)
				p.CurveTo(10, 10)
				p.LineTo(0, 10)
				p.ClosePath()
			},
		},
		{
			name: "open two point subpath",
			build: func(p *Path) {
				p.MoveTo(0, 0)
				p.LineTo(10, 10)
				p.ClosePath()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPath()
			tt.build(p)
			if rects := p.Rectangles(IdentityMatrix()); len(rects) != 0 {
				t.Errorf("got %d rects, want 0", len(rects))
			}
		})
	}
}

func TestPathMultipleSubpaths(t *testing.T) {
	p := NewPath()
	p.Rect(0, 0, 10, 10)
	p.MoveTo(20, 20)
	p.LineTo(30, 25) // not a rectangle
	p.MoveTo(50, 50)
	p.LineTo(60, 50)
	p.LineTo(60, 60)
	p.LineTo(50, 60)
	p.ClosePath()

	rects := p.Rectangles(IdentityMatrix())
	if len(rects) != 2 {
		t.Fatalf("got %d rects, want 2", len(rects))
	}
}

func TestPathRectanglesAppliesCTM(t *testing.T) {
	p := NewPath()
	p.Rect(0, 0, 1, 1)

	// Scale by 100 and translate.
	rects := p.Rectangles(Matrix{100, 0, 0, 100, 50, 60})
	if len(rects) != 1 {
		t.Fatalf("got %d rects, want 1", len(rects))
	}
	r := rects[0]
	if r.X != 50 || r.Y != 60 || r.W != 100 || r.H != 100 {
		t.Errorf("rect = %+v", r)
	}
}

func TestPathRectanglesNormalizesFlip(t *testing.T) {
	p := NewPath()
	p.Rect(0, 0, 10, 10)

	// Negative vertical scale flips the rectangle.
	rects := p.Rectangles(Matrix{1, 0, 0, -1, 0, 100})
	if len(rects) != 1 {
		t.Fatalf("got %d rects, want 1", len(rects))
	}
	r := rects[0]
	if r.Y != 90 || r.H != 10 {
		t.Errorf("rect = %+v", r)
	}
	if math.Signbit(r.W) || math.Signbit(r.H) {
		t.Error("dimensions must be non-negative")
	}
}

func TestPathReset(t *testing.T) {
	p := NewPath()
	p.Rect(0, 0, 10, 10)
	p.Reset()
	if rects := p.Rectangles(IdentityMatrix()); len(rects) != 0 {
		t.Errorf("got %d rects after reset, want 0", len(rects))
	}
}
