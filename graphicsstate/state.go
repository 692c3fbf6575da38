package graphicsstate

import "fmt"

// Matrix is a 2D affine transformation in PDF order [a b c d e f].
type Matrix [6]float64

// IdentityMatrix returns the identity transformation.
func IdentityMatrix() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Multiply returns m x n, applying m first.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Transform applies the matrix to the point (x, y).
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ScaleY returns the vertical scale factor, used to compute effective
// text sizes.
func (m Matrix) ScaleY() float64 {
	s := m[3]
	if s < 0 {
		s = -s
	}
	if s == 0 {
		// Rotated 90 degrees; the vertical extent comes from b.
		s = m[1]
		if s < 0 {
			s = -s
		}
	}
	return s
}

// RenderMode is the text rendering mode set by the Tr operator.
type RenderMode int

const (
	RenderFill RenderMode = iota
	RenderStroke
	RenderFillStroke
	RenderInvisible
	RenderFillClip
	RenderStrokeClip
	RenderFillStrokeClip
	RenderClip
)

// TextState holds the text-related parameters of the graphics state.
type TextState struct {
	FontName      string
	FontSize      float64
	CharSpacing   float64
	WordSpacing   float64
	HorizScale    float64 // Tz value / 100
	Leading       float64
	Rise          float64
	RenderMode    RenderMode
	TextMatrix    Matrix
	LineMatrix    Matrix
}

// NewTextState returns a text state with the PDF defaults.
func NewTextState() TextState {
	return TextState{
		HorizScale: 1.0,
		TextMatrix: IdentityMatrix(),
		LineMatrix: IdentityMatrix(),
	}
}

// GraphicsState holds the parameters a content stream interpreter
// tracks while walking a page.
type GraphicsState struct {
	CTM  Matrix
	Text TextState

	// Nonstroking color as RGB components in [0, 1]. Gray and CMYK
	// values are converted on assignment.
	FillColor [3]float64

	// Nonstroking alpha from an ExtGState /ca entry. HasFillAlpha is
	// false until one is seen, so a missing entry can be told apart
	// from an explicit 1.0.
	FillAlpha    float64
	HasFillAlpha bool

	StrokeAlpha    float64
	HasStrokeAlpha bool
}

// NewGraphicsState returns a graphics state with the PDF defaults:
// identity CTM, black fill, no alpha seen.
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:  IdentityMatrix(),
		Text: NewTextState(),
	}
}

// Clone returns an independent copy of the state.
func (g *GraphicsState) Clone() *GraphicsState {
	clone := *g
	return &clone
}

// SetFillGray sets the fill color from a grayscale value.
func (g *GraphicsState) SetFillGray(gray float64) {
	gray = clamp01(gray)
	g.FillColor = [3]float64{gray, gray, gray}
}

// SetFillRGB sets the fill color from RGB components.
func (g *GraphicsState) SetFillRGB(r, gr, b float64) {
	g.FillColor = [3]float64{clamp01(r), clamp01(gr), clamp01(b)}
}

// SetFillCMYK sets the fill color from CMYK components using the
// standard naive conversion.
func (g *GraphicsState) SetFillCMYK(c, m, y, k float64) {
	c, m, y, k = clamp01(c), clamp01(m), clamp01(y), clamp01(k)
	g.FillColor = [3]float64{
		(1 - c) * (1 - k),
		(1 - m) * (1 - k),
		(1 - y) * (1 - k),
	}
}

// SetFillComponents sets the fill color from a bare component list as
// produced by sc or scn. Component counts of 1, 3, and 4 are mapped to
// gray, RGB, and CMYK. Other counts (pattern or unusual spaces) are
// ignored.
func (g *GraphicsState) SetFillComponents(comps []float64) {
	switch len(comps) {
	case 1:
		g.SetFillGray(comps[0])
	case 3:
		g.SetFillRGB(comps[0], comps[1], comps[2])
	case 4:
		g.SetFillCMYK(comps[0], comps[1], comps[2], comps[3])
	}
}

// PackRGB packs an RGB color with components in [0, 1] as 0xRRGGBB.
func PackRGB(color [3]float64) int {
	r := int(color[0]*255 + 0.5)
	g := int(color[1]*255 + 0.5)
	b := int(color[2]*255 + 0.5)
	return r<<16 | g<<8 | b
}

// FillColorRGB returns the fill color packed as 0xRRGGBB.
func (g *GraphicsState) FillColorRGB() int {
	return PackRGB(g.FillColor)
}

// EffectiveFontSize returns the font size as rendered, the nominal Tf
// size scaled by the text and transformation matrices.
func (g *GraphicsState) EffectiveFontSize() float64 {
	return g.Text.FontSize * g.Text.TextMatrix.Multiply(g.CTM).ScaleY()
}

// Stack is the graphics state stack manipulated by q and Q.
type Stack struct {
	states []*GraphicsState
}

// NewStack returns a stack holding a single default state.
func NewStack() *Stack {
	return &Stack{states: []*GraphicsState{NewGraphicsState()}}
}

// Current returns the state on top of the stack.
func (s *Stack) Current() *GraphicsState {
	return s.states[len(s.states)-1]
}

// Push saves the current state (the q operator).
func (s *Stack) Push() {
	s.states = append(s.states, s.Current().Clone())
}

// Pop restores the previously saved state (the Q operator). Unbalanced
// restores are an error; the bottom state is never removed.
func (s *Stack) Pop() error {
	if len(s.states) <= 1 {
		return fmt.Errorf("graphics state stack underflow")
	}
	s.states = s.states[:len(s.states)-1]
	return nil
}

// Depth returns the number of states on the stack.
func (s *Stack) Depth() int {
	return len(s.states)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
