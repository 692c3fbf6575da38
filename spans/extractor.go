package spans

import (
	"fmt"

	"github.com/tsawler/ghostink/contentstream"
	"github.com/tsawler/ghostink/core"
	"github.com/tsawler/ghostink/font"
	"github.com/tsawler/ghostink/graphicsstate"
)

// Result is everything an extraction pass learns about a page's content.
type Result struct {
	Spans []Span

	// Fills are the axis-aligned rectangles painted by fill operators,
	// in device space, used for background estimation.
	Fills []graphicsstate.FilledRect

	// HasInlineImages reports whether any BI inline image appeared.
	HasInlineImages bool
}

// extGState holds the ExtGState entries relevant to visibility.
type extGState struct {
	hasFillAlpha   bool
	fillAlpha      float64
	hasStrokeAlpha bool
	strokeAlpha    float64
}

// Extractor walks content stream operations, tracking the graphics
// state and emitting one Span per show operator.
type Extractor struct {
	fonts      map[string]*font.Font
	extGStates map[string]extGState
}

// NewExtractor returns an extractor with no registered resources.
func NewExtractor() *Extractor {
	return &Extractor{
		fonts:      make(map[string]*font.Font),
		extGStates: make(map[string]extGState),
	}
}

// RegisterResources loads the fonts and ExtGState entries from a page
// resource dictionary. Entries that fail to load are skipped; text
// shown with them falls back to raw byte decoding.
func (e *Extractor) RegisterResources(resources core.Dict, resolve font.ResolverFunc) error {
	if resources == nil {
		return nil
	}

	if fontDict, ok := resolveDict(resources.Get("Font"), resolve); ok {
		for _, name := range fontDict.Keys() {
			entry, ok := resolveDict(fontDict.Get(name), resolve)
			if !ok {
				continue
			}
			f, err := font.Load(entry, resolve)
			if err != nil {
				continue
			}
			e.fonts[name] = f
		}
	}

	if gsDict, ok := resolveDict(resources.Get("ExtGState"), resolve); ok {
		for _, name := range gsDict.Keys() {
			entry, ok := resolveDict(gsDict.Get(name), resolve)
			if !ok {
				continue
			}
			var gs extGState
			if ca, ok := entry.GetFloat("ca"); ok {
				gs.hasFillAlpha = true
				gs.fillAlpha = ca
			}
			if caps, ok := entry.GetFloat("CA"); ok {
				gs.hasStrokeAlpha = true
				gs.strokeAlpha = caps
			}
			e.extGStates[name] = gs
		}
	}

	return nil
}

func resolveDict(obj core.Object, resolve font.ResolverFunc) (core.Dict, bool) {
	if obj == nil {
		return nil, false
	}
	if ref, ok := obj.(core.IndirectRef); ok {
		if resolve == nil {
			return nil, false
		}
		resolved, err := resolve(ref)
		if err != nil {
			return nil, false
		}
		obj = resolved
	}
	dict, ok := obj.(core.Dict)
	return dict, ok
}

// Extract interprets a decoded content stream and returns the spans
// and fills it paints.
func (e *Extractor) Extract(content []byte) (*Result, error) {
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse content stream: %w", err)
	}

	interp := &interpreter{
		extractor: e,
		stack:     graphicsstate.NewStack(),
		path:      graphicsstate.NewPath(),
		result:    &Result{},
	}

	for _, op := range ops {
		interp.process(op)
	}

	return interp.result, nil
}

// interpreter holds the mutable state of one extraction pass.
type interpreter struct {
	extractor *Extractor
	stack     *graphicsstate.Stack
	path      *graphicsstate.Path
	result    *Result

	font     *font.Font
	fontName string
}

// process dispatches a single operation. Unknown operators are ignored,
// as are known ones with malformed operands.
func (in *interpreter) process(op contentstream.Operation) {
	state := in.stack.Current()

	switch op.Operator {
	case "q":
		in.stack.Push()
	case "Q":
		// Unbalanced Q is tolerated; the base state stays.
		_ = in.stack.Pop()
	case "cm":
		if m, ok := operandMatrix(op); ok {
			state.CTM = m.Multiply(state.CTM)
		}
	case "gs":
		if name, ok := op.Name(0); ok {
			in.applyExtGState(state, name)
		}

	// Nonstroking color.
	case "g":
		if v, ok := op.Float(0); ok {
			state.SetFillGray(v)
		}
	case "rg":
		r, ok1 := op.Float(0)
		g, ok2 := op.Float(1)
		b, ok3 := op.Float(2)
		if ok1 && ok2 && ok3 {
			state.SetFillRGB(r, g, b)
		}
	case "k":
		c, ok1 := op.Float(0)
		m, ok2 := op.Float(1)
		y, ok3 := op.Float(2)
		kk, ok4 := op.Float(3)
		if ok1 && ok2 && ok3 && ok4 {
			state.SetFillCMYK(c, m, y, kk)
		}
	case "sc", "scn":
		state.SetFillComponents(operandFloats(op))

	// Text state.
	case "BT":
		state.Text.TextMatrix = graphicsstate.IdentityMatrix()
		state.Text.LineMatrix = graphicsstate.IdentityMatrix()
	case "ET":
	case "Tf":
		name, ok1 := op.Name(0)
		size, ok2 := op.Float(1)
		if ok1 && ok2 {
			state.Text.FontName = name
			state.Text.FontSize = size
			in.fontName = name
			in.font = in.extractor.fonts[name]
		}
	case "Tc":
		if v, ok := op.Float(0); ok {
			state.Text.CharSpacing = v
		}
	case "Tw":
		if v, ok := op.Float(0); ok {
			state.Text.WordSpacing = v
		}
	case "Tz":
		if v, ok := op.Float(0); ok {
			state.Text.HorizScale = v / 100
		}
	case "TL":
		if v, ok := op.Float(0); ok {
			state.Text.Leading = v
		}
	case "Ts":
		if v, ok := op.Float(0); ok {
			state.Text.Rise = v
		}
	case "Tr":
		if v, ok := op.Float(0); ok {
			state.Text.RenderMode = graphicsstate.RenderMode(int(v))
		}

	// Text positioning.
	case "Tm":
		if m, ok := operandMatrix(op); ok {
			state.Text.TextMatrix = m
			state.Text.LineMatrix = m
		}
	case "Td":
		tx, ok1 := op.Float(0)
		ty, ok2 := op.Float(1)
		if ok1 && ok2 {
			in.nextLine(state, tx, ty)
		}
	case "TD":
		tx, ok1 := op.Float(0)
		ty, ok2 := op.Float(1)
		if ok1 && ok2 {
			state.Text.Leading = -ty
			in.nextLine(state, tx, ty)
		}
	case "T*":
		in.nextLine(state, 0, -state.Text.Leading)

	// Text showing.
	case "Tj":
		if s, ok := op.Str(0); ok {
			in.showText(state, s)
		}
	case "'":
		if s, ok := op.Str(0); ok {
			in.nextLine(state, 0, -state.Text.Leading)
			in.showText(state, s)
		}
	case "\"":
		aw, ok1 := op.Float(0)
		ac, ok2 := op.Float(1)
		s, ok3 := op.Str(2)
		if ok1 && ok2 && ok3 {
			state.Text.WordSpacing = aw
			state.Text.CharSpacing = ac
			in.nextLine(state, 0, -state.Text.Leading)
			in.showText(state, s)
		}
	case "TJ":
		if len(op.Operands) == 1 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				in.showTextArray(state, arr)
			}
		}

	// Path construction.
	case "m":
		x, ok1 := op.Float(0)
		y, ok2 := op.Float(1)
		if ok1 && ok2 {
			in.path.MoveTo(x, y)
		}
	case "l":
		x, ok1 := op.Float(0)
		y, ok2 := op.Float(1)
		if ok1 && ok2 {
			in.path.LineTo(x, y)
		}
	case "c":
		x, ok1 := op.Float(4)
		y, ok2 := op.Float(5)
		if ok1 && ok2 {
			in.path.CurveTo(x, y)
		}
	case "v", "y":
		x, ok1 := op.Float(2)
		y, ok2 := op.Float(3)
		if ok1 && ok2 {
			in.path.CurveTo(x, y)
		}
	case "re":
		x, ok1 := op.Float(0)
		y, ok2 := op.Float(1)
		w, ok3 := op.Float(2)
		h, ok4 := op.Float(3)
		if ok1 && ok2 && ok3 && ok4 {
			in.path.Rect(x, y, w, h)
		}
	case "h":
		in.path.ClosePath()

	// Path painting.
	case "f", "F", "f*", "b", "b*", "B", "B*":
		in.recordFills(state)
		in.path.Reset()
	case "n", "S", "s":
		in.path.Reset()

	case "BI":
		in.result.HasInlineImages = true
	}
}

func (in *interpreter) applyExtGState(state *graphicsstate.GraphicsState, name string) {
	gs, ok := in.extractor.extGStates[name]
	if !ok {
		return
	}
	if gs.hasFillAlpha {
		state.HasFillAlpha = true
		state.FillAlpha = gs.fillAlpha
	}
	if gs.hasStrokeAlpha {
		state.HasStrokeAlpha = true
		state.StrokeAlpha = gs.strokeAlpha
	}
}

func (in *interpreter) nextLine(state *graphicsstate.GraphicsState, tx, ty float64) {
	translate := graphicsstate.Matrix{1, 0, 0, 1, tx, ty}
	state.Text.LineMatrix = translate.Multiply(state.Text.LineMatrix)
	state.Text.TextMatrix = state.Text.LineMatrix
}

// showText emits one span for a show operator and advances the text
// matrix past it. Glyph metrics are not loaded, so the advance uses a
// nominal half-em per character.
func (in *interpreter) showText(state *graphicsstate.GraphicsState, raw string) {
	text := in.font.DecodeString(raw)

	trm := state.Text.TextMatrix.Multiply(state.CTM)
	x, y := trm.Transform(0, state.Text.Rise)
	effSize := state.EffectiveFontSize()

	advance := in.textAdvance(state, text)
	deviceWidth := advance * absFloat(trm[0])

	in.result.Spans = append(in.result.Spans, Span{
		Text:       text,
		X:          x,
		Y:          y,
		Width:      deviceWidth,
		Height:     effSize,
		FontName:   in.font.Name(),
		FontSize:   effSize,
		RenderMode: int(state.Text.RenderMode),
		Color:      state.FillColor,
		HasAlpha:   state.HasFillAlpha,
		Alpha:      state.FillAlpha,
	})

	in.advanceText(state, advance)
}

// showTextArray handles TJ, collapsing its strings into a single span.
// Numeric elements move the pen in thousandths of text space.
func (in *interpreter) showTextArray(state *graphicsstate.GraphicsState, arr core.Array) {
	trm := state.Text.TextMatrix.Multiply(state.CTM)
	x, y := trm.Transform(0, state.Text.Rise)
	effSize := state.EffectiveFontSize()

	var text string
	var advance float64
	for _, elem := range arr {
		switch v := elem.(type) {
		case core.String:
			decoded := in.font.DecodeString(string(v))
			text += decoded
			advance += in.textAdvance(state, decoded)
		case core.Int:
			advance -= float64(v) / 1000 * state.Text.FontSize * state.Text.HorizScale
		case core.Real:
			advance -= float64(v) / 1000 * state.Text.FontSize * state.Text.HorizScale
		}
	}

	if text == "" {
		in.advanceText(state, advance)
		return
	}

	in.result.Spans = append(in.result.Spans, Span{
		Text:       text,
		X:          x,
		Y:          y,
		Width:      advance * absFloat(trm[0]),
		Height:     effSize,
		FontName:   in.font.Name(),
		FontSize:   effSize,
		RenderMode: int(state.Text.RenderMode),
		Color:      state.FillColor,
		HasAlpha:   state.HasFillAlpha,
		Alpha:      state.FillAlpha,
	})

	in.advanceText(state, advance)
}

// textAdvance estimates the text-space width of a string without glyph
// widths: half an em per character plus spacing.
func (in *interpreter) textAdvance(state *graphicsstate.GraphicsState, text string) float64 {
	var w float64
	for _, r := range text {
		w += state.Text.FontSize * 0.5
		w += state.Text.CharSpacing
		if r == ' ' {
			w += state.Text.WordSpacing
		}
	}
	return w * state.Text.HorizScale
}

func (in *interpreter) advanceText(state *graphicsstate.GraphicsState, advance float64) {
	translate := graphicsstate.Matrix{1, 0, 0, 1, advance, 0}
	state.Text.TextMatrix = translate.Multiply(state.Text.TextMatrix)
}

// recordFills captures the rectangles of the current path with the
// fill color in effect.
func (in *interpreter) recordFills(state *graphicsstate.GraphicsState) {
	rects := in.path.Rectangles(state.CTM)
	for i := range rects {
		rects[i].Color = state.FillColor
	}
	in.result.Fills = append(in.result.Fills, rects...)
}

func operandMatrix(op contentstream.Operation) (graphicsstate.Matrix, bool) {
	var m graphicsstate.Matrix
	for i := 0; i < 6; i++ {
		v, ok := op.Float(i)
		if !ok {
			return m, false
		}
		m[i] = v
	}
	return m, true
}

func operandFloats(op contentstream.Operation) []float64 {
	var vals []float64
	for i := range op.Operands {
		v, ok := op.Float(i)
		if !ok {
			// scn can end with a pattern name; only the leading
			// numeric run matters.
			break
		}
		vals = append(vals, v)
	}
	return vals
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
