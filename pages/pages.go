package pages

import (
	"fmt"

	"github.com/tsawler/ghostink/core"
)

// ObjectResolver resolves indirect references to their objects.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
	ResolveDeep(obj core.Object) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// PageTree walks the document's page tree and exposes its leaves as a
// flat, zero-indexed list.
type PageTree struct {
	root     core.Dict
	resolver ObjectResolver
	pages    []*Page
}

// NewPageTree creates a page tree from the root Pages dictionary.
func NewPageTree(root core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{
		root:     root,
		resolver: resolver,
	}
}

// Count returns the total number of pages, preferring the declared
// /Count over a full traversal.
func (t *PageTree) Count() (int, error) {
	if count, ok := t.root.GetInt("Count"); ok {
		return int(count), nil
	}

	if err := t.ensureLoaded(); err != nil {
		return 0, err
	}
	return len(t.pages), nil
}

// GetPage returns the page at the given zero-based index.
func (t *PageTree) GetPage(index int) (*Page, error) {
	if err := t.ensureLoaded(); err != nil {
		return nil, err
	}

	if index < 0 || index >= len(t.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(t.pages))
	}

	return t.pages[index], nil
}

// Pages returns every page in document order.
func (t *PageTree) Pages() ([]*Page, error) {
	if err := t.ensureLoaded(); err != nil {
		return nil, err
	}
	return t.pages, nil
}

func (t *PageTree) ensureLoaded() error {
	if t.pages != nil {
		return nil
	}

	t.pages = make([]*Page, 0)
	seen := make(map[core.IndirectRef]bool)
	if err := t.traverse(t.root, nil, seen, 0); err != nil {
		t.pages = nil
		return fmt.Errorf("traverse page tree: %w", err)
	}
	return nil
}

// traverse walks a tree node, carrying the inherited attributes resolved
// so far. Reference cycles and runaway depth abort the walk.
func (t *PageTree) traverse(node core.Dict, inherited *Inherited, seen map[core.IndirectRef]bool, depth int) error {
	if depth > 64 {
		return fmt.Errorf("page tree deeper than 64 levels")
	}

	inherited = inherited.override(node)

	typeName, _ := node.GetName("Type")
	isLeaf := typeName == "Page" || (typeName != "Pages" && !node.Has("Kids"))

	if isLeaf {
		t.pages = append(t.pages, &Page{
			dict:      node,
			inherited: inherited,
			resolver:  t.resolver,
		})
		return nil
	}

	kidsObj := node.Get("Kids")
	if kidsObj == nil {
		return fmt.Errorf("intermediate node missing /Kids entry")
	}

	kidsResolved, err := t.resolver.Resolve(kidsObj)
	if err != nil {
		return fmt.Errorf("resolve /Kids: %w", err)
	}

	kids, ok := kidsResolved.(core.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", kidsResolved)
	}

	for i, kidObj := range kids {
		if ref, ok := kidObj.(core.IndirectRef); ok {
			if seen[ref] {
				return fmt.Errorf("cycle at kid %d (object %d)", i, ref.Number)
			}
			seen[ref] = true
		}

		kidResolved, err := t.resolver.Resolve(kidObj)
		if err != nil {
			return fmt.Errorf("resolve kid %d: %w", i, err)
		}

		kidDict, ok := kidResolved.(core.Dict)
		if !ok {
			return fmt.Errorf("invalid kid type: %T", kidResolved)
		}

		if err := t.traverse(kidDict, inherited, seen, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// Inherited carries the inheritable page attributes accumulated while
// descending the tree. A nil pointer means nothing inherited yet.
type Inherited struct {
	Resources core.Object
	MediaBox  core.Object
	CropBox   core.Object
	Rotate    core.Object
}

// override returns a copy of in with any attributes present on node
// replacing the inherited values.
func (in *Inherited) override(node core.Dict) *Inherited {
	out := Inherited{}
	if in != nil {
		out = *in
	}
	if v := node.Get("Resources"); v != nil {
		out.Resources = v
	}
	if v := node.Get("MediaBox"); v != nil {
		out.MediaBox = v
	}
	if v := node.Get("CropBox"); v != nil {
		out.CropBox = v
	}
	if v := node.Get("Rotate"); v != nil {
		out.Rotate = v
	}
	return &out
}

// Page is a single leaf of the page tree with its inherited attributes
// already applied.
type Page struct {
	dict      core.Dict
	inherited *Inherited
	resolver  ObjectResolver
}

// Dict returns the raw page dictionary.
func (p *Page) Dict() core.Dict {
	return p.dict
}

// MediaBox returns the page media box as [x1 y1 x2 y2]. Pages without
// one (the attribute is required but some writers omit it) default to
// US Letter.
func (p *Page) MediaBox() ([]float64, error) {
	box, err := p.box(p.inherited.MediaBox)
	if err != nil {
		return nil, fmt.Errorf("MediaBox: %w", err)
	}
	if box == nil {
		return []float64{0, 0, 612, 792}, nil
	}
	return box, nil
}

// CropBox returns the crop box, falling back to the media box.
func (p *Page) CropBox() ([]float64, error) {
	box, err := p.box(p.inherited.CropBox)
	if err != nil || box == nil {
		return p.MediaBox()
	}
	return box, nil
}

func (p *Page) box(obj core.Object) ([]float64, error) {
	if obj == nil {
		return nil, nil
	}

	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	arr, ok := resolved.(core.Array)
	if !ok {
		return nil, fmt.Errorf("not an array: %T", resolved)
	}
	if len(arr) != 4 {
		return nil, fmt.Errorf("length %d, expected 4", len(arr))
	}

	box := make([]float64, 4)
	for i := range arr {
		v, ok := arr.Float(i)
		if !ok {
			return nil, fmt.Errorf("element %d is not a number", i)
		}
		box[i] = v
	}
	return box, nil
}

// Width returns the media box width.
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the media box height.
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}

// Rotate returns the page rotation in degrees.
func (p *Page) Rotate() int {
	if p.inherited.Rotate == nil {
		return 0
	}
	resolved, err := p.resolver.Resolve(p.inherited.Rotate)
	if err != nil {
		return 0
	}
	if rotate, ok := resolved.(core.Int); ok {
		return int(rotate)
	}
	return 0
}

// Resources returns the page resources dictionary. Pages using no
// resources may legitimately have none, in which case an empty
// dictionary is returned.
func (p *Page) Resources() (core.Dict, error) {
	if p.inherited.Resources == nil {
		return core.Dict{}, nil
	}

	resolved, err := p.resolver.Resolve(p.inherited.Resources)
	if err != nil {
		return nil, fmt.Errorf("resolve Resources: %w", err)
	}

	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", resolved)
	}

	return dict, nil
}

// Resource looks up a named entry in one of the resource categories,
// for example Resource("Font", "F1") or Resource("ExtGState", "GS0").
func (p *Page) Resource(category, name string) (core.Object, error) {
	resources, err := p.Resources()
	if err != nil {
		return nil, err
	}

	catObj := resources.Get(category)
	if catObj == nil {
		return nil, nil
	}

	catResolved, err := p.resolver.Resolve(catObj)
	if err != nil {
		return nil, fmt.Errorf("resolve /%s: %w", category, err)
	}

	catDict, ok := catResolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /%s type: %T", category, catResolved)
	}

	entry := catDict.Get(name)
	if entry == nil {
		return nil, nil
	}

	return p.resolver.Resolve(entry)
}

// Contents returns the page content stream or streams, resolved.
func (p *Page) Contents() ([]core.Object, error) {
	contentsObj := p.dict.Get("Contents")
	if contentsObj == nil {
		return nil, nil
	}

	resolved, err := p.resolver.Resolve(contentsObj)
	if err != nil {
		return nil, fmt.Errorf("resolve Contents: %w", err)
	}

	switch v := resolved.(type) {
	case *core.Stream:
		return []core.Object{v}, nil
	case core.Array:
		streams := make([]core.Object, len(v))
		for i, elem := range v {
			r, err := p.resolver.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("resolve contents[%d]: %w", i, err)
			}
			streams[i] = r
		}
		return streams, nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", resolved)
	}
}
