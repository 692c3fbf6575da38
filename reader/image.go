package reader

import (
	"fmt"

	"github.com/tsawler/ghostink/core"
	"github.com/tsawler/ghostink/pages"
)

// ImageInfo describes an image XObject referenced by a page's resources.
// Data holds the raw stream bytes, still in the image's native encoding.
type ImageInfo struct {
	Name   string
	Width  int
	Height int
	Filter string
	Data   []byte
}

// IsJPEG reports whether the raw stream data is a complete JPEG file,
// which is the case for DCT encoded images.
func (i ImageInfo) IsJPEG() bool {
	return i.Filter == "DCTDecode" || i.Filter == "DCT"
}

// CoversFraction reports how much of a pageW x pageH page the image
// would cover if painted at its pixel dimensions, clamped to 1.
func (i ImageInfo) CoversFraction(pageW, pageH float64) float64 {
	if pageW <= 0 || pageH <= 0 {
		return 0
	}
	frac := (float64(i.Width) / pageW) * (float64(i.Height) / pageH)
	if frac > 1 {
		return 1
	}
	return frac
}

// PageImages lists the image XObjects in a page's resource dictionary.
// Form XObjects and malformed entries are skipped.
func (r *Reader) PageImages(page *pages.Page) ([]ImageInfo, error) {
	resources, err := page.Resources()
	if err != nil {
		return nil, fmt.Errorf("get resources: %w", err)
	}

	xobjObj := resources.Get("XObject")
	if xobjObj == nil {
		return nil, nil
	}

	xobjResolved, err := r.Resolve(xobjObj)
	if err != nil {
		return nil, fmt.Errorf("resolve /XObject: %w", err)
	}

	xobjDict, ok := xobjResolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /XObject type: %T", xobjResolved)
	}

	var images []ImageInfo
	for _, name := range xobjDict.Keys() {
		entry, err := r.Resolve(xobjDict.Get(name))
		if err != nil {
			continue
		}

		stream, ok := entry.(*core.Stream)
		if !ok {
			continue
		}
		if subtype, _ := stream.Dict.GetName("Subtype"); subtype != "Image" {
			continue
		}

		info := ImageInfo{Name: name, Data: stream.Data}
		if w, ok := stream.Dict.GetInt("Width"); ok {
			info.Width = int(w)
		}
		if h, ok := stream.Dict.GetInt("Height"); ok {
			info.Height = int(h)
		}
		info.Filter = imageFilterName(stream.Dict.Get("Filter"))

		images = append(images, info)
	}

	return images, nil
}

// imageFilterName returns the final filter applied to an image stream,
// which determines its native encoding.
func imageFilterName(obj core.Object) string {
	switch v := obj.(type) {
	case core.Name:
		return string(v)
	case core.Array:
		if len(v) > 0 {
			if name, ok := v[len(v)-1].(core.Name); ok {
				return string(name)
			}
		}
	}
	return ""
}
