package reader

import (
	"testing"

	"github.com/tsawler/ghostink/core"
)

func TestImageInfoIsJPEG(t *testing.T) {
	tests := []struct {
		filter string
		want   bool
	}{
		{"DCTDecode", true},
		{"DCT", true},
		{"FlateDecode", false},
		{"", false},
	}
	for _, tt := range tests {
		img := ImageInfo{Filter: tt.filter}
		if got := img.IsJPEG(); got != tt.want {
			t.Errorf("IsJPEG(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestImageCoversFraction(t *testing.T) {
	tests := []struct {
		name   string
		img    ImageInfo
		pw, ph float64
		want   float64
	}{
		{name: "quarter", img: ImageInfo{Width: 306, Height: 396}, pw: 612, ph: 792, want: 0.25},
		{name: "full", img: ImageInfo{Width: 612, Height: 792}, pw: 612, ph: 792, want: 1},
		{name: "oversized clamps", img: ImageInfo{Width: 2000, Height: 2000}, pw: 612, ph: 792, want: 1},
		{name: "zero page", img: ImageInfo{Width: 100, Height: 100}, pw: 0, ph: 792, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.img.CoversFraction(tt.pw, tt.ph)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("got %g, want %g", got, tt.want)
			}
		})
	}
}

func TestImageFilterName(t *testing.T) {
	tests := []struct {
		name string
		obj  core.Object
		want string
	}{
		{name: "single name", obj: core.Name("DCTDecode"), want: "DCTDecode"},
		{name: "chain keeps last", obj: core.Array{core.Name("FlateDecode"), core.Name("DCTDecode")}, want: "DCTDecode"},
		{name: "empty array", obj: core.Array{}, want: ""},
		{name: "absent", obj: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imageFilterName(tt.obj); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageImages(t *testing.T) {
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	f := newPDFFile()
	f.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	f.addObject(2, `<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792]
/Resources << /XObject << /Im0 4 0 R /Fm0 5 0 R >> >> >>`)
	f.addObject(3, "<< /Type /Page /Parent 2 0 R >>")
	f.addStream(4, "/Subtype /Image /Width 612 /Height 792 /Filter /DCTDecode", jpegData)
	f.addStream(5, "/Subtype /Form /BBox [0 0 10 10]", []byte("q Q"))

	r, err := FromBytes(f.finish(1))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	page, err := r.GetPage(0)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	images, err := r.PageImages(page)
	if err != nil {
		t.Fatalf("page images: %v", err)
	}

	// The form XObject is skipped.
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}
	img := images[0]
	if img.Name != "Im0" || img.Width != 612 || img.Height != 792 {
		t.Errorf("image = %+v", img)
	}
	if !img.IsJPEG() {
		t.Error("image should report as JPEG")
	}
	if img.CoversFraction(612, 792) != 1 {
		t.Errorf("coverage = %g", img.CoversFraction(612, 792))
	}
}
