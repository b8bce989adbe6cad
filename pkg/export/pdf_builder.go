package export

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
)

const defaultMaxBytes = 1 << 20

// PageImage is one uploaded image destined for its own PDF page.
type PageImage struct {
	Filename string
	Data     []byte
}

// PDFBuilder renders images one-per-page into an A4 document. When the
// result exceeds the size limit the whole document is rebuilt at higher
// compression and reduced resolution.
type PDFBuilder struct {
	maxBytes int64
}

// NewPDFBuilder constructs a builder bounded by maxBytes (defaults to 1 MiB).
func NewPDFBuilder(maxBytes int64) *PDFBuilder {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &PDFBuilder{maxBytes: maxBytes}
}

// Build renders the images in lexicographic filename order. Undecodable
// images are skipped rather than failing the whole document.
func (b *PDFBuilder) Build(images []PageImage) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("pdf requires at least one image")
	}

	ordered := make([]PageImage, len(images))
	copy(ordered, images)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Filename < ordered[j].Filename })

	out, err := b.render(ordered, 85, 1.0)
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > b.maxBytes {
		out, err = b.render(ordered, 60, 0.8)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *PDFBuilder) render(images []PageImage, quality int, resolutionScale float64) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pageW, pageH := pdf.GetPageSize()
	const margin = 10.0
	availW := pageW - 2*margin
	availH := pageH - 2*margin

	for i, page := range images {
		img, err := imaging.Decode(bytes.NewReader(page.Data))
		if err != nil {
			continue
		}

		if resolutionScale < 1.0 {
			bounds := img.Bounds()
			img = imaging.Resize(img, int(float64(bounds.Dx())*resolutionScale), 0, imaging.Lanczos)
		}

		encoded := &bytes.Buffer{}
		if err := imaging.Encode(encoded, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			continue
		}

		name := fmt.Sprintf("page-%d", i)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "JPEG"}, encoded)

		w := float64(img.Bounds().Dx())
		h := float64(img.Bounds().Dy())
		ratio := math.Min(availW/w, availH/h)
		drawW := w * ratio
		drawH := h * ratio

		pdf.AddPage()
		x := (pageW - drawW) / 2
		y := (pageH - drawH) / 2
		pdf.ImageOptions(name, x, y, drawW, drawH, false, gofpdf.ImageOptions{ImageType: "JPEG"}, 0, "")
	}

	out := &bytes.Buffer{}
	if err := pdf.Output(out); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}
