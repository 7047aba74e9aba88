package strategy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/disintegration/imaging"
	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFRasterizer renders every page of a PDF to a raster surface at a
// fixed scale, encodes each page as a reduced-quality JPEG and rebuilds
// a fresh PDF from those page images. Blunt, but it works regardless of
// the document's content streams, fonts or embedded objects, at the
// cost of turning vector and text content into raster.
//
// Unlike the office path, any failure here is fatal to the task: the
// error is surfaced verbatim and there is no simulation downgrade.
type PDFRasterizer struct {
	Scale       float64
	JPEGQuality int
}

func NewPDFRasterizer(scale float64, jpegQuality int) *PDFRasterizer {
	return &PDFRasterizer{Scale: scale, JPEGQuality: jpegQuality}
}

func (s *PDFRasterizer) Name() string { return "pdf" }

func (s *PDFRasterizer) Compress(ctx context.Context, filename string, data []byte, report Progress) (*Outcome, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &Error{Kind: ErrDecode, Op: "open pdf", Err: err}
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, &Error{Kind: ErrDecode, Op: "open pdf", Err: fmt.Errorf("document has no pages")}
	}

	// 72 dpi is scale 1.0.
	dpi := 72 * s.Scale

	pages := make([]io.Reader, 0, total)
	for i := 0; i < total; i++ {
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, &Error{Kind: ErrDecode, Op: fmt.Sprintf("render page %d", i+1), Err: err}
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.JPEGQuality)); err != nil {
			return nil, &Error{Kind: ErrEncode, Op: fmt.Sprintf("encode page %d", i+1), Err: err}
		}
		pages = append(pages, bytes.NewReader(buf.Bytes()))
		report(int(math.Round(float64(i+1) / float64(total) * 90)))
	}

	// Each JPEG becomes its own full-bleed page, sized to the image so
	// the aspect ratio is preserved. The remaining 10% of progress is
	// this serialization step.
	var assembled bytes.Buffer
	if err := api.ImportImages(nil, &assembled, pages, nil, nil); err != nil {
		return nil, &Error{Kind: ErrEncode, Op: "assemble output pdf", Err: err}
	}
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(assembled.Bytes()), &out, nil); err != nil {
		return nil, &Error{Kind: ErrEncode, Op: "optimize output pdf", Err: err}
	}

	return &Outcome{Data: out.Bytes(), Real: true, Savings: -1, Note: fmt.Sprintf("Rasterized %d pages.", total)}, nil
}
