package strategy

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

var mediaExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// OfficeRepackager opens a zip-based document container, recompresses
// the embedded raster images via the image strategy and repacks the
// whole archive at maximum deflation. Structural failures and archives
// with no media entries defer to the fallback simulation; a
// structurally valid office document is never reported as failed.
type OfficeRepackager struct {
	Images        *ImageCompressor
	Fallback      Strategy
	FallbackDelay time.Duration
}

func NewOfficeRepackager(images *ImageCompressor, fallback Strategy, fallbackDelay time.Duration) *OfficeRepackager {
	return &OfficeRepackager{
		Images:        images,
		Fallback:      fallback,
		FallbackDelay: fallbackDelay,
	}
}

func (s *OfficeRepackager) Name() string { return "office" }

func (s *OfficeRepackager) Compress(ctx context.Context, filename string, data []byte, report Progress) (*Outcome, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return s.fallback(ctx, filename, data, report, true)
	}

	var media []*zip.File
	for _, f := range reader.File {
		if isMediaEntry(f) {
			media = append(media, f)
		}
	}
	if len(media) == 0 {
		// A document with no embedded images is a valid non-error
		// case; there is just nothing real to compress.
		return s.fallback(ctx, filename, data, report, false)
	}

	replaced := make(map[string][]byte, len(media))
	for k, f := range media {
		if b, err := readEntry(f); err == nil {
			replaced[f.Name] = s.Images.Recompress(b)
		}
		// A per-entry failure keeps the original bytes and never
		// aborts the task.
		report(int(math.Round(float64(k+1) / float64(len(media)) * 90)))
	}

	out, err := s.repack(reader, replaced)
	if err != nil {
		return s.fallback(ctx, filename, data, report, true)
	}

	return &Outcome{Data: out, Real: true, Savings: -1, Note: fmt.Sprintf("Recompressed %d embedded images.", len(media))}, nil
}

// repack rewrites every entry of the archive with level-9 deflate,
// substituting recompressed media bytes where available.
func (s *OfficeRepackager) repack(reader *zip.Reader, replaced map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		b, ok := replaced[f.Name]
		if !ok {
			var err error
			if b, err = readEntry(f); err != nil {
				w.Close()
				return nil, &Error{Kind: ErrArchive, Op: "read entry " + f.Name, Err: err}
			}
		}
		entry, err := w.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			w.Close()
			return nil, &Error{Kind: ErrEncode, Op: "create entry " + f.Name, Err: err}
		}
		if _, err := entry.Write(b); err != nil {
			w.Close()
			return nil, &Error{Kind: ErrEncode, Op: "write entry " + f.Name, Err: err}
		}
	}

	if err := w.Close(); err != nil {
		return nil, &Error{Kind: ErrEncode, Op: "close archive", Err: err}
	}
	return buf.Bytes(), nil
}

func (s *OfficeRepackager) fallback(ctx context.Context, filename string, data []byte, report Progress, delayed bool) (*Outcome, error) {
	if delayed && s.FallbackDelay > 0 {
		time.Sleep(s.FallbackDelay)
	}
	out, err := s.Fallback.Compress(ctx, filename, data, report)
	if err != nil {
		return nil, err
	}
	out.Note = "No compressible images found. Switching to simulation."
	if delayed {
		out.Note = "Real compression failed. Switching to simulation."
	}
	return out, nil
}

func isMediaEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() {
		return false
	}
	lower := strings.ToLower(f.Name)
	if !strings.Contains(lower, "word/media/") && !strings.Contains(lower, "ppt/media/") {
		return false
	}
	return mediaExtensions[filepath.Ext(lower)]
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
