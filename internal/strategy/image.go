package strategy

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	// Registers webp decoding for image.Decode; webp uploads are
	// accepted but always re-encoded as JPEG.
	_ "golang.org/x/image/webp"
)

// ImageCompressor decodes a raster image, downsamples it when oversized
// and re-encodes it as JPEG at reduced quality.
type ImageCompressor struct {
	MaxDimension int
	JPEGQuality  int

	// StepInterval paces the synthetic progress ticker used when the
	// compressor runs as a standalone per-file strategy, since the
	// decode/resize/encode work is not naturally incremental.
	StepInterval time.Duration
}

func NewImageCompressor(maxDimension, jpegQuality int, stepInterval time.Duration) *ImageCompressor {
	return &ImageCompressor{
		MaxDimension: maxDimension,
		JPEGQuality:  jpegQuality,
		StepInterval: stepInterval,
	}
}

func (c *ImageCompressor) Name() string { return "image" }

// Recompress never fails its caller: on decode or encode error the
// input bytes are returned unchanged, and the re-encoded bytes are
// accepted only when strictly smaller than the input. This guard is the
// only place that prevents a "compression" from silently growing a file.
func (c *ImageCompressor) Recompress(data []byte) []byte {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > c.MaxDimension || h > c.MaxDimension {
		if w > h {
			src = imaging.Resize(src, c.MaxDimension, 0, imaging.Lanczos)
		} else {
			src = imaging.Resize(src, 0, c.MaxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(c.JPEGQuality)); err != nil {
		return data
	}
	if buf.Len() < len(data) {
		return buf.Bytes()
	}
	return data
}

// Compress runs Recompress under a synthetic progress timeline stepping
// 5% per tick up to 80% while the real work proceeds.
func (c *ImageCompressor) Compress(ctx context.Context, filename string, data []byte, report Progress) (*Outcome, error) {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		interval := c.StepInterval
		if interval <= 0 {
			interval = 50 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		percent := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if percent >= 80 {
					return
				}
				percent += 5
				report(percent)
			}
		}
	}()

	out := c.Recompress(data)
	close(stop)
	wg.Wait()
	report(90)

	return &Outcome{Data: out, Real: true, Savings: -1, Note: "Done."}, nil
}
