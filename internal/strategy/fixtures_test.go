package strategy

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
)

// noisyImage builds an image that compresses poorly as PNG so the JPEG
// re-encode is reliably smaller.
func noisyImage(width, height int) *image.NRGBA {
	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		t.Fatalf("encode jpeg fixture: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png fixture: %v", err)
	}
	return buf.Bytes()
}

// progressRecorder collects reported percentages for assertions.
type progressRecorder struct {
	mu     sync.Mutex
	values []int
}

func (r *progressRecorder) report(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, p)
}

func (r *progressRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out
}

func (r *progressRecorder) contains(want int) bool {
	for _, v := range r.snapshot() {
		if v == want {
			return true
		}
	}
	return false
}
