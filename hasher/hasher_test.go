package hasher

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeCheckerboard(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{A: 255})
			}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
}

func TestComputeProducesTenSixteenCharHashes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writeCheckerboard(t, path, 64, 64)

	h, err := Compute(path)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	hashes := []string{
		h.PHash0, h.PHash90, h.PHash180, h.PHash270,
		h.DHash0, h.DHash90, h.DHash180, h.DHash270,
		h.PHashHMirror, h.DHashHMirror,
	}
	for _, hex := range hashes {
		if len(hex) != 16 {
			t.Errorf("expected 16-char hash, got %q (%d chars)", hex, len(hex))
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writeCheckerboard(t, path, 64, 64)

	h1, err := Compute(path)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	h2, err := Compute(path)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if h1.PHash0 != h2.PHash0 || h1.DHash0 != h2.DHash0 {
		t.Error("expected identical hashes across repeated computation of the same file")
	}
}

func TestComputeMissingFile(t *testing.T) {
	if _, err := Compute("/nonexistent/file.png"); err == nil {
		t.Error("expected error for missing file")
	}
}
