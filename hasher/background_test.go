package hasher

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	catalog "github.com/photocat/photocat"
)

func TestBackgroundHasherRunOnce(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "test.photocat")
	store, err := catalog.Create(catPath, nil)
	if err != nil {
		t.Fatalf("create catalog failed: %v", err)
	}
	defer store.Close()

	imgPath := filepath.Join(dir, "photo.png")
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatalf("create image file failed: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode image failed: %v", err)
	}
	f.Close()

	if _, err := store.AddImage(&catalog.NewImage{FilePath: "photo.png", FileName: "photo.png"}); err != nil {
		t.Fatalf("add image failed: %v", err)
	}

	bh := NewBackgroundHasher(store, 2, nil)
	updated, err := bh.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 image updated, got %d", updated)
	}

	hashed, err := store.ListHashed()
	if err != nil {
		t.Fatalf("list hashed failed: %v", err)
	}
	if len(hashed) != 1 {
		t.Errorf("expected 1 hashed image, got %d", len(hashed))
	}
}

func TestBackgroundHasherSkipsDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "test.photocat")
	store, err := catalog.Create(catPath, nil)
	if err != nil {
		t.Fatalf("create catalog failed: %v", err)
	}
	defer store.Close()

	if err := os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not a real image"), 0644); err != nil {
		t.Fatalf("write bad file failed: %v", err)
	}
	if _, err := store.AddImage(&catalog.NewImage{FilePath: "bad.png", FileName: "bad.png"}); err != nil {
		t.Fatalf("add image failed: %v", err)
	}

	bh := NewBackgroundHasher(store, 1, nil)
	updated, err := bh.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 updates for undecodable image, got %d", updated)
	}

	unhashed, err := store.ListUnhashed()
	if err != nil {
		t.Fatalf("list unhashed failed: %v", err)
	}
	if len(unhashed) != 1 {
		t.Errorf("expected image to remain unhashed and retryable, got %d unhashed", len(unhashed))
	}
}
