// Package hasher computes the ten rotation- and mirror-invariant
// perceptual fingerprints spec §4.6 requires for one image, and runs a
// bounded background worker pool that drains unhashed catalog rows.
package hasher

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// Hashes holds the ten 64-bit fingerprints as 16-character lowercase
// hex strings, matching the Image row's hash columns exactly (§3).
type Hashes struct {
	PHash0, PHash90, PHash180, PHash270 string
	DHash0, DHash90, DHash180, DHash270 string
	PHashHMirror, DHashHMirror          string
}

// Compute opens path, applies the file's own EXIF orientation so
// rotation 0 deg is the human-upright view (§4.6), then computes pHash
// and dHash at each 90 deg step plus the horizontal-mirror channel.
func Compute(path string) (*Hashes, error) {
	upright, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("hasher: decode %s: %w", path, err)
	}
	return computeFromImage(upright)
}

func computeFromImage(upright image.Image) (*Hashes, error) {
	rot0 := upright
	rot90 := imaging.Rotate90(upright)
	rot180 := imaging.Rotate180(upright)
	rot270 := imaging.Rotate270(upright)
	mirror := imaging.FlipH(upright)

	p0, err := goimagehash.PerceptionHash(rot0)
	if err != nil {
		return nil, fmt.Errorf("hasher: phash 0: %w", err)
	}
	p90, err := goimagehash.PerceptionHash(rot90)
	if err != nil {
		return nil, fmt.Errorf("hasher: phash 90: %w", err)
	}
	p180, err := goimagehash.PerceptionHash(rot180)
	if err != nil {
		return nil, fmt.Errorf("hasher: phash 180: %w", err)
	}
	p270, err := goimagehash.PerceptionHash(rot270)
	if err != nil {
		return nil, fmt.Errorf("hasher: phash 270: %w", err)
	}
	pMirror, err := goimagehash.PerceptionHash(mirror)
	if err != nil {
		return nil, fmt.Errorf("hasher: phash mirror: %w", err)
	}

	d0, err := goimagehash.DifferenceHash(rot0)
	if err != nil {
		return nil, fmt.Errorf("hasher: dhash 0: %w", err)
	}
	d90, err := goimagehash.DifferenceHash(rot90)
	if err != nil {
		return nil, fmt.Errorf("hasher: dhash 90: %w", err)
	}
	d180, err := goimagehash.DifferenceHash(rot180)
	if err != nil {
		return nil, fmt.Errorf("hasher: dhash 180: %w", err)
	}
	d270, err := goimagehash.DifferenceHash(rot270)
	if err != nil {
		return nil, fmt.Errorf("hasher: dhash 270: %w", err)
	}
	dMirror, err := goimagehash.DifferenceHash(mirror)
	if err != nil {
		return nil, fmt.Errorf("hasher: dhash mirror: %w", err)
	}

	return &Hashes{
		PHash0:       hex16(p0.GetHash()),
		PHash90:      hex16(p90.GetHash()),
		PHash180:     hex16(p180.GetHash()),
		PHash270:     hex16(p270.GetHash()),
		DHash0:       hex16(d0.GetHash()),
		DHash90:      hex16(d90.GetHash()),
		DHash180:     hex16(d180.GetHash()),
		DHash270:     hex16(d270.GetHash()),
		PHashHMirror: hex16(pMirror.GetHash()),
		DHashHMirror: hex16(dMirror.GetHash()),
	}, nil
}

func hex16(h uint64) string {
	return fmt.Sprintf("%016x", h)
}
