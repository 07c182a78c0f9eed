// Package dedup implements the rotation-correlated, mirror-aware
// near-duplicate matching predicate (spec §4.7) and the union-find
// clustering built on top of it.
package dedup

import (
	"encoding/hex"
	"math/bits"
	"sort"

	catalog "github.com/photocat/photocat"
	"github.com/sirupsen/logrus"
)

// DefaultThreshold is the configured similarity tolerance spec §4.7
// names as the default: 5 bits out of 64.
const DefaultThreshold = 5

// ProgressFunc is invoked roughly every 1,000 compared pairs, per §4.7.
type ProgressFunc func(processed, total int)

// Engine runs the pairwise comparison and clustering pass.
type Engine struct {
	threshold int
	log       logrus.FieldLogger
}

// NewEngine builds an Engine. threshold <= 0 falls back to
// DefaultThreshold.
func NewEngine(threshold int, log logrus.FieldLogger) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{threshold: threshold, log: log}
}

// fingerprint is one image's ten hash slots decoded to uint64, indexed
// by rotation for pHash/dHash and carrying the two mirror hashes
// separately.
type fingerprint struct {
	img *catalog.Image
	p   [4]uint64 // 0, 90, 180, 270
	d   [4]uint64
	pM  uint64
	dM  uint64
}

func decodeHash(hexStr string) (uint64, bool) {
	b, err := hex.DecodeString(hexStr)
	if err != nil || len(b) != 8 {
		return 0, false
	}
	var v uint64
	for _, byteVal := range b {
		v = v<<8 | uint64(byteVal)
	}
	return v, true
}

func buildFingerprint(img *catalog.Image) (*fingerprint, bool) {
	if !img.Hashed() {
		return nil, false
	}
	fp := &fingerprint{img: img}
	var ok bool
	if fp.p[0], ok = decodeHash(img.PHash0.String); !ok {
		return nil, false
	}
	if fp.p[1], ok = decodeHash(img.PHash90.String); !ok {
		return nil, false
	}
	if fp.p[2], ok = decodeHash(img.PHash180.String); !ok {
		return nil, false
	}
	if fp.p[3], ok = decodeHash(img.PHash270.String); !ok {
		return nil, false
	}
	if fp.d[0], ok = decodeHash(img.DHash0.String); !ok {
		return nil, false
	}
	if fp.d[1], ok = decodeHash(img.DHash90.String); !ok {
		return nil, false
	}
	if fp.d[2], ok = decodeHash(img.DHash180.String); !ok {
		return nil, false
	}
	if fp.d[3], ok = decodeHash(img.DHash270.String); !ok {
		return nil, false
	}
	if fp.pM, ok = decodeHash(img.PHashHMirror.String); !ok {
		return nil, false
	}
	if fp.dM, ok = decodeHash(img.DHashHMirror.String); !ok {
		return nil, false
	}
	return fp, true
}

func hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// isDuplicate implements §4.7's pair-match predicate exactly: either a
// correlated rotation pair satisfies both pHash and dHash at the SAME
// (r_a, r_b), or the mirror channel matches in either direction. This
// is the corrected rule - see DESIGN.md's note on why
// original_source/hashing/duplicates.py's independent per-hash rotation
// search is NOT grounded here (testable property 6 forbids it).
func (e *Engine) isDuplicate(a, b *fingerprint) bool {
	for ra := 0; ra < 4; ra++ {
		for rb := 0; rb < 4; rb++ {
			if hamming(a.p[ra], b.p[rb]) <= e.threshold && hamming(a.d[ra], b.d[rb]) <= e.threshold {
				return true
			}
		}
	}
	if hamming(a.pM, b.p[0]) <= e.threshold && hamming(a.dM, b.d[0]) <= e.threshold {
		return true
	}
	if hamming(b.pM, a.p[0]) <= e.threshold && hamming(b.dM, a.d[0]) <= e.threshold {
		return true
	}
	return false
}

// unionFind is a minimal disjoint-set over slice indices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// FindDuplicates compares every hashed pair in images and returns each
// connected component of size >= 2, sorted by file_size descending
// (largest kept first), per §4.7's grouping rule. onProgress, if
// non-nil, is invoked roughly every 1,000 pairs.
func (e *Engine) FindDuplicates(images []*catalog.Image, onProgress ProgressFunc) [][]*catalog.Image {
	var fps []*fingerprint
	for _, img := range images {
		if fp, ok := buildFingerprint(img); ok {
			fps = append(fps, fp)
		}
	}

	n := len(fps)
	uf := newUnionFind(n)
	totalPairs := n * (n - 1) / 2
	processed := 0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if e.isDuplicate(fps[i], fps[j]) {
				uf.union(i, j)
			}
			processed++
			if onProgress != nil && processed%1000 == 0 {
				onProgress(processed, totalPairs)
			}
		}
	}
	if onProgress != nil && totalPairs > 0 {
		onProgress(totalPairs, totalPairs)
	}

	components := map[int][]*catalog.Image{}
	for i, fp := range fps {
		root := uf.find(i)
		components[root] = append(components[root], fp.img)
	}

	var groups [][]*catalog.Image
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].FileSize.Int64 > members[j].FileSize.Int64
		})
		groups = append(groups, members)
	}
	return groups
}

// StoreGroups persists groups to the catalog. If replaceExisting is
// true, every pre-existing group is deleted first - the re-detect path
// described in §4.7.
func StoreGroups(store *catalog.Catalog, groups [][]*catalog.Image, replaceExisting bool) error {
	if replaceExisting {
		if err := store.DeleteAllGroups(); err != nil {
			return err
		}
	}
	for _, members := range groups {
		ids := make([]int64, len(members))
		for i, img := range members {
			ids[i] = img.ID
		}
		if _, err := store.CreateGroup(ids); err != nil {
			return err
		}
	}
	return nil
}
