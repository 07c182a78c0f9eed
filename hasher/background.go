package hasher

import (
	"context"
	"path/filepath"
	"sync"

	catalog "github.com/photocat/photocat"
	"github.com/sirupsen/logrus"
)

// DefaultWorkers is the pool size spec §4.6 names as the default.
const DefaultWorkers = 2

// BackgroundHasher drains unhashed catalog rows through a bounded
// worker pool. It writes through the *catalog.Catalog handle it is
// given; whether that handle is separate from the scanner's is up to
// the caller. Hashes are computed outside any transaction and each row
// is written by a single UPDATE, so no write transaction is held across
// image decoding (§4.6, §9). Grounded
// on schneiel-image-manger-cli's image_deduplicator worker-pool shape
// (jobs/results channels, sync.WaitGroup) and dolthub-dolt's
// dhashjob.go bounded-workers pattern.
type BackgroundHasher struct {
	store      *catalog.Catalog
	numWorkers int
	log        logrus.FieldLogger
}

// NewBackgroundHasher builds a hasher bound to store. numWorkers <= 0
// falls back to DefaultWorkers.
func NewBackgroundHasher(store *catalog.Catalog, numWorkers int, log logrus.FieldLogger) *BackgroundHasher {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BackgroundHasher{store: store, numWorkers: numWorkers, log: log}
}

type hashJob struct {
	imageID int64
	path    string
}

type hashResult struct {
	imageID int64
	hashes  *Hashes
	err     error
}

// RunOnce hashes every currently-unhashed row once and returns the
// number successfully updated. ctx is checked between images, per §5's
// cooperative-cancellation model - partial progress already committed
// is kept, never rolled back.
func (b *BackgroundHasher) RunOnce(ctx context.Context) (int, error) {
	images, err := b.store.ListUnhashed()
	if err != nil {
		return 0, err
	}
	if len(images) == 0 {
		return 0, nil
	}

	jobs := make(chan hashJob, len(images))
	results := make(chan hashResult, len(images))

	var wg sync.WaitGroup
	for i := 0; i < b.numWorkers; i++ {
		wg.Add(1)
		go b.worker(ctx, &wg, jobs, results)
	}

	for _, img := range images {
		jobs <- hashJob{imageID: img.ID, path: filepath.Join(b.store.Root(), img.FilePath)}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	updated := 0
	for r := range results {
		if r.err != nil {
			b.log.WithFields(logrus.Fields{"image_id": r.imageID, "error": r.err}).
				Warn("hash computation failed, leaving image unhashed for retry")
			continue
		}
		if err := b.store.UpdateImage(r.imageID, hashesToUpdate(r.hashes)); err != nil {
			b.log.WithFields(logrus.Fields{"image_id": r.imageID, "error": err}).
				Warn("writing computed hashes failed, leaving image unhashed for retry")
			continue
		}
		updated++
	}
	return updated, nil
}

func (b *BackgroundHasher) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan hashJob, results chan<- hashResult) {
	defer wg.Done()
	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- hashResult{imageID: job.imageID, err: ctx.Err()}
			continue
		default:
		}
		hashes, err := Compute(job.path)
		results <- hashResult{imageID: job.imageID, hashes: hashes, err: err}
	}
}

func hashesToUpdate(h *Hashes) *catalog.ImageUpdate {
	return &catalog.ImageUpdate{
		PHash0: &h.PHash0, PHash90: &h.PHash90, PHash180: &h.PHash180, PHash270: &h.PHash270,
		DHash0: &h.DHash0, DHash90: &h.DHash90, DHash180: &h.DHash180, DHash270: &h.DHash270,
		PHashHMirror: &h.PHashHMirror, DHashHMirror: &h.DHashHMirror,
	}
}
