package reconciler

import (
	"context"
	"time"

	"github.com/filez-project/filez/pkg/filez"
	"github.com/filez-project/filez/pkg/model"
)

// OrphanSweepSource is satisfied by *filez.Service.
type OrphanSweepSource interface {
	DrainPendingReclaims() []filez.ReclaimTarget
	RetryReclaim(ctx context.Context, t filez.ReclaimTarget)
}

// OrphanSweepTask implements the orphan storage sweep supplemented from
// original_source's background_tasks/mod.rs (spec §4.8): it retries
// every storage delete that failed the first time a DeleteFile's
// asynchronous reclaim ran.
func OrphanSweepTask(interval time.Duration, source OrphanSweepSource) Task {
	return Task{
		Name:     "orphan-storage-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			for _, t := range source.DrainPendingReclaims() {
				source.RetryReclaim(ctx, t)
			}
			return nil
		},
	}
}

// StorageLocationStore is the slice of store.Store the storage-location
// reconcile loop needs.
type StorageLocationStore interface {
	ListStorageLocations(ctx context.Context, req model.ListRequest) (model.ListResult[model.StorageLocation], error)
	SetStorageLocationStatus(ctx context.Context, id model.ID, status model.StorageLocationStatus) error
	DeleteStorageLocation(ctx context.Context, id model.ID) error
	CountFileVersionsForLocation(ctx context.Context, id model.ID) (int, error)
}

// StorageLocationReconcileTask enforces REDESIGN FLAG (c): a
// StorageLocation still referenced by a FileVersion is never deleted,
// only demoted to Deprecated. A location in wantDeleted with zero
// referencing versions is deleted outright, whether or not it was
// Deprecated first, the finalizer pattern spec
// §4.4 describes for "providers removed from config are kept alive
// until no FileVersion references them, then dropped".
func StorageLocationReconcileTask(interval time.Duration, s StorageLocationStore, wantDeleted func() []model.ID) Task {
	return Task{
		Name:     "storage-location-reconcile",
		Interval: interval,
		Run: func(ctx context.Context) error {
			for _, id := range wantDeleted() {
				count, err := s.CountFileVersionsForLocation(ctx, id)
				if err != nil {
					return err
				}
				if count > 0 {
					if err := s.SetStorageLocationStatus(ctx, id, model.StorageLocationDeprecated); err != nil {
						return err
					}
					continue
				}
				if err := s.DeleteStorageLocation(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
