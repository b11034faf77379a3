package reconciler

import (
	"context"
	"time"

	"github.com/filez-project/filez/pkg/events"
	"github.com/filez-project/filez/pkg/model"
)

// JobStore is the slice of store.Store the lease reclaimer needs.
type JobStore interface {
	ListExpiredLeases(ctx context.Context, cutoff time.Time) ([]model.Job, error)
	ReclaimJob(ctx context.Context, jobID model.ID) error
	DeleteJobRow(ctx context.Context, jobID model.ID) error
}

// LeaseReclaimerTask implements spec §4.7's "Lease reclaim" background
// task: every job whose lease has exceeded timeout is reset to Pending,
// except Ephemeral jobs past their deadline, which are deleted instead.
func LeaseReclaimerTask(s JobStore, pub *events.Publisher, timeout time.Duration) Task {
	return Task{
		Name:     "job-lease-reclaimer",
		Interval: timeout,
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()
			expired, err := s.ListExpiredLeases(ctx, now.Add(-timeout))
			if err != nil {
				return err
			}
			for _, j := range expired {
				if j.Persistence == model.JobEphemeral && j.DeadlinePassed(now) {
					if err := s.DeleteJobRow(ctx, j.ID); err != nil {
						return err
					}
					_ = pub.Publish(events.JobReclaimed{JobID: j.ID.String(), AppID: j.AppID.String(), ResetToPending: false})
					continue
				}
				previous := ""
				if j.PickedUpByRuntimeInstance != nil {
					previous = *j.PickedUpByRuntimeInstance
				}
				if err := s.ReclaimJob(ctx, j.ID); err != nil {
					return err
				}
				_ = pub.Publish(events.JobReclaimed{JobID: j.ID.String(), AppID: j.AppID.String(), PreviousRuntimeID: previous, ResetToPending: true})
			}
			return nil
		},
	}
}
