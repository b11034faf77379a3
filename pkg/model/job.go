package model

import "time"

// JobPersistence controls what the lease reclaimer does to a job whose
// deadline has passed instead of resetting it to Pending.
type JobPersistence string

const (
	JobEphemeral  JobPersistence = "Ephemeral"
	JobPersistent JobPersistence = "Persistent"
)

// JobStatus is a job's position in its (monotone) lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "Pending"
	JobPickedUp  JobStatus = "PickedUp"
	JobRunning   JobStatus = "Running"
	JobSucceeded JobStatus = "Succeeded"
	JobFailed    JobStatus = "Failed"
	JobTimedOut  JobStatus = "TimedOut"
)

// validJobTransitions enumerates every allowed status-to-status edge; any
// pair not present here is rejected by UpdateStatus (spec §4.7).
var validJobTransitions = map[JobStatus]map[JobStatus]bool{
	JobPending:  {JobPickedUp: true},
	JobPickedUp: {JobRunning: true, JobSucceeded: true, JobFailed: true, JobPending: true},
	JobRunning:  {JobSucceeded: true, JobFailed: true, JobPending: true},
}

// CanTransition reports whether moving from 'from' to 'to' is a legal
// status transition.
func CanTransition(from, to JobStatus) bool {
	return validJobTransitions[from][to]
}

// Job is a unit of deferred work dispatched to a worker App via pickup.
type Job struct {
	ID                       ID
	OwnerID                  ID
	AppID                    ID
	Name                     string
	ExecutionDetails         []byte // opaque JSON
	Persistence              JobPersistence
	Status                   JobStatus
	DeadlineTime             *time.Time
	PickedUpByRuntimeInstance *string
	PickedUpAt               *time.Time
	CreatedTime              time.Time
	ModifiedTime             time.Time
}

// LeaseExpired reports whether a PickedUp/Running job has held its lease
// longer than timeout, measured against now.
func (j Job) LeaseExpired(now time.Time, timeout time.Duration) bool {
	if j.PickedUpAt == nil {
		return false
	}
	return now.Sub(*j.PickedUpAt) > timeout
}

// DeadlinePassed reports whether the job's optional deadline has elapsed.
func (j Job) DeadlinePassed(now time.Time) bool {
	return j.DeadlineTime != nil && now.After(*j.DeadlineTime)
}
