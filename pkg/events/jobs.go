package events

import "encoding/json"

// JobCreated is emitted when a new Job row is inserted (spec §4.7).
type JobCreated struct {
	JobID   string
	AppID   string
	OwnerID string
	Name    string
}

func init() { register(JobCreated{}) }

func (JobCreated) Unmarshal(v []byte) (interface{}, error) {
	e := JobCreated{}
	err := json.Unmarshal(v, &e)
	return e, err
}

// JobPickedUp is emitted when a worker successfully picks up a job.
type JobPickedUp struct {
	JobID             string
	AppID             string
	RuntimeInstanceID string
}

func init() { register(JobPickedUp{}) }

func (JobPickedUp) Unmarshal(v []byte) (interface{}, error) {
	e := JobPickedUp{}
	err := json.Unmarshal(v, &e)
	return e, err
}

// JobStatusChanged is emitted on every legal status transition.
type JobStatusChanged struct {
	JobID string
	AppID string
	From  string
	To    string
}

func init() { register(JobStatusChanged{}) }

func (JobStatusChanged) Unmarshal(v []byte) (interface{}, error) {
	e := JobStatusChanged{}
	err := json.Unmarshal(v, &e)
	return e, err
}

// JobReclaimed is emitted by the reconciler's lease reclaimer when a
// worker's lease on a job has expired (spec §4.8).
type JobReclaimed struct {
	JobID             string
	AppID             string
	PreviousRuntimeID string
	ResetToPending    bool
}

func init() { register(JobReclaimed{}) }

func (JobReclaimed) Unmarshal(v []byte) (interface{}, error) {
	e := JobReclaimed{}
	err := json.Unmarshal(v, &e)
	return e, err
}
