package types

import "time"

// JobStatus represents the lifecycle state of a discovery job.
type JobStatus string

const (
	JobStatusStarted   JobStatus = "started"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// DiscoveryJob is one asynchronous run of the pipeline for a single outlet.
type DiscoveryJob struct {
	ID           string     `json:"id"                    bson:"_id"`
	Outlet       string     `json:"outlet"                bson:"outlet"`
	Quota        int        `json:"quota"                 bson:"quota"`
	Status       JobStatus  `json:"status"                bson:"status"`
	ProgressPct  int        `json:"progressPct"           bson:"progressPct"`
	Message      string     `json:"message"               bson:"message"`
	Website      string     `json:"website,omitempty"     bson:"website,omitempty"`
	AuthorsFound int        `json:"authorsFound"          bson:"authorsFound"`
	AuthorsSaved int        `json:"authorsSaved"          bson:"authorsSaved"`
	StartedAt    time.Time  `json:"startedAt"             bson:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Error        string     `json:"error,omitempty"       bson:"error,omitempty"`
}
