package store

import "time"

// #region run-status
// Run status values stored in runs.status.
const (
	StatusRunning   = "running"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
)
// #endregion run-status

// #region run
// Run is one row of the runs table: a single engine run and the
// configuration it was started with.
type Run struct {
	ID         string
	ConfigJSON string
	Status     string
	Steps      uint64
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}
// #endregion run
