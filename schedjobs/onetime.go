package schedjobs

import "time"

type OneTimeJob struct {
	ID       string
	ExecTime time.Time
	Task     Task
	// Job-specific callbacks
	OnAdded    func()
	OnFinished func(error)
}
