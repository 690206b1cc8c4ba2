package schedjobs

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ecogroup/ecgsite/svc"
)

// Scheduler runs cron and one-time jobs at minute resolution
type Scheduler struct {
	Ctx    context.Context    // Service Context
	cancel context.CancelFunc // Service Context CancelFunc
	state  int                // internal service state
	done   chan error         // Shutdown Error Channel

	oneTimeJobs map[int64][]*OneTimeJob // keyed by unix minute
	cronJobs    []*CronJob
	lastMinute  int64
	mu          sync.Mutex
	wg          sync.WaitGroup
	now         func() time.Time

	// Default Callbacks
	OnOneTimeJobAdded    func(job *OneTimeJob)
	OnCronJobAdded       func(job *CronJob)
	OnOneTimeJobFinished func(job *OneTimeJob, err error)
	OnCronJobFinished    func(job *CronJob, err error)
	OnOneTimeJobDeleted  func(job *OneTimeJob)
	OnCronJobDeleted     func(job *CronJob)
}

// Ensure Scheduler implements svc.Service
var _ svc.Service = (*Scheduler)(nil)

func NewScheduler(parentCtx context.Context) *Scheduler {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Scheduler{
		Ctx:         svcCtx,
		cancel:      svcCancel,
		state:       svc.StateREADY,
		done:        make(chan error, 1),
		oneTimeJobs: make(map[int64][]*OneTimeJob),
		now:         time.Now,
	}
}

func (s *Scheduler) Name() string {
	return "JobScheduler"
}

func (s *Scheduler) Start() error {
	if s.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	go s.loop()
	log.Printf("[INFO][SCHED] job scheduler started with %d cron jobs", len(s.GetCronJobs()))
	return nil
}

func (s *Scheduler) Stop() {
	if s.state != svc.StateRUNNING {
		log.Println("[ERROR][SCHED] cannot stop. not running")
		return
	}
	s.cancel()
	s.state = svc.StateSTOPPED
	log.Println("[INFO][SCHED] job scheduler stopping")
}

func (s *Scheduler) Done() <-chan error {
	return s.done
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		s.Tick(s.now())
		select {
		case <-ticker.C:
		case <-s.Ctx.Done():
			s.wg.Wait() // wait for running tasks
			log.Println("[INFO][SCHED] job scheduler stopped")
			s.done <- nil
			return
		}
	}
}

// Tick runs every job due at now. A minute is never served twice;
// one-time jobs whose minute was missed run on the next tick.
func (s *Scheduler) Tick(now time.Time) {
	minute := now.Unix() / 60
	s.mu.Lock()
	if minute <= s.lastMinute {
		s.mu.Unlock()
		debugf("minute %d already served", minute)
		return
	}
	s.lastMinute = minute
	var due []*OneTimeJob
	for key, jobs := range s.oneTimeJobs {
		if key <= minute {
			due = append(due, jobs...)
			delete(s.oneTimeJobs, key)
		}
	}
	crons := append([]*CronJob(nil), s.cronJobs...) // copy jobs so unlocking early is possible
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].ExecTime.Before(due[j].ExecTime) })
	debugf("tick %v: %d one-time jobs due, %d cron jobs", now, len(due), len(crons))
	for _, job := range due {
		s.runOneTimeJob(job)
	}
	for _, job := range crons {
		if job.Matches(now) {
			debugf("cron job %q matched", job.ID)
			s.runCronJob(job)
		}
	}
}

// Wait blocks until every started task has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runTask(id string, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] recovered in job %q: %v", id, r)
			err = fmt.Errorf("job %q panicked: %v", id, r)
		}
	}()
	if task == nil {
		return fmt.Errorf("job %q has no task", id)
	}
	return task(s.Ctx)
}

func callback(id string, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] recovered in %s of job %q: %v", name, id, r)
		}
	}()
	fn()
}

func (s *Scheduler) runOneTimeJob(job *OneTimeJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.runTask(job.ID, job.Task)
		if err != nil {
			log.Printf("[ERROR][SCHED] one-time job %q: %v", job.ID, err)
		}
		if job.OnFinished != nil {
			callback(job.ID, "OnFinished", func() { job.OnFinished(err) })
		}
		if s.OnOneTimeJobFinished != nil {
			callback(job.ID, "OnOneTimeJobFinished", func() { s.OnOneTimeJobFinished(job, err) })
		}
	}()
}

func (s *Scheduler) runCronJob(job *CronJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.runTask(job.ID, job.Task)
		if err != nil {
			log.Printf("[ERROR][SCHED] cron job %q: %v", job.ID, err)
		}
		if job.OnFinished != nil {
			callback(job.ID, "OnFinished", func() { job.OnFinished(err) })
		}
		if s.OnCronJobFinished != nil {
			callback(job.ID, "OnCronJobFinished", func() { s.OnCronJobFinished(job, err) })
		}
	}()
}

func (s *Scheduler) AddOneTimeJob(job *OneTimeJob) error {
	now := s.now()
	margin := 30 * time.Second
	if job.ExecTime.Before(now.Add(margin)) {
		return fmt.Errorf(
			"cannot schedule job %s too close or in the past (ExecTime: %s, now: %s)",
			job.ID, job.ExecTime, now,
		)
	}
	// Round up to the next minute if ExecTime has seconds/nanoseconds
	regTime := job.ExecTime
	if regTime.Second() > 0 || regTime.Nanosecond() > 0 {
		regTime = regTime.Truncate(time.Minute).Add(time.Minute)
	}
	key := regTime.Unix() / 60
	s.mu.Lock()
	s.oneTimeJobs[key] = append(s.oneTimeJobs[key], job)
	s.mu.Unlock()
	if job.OnAdded != nil { // Job-specific callback
		callback(job.ID, "OnAdded", job.OnAdded)
	}
	if s.OnOneTimeJobAdded != nil { // Scheduler-level default callback
		s.OnOneTimeJobAdded(job)
	}
	return nil
}

func (s *Scheduler) AddCronJob(job *CronJob) {
	s.mu.Lock()
	s.cronJobs = append(s.cronJobs, job)
	s.mu.Unlock()
	if job.OnAdded != nil {
		callback(job.ID, "OnAdded", job.OnAdded)
	}
	if s.OnCronJobAdded != nil {
		s.OnCronJobAdded(job)
	}
}

// GetOneTimeJobs returns a copy of all pending one-time jobs, keyed by their scheduled minute-level timestamp.
func (s *Scheduler) GetOneTimeJobs() map[int64][]*OneTimeJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int64][]*OneTimeJob, len(s.oneTimeJobs))
	for key, jobs := range s.oneTimeJobs {
		result[key] = append([]*OneTimeJob(nil), jobs...) // copy slice to avoid external mutation
	}
	return result
}

// GetCronJobs returns a copy of all registered cron jobs
func (s *Scheduler) GetCronJobs() []*CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*CronJob(nil), s.cronJobs...)
}

// DeleteOneTimeJob - Delete a job
func (s *Scheduler) DeleteOneTimeJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, jobs := range s.oneTimeJobs {
		filtered := jobs[:0]
		for _, job := range jobs {
			if job.ID == jobID {
				if s.OnOneTimeJobDeleted != nil {
					s.OnOneTimeJobDeleted(job)
				}
			} else {
				filtered = append(filtered, job)
			}
		}
		if len(filtered) == 0 {
			delete(s.oneTimeJobs, key)
		} else {
			s.oneTimeJobs[key] = filtered
		}
	}
}

// DeleteCronJob removes a cron job by its ID
func (s *Scheduler) DeleteCronJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	newJobs := s.cronJobs[:0] // reuse underlying array
	for _, job := range s.cronJobs {
		if job.ID != jobID {
			newJobs = append(newJobs, job)
		} else if s.OnCronJobDeleted != nil {
			s.OnCronJobDeleted(job)
		}
	}
	s.cronJobs = newJobs
}
