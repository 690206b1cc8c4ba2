package schedjobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) // a Monday

func newTestScheduler(now time.Time) *Scheduler {
	s := NewScheduler(context.Background())
	s.now = func() time.Time { return now }
	return s
}

func TestCronMatches(t *testing.T) {
	job := NewHourlyCronJob("sweep", 5, nil)
	assert.True(t, job.Matches(base.Add(5*time.Minute)))
	assert.False(t, job.Matches(base.Add(6*time.Minute)))

	job.Weekdays = BitsFromWeekdays([]int{0, 6})
	assert.False(t, job.Matches(base.Add(5*time.Minute)), "Monday excluded")

	every := NewEveryNMinutesCronJob("refresh", 15, nil)
	assert.True(t, every.Matches(base.Add(45*time.Minute)))
	assert.False(t, every.Matches(base.Add(50*time.Minute)))

	assert.Equal(t, uint32(0b101), BitsFromDaysOfMonth([]int{1, 3, 0, 32}))
	assert.Equal(t, uint32(1<<23), BitsFromHours([]int{23, 24}))
}

func TestTickRunsCronOncePerMinute(t *testing.T) {
	s := newTestScheduler(base)
	var runs atomic.Int32
	var finished atomic.Int32
	job := NewEveryNMinutesCronJob("every", 1, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	job.OnFinished = func(err error) { finished.Add(1) }
	s.AddCronJob(job)

	s.Tick(base)
	s.Tick(base.Add(20 * time.Second))
	s.Wait()
	assert.EqualValues(t, 1, runs.Load())

	s.Tick(base.Add(time.Minute))
	s.Wait()
	assert.EqualValues(t, 2, runs.Load())
	assert.EqualValues(t, 2, finished.Load())
}

func TestOneTimeJob(t *testing.T) {
	s := newTestScheduler(base)
	var ran atomic.Bool
	var added bool
	var gotErr error
	job := &OneTimeJob{
		ID:         "once",
		ExecTime:   base.Add(2*time.Minute + 10*time.Second),
		Task:       func(ctx context.Context) error { ran.Store(true); return errors.New("failed") },
		OnAdded:    func() { added = true },
		OnFinished: func(err error) { gotErr = err },
	}
	require.NoError(t, s.AddOneTimeJob(job))
	assert.True(t, added)
	assert.Len(t, s.GetOneTimeJobs(), 1)

	s.Tick(base.Add(2 * time.Minute))
	s.Wait()
	assert.False(t, ran.Load(), "rounded up to the next minute")

	// the exact minute was missed; the job still runs on the next tick
	s.Tick(base.Add(5 * time.Minute))
	s.Wait()
	assert.True(t, ran.Load())
	assert.EqualError(t, gotErr, "failed")
	assert.Empty(t, s.GetOneTimeJobs())
}

func TestOneTimeJobTooSoon(t *testing.T) {
	s := newTestScheduler(base)
	err := s.AddOneTimeJob(&OneTimeJob{ID: "soon", ExecTime: base.Add(10 * time.Second)})
	assert.Error(t, err)
}

func TestPanickingTaskIsReported(t *testing.T) {
	s := newTestScheduler(base)
	var reported error
	s.OnCronJobFinished = func(job *CronJob, err error) { reported = err }
	s.AddCronJob(NewEveryNMinutesCronJob("boom", 1, func(ctx context.Context) error { panic("boom") }))
	s.Tick(base)
	s.Wait()
	assert.ErrorContains(t, reported, "panicked")
}

func TestDeleteJobs(t *testing.T) {
	s := newTestScheduler(base)
	s.AddCronJob(NewEveryMinEmptyCronJob("a"))
	s.AddCronJob(NewEveryMinEmptyCronJob("b"))
	var deleted []string
	s.OnCronJobDeleted = func(job *CronJob) { deleted = append(deleted, job.ID) }
	s.DeleteCronJob("a")
	require.Len(t, s.GetCronJobs(), 1)
	assert.Equal(t, "b", s.GetCronJobs()[0].ID)
	assert.Equal(t, []string{"a"}, deleted)

	require.NoError(t, s.AddOneTimeJob(&OneTimeJob{ID: "x", ExecTime: base.Add(time.Hour)}))
	s.DeleteOneTimeJob("x")
	assert.Empty(t, s.GetOneTimeJobs())
}

func TestSchedulerService(t *testing.T) {
	s := NewScheduler(context.Background())
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	s.Stop()
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
