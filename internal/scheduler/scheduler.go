package scheduler

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
	"github.com/Alex-cat-ui/Reminder-bot/internal/store"
)

// FireFunc receives a due job. Invoked at most once per persisted row;
// the row is already consumed when the call happens.
type FireFunc func(eventID int64, jobType domain.JobType)

const consumeTimeout = 5 * time.Second

// NewJobs assigns scheduler handles to derived specs. The uuid is the
// weak correlation between a persisted row and its timer entry.
func NewJobs(specs []domain.JobSpec) []domain.Job {
	jobs := make([]domain.Job, 0, len(specs))
	for _, sp := range specs {
		jobs = append(jobs, domain.Job{
			Type:        sp.Type,
			RunAt:       sp.RunAt.UTC(),
			SchedulerID: "reminder_" + uuid.NewString(),
		})
	}
	return jobs
}

// Scheduler is the single timing authority: a min-heap of armed jobs
// and one dispatch goroutine waiting for the nearest due instant.
// Persisted rows are the source of truth; the heap is rebuilt from them
// by Restore after a restart.
type Scheduler struct {
	repo store.Repo
	log  *zap.Logger
	fire FireFunc

	mu      sync.Mutex
	heap    jobHeap
	byEvent map[int64]map[string]*entry // eventID → schedulerID → entry
	wake    chan struct{}

	now func() time.Time // fixed in tests
}

// New creates a Scheduler. The fire callback is set separately because
// the handler (the event service) is constructed after the scheduler.
func New(repo store.Repo, log *zap.Logger) *Scheduler {
	return &Scheduler{
		repo:    repo,
		log:     log,
		byEvent: make(map[int64]map[string]*entry),
		wake:    make(chan struct{}, 1),
		now:     time.Now,
	}
}

// OnFire registers the fired-job handler. Must be called before Run.
func (s *Scheduler) OnFire(f FireFunc) { s.fire = f }

// Arm adds timers for already-persisted jobs.
func (s *Scheduler) Arm(jobs []domain.Job) {
	s.mu.Lock()
	for _, j := range jobs {
		s.armLocked(j)
	}
	s.mu.Unlock()
	s.kick()
}

// Disarm drops all timers of one event. Rows are deleted by the caller;
// entries for jobs that already fired are simply absent.
func (s *Scheduler) Disarm(eventID int64) {
	s.mu.Lock()
	s.disarmLocked(eventID)
	s.mu.Unlock()
	s.kick()
}

// Rearm atomically swaps an event's timers for a new job set (snooze).
func (s *Scheduler) Rearm(eventID int64, jobs []domain.Job) {
	s.mu.Lock()
	s.disarmLocked(eventID)
	for _, j := range jobs {
		s.armLocked(j)
	}
	s.mu.Unlock()
	s.kick()
}

func (s *Scheduler) armLocked(j domain.Job) {
	e := &entry{job: j}
	heap.Push(&s.heap, e)
	m := s.byEvent[j.EventID]
	if m == nil {
		m = make(map[string]*entry)
		s.byEvent[j.EventID] = m
	}
	m[j.SchedulerID] = e
}

func (s *Scheduler) disarmLocked(eventID int64) {
	for _, e := range s.byEvent[eventID] {
		if e.index >= 0 {
			heap.Remove(&s.heap, e.index)
		}
	}
	delete(s.byEvent, eventID)
}

// kick wakes the dispatch loop to re-read the heap top.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Restore rebuilds the timer heap from persisted rows at process start.
// Rows whose instant elapsed while the process was down fire
// immediately, at most once each, in ascending run order. An error here
// means the scheduler is unrestored and the process must not proceed.
func (s *Scheduler) Restore(ctx context.Context) error {
	jobs, err := s.repo.ListJobs(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	var overdue, future []domain.Job
	for _, j := range jobs {
		if j.RunAt.After(now) {
			future = append(future, j)
		} else {
			overdue = append(overdue, j)
		}
	}

	sort.Slice(overdue, func(i, k int) bool { return dueBefore(overdue[i], overdue[k]) })
	for _, j := range overdue {
		s.dispatch(ctx, j)
	}

	s.Arm(future)
	s.log.Info("scheduler restored",
		zap.Int("armed", len(future)),
		zap.Int("caught_up", len(overdue)),
	)
	return nil
}

// Run waits for the nearest due instant and dispatches, until ctx ends.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		s.mu.Lock()
		var next *entry
		if s.heap.Len() > 0 {
			next = s.heap[0]
		}
		var wait time.Duration
		if next != nil {
			wait = next.job.RunAt.Sub(s.now())
			if wait <= 0 {
				e := heap.Pop(&s.heap).(*entry)
				s.forgetLocked(e)
				s.mu.Unlock()
				s.dispatch(ctx, e.job)
				continue
			}
		}
		s.mu.Unlock()

		if next == nil {
			select {
			case <-ctx.Done():
				s.log.Info("scheduler stopping")
				return
			case <-s.wake:
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scheduler stopping")
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) forgetLocked(e *entry) {
	if m := s.byEvent[e.job.EventID]; m != nil {
		delete(m, e.job.SchedulerID)
		if len(m) == 0 {
			delete(s.byEvent, e.job.EventID)
		}
	}
}

// dispatch consumes the row first, then invokes the callback. A row
// already gone means the job was cancelled or delivered; silent drop.
func (s *Scheduler) dispatch(ctx context.Context, job domain.Job) {
	cctx, cancel := context.WithTimeout(ctx, consumeTimeout)
	consumed, err := s.repo.ConsumeJob(cctx, job.ID)
	cancel()
	if err != nil {
		s.log.Error("consume job failed",
			zap.Int64("jobID", job.ID),
			zap.Int64("eventID", job.EventID),
			zap.Error(err),
		)
		return
	}
	if !consumed {
		return
	}
	s.log.Info("job fired",
		zap.Int64("eventID", job.EventID),
		zap.String("type", string(job.Type)),
		zap.Time("runAt", job.RunAt),
	)
	if s.fire != nil {
		s.fire(job.EventID, job.Type)
	}
}

// ── heap ────────────────────────────────────────────────────────────

type entry struct {
	job   domain.Job
	index int
}

// dueBefore orders jobs by run instant, ties broken by the fixed type
// priority, then id.
func dueBefore(a, b domain.Job) bool {
	if !a.RunAt.Equal(b.RunAt) {
		return a.RunAt.Before(b.RunAt)
	}
	if a.Type.Priority() != b.Type.Priority() {
		return a.Type.Priority() < b.Type.Priority()
	}
	return a.ID < b.ID
}

type jobHeap []*entry

func (h jobHeap) Len() int           { return len(h) }
func (h jobHeap) Less(i, j int) bool { return dueBefore(h[i].job, h[j].job) }
func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
