package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
)

// fakeRepo serves ListJobs/ConsumeJob and records consumption order; the
// rest of the store surface is unused here.
type fakeRepo struct {
	mu       sync.Mutex
	jobs     []domain.Job
	gone     map[int64]bool // rows already consumed or cancelled
	consumed []int64
	listErr  error
}

func (f *fakeRepo) ListJobs(context.Context) ([]domain.Job, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Job(nil), f.jobs...), nil
}

func (f *fakeRepo) ConsumeJob(_ context.Context, jobID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gone[jobID] {
		return false, nil
	}
	if f.gone == nil {
		f.gone = make(map[int64]bool)
	}
	f.gone[jobID] = true
	f.consumed = append(f.consumed, jobID)
	return true, nil
}

func (f *fakeRepo) UpsertUser(context.Context, *domain.User) error { return nil }
func (f *fakeRepo) GetUser(context.Context, int64) (*domain.User, error) {
	return nil, domain.ErrEventNotFound
}
func (f *fakeRepo) CreateEvent(context.Context, *domain.Event, []domain.Job) error { return nil }
func (f *fakeRepo) GetEvent(context.Context, int64) (*domain.Event, error) {
	return nil, domain.ErrEventNotFound
}
func (f *fakeRepo) ListWeekEvents(context.Context, int64, time.Time, time.Time) ([]domain.Event, error) {
	return nil, nil
}
func (f *fakeRepo) RescheduleEvent(context.Context, *domain.Event, []domain.Job) error { return nil }
func (f *fakeRepo) FinishEvent(context.Context, int64, domain.Status) error           { return nil }
func (f *fakeRepo) DeleteEventJobs(context.Context, int64) error                      { return nil }
func (f *fakeRepo) Close() error                                                      { return nil }

func TestNewJobsAssignsHandles(t *testing.T) {
	at := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	jobs := NewJobs([]domain.JobSpec{
		{Type: domain.JobHourBefore, RunAt: at.Add(-time.Hour)},
		{Type: domain.JobAtTime, RunAt: at},
	})
	if len(jobs) != 2 {
		t.Fatalf("len = %d", len(jobs))
	}
	if jobs[0].SchedulerID == "" || jobs[0].SchedulerID == jobs[1].SchedulerID {
		t.Fatal("scheduler ids must be unique and non-empty")
	}
	if loc := jobs[1].RunAt.Location(); loc != time.UTC {
		t.Fatalf("run instants must be stored in UTC, got %v", loc)
	}
}

func TestDueBefore(t *testing.T) {
	base := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	early := domain.Job{ID: 5, Type: domain.JobAtTime, RunAt: base}
	late := domain.Job{ID: 1, Type: domain.JobDayBefore, RunAt: base.Add(time.Minute)}
	if !dueBefore(early, late) {
		t.Fatal("earlier instant must win regardless of type")
	}

	hour := domain.Job{ID: 9, Type: domain.JobHourBefore, RunAt: base}
	atT := domain.Job{ID: 2, Type: domain.JobAtTime, RunAt: base}
	if !dueBefore(hour, atT) {
		t.Fatal("same instant must order by type priority")
	}

	a := domain.Job{ID: 1, Type: domain.JobAtTime, RunAt: base}
	b := domain.Job{ID: 2, Type: domain.JobAtTime, RunAt: base}
	if !dueBefore(a, b) || dueBefore(b, a) {
		t.Fatal("full tie must order by id")
	}
}

func TestArmDisarm(t *testing.T) {
	s := New(&fakeRepo{}, zap.NewNop())
	at := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	s.Arm([]domain.Job{
		{ID: 1, EventID: 7, Type: domain.JobHourBefore, RunAt: at, SchedulerID: "a"},
		{ID: 2, EventID: 7, Type: domain.JobAtTime, RunAt: at.Add(time.Hour), SchedulerID: "b"},
		{ID: 3, EventID: 8, Type: domain.JobAtTime, RunAt: at, SchedulerID: "c"},
	})

	s.mu.Lock()
	if s.heap.Len() != 3 || len(s.byEvent) != 2 {
		s.mu.Unlock()
		t.Fatalf("heap=%d events=%d after arm", s.heap.Len(), len(s.byEvent))
	}
	s.mu.Unlock()

	s.Disarm(7)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() != 1 {
		t.Fatalf("heap=%d after disarm, want 1", s.heap.Len())
	}
	if _, ok := s.byEvent[7]; ok {
		t.Fatal("event 7 must be forgotten")
	}
	if len(s.byEvent[8]) != 1 {
		t.Fatal("event 8 must keep its timer")
	}
}

func TestRearmSwapsJobSet(t *testing.T) {
	s := New(&fakeRepo{}, zap.NewNop())
	at := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	s.Arm([]domain.Job{
		{ID: 1, EventID: 7, Type: domain.JobAtTime, RunAt: at, SchedulerID: "a"},
	})
	s.Rearm(7, []domain.Job{
		{ID: 2, EventID: 7, Type: domain.JobHourBefore, RunAt: at, SchedulerID: "b"},
		{ID: 3, EventID: 7, Type: domain.JobAtTime, RunAt: at.Add(time.Hour), SchedulerID: "c"},
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() != 2 || len(s.byEvent[7]) != 2 {
		t.Fatalf("heap=%d timers=%d after rearm", s.heap.Len(), len(s.byEvent[7]))
	}
	if _, ok := s.byEvent[7]["a"]; ok {
		t.Fatal("old timer must be gone")
	}
}

func TestRestoreCatchesUpInOrder(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepo{jobs: []domain.Job{
		// Deliberately out of order: catch-up must sort by run instant,
		// type priority, then id.
		{ID: 3, EventID: 1, Type: domain.JobAtTime, RunAt: now.Add(-time.Minute)},
		{ID: 1, EventID: 1, Type: domain.JobDayBefore, RunAt: now.Add(-2 * time.Hour)},
		{ID: 2, EventID: 1, Type: domain.JobHourBefore, RunAt: now.Add(-time.Minute)},
		{ID: 4, EventID: 2, Type: domain.JobAtTime, RunAt: now.Add(time.Hour)},
	}}

	s := New(repo, zap.NewNop())
	s.now = func() time.Time { return now }

	var fired []int64
	s.OnFire(func(eventID int64, _ domain.JobType) { fired = append(fired, eventID) })

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	wantConsumed := []int64{1, 2, 3}
	if len(repo.consumed) != len(wantConsumed) {
		t.Fatalf("consumed %v, want %v", repo.consumed, wantConsumed)
	}
	for i, id := range wantConsumed {
		if repo.consumed[i] != id {
			t.Fatalf("consumed %v, want %v", repo.consumed, wantConsumed)
		}
	}
	if len(fired) != 3 {
		t.Fatalf("fired %d callbacks, want 3", len(fired))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heap.Len() != 1 {
		t.Fatalf("heap=%d, the future job alone must be armed", s.heap.Len())
	}
}

func TestRestoreSkipsConsumedRow(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		jobs: []domain.Job{{ID: 1, EventID: 1, Type: domain.JobAtTime, RunAt: now.Add(-time.Minute)}},
		gone: map[int64]bool{1: true},
	}

	s := New(repo, zap.NewNop())
	s.now = func() time.Time { return now }

	fired := 0
	s.OnFire(func(int64, domain.JobType) { fired++ })

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if fired != 0 {
		t.Fatal("a row consumed elsewhere must not fire")
	}
}

func TestRestoreFailureAbortsStartup(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("db gone")}
	s := New(repo, zap.NewNop())
	if err := s.Restore(context.Background()); err == nil {
		t.Fatal("Restore must surface the storage error")
	}
}

func TestRunDispatchesDueJob(t *testing.T) {
	repo := &fakeRepo{}
	s := New(repo, zap.NewNop())

	firedCh := make(chan int64, 1)
	s.OnFire(func(eventID int64, _ domain.JobType) { firedCh <- eventID })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Arm([]domain.Job{
		{ID: 1, EventID: 42, Type: domain.JobAtTime, RunAt: time.Now().Add(-time.Second), SchedulerID: "x"},
	})

	select {
	case id := <-firedCh:
		if id != 42 {
			t.Fatalf("fired event %d, want 42", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("due job never dispatched")
	}
}
