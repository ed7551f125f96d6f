package reminder

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
	"github.com/Alex-cat-ui/Reminder-bot/internal/scheduler"
	"github.com/Alex-cat-ui/Reminder-bot/internal/store"
)

// Notifier delivers a fired reminder to the user. The telegram router
// implements this.
type Notifier interface {
	SendReminder(ev *domain.Event, jobType domain.JobType) error
}

// jobScheduler is the slice of the timer engine the service needs.
type jobScheduler interface {
	Arm(jobs []domain.Job)
	Disarm(eventID int64)
	Rearm(eventID int64, jobs []domain.Job)
}

const fireTimeout = 5 * time.Second

// Service owns event state transitions. Every transition and every
// job-firing handler runs inside the event's exclusive section, so a
// reminder can never be delivered for an event that already reached a
// terminal state.
type Service struct {
	repo     store.Repo
	sched    jobScheduler
	log      *zap.Logger
	notifier Notifier
	locks    *eventLocks

	now func() time.Time // fixed in tests
}

func NewService(repo store.Repo, sched jobScheduler, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		sched: sched,
		log:   log,
		locks: newEventLocks(),
		now:   time.Now,
	}
}

// SetNotifier wires the delivery side. Must be called before the
// scheduler starts firing.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// Create validates the instant, persists the event with its derived
// jobs in one transaction, and arms the timers.
func (s *Service) Create(ctx context.Context, userID int64, at time.Time, activity, notes string) (*domain.Event, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := user.Location()
	now := s.now().In(loc)
	at = at.In(loc)

	if err := domain.ValidateFuture(at, now); err != nil {
		return nil, err
	}

	jobs := scheduler.NewJobs(domain.Derive(at, now))
	ev := &domain.Event{
		UserID:   userID,
		At:       at.UTC(),
		Activity: activity,
		Notes:    notes,
		Status:   domain.StatusPending,
	}
	if err := s.repo.CreateEvent(ctx, ev, jobs); err != nil {
		return nil, err
	}
	s.sched.Arm(jobs)

	s.log.Info("event created",
		zap.Int64("eventID", ev.ID),
		zap.Int64("userID", userID),
		zap.Time("at", ev.At),
		zap.Int("jobs", len(jobs)),
	)
	return ev, nil
}

// Snooze defers a pending event by one hour, re-derives its reminder
// set, and swaps rows and timers atomically. Fails with
// ErrSnoozeLimitExceeded at the cap, with no side effects.
func (s *Service) Snooze(ctx context.Context, eventID int64) (*domain.Event, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status.Terminal() {
		return nil, domain.ErrInvalidTransition
	}
	if ev.SnoozeCount >= domain.MaxSnoozeCount {
		return nil, domain.ErrSnoozeLimitExceeded
	}

	user, err := s.repo.GetUser(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	loc := user.Location()
	now := s.now().In(loc)

	at := ev.At.Add(domain.SnoozeStep)
	if !at.After(now) {
		// The event slid far into the past; defer from now instead so
		// the new instant stays in the future.
		at = now.Add(domain.SnoozeStep)
	}
	ev.At = at.UTC()
	ev.SnoozeCount++

	jobs := scheduler.NewJobs(domain.Derive(at.In(loc), now))
	if err := s.repo.RescheduleEvent(ctx, ev, jobs); err != nil {
		return nil, err
	}
	s.sched.Rearm(eventID, jobs)

	s.log.Info("event snoozed",
		zap.Int64("eventID", eventID),
		zap.Int("count", ev.SnoozeCount),
		zap.Time("at", ev.At),
	)
	return ev, nil
}

// Done finishes the event and cancels all of its jobs. Marking an
// already-terminal event done again is a no-op.
func (s *Service) Done(ctx context.Context, eventID int64) error {
	return s.finish(ctx, eventID, domain.StatusDone)
}

// Delete is the administrative removal used by the weekly view; the
// event row stays, terminal, with no live jobs.
func (s *Service) Delete(ctx context.Context, eventID int64) error {
	return s.finish(ctx, eventID, domain.StatusDeleted)
}

func (s *Service) finish(ctx context.Context, eventID int64, status domain.Status) error {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.Status.Terminal() {
		return nil
	}
	if err := s.repo.FinishEvent(ctx, eventID, status); err != nil {
		return err
	}
	s.sched.Disarm(eventID)

	s.log.Info("event finished",
		zap.Int64("eventID", eventID),
		zap.String("status", string(status)),
	)
	return nil
}

// HandleJobFired is the scheduler's fired-job callback. Under the
// event's lock it drops deliveries for missing or terminal events and
// forwards the rest to the notifier.
func (s *Service) HandleJobFired(eventID int64, jobType domain.JobType) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	ev, err := s.repo.GetEvent(ctx, eventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		// Removed out-of-band; the job counts as cancelled.
		s.log.Debug("fired job for missing event", zap.Int64("eventID", eventID))
		return
	}
	if err != nil {
		s.log.Error("load event for firing failed",
			zap.Int64("eventID", eventID), zap.Error(err))
		return
	}
	if ev.Status != domain.StatusPending {
		return
	}

	if err := s.notifier.SendReminder(ev, jobType); err != nil {
		s.log.Error("send reminder failed",
			zap.Int64("eventID", eventID),
			zap.String("type", string(jobType)),
			zap.Error(err),
		)
	}
}

// WeekEvents lists the user's pending events from the start of today
// through the end of Sunday, in their local week.
func (s *Service) WeekEvents(ctx context.Context, userID int64) ([]domain.Event, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := user.Location()
	now := s.now().In(loc)

	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	untilSunday := (7 - int(now.Weekday())) % 7
	to := from.AddDate(0, 0, untilSunday).Add(24*time.Hour - time.Second)

	return s.repo.ListWeekEvents(ctx, userID, from, to)
}
