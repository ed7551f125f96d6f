package store

import (
	"context"
	"time"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
)

// Repo defines durable storage for users, events and their reminder
// jobs. Multi-row mutations (create, reschedule, finish) are
// all-or-nothing: either every row change lands or none does.
type Repo interface {
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// CreateEvent inserts the event and its initial jobs in one
	// transaction, filling ev.ID and the job IDs/EventID.
	CreateEvent(ctx context.Context, ev *domain.Event, jobs []domain.Job) error
	GetEvent(ctx context.Context, eventID int64) (*domain.Event, error)
	ListWeekEvents(ctx context.Context, userID int64, from, to time.Time) ([]domain.Event, error)

	// RescheduleEvent updates the event row and replaces all of its jobs
	// in one transaction (the snooze path).
	RescheduleEvent(ctx context.Context, ev *domain.Event, jobs []domain.Job) error
	// FinishEvent moves the event to a terminal status and deletes its
	// jobs in one transaction.
	FinishEvent(ctx context.Context, eventID int64, status domain.Status) error

	// ListJobs returns every live job row.
	ListJobs(ctx context.Context) ([]domain.Job, error)
	// ConsumeJob deletes one job row; false means the row was already
	// consumed or cancelled.
	ConsumeJob(ctx context.Context, jobID int64) (bool, error)
	DeleteEventJobs(ctx context.Context, eventID int64) error

	Close() error
}
