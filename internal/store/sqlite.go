package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
)

// writeTimeout bounds every persistence attempt; one retry follows a
// transient failure before the error is surfaced.
const writeTimeout = 3 * time.Second

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a
// repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and
// concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// withRetry runs op under a bounded timeout and retries once on
// failure (SQLITE_BUSY and friends) unless the caller's context is
// already gone.
func (r *SQLiteRepo) withRetry(ctx context.Context, op func(context.Context) error) error {
	attempt := func() error {
		c, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		return op(c)
	}
	err := attempt()
	if err == nil || ctx.Err() != nil {
		return err
	}
	return attempt()
}

// inTx runs fn inside a transaction with rollback on error.
func (r *SQLiteRepo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// ── Users ───────────────────────────────────────────────────────────

// UpsertUser inserts the user or updates their timezone.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return r.withRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO users (user_id, timezone, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET timezone = excluded.timezone`,
			u.ID, u.TZ, created.Unix(),
		)
		return err
	})
}

// GetUser returns a user by id; sql.ErrNoRows when absent, which the
// bot treats as "ask for a timezone first".
func (r *SQLiteRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, timezone, created_at FROM users WHERE user_id = ?`,
		userID,
	)
	var (
		id      int64
		tz      string
		created int64
	)
	if err := row.Scan(&id, &tz, &created); err != nil {
		return nil, err
	}
	return &domain.User{ID: id, TZ: tz, CreatedAt: time.Unix(created, 0).UTC()}, nil
}

// ── Events ──────────────────────────────────────────────────────────

// CreateEvent inserts the event with its initial jobs atomically and
// fills the generated ids.
func (r *SQLiteRepo) CreateEvent(ctx context.Context, ev *domain.Event, jobs []domain.Job) error {
	if ev == nil {
		return errors.New("nil event")
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.Status == "" {
		ev.Status = domain.StatusPending
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO events (user_id, event_dt, activity, notes, status, snooze_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.UserID, ev.At.Unix(), ev.Activity, ev.Notes,
			string(ev.Status), ev.SnoozeCount, ev.CreatedAt.Unix(),
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ev.ID = id
		return insertJobs(tx, id, jobs)
	})
}

// GetEvent returns an event by id; domain.ErrEventNotFound when absent.
func (r *SQLiteRepo) GetEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_dt, activity, notes, status, snooze_count, created_at
		FROM events WHERE id = ?`,
		eventID,
	)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	return ev, err
}

// ListWeekEvents returns a user's pending events within [from, to],
// ordered by event time.
func (r *SQLiteRepo) ListWeekEvents(ctx context.Context, userID int64, from, to time.Time) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_dt, activity, notes, status, snooze_count, created_at
		FROM events
		WHERE user_id = ? AND status = ? AND event_dt >= ? AND event_dt <= ?
		ORDER BY event_dt`,
		userID, string(domain.StatusPending), from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *ev)
	}
	return res, rows.Err()
}

// RescheduleEvent writes the mutated event (new event_dt, snooze_count)
// and swaps its entire job set in one transaction.
func (r *SQLiteRepo) RescheduleEvent(ctx context.Context, ev *domain.Event, jobs []domain.Job) error {
	if ev == nil {
		return errors.New("nil event")
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE events SET event_dt = ?, snooze_count = ? WHERE id = ?`,
			ev.At.Unix(), ev.SnoozeCount, ev.ID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrEventNotFound
		}
		if _, err := tx.Exec(`DELETE FROM jobs WHERE event_id = ?`, ev.ID); err != nil {
			return err
		}
		return insertJobs(tx, ev.ID, jobs)
	})
}

// FinishEvent sets a terminal status and removes all jobs atomically.
func (r *SQLiteRepo) FinishEvent(ctx context.Context, eventID int64, status domain.Status) error {
	if !status.Terminal() {
		return fmt.Errorf("finish with non-terminal status %q", status)
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE events SET status = ? WHERE id = ?`,
			string(status), eventID); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM jobs WHERE event_id = ?`, eventID)
		return err
	})
}

// ── Jobs ────────────────────────────────────────────────────────────

func insertJobs(tx *sql.Tx, eventID int64, jobs []domain.Job) error {
	for i := range jobs {
		jobs[i].EventID = eventID
		res, err := tx.Exec(`
			INSERT INTO jobs (event_id, job_type, run_at, scheduler_job_id)
			VALUES (?, ?, ?, ?)`,
			eventID, string(jobs[i].Type), jobs[i].RunAt.Unix(), jobs[i].SchedulerID,
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		jobs[i].ID = id
	}
	return nil
}

// ListJobs returns every live job row, ordered by run time.
func (r *SQLiteRepo) ListJobs(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, job_type, run_at, scheduler_job_id
		FROM jobs ORDER BY run_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Job
	for rows.Next() {
		var (
			j     domain.Job
			jt    string
			runAt int64
		)
		if err := rows.Scan(&j.ID, &j.EventID, &jt, &runAt, &j.SchedulerID); err != nil {
			return nil, err
		}
		j.Type = domain.JobType(jt)
		j.RunAt = time.Unix(runAt, 0).UTC()
		res = append(res, j)
	}
	return res, rows.Err()
}

// ConsumeJob deletes one job row. The delete-before-fire ordering is
// what bounds delivery at one duplicate after a crash, never a loss.
func (r *SQLiteRepo) ConsumeJob(ctx context.Context, jobID int64) (bool, error) {
	var consumed bool
	err := r.withRetry(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		consumed = n > 0
		return nil
	})
	return consumed, err
}

// DeleteEventJobs removes all job rows of an event; a no-op for jobs
// that already fired.
func (r *SQLiteRepo) DeleteEventJobs(ctx context.Context, eventID int64) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE event_id = ?`, eventID)
		return err
	})
}
