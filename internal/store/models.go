package store

import (
	"time"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
)

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var (
		ev      domain.Event
		at      int64
		status  string
		created int64
	)
	if err := row.Scan(
		&ev.ID, &ev.UserID, &at, &ev.Activity, &ev.Notes,
		&status, &ev.SnoozeCount, &created,
	); err != nil {
		return nil, err
	}
	ev.At = time.Unix(at, 0).UTC()
	ev.Status = domain.Status(status)
	ev.CreatedAt = time.Unix(created, 0).UTC()
	return &ev, nil
}
