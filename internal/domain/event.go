package domain

import "time"

// Status of an event. pending is the only live state; done and deleted
// are terminal and carry no jobs.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusDeleted Status = "deleted"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusDeleted
}

const (
	// MaxSnoozeCount bounds how many times a single event may be snoozed.
	MaxSnoozeCount = 25
	// SnoozeStep is the fixed deferral applied by one snooze.
	SnoozeStep = time.Hour
)

// User holds per-chat identity and timezone.
type User struct {
	ID        int64
	TZ        string // IANA name, e.g. Europe/Moscow
	CreatedAt time.Time
}

// Location resolves the user's timezone, falling back to UTC.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Event is a future occurrence the user wants to be reminded about.
type Event struct {
	ID          int64
	UserID      int64
	At          time.Time // absolute instant, UTC; strictly future while pending
	Activity    string
	Notes       string // pre-formatted, empty means none
	Status      Status
	SnoozeCount int
	CreatedAt   time.Time
}

// Job is one scheduled notification for an event. The row is the source
// of truth; SchedulerID is the weak handle correlating it to the
// in-memory timer entry.
type Job struct {
	ID          int64
	EventID     int64
	Type        JobType
	RunAt       time.Time // UTC
	SchedulerID string
}

// FormatEventTime renders an instant for the user in their local offset.
func FormatEventTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}
