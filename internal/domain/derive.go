package domain

import "time"

// JobType identifies which reminder a job delivers.
type JobType string

const (
	JobDayBefore  JobType = "day_before"
	JobHourBefore JobType = "hour_before"
	JobSoon       JobType = "soon"
	JobAtTime     JobType = "at_time"
)

// Priority orders simultaneously due jobs of one event:
// day_before before hour_before before soon before at_time.
func (t JobType) Priority() int {
	switch t {
	case JobDayBefore:
		return 0
	case JobHourBefore:
		return 1
	case JobSoon:
		return 2
	case JobAtTime:
		return 3
	}
	return 4
}

// JobSpec is a derived (type, run instant) pair before persistence.
type JobSpec struct {
	Type  JobType
	RunAt time.Time
}

// soonWindow is how close an event must be for the short-fuse notice.
const soonWindow = time.Hour

// soonGrace keeps the immediate notice strictly in the future while it
// is persisted and armed.
const soonGrace = 5 * time.Second

// Derive computes the reminder set for an event at eventAt, evaluated at
// now. Both instants must be in the user's location so the day-before
// noon lands on the local calendar. Each rule is independent: a job is
// included iff its run instant is strictly in the future.
func Derive(eventAt, now time.Time) []JobSpec {
	if !eventAt.After(now) {
		return nil
	}

	var jobs []JobSpec

	dayBefore := eventAt.AddDate(0, 0, -1)
	noon := time.Date(dayBefore.Year(), dayBefore.Month(), dayBefore.Day(),
		12, 0, 0, 0, dayBefore.Location())
	if noon.After(now) {
		jobs = append(jobs, JobSpec{Type: JobDayBefore, RunAt: noon})
	}

	if hourBefore := eventAt.Add(-time.Hour); hourBefore.After(now) {
		jobs = append(jobs, JobSpec{Type: JobHourBefore, RunAt: hourBefore})
	}

	if eventAt.Sub(now) < soonWindow {
		jobs = append(jobs, JobSpec{Type: JobSoon, RunAt: now.Add(soonGrace)})
	}

	jobs = append(jobs, JobSpec{Type: JobAtTime, RunAt: eventAt})
	return jobs
}
