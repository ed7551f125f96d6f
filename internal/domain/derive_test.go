package domain

import (
	"testing"
	"time"
)

func types(jobs []JobSpec) []JobType {
	out := make([]JobType, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Type)
	}
	return out
}

func hasType(jobs []JobSpec, t JobType) (JobSpec, bool) {
	for _, j := range jobs {
		if j.Type == t {
			return j, true
		}
	}
	return JobSpec{}, false
}

func TestDeriveFarFutureEvent(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	at := now.AddDate(0, 0, 3)

	jobs := Derive(at, now)
	if len(jobs) != 3 {
		t.Fatalf("jobs = %v, want day_before+hour_before+at_time", types(jobs))
	}

	day, ok := hasType(jobs, JobDayBefore)
	if !ok {
		t.Fatal("missing day_before")
	}
	wantNoon := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if !day.RunAt.Equal(wantNoon) {
		t.Fatalf("day_before at %v, want %v", day.RunAt, wantNoon)
	}

	hour, ok := hasType(jobs, JobHourBefore)
	if !ok {
		t.Fatal("missing hour_before")
	}
	if !hour.RunAt.Equal(at.Add(-time.Hour)) {
		t.Fatalf("hour_before at %v", hour.RunAt)
	}

	atJob, ok := hasType(jobs, JobAtTime)
	if !ok || !atJob.RunAt.Equal(at) {
		t.Fatalf("at_time at %v, want %v", atJob.RunAt, at)
	}

	if _, ok := hasType(jobs, JobSoon); ok {
		t.Fatal("soon must not fire for a far event")
	}
}

func TestDeriveImminentEvent(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	at := now.Add(45 * time.Minute)

	jobs := Derive(at, now)
	if len(jobs) != 2 {
		t.Fatalf("jobs = %v, want soon+at_time", types(jobs))
	}

	soon, ok := hasType(jobs, JobSoon)
	if !ok {
		t.Fatal("missing soon")
	}
	if !soon.RunAt.After(now) {
		t.Fatalf("soon at %v must be after now", soon.RunAt)
	}
	if _, ok := hasType(jobs, JobHourBefore); ok {
		t.Fatal("hour_before already elapsed, must be skipped")
	}
}

func TestDeriveRulesAreIndependent(t *testing.T) {
	// 90 minutes out: hour_before is still future, soon window not
	// entered, day_before noon already gone.
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	jobs := Derive(now.Add(90*time.Minute), now)

	if _, ok := hasType(jobs, JobHourBefore); !ok {
		t.Fatal("missing hour_before")
	}
	if _, ok := hasType(jobs, JobSoon); ok {
		t.Fatal("soon must require the event within the hour")
	}
	if _, ok := hasType(jobs, JobDayBefore); ok {
		t.Fatal("day_before noon already passed")
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %v", types(jobs))
	}
}

func TestDeriveNonFutureEvent(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	if jobs := Derive(now, now); jobs != nil {
		t.Fatalf("event at now derived %v", types(jobs))
	}
	if jobs := Derive(now.Add(-time.Minute), now); jobs != nil {
		t.Fatalf("past event derived %v", types(jobs))
	}
}

func TestJobTypePriority(t *testing.T) {
	order := []JobType{JobDayBefore, JobHourBefore, JobSoon, JobAtTime}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() >= order[i].Priority() {
			t.Fatalf("%s must order before %s", order[i-1], order[i])
		}
	}
}
