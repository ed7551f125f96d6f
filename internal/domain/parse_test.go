package domain

import (
	"errors"
	"testing"
	"time"
)

// A Wednesday morning; every case below is evaluated against this instant.
var testNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, text string) Result {
	t.Helper()
	res, err := Parse(text, testNow, time.UTC)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return res
}

func TestParseAbsolute(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		hasTime bool
	}{
		{"15.04.2024 18:30", time.Date(2024, 4, 15, 18, 30, 0, 0, time.UTC), true},
		{"15.04.2024", time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), false},
		{"2024-04-15 18:30", time.Date(2024, 4, 15, 18, 30, 0, 0, time.UTC), true},
		{"15.04 18:30", time.Date(2024, 4, 15, 18, 30, 0, 0, time.UTC), true},
		{"15 апреля в 18:30", time.Date(2024, 4, 15, 18, 30, 0, 0, time.UTC), true},
		{"15 апреля", time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), false},
	}
	for _, c := range cases {
		res := mustParse(t, c.in)
		if !res.At.Equal(c.want) {
			t.Errorf("Parse(%q) = %v, want %v", c.in, res.At, c.want)
		}
		if !res.HasDate || res.HasTime != c.hasTime {
			t.Errorf("Parse(%q) flags = (%v, %v), want (true, %v)",
				c.in, res.HasDate, res.HasTime, c.hasTime)
		}
	}
}

func TestParseYearlessRollsForward(t *testing.T) {
	// March 1 already passed relative to March 13, so it means next year.
	res := mustParse(t, "01.03")
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !res.At.Equal(want) {
		t.Fatalf("Parse(01.03) = %v, want %v", res.At, want)
	}

	// Today date-only still counts as today.
	res = mustParse(t, "13.03")
	want = time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	if !res.At.Equal(want) {
		t.Fatalf("Parse(13.03) = %v, want %v", res.At, want)
	}
}

func TestParseRelative(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"через 5 минут", testNow.Add(5 * time.Minute)},
		{"через пять минут", testNow.Add(5 * time.Minute)},
		{"через минуту", testNow.Add(time.Minute)},
		{"через полчаса", testNow.Add(30 * time.Minute)},
		{"через полтора часа", testNow.Add(90 * time.Minute)},
		{"через 2 часа", testNow.Add(2 * time.Hour)},
		{"через 1ч 30м", testNow.Add(90 * time.Minute)},
	}
	for _, c := range cases {
		res := mustParse(t, c.in)
		if !res.At.Equal(c.want) {
			t.Errorf("Parse(%q) = %v, want %v", c.in, res.At, c.want)
		}
		if !res.HasDate || !res.HasTime {
			t.Errorf("Parse(%q) must be complete", c.in)
		}
	}
}

func TestParseRelativeDays(t *testing.T) {
	res := mustParse(t, "через 2 дня")
	if res.HasTime {
		t.Fatal("day offset must not carry a time of day")
	}
	wantY, wantM, wantD := testNow.AddDate(0, 0, 2).Date()
	y, m, d := res.At.Date()
	if y != wantY || m != wantM || d != wantD {
		t.Fatalf("Parse(через 2 дня) date = %v-%v-%v", y, m, d)
	}

	res = mustParse(t, "через неделю")
	y, m, d = res.At.Date()
	wantY, wantM, wantD = testNow.AddDate(0, 0, 7).Date()
	if y != wantY || m != wantM || d != wantD {
		t.Fatalf("Parse(через неделю) date = %v-%v-%v", y, m, d)
	}
}

func TestParseUnknownWordNumeral(t *testing.T) {
	// The relative family matched syntactically, so it decides the
	// outcome; no later family gets a chance.
	_, err := Parse("через миллион минут", testNow, time.UTC)
	if !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("err = %v, want ErrUnrecognized", err)
	}
}

func TestParseNamedDays(t *testing.T) {
	res := mustParse(t, "завтра")
	if res.HasTime {
		t.Fatal("завтра must be date-only")
	}
	if d := res.At.Day(); d != 14 {
		t.Fatalf("завтра day = %d, want 14", d)
	}

	res = mustParse(t, "завтра в 18:00")
	want := time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC)
	if !res.At.Equal(want) || !res.HasTime {
		t.Fatalf("завтра в 18:00 = %v (hasTime=%v)", res.At, res.HasTime)
	}

	res = mustParse(t, "завтра вечером")
	want = time.Date(2024, 3, 14, 19, 0, 0, 0, time.UTC)
	if !res.At.Equal(want) || !res.HasTime {
		t.Fatalf("завтра вечером = %v (hasTime=%v)", res.At, res.HasTime)
	}

	res = mustParse(t, "послезавтра")
	if d := res.At.Day(); d != 15 {
		t.Fatalf("послезавтра day = %d, want 15", d)
	}
}

func TestParseWeekdays(t *testing.T) {
	// testNow is Wednesday, March 13.
	res := mustParse(t, "в пятницу")
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !res.At.Equal(want) || res.HasTime {
		t.Fatalf("в пятницу = %v (hasTime=%v)", res.At, res.HasTime)
	}

	// Naming today's weekday means the next one.
	res = mustParse(t, "в среду")
	want = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	if !res.At.Equal(want) {
		t.Fatalf("в среду = %v, want %v", res.At, want)
	}

	res = mustParse(t, "в следующую пятницу")
	want = time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)
	if !res.At.Equal(want) {
		t.Fatalf("в следующую пятницу = %v, want %v", res.At, want)
	}

	res = mustParse(t, "в пятницу в 18:15")
	want = time.Date(2024, 3, 15, 18, 15, 0, 0, time.UTC)
	if !res.At.Equal(want) || !res.HasTime {
		t.Fatalf("в пятницу в 18:15 = %v (hasTime=%v)", res.At, res.HasTime)
	}
}

func TestParseTimeOnlyInput(t *testing.T) {
	res := mustParse(t, "18:15")
	if res.HasDate {
		t.Fatal("bare clock time must be time-only")
	}
	if res.At.Hour() != 18 || res.At.Minute() != 15 {
		t.Fatalf("18:15 = %v", res.At)
	}

	res = mustParse(t, "в 18")
	if res.HasDate || res.At.Hour() != 18 {
		t.Fatalf("в 18 = %v (hasDate=%v)", res.At, res.HasDate)
	}
}

func TestParseLooseTimeNormalization(t *testing.T) {
	res := mustParse(t, "завтра 18 15")
	want := time.Date(2024, 3, 14, 18, 15, 0, 0, time.UTC)
	if !res.At.Equal(want) || !res.HasTime {
		t.Fatalf("завтра 18 15 = %v (hasTime=%v)", res.At, res.HasTime)
	}
}

func TestParseRejectsPastAndInvalid(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"01.01.2000 00:00", ErrPastDate},
		{"сегодня 09:00", ErrPastTime},
		{"31.02.2024 12:00", ErrInvalidComponents},
		{"абракадабра", ErrUnrecognized},
	}
	for _, c := range cases {
		_, err := Parse(c.in, testNow, time.UTC)
		if !errors.Is(err, c.want) {
			t.Errorf("Parse(%q) err = %v, want %v", c.in, err, c.want)
		}
	}
}

func TestParseDeterministic(t *testing.T) {
	a := mustParse(t, "через 10 минут")
	b := mustParse(t, "через 10 минут")
	if !a.At.Equal(b.At) || a.HasDate != b.HasDate || a.HasTime != b.HasTime {
		t.Fatalf("same input and instant gave %+v then %+v", a, b)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in     string
		h, m   int
		wantOK bool
	}{
		{"18:15", 18, 15, true},
		{"в 18:15", 18, 15, true},
		{"в 18", 18, 0, true},
		{"в 7", 19, 0, true}, // bare small hour is the afternoon
		{"4 утра", 4, 0, true},
		{"9 вечера", 21, 0, true},
		{"утром", 9, 0, true},
		{"вечером", 19, 0, true},
		{"25:00", 0, 0, false},
		{"ерунда", 0, 0, false},
	}
	for _, c := range cases {
		h, m, ok := ParseTimeOfDay(c.in)
		if ok != c.wantOK || (ok && (h != c.h || m != c.m)) {
			t.Errorf("ParseTimeOfDay(%q) = (%d, %d, %v), want (%d, %d, %v)",
				c.in, h, m, ok, c.h, c.m, c.wantOK)
		}
	}
}

func TestValidateFuture(t *testing.T) {
	if err := ValidateFuture(testNow.Add(time.Minute), testNow); err != nil {
		t.Fatalf("future instant rejected: %v", err)
	}
	if err := ValidateFuture(testNow.Add(-time.Hour), testNow); !errors.Is(err, ErrPastTime) {
		t.Fatalf("earlier today: err = %v, want ErrPastTime", err)
	}
	if err := ValidateFuture(testNow.AddDate(0, 0, -1), testNow); !errors.Is(err, ErrPastDate) {
		t.Fatalf("yesterday: err = %v, want ErrPastDate", err)
	}
}
