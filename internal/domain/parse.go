package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/ru"
)

// Result is a parsed date/time. HasDate/HasTime tell the wizard which
// half is still missing so it can ask a follow-up question.
type Result struct {
	At      time.Time
	HasDate bool
	HasTime bool
}

// Closed lookup tables. Extended by adding an entry, never by inference.

var weekdayNames = map[string]time.Weekday{
	"понедельник": time.Monday, "пн": time.Monday,
	"вторник": time.Tuesday, "вт": time.Tuesday,
	"среда": time.Wednesday, "ср": time.Wednesday, "среду": time.Wednesday,
	"четверг": time.Thursday, "чт": time.Thursday, "чтв": time.Thursday,
	"пятница": time.Friday, "пт": time.Friday, "пятницу": time.Friday,
	"суббота": time.Saturday, "сб": time.Saturday, "суб": time.Saturday, "субботу": time.Saturday,
	"воскресенье": time.Sunday, "вс": time.Sunday, "воскр": time.Sunday, "воскресение": time.Sunday,
}

var monthNames = map[string]time.Month{
	"января": 1, "янв": 1, "январь": 1,
	"февраля": 2, "фев": 2, "февраль": 2,
	"марта": 3, "мар": 3, "март": 3,
	"апреля": 4, "апр": 4, "апрель": 4,
	"мая": 5, "май": 5,
	"июня": 6, "июн": 6, "июнь": 6,
	"июля": 7, "июл": 7, "июль": 7,
	"августа": 8, "авг": 8, "август": 8,
	"сентября": 9, "сен": 9, "сент": 9, "сентябрь": 9,
	"октября": 10, "окт": 10, "октябрь": 10,
	"ноября": 11, "ноя": 11, "нояб": 11, "ноябрь": 11,
	"декабря": 12, "дек": 12, "декабрь": 12,
}

var partOfDayHours = map[string]int{
	"утром": 9, "утра": 9,
	"днём": 14, "днем": 14, "дня": 14,
	"вечером": 19, "вечера": 19,
	"ночью": 23, "ночи": 23,
}

var wordNumerals = map[string]int{
	"одну": 1, "одна": 1, "один": 1,
	"две": 2, "два": 2, "двух": 2,
	"три": 3, "трёх": 3, "трех": 3,
	"четыре": 4, "четырёх": 4, "четырех": 4,
	"пять": 5, "пяти": 5,
	"шесть": 6, "шести": 6,
	"семь": 7, "семи": 7,
	"восемь": 8, "восьми": 8,
	"девять": 9, "девяти": 9,
	"десять": 10, "десяти": 10,
	"пятнадцать": 15, "пятнадцати": 15,
	"двадцать": 20, "двадцати": 20,
	"тридцать": 30, "тридцати": 30,
	"сорок": 40, "сорока": 40,
	"пятьдесят": 50, "пятидесяти": 50,
}

// fallback is a deterministic rule-based parser used as the last family
// in the chain; it only sees input no explicit rule matched.
var fallback = func() *when.Parser {
	w := when.New(nil)
	w.Add(ru.All...)
	w.Add(common.All...)
	return w
}()

// Parse converts free-text Russian date/time into an instant in loc.
// Deterministic: the outcome depends only on (text, now, loc). Rule
// families are tried in fixed priority order; the first family whose
// sub-rule matches syntactically decides the outcome, even when its
// components turn out invalid.
func Parse(text string, now time.Time, loc *time.Location) (Result, error) {
	now = now.In(loc)
	text = normalizeText(text)
	low := strings.ToLower(text)

	type matcher func(string, time.Time, *time.Location) (Result, bool, error)
	chain := []matcher{
		matchAbsolute,
		matchRelative,
		matchNamedDay,
		matchWeekdayWithTime,
		matchWeekday,
		matchTimeOnly,
	}

	for _, m := range chain {
		res, matched, err := m(low, now, loc)
		if !matched {
			continue
		}
		if err != nil {
			return Result{}, err
		}
		return validated(res, now)
	}

	if r, err := fallback.Parse(text, now); err == nil && r != nil {
		res := Result{
			At:      r.Time.In(loc),
			HasDate: true,
			HasTime: reTimeDigits.MatchString(text),
		}
		return validated(res, now)
	}

	return Result{}, ErrUnrecognized
}

// validated rejects complete results that are not strictly in the
// future. Partial results are completed and re-validated by the caller.
func validated(res Result, now time.Time) (Result, error) {
	if res.HasDate && res.HasTime {
		if err := ValidateFuture(res.At, now); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// ValidateFuture returns nil when t is strictly after now, ErrPastDate
// when t falls on an earlier calendar day, and ErrPastTime when the day
// is today but the clock time has passed.
func ValidateFuture(t, now time.Time) error {
	if t.After(now) {
		return nil
	}
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return ErrPastTime
	}
	return ErrPastDate
}

var (
	reTimeDigits = regexp.MustCompile(`\d{1,2}:\d{2}`)
	reLooseTime  = regexp.MustCompile(`(\d{1,2})\s+(\d{2})\s*$`)
)

// normalizeText rewrites a space-separated trailing time ("18 15") as
// "18:15". Relative phrases are left alone: "через 1ч 30" must keep its
// digits apart.
func normalizeText(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(t), "через") {
		return t
	}
	return reLooseTime.ReplaceAllStringFunc(t, func(s string) string {
		m := reLooseTime.FindStringSubmatch(s)
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h <= 23 && mi <= 59 {
			return m[1] + ":" + m[2]
		}
		return s
	})
}

// ── Explicit absolute forms ─────────────────────────────────────────

var (
	reDotDateYear = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{2,4})(?:\s+(\d{1,2}):(\d{2}))?$`)
	reISODate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\s+(\d{1,2}):(\d{2})$`)
	reDotDate     = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})(?:\s+(\d{1,2}):(\d{2}))?$`)
	reMonthName   = regexp.MustCompile(`^(\d{1,2})\s+([а-яё]+)(?:\s+(?:в\s+)?(\d{1,2})(?::(\d{2}))?)?$`)
)

func matchAbsolute(t string, now time.Time, loc *time.Location) (Result, bool, error) {
	if m := reDotDateYear.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if y < 100 {
			y += 2000
		}
		hasTime := m[4] != ""
		h, mi := 0, 0
		if hasTime {
			h, _ = strconv.Atoi(m[4])
			mi, _ = strconv.Atoi(m[5])
		}
		dt, err := makeDate(y, mo, d, h, mi, loc)
		if err != nil {
			return Result{}, true, err
		}
		return Result{At: dt, HasDate: true, HasTime: hasTime}, true, nil
	}

	if m := reISODate.FindStringSubmatch(t); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		h, _ := strconv.Atoi(m[4])
		mi, _ := strconv.Atoi(m[5])
		dt, err := makeDate(y, mo, d, h, mi, loc)
		if err != nil {
			return Result{}, true, err
		}
		return Result{At: dt, HasDate: true, HasTime: true}, true, nil
	}

	if m := reDotDate.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		hasTime := m[3] != ""
		h, mi := 0, 0
		if hasTime {
			h, _ = strconv.Atoi(m[3])
			mi, _ = strconv.Atoi(m[4])
		}
		dt, err := makeDate(now.Year(), mo, d, h, mi, loc)
		if err != nil {
			return Result{}, true, err
		}
		dt = rollToNextYear(dt, now, hasTime)
		return Result{At: dt, HasDate: true, HasTime: hasTime}, true, nil
	}

	if m := reMonthName.FindStringSubmatch(t); m != nil {
		mo, ok := monthNames[m[2]]
		if !ok {
			// Not a month word; later families may still apply.
			return Result{}, false, nil
		}
		d, _ := strconv.Atoi(m[1])
		hasTime := m[3] != ""
		h, mi := 0, 0
		if hasTime {
			h, _ = strconv.Atoi(m[3])
			if m[4] != "" {
				mi, _ = strconv.Atoi(m[4])
			}
		}
		dt, err := makeDate(now.Year(), int(mo), d, h, mi, loc)
		if err != nil {
			return Result{}, true, err
		}
		dt = rollToNextYear(dt, now, hasTime)
		return Result{At: dt, HasDate: true, HasTime: hasTime}, true, nil
	}

	return Result{}, false, nil
}

// makeDate builds an instant and rejects out-of-range components.
// time.Date normalizes overflow (32.01 → 01.02), so components are
// verified by round-trip.
func makeDate(y, mo, d, h, mi int, loc *time.Location) (time.Time, error) {
	if mo < 1 || mo > 12 || d < 1 || d > 31 || h < 0 || h > 23 || mi < 0 || mi > 59 {
		return time.Time{}, ErrInvalidComponents
	}
	dt := time.Date(y, time.Month(mo), d, h, mi, 0, 0, loc)
	if dt.Day() != d || dt.Month() != time.Month(mo) || dt.Year() != y {
		return time.Time{}, ErrInvalidComponents
	}
	return dt, nil
}

// rollToNextYear pushes a year-less date into the next year when it has
// already passed relative to now.
func rollToNextYear(dt, now time.Time, hasTime bool) time.Time {
	past := dt.Before(now)
	if !hasTime {
		// Date-only input still counts as today even later in the day.
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		past = dt.Before(today)
	}
	if past {
		return dt.AddDate(1, 0, 0)
	}
	return dt
}

// ── Relative offsets ("через …") ────────────────────────────────────

var (
	reInAMinute   = regexp.MustCompile(`^через\s+минут(у|ку)$`)
	reInHalfHour  = regexp.MustCompile(`^через\s+полчаса$`)
	reInHourHalf  = regexp.MustCompile(`^через\s+полтора\s+часа$`)
	reInHoursMins = regexp.MustCompile(`^через\s+(\d+)\s*ч(?:ас(?:а|ов)?)?\s*(\d+)\s*м(?:ин(?:ут[ауы]?)?)?\.?$`)
	reInMinutes   = regexp.MustCompile(`^через\s+(\d+)\s*мин(?:ут[ауы]?)?\.?$`)
	reInWordMins  = regexp.MustCompile(`^через\s+([а-яё]+)\s+мин(?:ут[ауы]?)?\.?$`)
	reInHours     = regexp.MustCompile(`^через\s+(\d+)\s*(?:час(?:а|ов)?|ч)$`)
	reInWordHours = regexp.MustCompile(`^через\s+([а-яё]+)\s+час(?:а|ов)?$`)
	reInDays      = regexp.MustCompile(`^через\s+(\d+)\s*(?:день|дня|дней)$`)
	reInWordDays  = regexp.MustCompile(`^через\s+([а-яё]+)\s+(?:день|дня|дней)$`)
	reInAWeek     = regexp.MustCompile(`^через\s+неделю$`)
	reInWeeks     = regexp.MustCompile(`^через\s+(\d+)\s*недел[ьюи]$`)
)

func matchRelative(t string, now time.Time, _ *time.Location) (Result, bool, error) {
	full := func(d time.Duration) (Result, bool, error) {
		return Result{At: now.Add(d), HasDate: true, HasTime: true}, true, nil
	}
	dateOnly := func(days int) (Result, bool, error) {
		return Result{At: now.AddDate(0, 0, days), HasDate: true, HasTime: false}, true, nil
	}

	switch {
	case reInAMinute.MatchString(t):
		return full(time.Minute)
	case reInHalfHour.MatchString(t):
		return full(30 * time.Minute)
	case reInHourHalf.MatchString(t):
		return full(90 * time.Minute)
	}

	if m := reInHoursMins.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		return full(time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute)
	}
	if m := reInMinutes.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return full(time.Duration(n) * time.Minute)
	}
	if m := reInWordMins.FindStringSubmatch(t); m != nil {
		n, ok := wordNumerals[m[1]]
		if !ok {
			return Result{}, true, ErrUnrecognized
		}
		return full(time.Duration(n) * time.Minute)
	}
	if m := reInHours.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return full(time.Duration(n) * time.Hour)
	}
	if m := reInWordHours.FindStringSubmatch(t); m != nil {
		n, ok := wordNumerals[m[1]]
		if !ok {
			return Result{}, true, ErrUnrecognized
		}
		return full(time.Duration(n) * time.Hour)
	}
	if m := reInDays.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return dateOnly(n)
	}
	if m := reInWordDays.FindStringSubmatch(t); m != nil {
		n, ok := wordNumerals[m[1]]
		if !ok {
			return Result{}, true, ErrUnrecognized
		}
		return dateOnly(n)
	}
	if reInAWeek.MatchString(t) {
		return dateOnly(7)
	}
	if m := reInWeeks.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return dateOnly(7 * n)
	}

	return Result{}, false, nil
}

// ── Named relative days ─────────────────────────────────────────────

func matchNamedDay(t string, now time.Time, _ *time.Location) (Result, bool, error) {
	var offset int
	var rest string
	switch {
	case strings.HasPrefix(t, "послезавтра"):
		offset, rest = 2, strings.TrimSpace(t[len("послезавтра"):])
	case strings.HasPrefix(t, "завтра"):
		offset, rest = 1, strings.TrimSpace(t[len("завтра"):])
	case strings.HasPrefix(t, "сегодня"):
		offset, rest = 0, strings.TrimSpace(t[len("сегодня"):])
	default:
		return Result{}, false, nil
	}

	dt := now.AddDate(0, 0, offset).Truncate(time.Minute)
	if rest != "" {
		if h, mi, ok := ParseTimeOfDay(rest); ok {
			return Result{At: atClock(dt, h, mi), HasDate: true, HasTime: true}, true, nil
		}
	}
	// Time missing or not understood; the wizard asks for it next.
	return Result{At: dt, HasDate: true, HasTime: false}, true, nil
}

// ── Weekdays ────────────────────────────────────────────────────────

var (
	reNextWeekday = regexp.MustCompile(`^в\s+следующ(?:ую|ий|ее)\s+(\S+)$`)
	reThisWeekday = regexp.MustCompile(`^в\s+эт(?:у|от|о)\s+(\S+)$`)
	rePrepWeekday = regexp.MustCompile(`^в\s+(\S+)$`)
	reWeekdayTime = regexp.MustCompile(`^(в\s+(?:следующ(?:ую|ий|ее)\s+|эт(?:у|от|о)\s+)?\S+)\s+(.+)$`)
)

func matchWeekday(t string, now time.Time, _ *time.Location) (Result, bool, error) {
	var name string
	nextWeek, thisWeek := false, false

	if m := reNextWeekday.FindStringSubmatch(t); m != nil {
		name, nextWeek = m[1], true
	} else if m := reThisWeekday.FindStringSubmatch(t); m != nil {
		name, thisWeek = m[1], true
	} else if m := rePrepWeekday.FindStringSubmatch(t); m != nil {
		name = m[1]
	} else if _, ok := weekdayNames[t]; ok {
		name = t
	} else {
		return Result{}, false, nil
	}

	target, ok := weekdayNames[name]
	if !ok {
		return Result{}, false, nil
	}

	ahead := (int(target) - int(now.Weekday()) + 7) % 7
	if nextWeek {
		ahead += 7
	} else if ahead == 0 && !thisWeek {
		// Bare "в субботу" on a Saturday means the next one.
		ahead = 7
	}

	dt := now.AddDate(0, 0, ahead)
	dt = time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, dt.Location())
	return Result{At: dt, HasDate: true, HasTime: false}, true, nil
}

func matchWeekdayWithTime(t string, now time.Time, loc *time.Location) (Result, bool, error) {
	m := reWeekdayTime.FindStringSubmatch(t)
	if m == nil {
		return Result{}, false, nil
	}
	day, matched, err := matchWeekday(m[1], now, loc)
	if !matched || err != nil {
		return Result{}, false, nil
	}
	h, mi, ok := ParseTimeOfDay(m[2])
	if !ok {
		return Result{}, false, nil
	}
	day.At = atClock(day.At, h, mi)
	day.HasTime = true
	return day, true, nil
}

// ── Time of day ─────────────────────────────────────────────────────

var (
	reClock     = regexp.MustCompile(`^(?:в\s+)?(\d{1,2}):(\d{2})$`)
	reBareHour  = regexp.MustCompile(`^(?:в\s+)?(\d{1,2})\s*(?:час(?:а|ов)?)?$`)
	reHourAM    = regexp.MustCompile(`^(\d{1,2})\s*(?:утра|am)$`)
	reHourPM    = regexp.MustCompile(`^(\d{1,2})\s*(?:вечера|дня|pm)$`)
	reHourNight = regexp.MustCompile(`^(\d{1,2})\s*ночи$`)
)

// ParseTimeOfDay parses a clock-time fragment: "18:15", "в 18", a part
// of day word, "4 утра". Bare hours 1..11 are taken as the afternoon.
func ParseTimeOfDay(text string) (hour, minute int, ok bool) {
	t := strings.ToLower(strings.TrimSpace(text))

	if h, found := partOfDayHours[t]; found {
		return h, 0, true
	}

	if m := reClock.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h <= 23 && mi <= 59 {
			return h, mi, true
		}
		return 0, 0, false
	}

	if m := reHourAM.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h >= 1 && h <= 12 {
			if h == 12 {
				h = 0
			}
			return h, 0, true
		}
		return 0, 0, false
	}

	if m := reHourPM.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		switch {
		case h >= 1 && h <= 11:
			return h + 12, 0, true
		case h == 12:
			return 12, 0, true
		}
		return 0, 0, false
	}

	if m := reHourNight.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		switch {
		case h >= 1 && h <= 4:
			return h, 0, true
		case h == 12:
			return 0, 0, true
		}
		return 0, 0, false
	}

	if m := reBareHour.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		switch {
		case h >= 1 && h <= 11:
			return h + 12, 0, true
		case h <= 23:
			return h, 0, true
		}
		return 0, 0, false
	}

	return 0, 0, false
}

func matchTimeOnly(t string, now time.Time, _ *time.Location) (Result, bool, error) {
	h, mi, ok := ParseTimeOfDay(t)
	if !ok {
		return Result{}, false, nil
	}
	return Result{At: atClock(now, h, mi), HasDate: false, HasTime: true}, true, nil
}

func atClock(base time.Time, h, mi int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), h, mi, 0, 0, base.Location())
}
