package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultAppointmentHour is used when a weekday is named without a time, and
// when nothing time-like is mentioned at all.
const DefaultAppointmentHour = 14

// bookableDays are scanned in this order; the first one present wins.
var bookableDays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
}

// hourRE matches "2pm", "10 am", "14:00" and bare numbers like "14".
var hourRE = regexp.MustCompile(`(\d{1,2})\s*(am|pm|:\d{2})?`)

// ResolveAppointmentTime turns weekday and time-of-day mentions into an
// absolute instant in the reference instant's location.
//
// A bare hour with neither am/pm nor a ":MM" suffix is read as a 24-hour
// value ("14" is 14:00, "2" is 02:00). Callers saying "at 2" usually mean the
// afternoon; this is a known imprecision kept for compatibility. Minutes are
// always zero.
func ResolveAppointmentTime(reference time.Time, text string) time.Time {
	lower := strings.ToLower(text)

	day, hasDay := findWeekday(lower)
	hour, hasHour := findHour(lower)

	loc := reference.Location()
	y, m, d := reference.Date()

	if hasDay {
		delta := int(day) - int(reference.Weekday())
		if delta <= 0 {
			delta += 7
		}
		if !hasHour {
			hour = DefaultAppointmentHour
		}
		return time.Date(y, m, d+delta, hour, 0, 0, 0, loc)
	}

	if hasHour {
		at := time.Date(y, m, d, hour, 0, 0, 0, loc)
		if !at.After(reference) {
			at = time.Date(y, m, d+1, hour, 0, 0, 0, loc)
		}
		return at
	}

	return time.Date(y, m, d+1, DefaultAppointmentHour, 0, 0, 0, loc)
}

func findWeekday(lower string) (time.Weekday, bool) {
	for _, day := range bookableDays {
		if strings.Contains(lower, strings.ToLower(day.String())) {
			return day, true
		}
	}
	return time.Sunday, false
}

func findHour(lower string) (int, bool) {
	m := hourRE.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, true
}
