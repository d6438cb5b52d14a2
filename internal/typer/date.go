package typer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// twoDigitYearPivot splits two-digit years: below it is 20xx, at or above
// it is 19xx.
const twoDigitYearPivot = 70

var (
	// 15/01/2023, 15-1-23, 15.01.2023, 2023-01-15
	numericDateRe = regexp.MustCompile(`^(\d{1,4})[/.\-](\d{1,2})[/.\-](\d{1,4})$`)
	// 15-Jan-2023, 15 January 2023, 15th Jan, 2023
	dayMonthNameRe = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?[\s/.\-]*([a-z]{3,9})[\s/.,\-]*(\d{2,4})$`)
	// Jan 15, 2023
	monthNameDayRe = regexp.MustCompile(`^([a-z]{3,9})[\s.]+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
	// trailing clock time: 10:30, 10:30:00, 10:30:00 AM
	timeSuffixRe = regexp.MustCompile(`(?i)[\sT]+\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?\s*(?:am|pm)?\s*$`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseDate parses a calendar date. Numeric dates are read day-first
// (DD/MM/YYYY) unless the first group has four digits, in which case the
// order is YYYY-MM-DD. Separators "/", "-" and "." are accepted, as are
// two-digit years and month names. A trailing clock time is ignored. The
// result is midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.ToLower(normalize.Text(raw))
	if s == "" {
		return time.Time{}, typeErr(model.TypeDate, raw, ErrEmpty)
	}
	s = strings.TrimSpace(timeSuffixRe.ReplaceAllString(s, ""))

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		a, b, c := m[1], m[2], m[3]
		if len(a) == 4 {
			return buildDate(raw, c, b, a)
		}
		if len(a) > 2 {
			return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
		}
		return buildDate(raw, a, b, c)
	}

	if m := dayMonthNameRe.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[m[2]]
		if !ok {
			return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
		}
		return buildDate(raw, m[1], strconv.Itoa(int(month)), m[3])
	}

	if m := monthNameDayRe.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[m[1]]
		if !ok {
			return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
		}
		return buildDate(raw, m[2], strconv.Itoa(int(month)), m[3])
	}

	return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
}

// buildDate validates the day/month/year parts and rejects dates that do not
// exist on the calendar (31/02, 29/02 in non-leap years).
func buildDate(raw, dayStr, monthStr, yearStr string) (time.Time, error) {
	day, err1 := strconv.Atoi(dayStr)
	month, err2 := strconv.Atoi(monthStr)
	year, err3 := strconv.Atoi(yearStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
	}

	switch len(yearStr) {
	case 2:
		if year < twoDigitYearPivot {
			year += 2000
		} else {
			year += 1900
		}
	case 4:
	default:
		return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, typeErr(model.TypeDate, raw, ErrInvalidDate)
	}
	return d, nil
}
