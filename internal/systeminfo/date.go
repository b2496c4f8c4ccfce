package systeminfo

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// slashLayouts are tried in order against slash-delimited fragments.
// Month-first wins when a fragment is valid both ways.
var slashLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 15:04:05",
	"2/1/2006, 3:04:05 PM",
	"2/1/2006, 15:04:05",
	"1/2/2006",
	"2/1/2006",
}

var errShortTime = errors.New("time token shorter than six digits")

// ParseDate converts a systeminfo date/time fragment such as
// "1/15/2024, 10:30:00 AM" into a timestamp.
//
// Fragments whose date token has no slash are rendered differently by
// some locales; for those only the time token is used and the result is
// the elapsed time added to the zero time.
func ParseDate(fragment string) (time.Time, error) {
	return parseDate("date", fragment)
}

func parseDate(field, fragment string) (time.Time, error) {
	parts := strings.Split(fragment, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if strings.Contains(parts[0], "/") {
		return parseSlashDate(field, strings.Join(parts, ", "))
	}
	return parseDigitRunDate(field, parts)
}

func parseSlashDate(field, fragment string) (time.Time, error) {
	for _, layout := range slashLayouts {
		if t, err := time.Parse(layout, fragment); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Field: field, Value: fragment}
}

func parseDigitRunDate(field string, parts []string) (time.Time, error) {
	if len(parts) < 2 {
		return time.Time{}, &FormatError{Field: field, Value: strings.Join(parts, ","), Err: errors.New("missing time token")}
	}

	digits := strings.NewReplacer(" ", "", ":", "").Replace(parts[1])
	if len(digits) < 6 {
		return time.Time{}, &FormatError{Field: field, Value: parts[1], Err: errShortTime}
	}

	var hms [3]int
	for i := range hms {
		// ParseUint rejects the signs Atoi would accept.
		n, err := strconv.ParseUint(digits[i*2:i*2+2], 10, 8)
		if err != nil {
			return time.Time{}, &FormatError{Field: field, Value: parts[1], Err: err}
		}
		hms[i] = int(n)
	}

	return time.Time{}.
		Add(time.Duration(hms[0]) * time.Hour).
		Add(time.Duration(hms[1]) * time.Minute).
		Add(time.Duration(hms[2]) * time.Second), nil
}
