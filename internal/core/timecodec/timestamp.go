// Package timecodec parses the competition's timestamp and duration texts
// into integer milliseconds and serializes timestamps as UTC ISO-8601
package timecodec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	perr "queststat/internal/platform/errors"
)

// ISOLayout is the serialized form, always UTC with milliseconds
const ISOLayout = "2006-01-02T15:04:05.000Z"

var (
	// DD.MM.YYYY H:MM:SS[.fff][offset]
	localRe  = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})[ T](\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.(\d{1,9}))?\s*(Z|[+-]\d{1,2}(?::?\d{2})?)?$`)
	offsetRe = regexp.MustCompile(`^(Z|([+-])(\d{1,2})(?::?(\d{2}))?)$`)
)

// Timestamp is an instant with millisecond precision. The zero value means
// "no timestamp" and serializes as JSON null
type Timestamp struct{ t time.Time }

// FromTime truncates t to milliseconds
func FromTime(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Truncate(time.Millisecond)}
}

// FromUnixMilli builds a Timestamp from epoch milliseconds
func FromUnixMilli(ms int64) Timestamp { return Timestamp{t: time.UnixMilli(ms).UTC()} }

// Time returns the instant in UTC
func (ts Timestamp) Time() time.Time { return ts.t }

// IsZero reports whether the timestamp is absent
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// UnixMilli returns epoch milliseconds
func (ts Timestamp) UnixMilli() int64 { return ts.t.UnixMilli() }

// Equal reports whether both name the same instant
func (ts Timestamp) Equal(o Timestamp) bool { return ts.t.Equal(o.t) }

// String renders ISO-8601 in UTC with milliseconds, "" for the zero value
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.t.UTC().Format(ISOLayout)
}

// MarshalJSON renders the ISO form or null
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.String() + `"`), nil
}

// UnmarshalJSON accepts null, the ISO form and the source-native form with an offset
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*ts = Timestamp{}
		return nil
	}
	uq, err := strconv.Unquote(s)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "timestamp must be a string")
	}
	if uq == "" {
		*ts = Timestamp{}
		return nil
	}
	v, err := ParseTimestamp(uq, "")
	if err != nil {
		return err
	}
	*ts = v
	return nil
}

// ParseTimestamp parses "DD.MM.YYYY H:MM:SS[.fff]±HH:MM". When the text has no
// offset, offset is appended; when neither carries one the text is rejected.
// RFC 3339 input (the serialized form) is accepted as is
func ParseTimestamp(s, offset string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, parseErr(s, "empty timestamp")
	}
	if len(s) >= 10 && s[4] == '-' {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Timestamp{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeParse, "parse timestamp %q", s), "timestamp")
		}
		return FromTime(t), nil
	}

	m := localRe.FindStringSubmatch(s)
	if m == nil {
		return Timestamp{}, parseErr(s, "unrecognized timestamp")
	}
	zoneText := m[8]
	if zoneText == "" {
		zoneText = strings.TrimSpace(offset)
	}
	if zoneText == "" {
		return Timestamp{}, parseErr(s, "timestamp has no UTC offset")
	}
	zone, err := ParseOffset(zoneText)
	if err != nil {
		return Timestamp{}, err
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	ms := 0
	if frac := m[7]; frac != "" {
		frac = (frac + "00")[:3]
		ms, _ = strconv.Atoi(frac)
	}

	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) ||
		hour > 23 || minute > 59 || sec > 59 {
		return Timestamp{}, parseErr(s, "timestamp out of range")
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, ms*int(time.Millisecond), zone)
	return FromTime(t), nil
}

// MustParseTimestamp is ParseTimestamp that panics; for fixtures and tests
func MustParseTimestamp(s, offset string) Timestamp {
	ts, err := ParseTimestamp(s, offset)
	if err != nil {
		panic(err)
	}
	return ts
}

// ParseOffset parses "Z", "+03:00", "+0300" or "+3" into a fixed zone
func ParseOffset(s string) (*time.Location, error) {
	m := offsetRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, perr.WithField(perr.Parsef("invalid UTC offset %q", s), "timezone")
	}
	if m[1] == "Z" {
		return time.UTC, nil
	}
	h, _ := strconv.Atoi(m[3])
	mins := 0
	if m[4] != "" {
		mins, _ = strconv.Atoi(m[4])
	}
	if h > 14 || mins > 59 {
		return nil, perr.WithField(perr.Parsef("UTC offset out of range %q", s), "timezone")
	}
	secs := h*3600 + mins*60
	if m[2] == "-" {
		secs = -secs
	}
	return time.FixedZone(FormatOffset(secs), secs), nil
}

// FormatOffset renders an offset in seconds as "±HH:MM"
func FormatOffset(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	return fmt.Sprintf("%c%02d:%02d", sign, secs/3600, secs%3600/60)
}

// OffsetFromHours renders a whole-hour offset, e.g. 3 -> "+03:00"
func OffsetFromHours(h int) string { return FormatOffset(h * 3600) }

// Diff returns a-b in signed milliseconds
func Diff(a, b Timestamp) int64 { return a.UnixMilli() - b.UnixMilli() }

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func parseErr(s, msg string) error {
	return perr.WithOp(perr.WithField(perr.Parsef("%s: %q", msg, s), "timestamp"), "timecodec.ParseTimestamp")
}
