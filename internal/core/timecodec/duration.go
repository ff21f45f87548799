package timecodec

import (
	"regexp"
	"strconv"
	"strings"

	perr "queststat/internal/platform/errors"
)

var (
	// D H:M:S[.fff] with an optional leading day ordinal
	clockRe = regexp.MustCompile(`^(?:(\d+)\s+)?(\d+):(\d+):(\d+)(?:\.(\d{1,3}))?$`)
	// Nd H:M:S[.fff]: a day count tagged with its unit, then a clock
	dayClockRe = regexp.MustCompile(`^(\d+)\s*(?:д|d)\s+(\d+):(\d+):(\d+)(?:\.(\d{1,3}))?$`)
	// <int><unit>[letters]; longer units first so "мс" is not read as "м".
	// The letter tail takes in word forms like "мин", "часа" or "sec"
	tokenRe = regexp.MustCompile(`(\d+)\s*(мс|ms|д|d|ч|h|м|m|с|s)\p{L}*`)
	digitRe = regexp.MustCompile(`\d`)
)

const (
	msSecond = int64(1000)
	msMinute = 60 * msSecond
	msHour   = 60 * msMinute
	msDay    = 24 * msHour
)

var unitMs = map[string]int64{
	"д": msDay, "d": msDay,
	"ч": msHour, "h": msHour,
	"м": msMinute, "m": msMinute,
	"с": msSecond, "s": msSecond,
	"мс": 1, "ms": 1,
}

// ParseDuration converts a short duration text to milliseconds.
//
// Three forms are accepted. The clock form "D H:M:S" as printed by the
// results page, where D is a 1-based day ordinal ("1 0:00:17" is 17s,
// "2 1:5:12" is 1d 1h 5m 12s). The day-tagged clock "Nd H:M:S" where N is a
// plain day count ("1d 2:03:04" is 1d 2h 3m 4s). The token form "<n><unit>"
// in any order with Cyrillic (д ч м с мс) or Latin (d h m s ms) units; absent
// units count as zero. Blank input is 0. Text with no token, or with digits
// no token accounts for, is a parse error
func ParseDuration(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if m := clockRe.FindStringSubmatch(s); m != nil {
		return clock(m[1:], s, true)
	}
	if m := dayClockRe.FindStringSubmatch(s); m != nil {
		return clock(m[1:], s, false)
	}

	var (
		total int64
		rest  strings.Builder
		last  int
	)
	locs := tokenRe.FindAllStringSubmatchIndex(s, -1)
	for _, loc := range locs {
		rest.WriteString(s[last:loc[0]])
		last = loc[1]
		n, err := strconv.ParseInt(s[loc[2]:loc[3]], 10, 64)
		if err != nil {
			return 0, durationErr(s, err)
		}
		total += n * unitMs[s[loc[4]:loc[5]]]
	}
	rest.WriteString(s[last:])

	if len(locs) == 0 {
		return 0, perr.WithOp(perr.WithField(perr.Parsef("no duration tokens in %q", s), "duration"), "timecodec.ParseDuration")
	}
	if digitRe.MatchString(rest.String()) {
		return 0, perr.WithOp(perr.WithField(perr.Parsef("unreadable numbers in duration %q", s), "duration"), "timecodec.ParseDuration")
	}
	return total, nil
}

// clock reads [day, h, m, s, frac] submatches; ordinal days count from 1
func clock(m []string, s string, ordinal bool) (int64, error) {
	var parts [4]int64
	for i, txt := range m[:4] {
		if txt == "" {
			continue
		}
		v, err := strconv.ParseInt(txt, 10, 64)
		if err != nil {
			return 0, durationErr(s, err)
		}
		parts[i] = v
	}
	days := parts[0]
	if ordinal {
		days = max(days-1, 0)
	}
	var frac int64
	if m[4] != "" {
		frac, _ = strconv.ParseInt((m[4] + "00")[:3], 10, 64)
	}
	return days*msDay + parts[1]*msHour + parts[2]*msMinute + parts[3]*msSecond + frac, nil
}

func durationErr(s string, err error) error {
	return perr.WithOp(perr.WithField(perr.Wrapf(err, perr.ErrorCodeParse, "parse duration %q", s), "duration"),
		"timecodec.ParseDuration")
}
