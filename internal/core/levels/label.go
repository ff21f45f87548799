package levels

import (
	"bytes"
	"encoding/json"
	"strconv"

	perr "queststat/internal/platform/errors"
)

// Label is a level's header label: a number for race levels, the raw text
// for anything that does not start with one (the finish column)
type Label struct {
	num     int
	text    string
	numeric bool
}

// Num makes a numeric label
func Num(n int) Label { return Label{num: n, numeric: true} }

// Text makes a non-numeric label
func Text(s string) Label { return Label{text: s} }

// IsNumeric reports whether the label parsed as an integer
func (l Label) IsNumeric() bool { return l.numeric }

// Int returns the numeric value, 0 for text labels
func (l Label) Int() int { return l.num }

func (l Label) String() string {
	if l.numeric {
		return strconv.Itoa(l.num)
	}
	return l.text
}

// MarshalJSON writes a number or a string
func (l Label) MarshalJSON() ([]byte, error) {
	if l.numeric {
		return []byte(strconv.Itoa(l.num)), nil
	}
	return json.Marshal(l.text)
}

// UnmarshalJSON reads a number or a string
func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "level label")
		}
		*l = Text(s)
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "level label must be an integer or a string")
	}
	*l = Num(n)
	return nil
}

// parseLabel reads a leading integer the way a lenient scraper would:
// surrounding blanks and trailing text are ignored ("8 " and "8a" are 8)
func parseLabel(s string) Label {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return Text(s)
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return Text(s)
	}
	return Num(n)
}
