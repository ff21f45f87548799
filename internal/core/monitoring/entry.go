// Package monitoring parses submitted-code logs and aggregates answer
// accuracy per team, level and player
package monitoring

import (
	"regexp"
	"strconv"
	"strings"

	"queststat/internal/core/normalize"
	"queststat/internal/core/rulepack"
	"queststat/internal/core/timecodec"
	perr "queststat/internal/platform/errors"
)

// Entry is one submitted code. TimeSincePrevMs is nil until TimeDifferences
// runs, and stays nil for the last entry of a listing
type Entry struct {
	Level           int                 `json:"level"`
	TeamID          int                 `json:"teamId"`
	TeamName        string              `json:"teamName"`
	UserID          int                 `json:"userId"`
	UserName        string              `json:"userName"`
	Code            string              `json:"code"`
	SubmittedAt     timecodec.Timestamp `json:"submittedAt"`
	IsSuccess       bool                `json:"isSuccess"`
	IsTimeout       bool                `json:"isTimeout"`
	IsRemovedLevel  bool                `json:"isRemovedLevel"`
	IsDuplicate     bool                `json:"isDuplicate"`
	TimeSincePrevMs *int64              `json:"timeSincePrevMs"`
}

// Correct reports whether the entry counts as a correct answer
func (e Entry) Correct() bool { return e.IsSuccess && !e.IsTimeout && !e.IsRemovedLevel }

const (
	slotLevel = iota
	slotTeamUser
	slotStatus
	slotCode
	slotTime
)

var (
	leadingIntRe = regexp.MustCompile(`^\s*(\d+)`)
	stampRe      = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}\s+\d{1,2}:\d{1,2}:\d{1,2}(?:\.\d{1,9})?`)
)

// Parser turns log table cells into entries
type Parser struct {
	kw rulepack.MonitorKeywords
}

// NewParser returns a parser over pack (rulepack.Default() when nil)
func NewParser(pack *rulepack.Pack) *Parser {
	if pack == nil {
		pack = rulepack.Default()
	}
	return &Parser{kw: pack.Monitoring}
}

// ParseRows is NewParser(nil).ParseRows
func ParseRows(rows [][]string, offset string) ([]Entry, error) {
	return NewParser(nil).ParseRows(rows, offset)
}

// ParseColumns is NewParser(nil).ParseColumns
func ParseColumns(columns [][]string, offset string) ([]Entry, error) {
	return NewParser(nil).ParseColumns(columns, offset)
}

// ParseColumns filters each column (empty cells, spacer cells, then the
// header) and transposes what is left into rows. Columns of unequal length
// yield shorter rows: row j takes the j-th cell of every column long enough
// to have one
func (p *Parser) ParseColumns(columns [][]string, offset string) ([]Entry, error) {
	kept := make([][]string, 0, len(columns))
	longest := 0
	for _, col := range columns {
		var cells []string
		for _, c := range col {
			if c == "" || strings.HasPrefix(c, p.kw.SpacerPrefix) {
				continue
			}
			cells = append(cells, c)
		}
		if len(cells) > 0 {
			cells = cells[1:]
		}
		kept = append(kept, cells)
		longest = max(longest, len(cells))
	}

	rows := make([][]string, longest)
	for j := range rows {
		for _, col := range kept {
			if j < len(col) {
				rows[j] = append(rows[j], col[j])
			}
		}
	}
	return p.ParseRows(rows, offset)
}

// ParseRows converts rows of [level, teamAndUser, status, code, time]. When
// the time slot is missing or empty the code slot carries the time and the
// code is empty. A time that is present but invalid fails the whole batch
func (p *Parser) ParseRows(rows [][]string, offset string) ([]Entry, error) {
	out := make([]Entry, 0, len(rows))
	for i, row := range rows {
		e, err := p.parseRow(row, offset)
		if err != nil {
			return nil, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeParse, "log row %d", i), "monitoring.ParseRows")
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *Parser) parseRow(row []string, offset string) (Entry, error) {
	if len(row) <= slotCode {
		return Entry{}, perr.WithField(perr.Parsef("row has %d cells, want at least %d", len(row), slotCode+1), "row")
	}
	who := row[slotTeamUser]
	decodedWho := normalize.Decode(who)
	codeText := normalize.StripTags(normalize.Decode(row[slotCode]))

	e := Entry{
		Level:          leadingInt(normalize.StripTags(normalize.Decode(row[slotLevel]))),
		TeamID:         normalize.IntAfter(who, "tid="),
		TeamName:       normalize.FirstBracketed(decodedWho),
		UserID:         normalize.IntAfter(who, "uid="),
		UserName:       normalize.LastBracketed(decodedWho),
		IsSuccess:      normalize.FirstBracketed(normalize.Decode(row[slotStatus])) == p.kw.SuccessGlyph,
		IsTimeout:      strings.Contains(codeText, p.kw.TimeoutKeyword),
		IsRemovedLevel: strings.Contains(codeText, p.kw.RemovedKeyword),
	}

	timeText := ""
	if len(row) > slotTime && row[slotTime] != "" {
		e.Code = codeText
		timeText = row[slotTime]
	} else {
		timeText = row[slotCode]
	}
	ts, err := submittedAt(timeText, offset)
	if err != nil {
		return Entry{}, err
	}
	e.SubmittedAt = ts
	return e, nil
}

// submittedAt finds the timestamp in a time cell; none found is a zero time
func submittedAt(cell, offset string) (timecodec.Timestamp, error) {
	text := normalize.StripTags(normalize.Decode(cell))
	s := stampRe.FindString(text)
	if s == "" {
		return timecodec.Timestamp{}, nil
	}
	ts, err := timecodec.ParseTimestamp(strings.Join(strings.Fields(s), " "), offset)
	if err != nil {
		return timecodec.Timestamp{}, perr.WithField(err, "submittedAt")
	}
	return ts, nil
}

func leadingInt(s string) int {
	m := leadingIntRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// MarkDuplicates returns a copy where entry i is a duplicate when the same
// code appears again later in the listing. The last occurrence is never a
// duplicate, so [A, B, A] marks only the first A
func MarkDuplicates(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	later := make(map[string]struct{}, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out[i] = entries[i]
		_, seen := later[entries[i].Code]
		out[i].IsDuplicate = seen
		later[entries[i].Code] = struct{}{}
	}
	return out
}

// TimeDifferences returns a copy where each entry holds the time since the
// next entry of the listing (listings run newest first); nil for the last
// entry and wherever either side has no submission time
func TimeDifferences(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.TimeSincePrevMs = nil
		if i+1 < len(entries) && !e.SubmittedAt.IsZero() && !entries[i+1].SubmittedAt.IsZero() {
			d := timecodec.Diff(e.SubmittedAt, entries[i+1].SubmittedAt)
			e.TimeSincePrevMs = &d
		}
		out[i] = e
	}
	return out
}
