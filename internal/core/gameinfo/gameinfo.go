// Package gameinfo reads the game title, schedule and UTC offset from the
// game details table
package gameinfo

import (
	"regexp"
	"strconv"
	"strings"

	"queststat/internal/core/normalize"
	"queststat/internal/core/rulepack"
	"queststat/internal/core/timecodec"
	perr "queststat/internal/platform/errors"
)

// Meta describes one game. Start and Finish are zero when the page lacks them
type Meta struct {
	Name     string              `json:"name"`
	Start    timecodec.Timestamp `json:"start"`
	Finish   timecodec.Timestamp `json:"finish"`
	Timezone string              `json:"timezone"`
}

var (
	titleRe = regexp.MustCompile(`gid=\d{1,10}">.*</a>`)
	stampRe = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}\s\d{1,2}:\d{2}:\d{2}`)
	hoursRe = regexp.MustCompile(`(-?)(\d+)`)
)

// Parser locates cells by the labels of a rule pack
type Parser struct {
	labels rulepack.GameInfoLabels
}

// NewParser returns a parser over pack (rulepack.Default() when nil)
func NewParser(pack *rulepack.Pack) *Parser {
	if pack == nil {
		pack = rulepack.Default()
	}
	return &Parser{labels: pack.GameInfo}
}

// Parse is NewParser(nil).Parse
func Parse(matrix [][]string) (Meta, error) { return NewParser(nil).Parse(matrix) }

// Parse reads the first column of a column-major game details matrix.
// The offset is the last integer of the start cell, in whole hours
func (p *Parser) Parse(matrix [][]string) (Meta, error) {
	if len(matrix) == 0 {
		return Meta{}, nil
	}
	cells := make([]string, len(matrix[0]))
	for i, c := range matrix[0] {
		cells[i] = normalize.Decode(c)
	}

	var m Meta
	if title := find(cells, p.labels.TitleMarker); title != "" {
		m.Name = normalize.FirstBracketed(titleRe.FindString(title))
	}

	startCell := find(cells, p.labels.StartLabel)
	if startCell != "" {
		all := hoursRe.FindAllStringSubmatch(normalize.StripTags(startCell), -1)
		if len(all) > 0 {
			last := all[len(all)-1]
			h, _ := strconv.Atoi(last[2])
			if last[1] == "-" {
				h = -h
			}
			m.Timezone = timecodec.OffsetFromHours(h)
		}
	}

	var err error
	if m.Start, err = stamp(startCell, m.Timezone, "start"); err != nil {
		return Meta{}, err
	}
	if m.Finish, err = stamp(find(cells, p.labels.FinishLabel), m.Timezone, "finish"); err != nil {
		return Meta{}, err
	}
	return m, nil
}

func find(cells []string, label string) string {
	for _, c := range cells {
		if strings.Contains(c, label) {
			return c
		}
	}
	return ""
}

func stamp(cell, offset, field string) (timecodec.Timestamp, error) {
	s := stampRe.FindString(cell)
	if s == "" {
		return timecodec.Timestamp{}, nil
	}
	ts, err := timecodec.ParseTimestamp(s, offset)
	if err != nil {
		return timecodec.Timestamp{}, perr.WithOp(perr.WithField(err, field), "gameinfo.Parse")
	}
	return ts, nil
}
