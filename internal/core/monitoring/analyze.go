package monitoring

import (
	"cmp"
	"slices"
)

// GroupKey names the group an aggregate covers; unused parts stay empty
type GroupKey struct {
	TeamID   int    `json:"teamId,omitempty"`
	TeamName string `json:"teamName,omitempty"`
	UserID   int    `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
	Level    int    `json:"level,omitempty"`
}

// Aggregate is the accuracy of one group. Codes is nil unless the view
// lists the correct entries
type Aggregate struct {
	GroupKey       GroupKey `json:"groupKey"`
	TotalEntries   int      `json:"totalEntries"`
	CorrectEntries int      `json:"correctEntries"`
	CorrectPercent float64  `json:"correctPercent"`
	UniqueCodes    int      `json:"uniqueCodes"`
	Codes          []Entry  `json:"codes"`
}

// TeamLevels is one team's per-level breakdown
type TeamLevels struct {
	TeamID   int         `json:"teamId"`
	TeamName string      `json:"teamName"`
	Levels   []Aggregate `json:"levels"`
}

// Analysis is the result of Analyze
type Analysis struct {
	TotalStat []Aggregate  `json:"totalStat"`
	ByTeam    []TeamLevels `json:"byTeam"`
}

// Filter selects the entries of Codes. Level is required; set TeamID for a
// team listing or UserID for a player listing
type Filter struct {
	Level  int
	TeamID int
	UserID int
}

// Analyze aggregates entries per team, and per level within each team.
// Teams and levels come out in ascending id order
func Analyze(entries []Entry) Analysis {
	teams := groupBy(entries, func(e Entry) int { return e.TeamID })
	a := Analysis{
		TotalStat: make([]Aggregate, 0, len(teams)),
		ByTeam:    make([]TeamLevels, 0, len(teams)),
	}
	for _, g := range teams {
		first := g.entries[0]
		a.TotalStat = append(a.TotalStat, aggregate(GroupKey{TeamID: g.id, TeamName: first.TeamName}, g.entries, false))

		tl := TeamLevels{TeamID: g.id, TeamName: first.TeamName}
		for _, lg := range groupBy(g.entries, func(e Entry) int { return e.Level }) {
			tl.Levels = append(tl.Levels, aggregate(GroupKey{TeamID: g.id, Level: lg.id}, lg.entries, true))
		}
		a.ByTeam = append(a.ByTeam, tl)
	}
	return a
}

// ByPlayer aggregates a team's entries per player, most correct answers first
func ByPlayer(entries []Entry, teamID int) []Aggregate {
	var team []Entry
	for _, e := range entries {
		if e.TeamID == teamID {
			team = append(team, e)
		}
	}
	var out []Aggregate
	for _, g := range groupBy(team, func(e Entry) int { return e.UserID }) {
		out = append(out, aggregate(GroupKey{UserID: g.id, UserName: g.entries[0].UserName}, g.entries, false))
	}
	slices.SortStableFunc(out, func(a, b Aggregate) int { return cmp.Compare(b.CorrectEntries, a.CorrectEntries) })
	return out
}

// PlayerLevels aggregates one player's entries per level, ascending
func PlayerLevels(entries []Entry, userID int) []Aggregate {
	var mine []Entry
	for _, e := range entries {
		if e.UserID == userID {
			mine = append(mine, e)
		}
	}
	var out []Aggregate
	for _, g := range groupBy(mine, func(e Entry) int { return e.Level }) {
		out = append(out, aggregate(GroupKey{UserID: userID, Level: g.id}, g.entries, false))
	}
	return out
}

// Codes lists the entries matching f in input order, with duplicates
// marked and time differences filled in
func Codes(entries []Entry, f Filter) []Entry {
	var picked []Entry
	for _, e := range entries {
		if e.Level != f.Level {
			continue
		}
		if f.UserID != 0 && e.UserID != f.UserID {
			continue
		}
		if f.UserID == 0 && e.TeamID != f.TeamID {
			continue
		}
		picked = append(picked, e)
	}
	return TimeDifferences(MarkDuplicates(picked))
}

func aggregate(key GroupKey, entries []Entry, withCodes bool) Aggregate {
	a := Aggregate{GroupKey: key, TotalEntries: len(entries)}
	unique := make(map[string]struct{}, len(entries))
	var correct []Entry
	for _, e := range entries {
		unique[e.Code] = struct{}{}
		if e.Correct() {
			correct = append(correct, e)
		}
	}
	a.CorrectEntries = len(correct)
	a.UniqueCodes = len(unique)
	if a.TotalEntries > 0 {
		a.CorrectPercent = float64(a.CorrectEntries) / float64(a.TotalEntries) * 100
	}
	if withCodes {
		a.Codes = correct
		if a.Codes == nil {
			a.Codes = []Entry{}
		}
	}
	return a
}

type group struct {
	id      int
	entries []Entry
}

// groupBy buckets entries by key, keeping arrival order inside each bucket
func groupBy(entries []Entry, key func(Entry) int) []group {
	idx := make(map[int]int)
	var out []group
	for _, e := range entries {
		k := key(e)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, group{id: k})
		}
		out[i].entries = append(out[i].entries, e)
	}
	slices.SortFunc(out, func(a, b group) int { return cmp.Compare(a.id, b.id) })
	return out
}
