// Package ranking derives per-level durations from completion times, marks the
// fastest team on every level and groups records by team and by level
package ranking

import (
	"cmp"
	"slices"

	"queststat/internal/core/records"
	"queststat/internal/core/timecodec"
)

// Group is a view of records sharing a team id or a level index.
// Data keeps arrival order
type Group struct {
	ID   int              `json:"id"`
	Data []records.Record `json:"data"`
}

// Ranked bundles the ranked records with both grouped views
type Ranked struct {
	Records []records.Record `json:"records"`
	ByTeam  []Group          `json:"byTeam"`
	ByLevel []Group          `json:"byLevel"`
}

type teamLevel struct{ team, level int }

// ComputeDurations returns a copy of recs where each duration runs from the
// same team's record on the previous level, or from gameStart when the team
// has none. A record without a timestamp gets 0. Inconsistent source data
// can produce negative durations; they are kept as is
func ComputeDurations(recs []records.Record, gameStart timecodec.Timestamp) []records.Record {
	done := make(map[teamLevel]timecodec.Timestamp, len(recs))
	for _, r := range recs {
		if r.LevelIndex == nil || r.CompletedAt.IsZero() {
			continue
		}
		k := teamLevel{r.TeamID, *r.LevelIndex}
		if _, seen := done[k]; !seen {
			done[k] = r.CompletedAt
		}
	}

	out := slices.Clone(recs)
	for i := range out {
		if out[i].CompletedAt.IsZero() {
			out[i].DurationMs = 0
			continue
		}
		from := gameStart
		if out[i].LevelIndex != nil {
			if prev, ok := done[teamLevel{out[i].TeamID, *out[i].LevelIndex - 1}]; ok {
				from = prev
			}
		}
		out[i].DurationMs = timecodec.Diff(out[i].CompletedAt, from)
	}
	return out
}

// MarkBest returns a copy of recs where, per level, the non-timed-out record
// with the smallest duration has BestTime set. Records without a completion
// time never win. Ties go to the earliest record; a level where every team
// timed out has no best time
func MarkBest(recs []records.Record) []records.Record {
	out := slices.Clone(recs)
	best := make(map[int]int)
	for i, r := range out {
		out[i].BestTime = false
		if r.TimedOut || r.CompletedAt.IsZero() {
			continue
		}
		lvl := r.Level()
		j, ok := best[lvl]
		if !ok || r.DurationMs < out[j].DurationMs {
			best[lvl] = i
		}
	}
	for _, i := range best {
		out[i].BestTime = true
	}
	return out
}

// ByTeam groups records by team id, groups ordered by ascending id
func ByTeam(recs []records.Record) []Group {
	return groupBy(recs, func(r records.Record) int { return r.TeamID })
}

// ByLevel groups records by level index, groups ordered by ascending index
func ByLevel(recs []records.Record) []Group {
	return groupBy(recs, records.Record.Level)
}

// Rank computes durations, marks best times and builds both views
func Rank(recs []records.Record, gameStart timecodec.Timestamp) Ranked {
	ranked := MarkBest(ComputeDurations(recs, gameStart))
	return Ranked{
		Records: ranked,
		ByTeam:  ByTeam(ranked),
		ByLevel: ByLevel(ranked),
	}
}

func groupBy(recs []records.Record, key func(records.Record) int) []Group {
	pos := make(map[int]int)
	var groups []Group
	for _, r := range recs {
		k := key(r)
		i, ok := pos[k]
		if !ok {
			i = len(groups)
			pos[k] = i
			groups = append(groups, Group{ID: k})
		}
		groups[i].Data = append(groups[i].Data, r)
	}
	slices.SortFunc(groups, func(a, b Group) int { return cmp.Compare(a.ID, b.ID) })
	return groups
}

// Find returns the group with id, if present
func Find(groups []Group, id int) (Group, bool) {
	i, ok := slices.BinarySearchFunc(groups, id, func(g Group, id int) int { return cmp.Compare(g.ID, id) })
	if !ok {
		return Group{}, false
	}
	return groups[i], true
}
