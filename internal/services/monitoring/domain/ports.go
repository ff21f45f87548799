package domain

import (
	"context"

	"queststat/internal/core/monitoring"
)

// LoaderPort parses saved log pages into entries
type LoaderPort interface {
	Load(ctx context.Context, in PageInput) ([]monitoring.Entry, error)
}

// AnalyzerPort serves the views over loaded entries
type AnalyzerPort interface {
	Report(ctx context.Context, entries []monitoring.Entry) Report
	Team(entries []monitoring.Entry, teamID int) TeamDetails
	Player(entries []monitoring.Entry, userID int) PlayerDetails
	Codes(entries []monitoring.Entry, f monitoring.Filter) []monitoring.Entry
}
