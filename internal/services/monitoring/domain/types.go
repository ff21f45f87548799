// Package domain defines the inputs and outputs of the monitoring pipeline
package domain

import "queststat/internal/core/monitoring"

// PageInput names the saved log pages of one game, in page order
type PageInput struct {
	GameID   string   `json:"gameId,omitempty"`
	Pages    []string `json:"pages" validate:"required,min=1,dive,required"`
	Timezone string   `json:"timezone" validate:"required,utcoffset"`
}

// Report is the totals view of a game's log
type Report struct {
	RunID   string              `json:"runId"`
	Entries int                 `json:"entries"`
	Stats   monitoring.Analysis `json:"stats"`
}

// TeamDetails breaks one team down by level and by player
type TeamDetails struct {
	TeamID  int                    `json:"teamId"`
	ByLevel []monitoring.Aggregate `json:"dataByLevel"`
	ByUser  []monitoring.Aggregate `json:"dataByUser"`
}

// PlayerDetails breaks one player down by level
type PlayerDetails struct {
	UserID  int                    `json:"userId"`
	ByLevel []monitoring.Aggregate `json:"dataByLevel"`
}
