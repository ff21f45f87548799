// Package domain defines the inputs and outputs of the stats pipeline
package domain

import (
	"queststat/internal/core/finish"
	"queststat/internal/core/gameinfo"
	"queststat/internal/core/levels"
	"queststat/internal/core/ranking"
)

// GameMeta is the metadata a run needs; Start is the local start time in the
// page's format or RFC 3339, Timezone the UTC offset of the page's times
type GameMeta struct {
	GameID   string `json:"gameId,omitempty"`
	Name     string `json:"name,omitempty"`
	Start    string `json:"start" validate:"required"`
	Timezone string `json:"timezone" validate:"required,utcoffset"`
}

// Bundle is the JSON form of a run: metadata plus the results matrix
// (column-major, edge columns already removed)
type Bundle struct {
	Meta   GameMeta   `json:"meta" validate:"required"`
	Matrix [][]string `json:"matrix" validate:"required,min=1"`
}

// PageInput names saved pages to run over
type PageInput struct {
	GameID      string
	GamePage    string
	ResultsPage string
	// Meta overrides what the game page says when set
	Meta *GameMeta
}

// Result is the bundle produced by one run
type Result struct {
	RunID   string          `json:"runId"`
	Game    gameinfo.Meta   `json:"game"`
	Levels  []levels.Level  `json:"levels"`
	ByTeam  []ranking.Group `json:"byTeam"`
	ByLevel []ranking.Group `json:"byLevel"`
	Finish  []finish.Result `json:"finishResults"`
}
