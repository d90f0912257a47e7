package ports

import (
	"context"
	"time"
)

// Result is a finished match seen from the human player's side.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultTie  Result = "tie"
)

// Valid reports whether r is one of the known results.
func (r Result) Valid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultTie:
		return true
	default:
		return false
	}
}

// Outcome is the record persisted once per finished match.
type Outcome struct {
	MatchID     string    `json:"match_id"`
	PlayerID    string    `json:"player_id"`
	// UserID is the platform account behind PlayerID, when known.
	UserID      string    `json:"user_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	Result      Result    `json:"result"`
	Reason      string    `json:"reason,omitempty"`
	Rounds      int       `json:"rounds"`
	PlayerCards int       `json:"player_cards"`
	CPUCards    int       `json:"cpu_cards"`
	EndedAt     time.Time `json:"ended_at"`
}

// OutcomeSink durably stores match outcomes and updates per-player counters.
// Implementations must treat a repeated MatchID as already recorded, so
// callers may retry freely.
type OutcomeSink interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
}
