package ports

import (
	"context"
	"time"
)

// PlayerStats are the aggregate counters kept per player.
type PlayerStats struct {
	PlayerID   string    `json:"player_id"`
	Username   string    `json:"username,omitempty"`
	Wins       int64     `json:"wins"`
	Losses     int64     `json:"losses"`
	Ties       int64     `json:"ties"`
	TotalGames int64     `json:"total_games"`
	LastPlayed time.Time `json:"last_played,omitempty"`
}

// WinRate returns wins over total games, or zero before the first game.
func (s PlayerStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalGames)
}

// LeaderboardReader exposes the aggregated outcome data.
type LeaderboardReader interface {
	// TopPlayers returns up to limit players ordered by wins, best first.
	TopPlayers(ctx context.Context, limit int) ([]PlayerStats, error)
	// PlayerStats returns the counters for one player. Unknown players
	// yield zero counters, not an error.
	PlayerStats(ctx context.Context, playerID string) (PlayerStats, error)
	// RecentMatches returns up to limit outcomes for playerID, newest first.
	RecentMatches(ctx context.Context, playerID string, limit int) ([]Outcome, error)
}
