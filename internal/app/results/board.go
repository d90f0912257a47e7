package results

import (
	"context"
	"fmt"
	"time"

	"nukewar/internal/ports"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// AnonymousName labels records without a player id.
	AnonymousName = "Anonymous"

	defaultNameTimeout = 500 * time.Millisecond
)

// Entry is one leaderboard row ready for display.
type Entry struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	DisplayName string  `json:"display_name"`
	Wins        int64   `json:"wins"`
	Losses      int64   `json:"losses"`
	Ties        int64   `json:"ties"`
	TotalGames  int64   `json:"total_games"`
	WinRate     float64 `json:"win_rate"`
	LastPlayed  string  `json:"last_played,omitempty"`
}

// Board answers leaderboard, stats and recent-match queries and attaches
// display names to every row.
type Board struct {
	reader      ports.LeaderboardReader
	names       ports.UsernameResolver
	logger      Logger
	nameTimeout time.Duration
}

// NewBoard constructs a Board. names may be nil, in which case every player
// gets the fallback label.
func NewBoard(reader ports.LeaderboardReader, names ports.UsernameResolver, logger Logger) *Board {
	return &Board{reader: reader, names: names, logger: logger, nameTimeout: defaultNameTimeout}
}

// ClampLimit normalizes a requested page size.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// FallbackName is the label shown when no username can be resolved.
func FallbackName(playerID string) string {
	if playerID == "" {
		return AnonymousName
	}
	return "fid:" + playerID
}

// Top returns the best players by wins.
func (b *Board) Top(ctx context.Context, limit int) ([]Entry, error) {
	stats, err := b.reader.TopPlayers(ctx, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	out := make([]Entry, 0, len(stats))
	for i, s := range stats {
		e := b.entry(ctx, s)
		e.Rank = i + 1
		out = append(out, e)
	}
	return out, nil
}

// Stats returns the counters of one player.
func (b *Board) Stats(ctx context.Context, playerID string) (Entry, error) {
	if playerID == "" {
		return Entry{}, fmt.Errorf("%w: missing player id", ErrInvalidOutcome)
	}
	s, err := b.reader.PlayerStats(ctx, playerID)
	if err != nil {
		return Entry{}, fmt.Errorf("player stats: %w", err)
	}
	s.PlayerID = playerID
	return b.entry(ctx, s), nil
}

// Recent returns the latest outcomes of one player, newest first.
func (b *Board) Recent(ctx context.Context, playerID string, limit int) ([]ports.Outcome, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: missing player id", ErrInvalidOutcome)
	}
	out, err := b.reader.RecentMatches(ctx, playerID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	return out, nil
}

// DisplayName resolves playerID to a username, falling back to a generic
// label on absence, error or timeout.
func (b *Board) DisplayName(ctx context.Context, playerID string) string {
	if playerID == "" || b.names == nil {
		return FallbackName(playerID)
	}
	ctx, cancel := context.WithTimeout(ctx, b.nameTimeout)
	defer cancel()

	name, err := b.names.ResolveUsername(ctx, playerID)
	if err != nil {
		b.logger.Warn("DisplayName: lookup for %s failed: %v", playerID, err)
		return FallbackName(playerID)
	}
	if name == "" {
		return FallbackName(playerID)
	}
	return name
}

func (b *Board) entry(ctx context.Context, s ports.PlayerStats) Entry {
	name := s.Username
	if name == "" {
		name = b.DisplayName(ctx, s.PlayerID)
	}
	e := Entry{
		PlayerID:    s.PlayerID,
		DisplayName: name,
		Wins:        s.Wins,
		Losses:      s.Losses,
		Ties:        s.Ties,
		TotalGames:  s.TotalGames,
		WinRate:     s.WinRate(),
	}
	if !s.LastPlayed.IsZero() {
		e.LastPlayed = s.LastPlayed.UTC().Format(time.RFC3339)
	}
	return e
}
