package ports

import "context"

// StatsSeeder creates the zeroed stats record for a new player.
type StatsSeeder interface {
	// SeedStatsOnce returns created=false when the record already exists.
	SeedStatsOnce(ctx context.Context, playerID string) (bool, error)
}
