package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"nukewar/internal/ports"
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// StatsCreated is false when the player already had a stats record.
	StatsCreated bool
}

// Service handles post-auth onboarding for new players.
type Service struct {
	accounts ports.AccountPort
	stats    ports.StatsSeeder
	rng      *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/stats must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, stats ports.StatsSeeder, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		stats:    stats,
		rng:      rng,
	}
}

// OnboardNewUser gives a newly created account a friendly name and a zeroed
// Nuke War stats record.
// Returns an error only when the stats record cannot be created.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.stats == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{DisplayName: s.generateFriendlyName()}
	if err := s.accounts.UpdateProfile(ctx, userID, result.DisplayName, result.DisplayName); err != nil {
		// Profile updates are best-effort; the stats record is what leaderboards read.
		result.ProfileUpdateErr = err
	}

	created, err := s.stats.SeedStatsOnce(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to seed player stats: %w", err)
	}
	result.StatsCreated = created
	return result, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Atomic", "Brave", "Clever", "Swift", "Calm", "Mighty", "Witty", "Sly", "Wild", "Lucky"}
	nouns := []string{"General", "Marshal", "Captain", "Gunner", "Scout", "Sapper", "Admiral", "Pilot", "Ranger", "Cadet"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
