package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// LeaderboardCreator is the slice of runtime.NakamaModule used at startup.
type LeaderboardCreator interface {
	LeaderboardCreate(ctx context.Context, id string, authoritative bool, sortOrder, operator, resetSchedule string, metadata map[string]interface{}, enableRanks bool) error
}

// InitModule wires RPCs, hooks, the leaderboard and the match handler for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := ensureLeaderboard(ctx, nk); err != nil {
		logger.Error("InitModule: Failed to create leaderboard %s: %v", LeaderboardWins, err)
		return err
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameNukeWar, NewMatch); err != nil {
		return err
	}

	logger.Info("NukeWar Go module loaded.")
	return nil
}

// ensureLeaderboard creates nuke_wins if missing. Scores are absolute win
// counts written with the "best" operator, so rewriting a record is harmless.
func ensureLeaderboard(ctx context.Context, nk LeaderboardCreator) error {
	return nk.LeaderboardCreate(ctx, LeaderboardWins, true, "desc", "best", "", map[string]interface{}{"game": labelGame}, true)
}
