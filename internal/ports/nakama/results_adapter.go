package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nukewar/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// StorageAPI is the slice of runtime.NakamaModule used for storage objects.
type StorageAPI interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// LeaderboardAPI is the slice of runtime.NakamaModule used for leaderboards.
type LeaderboardAPI interface {
	LeaderboardRecordWrite(ctx context.Context, id, ownerID, username string, score, subscore int64, metadata map[string]interface{}, overrideOperator *int) (*api.LeaderboardRecord, error)
	LeaderboardRecordsList(ctx context.Context, id string, ownerIDs []string, limit int, cursor string, expiry int64) (records []*api.LeaderboardRecord, ownerRecords []*api.LeaderboardRecord, nextCursor string, prevCursor string, err error)
}

// ErrStatsConflict is returned when another writer updated a player's stats
// between read and write. The write is safe to retry.
var ErrStatsConflict = errors.New("player stats changed concurrently")

// playerRecord is the value of a nuke_players object.
type playerRecord struct {
	PlayerID   string          `json:"player_id"`
	Username   string          `json:"username,omitempty"`
	Wins       int64           `json:"wins"`
	Losses     int64           `json:"losses"`
	Ties       int64           `json:"ties"`
	TotalGames int64           `json:"total_games"`
	LastPlayed time.Time       `json:"last_played,omitempty"`
	Recent     []ports.Outcome `json:"recent"`
}

func (r *playerRecord) apply(o ports.Outcome) {
	switch o.Result {
	case ports.ResultWin:
		r.Wins++
	case ports.ResultLoss:
		r.Losses++
	case ports.ResultTie:
		r.Ties++
	}
	r.TotalGames++
	if o.EndedAt.After(r.LastPlayed) {
		r.LastPlayed = o.EndedAt
	}
	if o.Username != "" {
		r.Username = o.Username
	}
	r.Recent = append([]ports.Outcome{o}, r.Recent...)
	if len(r.Recent) > recentCap {
		r.Recent = r.Recent[:recentCap]
	}
}

func (r playerRecord) stats() ports.PlayerStats {
	return ports.PlayerStats{
		PlayerID:   r.PlayerID,
		Username:   r.Username,
		Wins:       r.Wins,
		Losses:     r.Losses,
		Ties:       r.Ties,
		TotalGames: r.TotalGames,
		LastPlayed: r.LastPlayed,
	}
}

// leaderboardMeta is stored on each nuke_wins record so the board can be
// rendered without reading every player object.
type leaderboardMeta struct {
	PlayerID   string    `json:"player_id"`
	Losses     int64     `json:"losses"`
	Ties       int64     `json:"ties"`
	TotalGames int64     `json:"total_games"`
	LastPlayed time.Time `json:"last_played"`
}

// NakamaResultsAdapter persists outcomes in Nakama storage and mirrors the
// win counts into the nuke_wins leaderboard. Objects are system-owned and
// keyed by player id, so ids issued outside Nakama work too.
type NakamaResultsAdapter struct {
	storage     StorageAPI
	leaderboard LeaderboardAPI
}

// NewNakamaResultsAdapter creates a new results adapter.
func NewNakamaResultsAdapter(storage StorageAPI, leaderboard LeaderboardAPI) *NakamaResultsAdapter {
	return &NakamaResultsAdapter{storage: storage, leaderboard: leaderboard}
}

// RecordOutcome writes the game object (create-only) and the updated player
// stats in one storage batch, then refreshes the leaderboard record. A match
// that was already stored only gets its leaderboard record refreshed.
func (a *NakamaResultsAdapter) RecordOutcome(ctx context.Context, o ports.Outcome) error {
	if o.MatchID == "" || o.PlayerID == "" {
		return fmt.Errorf("match id and player id are required")
	}

	record, version, err := a.readPlayer(ctx, o.PlayerID)
	if err != nil {
		return err
	}
	if version == "" {
		version = "*"
	}
	record.apply(o)

	game, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	player, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal player stats: %w", err)
	}

	writes := []*runtime.StorageWrite{
		{
			Collection:      GamesCollection,
			Key:             o.MatchID,
			Value:           string(game),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
		{
			Collection:      PlayersCollection,
			Key:             o.PlayerID,
			Value:           string(player),
			Version:         version,
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}
	if _, err := a.storage.StorageWrite(ctx, writes); err != nil {
		if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return fmt.Errorf("failed to write outcome: %w", err)
		}
		stored, err := a.gameExists(ctx, o.MatchID)
		if err != nil {
			return err
		}
		if !stored {
			return ErrStatsConflict
		}
		// Already recorded; the leaderboard write below is idempotent.
		if record, _, err = a.readPlayer(ctx, o.PlayerID); err != nil {
			return err
		}
	}

	return a.writeLeaderboard(ctx, o, record)
}

func (a *NakamaResultsAdapter) writeLeaderboard(ctx context.Context, o ports.Outcome, r playerRecord) error {
	if a.leaderboard == nil {
		return nil
	}
	owner := leaderboardOwner(o)
	if owner == "" {
		return nil
	}
	meta := leaderboardMeta{
		PlayerID:   r.PlayerID,
		Losses:     r.Losses,
		Ties:       r.Ties,
		TotalGames: r.TotalGames,
		LastPlayed: r.LastPlayed,
	}
	metadata := map[string]interface{}{}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return fmt.Errorf("failed to build leaderboard metadata: %w", err)
	}

	// The board uses the "best" operator with absolute counts, so replaying
	// this write never inflates the score.
	if _, err := a.leaderboard.LeaderboardRecordWrite(ctx, LeaderboardWins, owner, r.Username, r.Wins, r.TotalGames, metadata, nil); err != nil {
		return fmt.Errorf("failed to write leaderboard record: %w", err)
	}
	return nil
}

// leaderboardOwner picks the Nakama account that owns the leaderboard row.
// Leaderboard owners must be Nakama user ids.
func leaderboardOwner(o ports.Outcome) string {
	if _, err := uuid.Parse(o.UserID); err == nil {
		return o.UserID
	}
	if _, err := uuid.Parse(o.PlayerID); err == nil {
		return o.PlayerID
	}
	return ""
}

// TopPlayers lists the nuke_wins leaderboard, best first.
func (a *NakamaResultsAdapter) TopPlayers(ctx context.Context, limit int) ([]ports.PlayerStats, error) {
	if a.leaderboard == nil {
		return nil, fmt.Errorf("leaderboard not configured")
	}
	records, _, _, _, err := a.leaderboard.LeaderboardRecordsList(ctx, LeaderboardWins, nil, limit, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	out := make([]ports.PlayerStats, 0, len(records))
	for _, rec := range records {
		var meta leaderboardMeta
		if rec.GetMetadata() != "" {
			if err := json.Unmarshal([]byte(rec.GetMetadata()), &meta); err != nil {
				return nil, fmt.Errorf("failed to decode leaderboard metadata for %s: %w", rec.GetOwnerId(), err)
			}
		}
		playerID := meta.PlayerID
		if playerID == "" {
			playerID = rec.GetOwnerId()
		}
		out = append(out, ports.PlayerStats{
			PlayerID:   playerID,
			Username:   rec.GetUsername().GetValue(),
			Wins:       rec.GetScore(),
			Losses:     meta.Losses,
			Ties:       meta.Ties,
			TotalGames: meta.TotalGames,
			LastPlayed: meta.LastPlayed,
		})
	}
	return out, nil
}

// PlayerStats returns the counters for playerID; unknown players get zeros.
func (a *NakamaResultsAdapter) PlayerStats(ctx context.Context, playerID string) (ports.PlayerStats, error) {
	record, _, err := a.readPlayer(ctx, playerID)
	if err != nil {
		return ports.PlayerStats{}, err
	}
	return record.stats(), nil
}

// RecentMatches returns the latest outcomes kept on the player object.
func (a *NakamaResultsAdapter) RecentMatches(ctx context.Context, playerID string, limit int) ([]ports.Outcome, error) {
	record, _, err := a.readPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(record.Recent) > limit {
		return record.Recent[:limit], nil
	}
	return record.Recent, nil
}

// SeedStatsOnce creates an empty stats object for playerID.
func (a *NakamaResultsAdapter) SeedStatsOnce(ctx context.Context, playerID string) (bool, error) {
	if playerID == "" {
		return false, fmt.Errorf("playerID is required")
	}
	value, err := json.Marshal(playerRecord{PlayerID: playerID, Recent: []ports.Outcome{}})
	if err != nil {
		return false, fmt.Errorf("failed to marshal player stats: %w", err)
	}
	writes := []*runtime.StorageWrite{
		{
			Collection:      PlayersCollection,
			Key:             playerID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}
	if _, err := a.storage.StorageWrite(ctx, writes); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to seed player stats: %w", err)
	}
	return true, nil
}

func (a *NakamaResultsAdapter) readPlayer(ctx context.Context, playerID string) (playerRecord, string, error) {
	objects, err := a.storage.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: PlayersCollection, Key: playerID},
	})
	if err != nil {
		return playerRecord{}, "", fmt.Errorf("failed to read player stats: %w", err)
	}
	record := playerRecord{PlayerID: playerID}
	if len(objects) == 0 {
		return record, "", nil
	}
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &record); err != nil {
		return playerRecord{}, "", fmt.Errorf("failed to decode player stats: %w", err)
	}
	record.PlayerID = playerID
	return record, objects[0].GetVersion(), nil
}

func (a *NakamaResultsAdapter) gameExists(ctx context.Context, matchID string) (bool, error) {
	objects, err := a.storage.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: GamesCollection, Key: matchID},
	})
	if err != nil {
		return false, fmt.Errorf("failed to read game %s: %w", matchID, err)
	}
	return len(objects) > 0, nil
}

var (
	_ ports.OutcomeSink       = (*NakamaResultsAdapter)(nil)
	_ ports.LeaderboardReader = (*NakamaResultsAdapter)(nil)
	_ ports.StatsSeeder       = (*NakamaResultsAdapter)(nil)
)
