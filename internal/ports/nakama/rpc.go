package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"nukewar/internal/app/results"
	"nukewar/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// BoardRequest is the payload accepted by the leaderboard RPCs. Every field
// is optional; PlayerID defaults to the caller.
type BoardRequest struct {
	PlayerID string `json:"player_id"`
	Limit    int    `json:"limit"`
}

type leaderboardResponse struct {
	Entries []results.Entry `json:"entries"`
}

type recentResponse struct {
	PlayerID string          `json:"player_id"`
	Matches  []ports.Outcome `json:"matches"`
}

func newBoard(logger runtime.Logger, nk runtime.NakamaModule) *results.Board {
	adapter := NewNakamaResultsAdapter(nk, nk)
	return results.NewBoard(adapter, NewNakamaUsernameAdapter(nk), logger)
}

func parseBoardRequest(ctx context.Context, payload string) (BoardRequest, error) {
	var req BoardRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return req, runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
		}
	}
	if req.PlayerID == "" {
		req.PlayerID, _ = ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	}
	return req, nil
}

func rpcNukeLeaderboard(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return leaderboardRPC(ctx, logger, newBoard(logger, nk), payload)
}

func rpcNukeStats(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return statsRPC(ctx, logger, newBoard(logger, nk), payload)
}

func rpcNukeRecent(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return recentRPC(ctx, logger, newBoard(logger, nk), payload)
}

func leaderboardRPC(ctx context.Context, logger runtime.Logger, board *results.Board, payload string) (string, error) {
	req, err := parseBoardRequest(ctx, payload)
	if err != nil {
		return "", err
	}
	entries, err := board.Top(ctx, req.Limit)
	if err != nil {
		logger.Error("nuke_leaderboard: %v", err)
		return "", runtime.NewError("Internal error", 13) // INTERNAL
	}
	return marshalResponse(leaderboardResponse{Entries: entries})
}

func statsRPC(ctx context.Context, logger runtime.Logger, board *results.Board, payload string) (string, error) {
	req, err := parseBoardRequest(ctx, payload)
	if err != nil {
		return "", err
	}
	entry, err := board.Stats(ctx, req.PlayerID)
	if err != nil {
		return "", rpcError(logger, "nuke_stats", err)
	}
	return marshalResponse(entry)
}

func recentRPC(ctx context.Context, logger runtime.Logger, board *results.Board, payload string) (string, error) {
	req, err := parseBoardRequest(ctx, payload)
	if err != nil {
		return "", err
	}
	matches, err := board.Recent(ctx, req.PlayerID, req.Limit)
	if err != nil {
		return "", rpcError(logger, "nuke_recent", err)
	}
	if matches == nil {
		matches = []ports.Outcome{}
	}
	return marshalResponse(recentResponse{PlayerID: req.PlayerID, Matches: matches})
}

func rpcError(logger runtime.Logger, rpc string, err error) error {
	if errors.Is(err, results.ErrInvalidOutcome) {
		return runtime.NewError("player_id required", 3)
	}
	logger.Error("%s: %v", rpc, err)
	return runtime.NewError("Internal error", 13)
}

func marshalResponse(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("Internal error", 13)
	}
	return string(b), nil
}
