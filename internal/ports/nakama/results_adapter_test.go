package nakama

import (
	"context"
	"errors"
	"testing"
	"time"

	"nukewar/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

func testOutcome(matchID string, result ports.Result, ended time.Time) ports.Outcome {
	return ports.Outcome{
		MatchID:  matchID,
		PlayerID: playerUserID,
		UserID:   playerUserID,
		Username: "ace",
		Result:   result,
		Reason:   "hand_empty",
		EndedAt:  ended,
	}
}

func TestRecordOutcome_AccumulatesStats(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaResultsAdapter(nk, nk)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	outcomes := []ports.Outcome{
		testOutcome("m1", ports.ResultWin, base),
		testOutcome("m2", ports.ResultLoss, base.Add(time.Minute)),
		testOutcome("m3", ports.ResultWin, base.Add(2*time.Minute)),
		testOutcome("m4", ports.ResultTie, base.Add(3*time.Minute)),
	}
	for _, o := range outcomes {
		if err := adapter.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("RecordOutcome(%s): %v", o.MatchID, err)
		}
	}

	stats, err := adapter.PlayerStats(ctx, playerUserID)
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	if stats.Wins != 2 || stats.Losses != 1 || stats.Ties != 1 || stats.TotalGames != 4 {
		t.Fatalf("stats = %+v", stats)
	}
	if !stats.LastPlayed.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("last played = %v", stats.LastPlayed)
	}

	recent, err := adapter.RecentMatches(ctx, playerUserID, 2)
	if err != nil {
		t.Fatalf("RecentMatches: %v", err)
	}
	if len(recent) != 2 || recent[0].MatchID != "m4" || recent[1].MatchID != "m3" {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestRecordOutcome_Idempotent(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaResultsAdapter(nk, nk)
	ctx := context.Background()
	o := testOutcome("m1", ports.ResultWin, time.Now())

	for i := 0; i < 3; i++ {
		if err := adapter.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	stats, _ := adapter.PlayerStats(ctx, playerUserID)
	if stats.Wins != 1 || stats.TotalGames != 1 {
		t.Fatalf("duplicate writes counted: %+v", stats)
	}
	if nk.records[playerUserID].Score != 1 {
		t.Fatalf("leaderboard score = %d", nk.records[playerUserID].Score)
	}
}

func TestRecordOutcome_ConcurrentUpdateConflicts(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaResultsAdapter(nk, nk)
	ctx := context.Background()

	if err := adapter.RecordOutcome(ctx, testOutcome("m1", ports.ResultWin, time.Now())); err != nil {
		t.Fatalf("seed outcome: %v", err)
	}
	nk.beforeWrite = func() {
		if err := adapter.RecordOutcome(ctx, testOutcome("m2", ports.ResultLoss, time.Now())); err != nil {
			t.Errorf("concurrent outcome: %v", err)
		}
	}

	err := adapter.RecordOutcome(ctx, testOutcome("m3", ports.ResultWin, time.Now()))
	if !errors.Is(err, ErrStatsConflict) {
		t.Fatalf("err = %v, want %v", err, ErrStatsConflict)
	}

	// The retry sees the fresh version and succeeds.
	if err := adapter.RecordOutcome(ctx, testOutcome("m3", ports.ResultWin, time.Now())); err != nil {
		t.Fatalf("retry: %v", err)
	}
	stats, _ := adapter.PlayerStats(ctx, playerUserID)
	if stats.TotalGames != 3 || stats.Wins != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRecordOutcome_StorageError(t *testing.T) {
	nk := newFakeNakama()
	nk.writeErr = errors.New("db down")
	adapter := NewNakamaResultsAdapter(nk, nk)

	err := adapter.RecordOutcome(context.Background(), testOutcome("m1", ports.ResultWin, time.Now()))
	if err == nil || errors.Is(err, ErrStatsConflict) {
		t.Fatalf("err = %v, want a storage error", err)
	}
}

func TestLeaderboardOwner(t *testing.T) {
	tests := []struct {
		name string
		o    ports.Outcome
		want string
	}{
		{"user id", ports.Outcome{PlayerID: "777", UserID: playerUserID}, playerUserID},
		{"player id is a user id", ports.Outcome{PlayerID: otherUserID}, otherUserID},
		{"external id only", ports.Outcome{PlayerID: "777"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := leaderboardOwner(tt.o); got != tt.want {
				t.Fatalf("leaderboardOwner() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopPlayers_ReadsLeaderboard(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaResultsAdapter(nk, nk)
	ctx := context.Background()

	fid := testOutcome("m1", ports.ResultWin, time.Now())
	fid.PlayerID = "777"
	if err := adapter.RecordOutcome(ctx, fid); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	other := testOutcome("m2", ports.ResultLoss, time.Now())
	other.PlayerID, other.UserID, other.Username = otherUserID, otherUserID, "bee"
	if err := adapter.RecordOutcome(ctx, other); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	top, err := adapter.TopPlayers(ctx, 10)
	if err != nil {
		t.Fatalf("TopPlayers: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("top = %+v", top)
	}
	if top[0].PlayerID != "777" || top[0].Wins != 1 || top[0].Username != "ace" || top[0].TotalGames != 1 {
		t.Fatalf("first = %+v", top[0])
	}
	if top[1].PlayerID != otherUserID || top[1].Losses != 1 {
		t.Fatalf("second = %+v", top[1])
	}
}

func TestSeedStatsOnce(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaResultsAdapter(nk, nk)
	ctx := context.Background()

	created, err := adapter.SeedStatsOnce(ctx, playerUserID)
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}
	created, err = adapter.SeedStatsOnce(ctx, playerUserID)
	if err != nil || created {
		t.Fatalf("second seed: created=%v err=%v", created, err)
	}
	if _, err := adapter.SeedStatsOnce(ctx, ""); err == nil {
		t.Fatal("expected error for empty player id")
	}

	// A seeded player still records normally.
	if err := adapter.RecordOutcome(ctx, testOutcome("m1", ports.ResultWin, time.Now())); err != nil {
		t.Fatalf("RecordOutcome after seed: %v", err)
	}
	stats, _ := adapter.PlayerStats(ctx, playerUserID)
	if stats.Wins != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestUnknownPlayerHasZeroStats(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaResultsAdapter(nk, nk)

	stats, err := adapter.PlayerStats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	if stats.PlayerID != "nobody" || stats.TotalGames != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	recent, err := adapter.RecentMatches(context.Background(), "nobody", 5)
	if err != nil || len(recent) != 0 {
		t.Fatalf("recent = %v err = %v", recent, err)
	}
}

func TestUsernameAdapter(t *testing.T) {
	nk := newFakeNakama()
	nk.users[playerUserID] = &api.User{Id: playerUserID, Username: "ace", DisplayName: "Ace Pilot"}
	nk.users[otherUserID] = &api.User{Id: otherUserID, Username: "bee"}
	adapter := NewNakamaUsernameAdapter(nk)
	ctx := context.Background()

	tests := []struct {
		id      string
		want    string
		wantErr bool
	}{
		{playerUserID, "Ace Pilot", false},
		{otherUserID, "bee", false},
		{"777", "", false},
		{"8c1b0f8e-0000-4000-8000-000000000000", "", false},
		{brokenUserID, "", true},
	}
	for _, tt := range tests {
		got, err := adapter.ResolveUsername(ctx, tt.id)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ResolveUsername(%s) = %q, %v", tt.id, got, err)
		}
	}
}

func TestEnsureLeaderboard(t *testing.T) {
	nk := newFakeNakama()
	if err := ensureLeaderboard(context.Background(), nk); err != nil {
		t.Fatalf("ensureLeaderboard: %v", err)
	}
	if len(nk.leaderboard) != 3 || nk.leaderboard[0] != LeaderboardWins || nk.leaderboard[1] != "desc" || nk.leaderboard[2] != "best" {
		t.Fatalf("leaderboard = %v", nk.leaderboard)
	}
}

// The fake and the real runtime module must satisfy the same narrow APIs.
var (
	_ StorageAPI     = (*fakeNakama)(nil)
	_ LeaderboardAPI = (*fakeNakama)(nil)
	_ UsersAPI       = (*fakeNakama)(nil)
	_ AccountAPI     = (*fakeNakama)(nil)
	_ MatchAPI       = (*fakeNakama)(nil)

	_ LeaderboardCreator = (*fakeNakama)(nil)
	_ LeaderboardCreator = runtime.NakamaModule(nil)

	_ StorageAPI     = runtime.NakamaModule(nil)
	_ LeaderboardAPI = runtime.NakamaModule(nil)
	_ UsersAPI       = runtime.NakamaModule(nil)
	_ AccountAPI     = runtime.NakamaModule(nil)
	_ MatchAPI       = runtime.NakamaModule(nil)

	_ runtime.Presence = fakePresence{}
)
