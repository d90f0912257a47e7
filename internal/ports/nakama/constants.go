package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a match.
	RpcQuickMatch      = "quick_match"
	RpcNukeLeaderboard = "nuke_leaderboard"
	RpcNukeStats       = "nuke_stats"
	RpcNukeRecent      = "nuke_recent"

	// MatchNameNukeWar is the authoritative match handler name registered with Nakama.
	MatchNameNukeWar = "nuke_war_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpDraw    int64 = 1
	OpNuke    int64 = 2
	OpNewGame int64 = 3

	// Server -> Client events
	OpState     int64 = 101
	OpRound     int64 = 102
	OpWar       int64 = 103
	OpNukeFired int64 = 104
	OpGameOver  int64 = 105
	OpError     int64 = 106
)

// Storage and leaderboard identifiers.
const (
	GamesCollection   = "nuke_games"
	PlayersCollection = "nuke_players"
	LeaderboardWins   = "nuke_wins"

	// recentCap bounds the outcome history kept in a player's stats object.
	recentCap = 50
)

// Match label keys and values.
const (
	labelGame      = "nukewar"
	PhaseLobby     = "lobby"
	PhasePlaying   = "playing"
	PhaseFinished  = "finished"
	joinTokenField = "host_token"
)
