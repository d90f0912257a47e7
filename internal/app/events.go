package app

import (
	"nukewar/internal/domain"
	"nukewar/internal/ports"
)

// EventKind identifies emitted match events for Nakama dispatch.
type EventKind string

const (
	EventMatchStarted      EventKind = "match_started"
	EventRoundResolved     EventKind = "round_resolved"
	EventWarDeclared       EventKind = "war_declared"
	EventNukeLaunched      EventKind = "nuke_launched"
	EventInvariantRepaired EventKind = "invariant_repaired"
	EventGameEnded         EventKind = "game_ended"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type MatchStartedPayload struct {
	MatchID  string
	PlayerID string
	Counts   domain.CardCounts
}

type RoundResolvedPayload struct {
	Result domain.RoundResult
	Counts domain.CardCounts
}

type WarDeclaredPayload struct {
	Depth    int
	PileSize int
}

type NukeLaunchedPayload struct {
	Result domain.NukeResult
	Counts domain.CardCounts
}

// InvariantRepairedPayload is emitted whenever the engine had to normalize
// the card count. Every occurrence is a bug to chase down.
type InvariantRepairedPayload struct {
	Report domain.RepairReport
}

type GameEndedPayload struct {
	Winner  domain.Side
	Reason  domain.EndReason
	Counts  domain.CardCounts
	Outcome ports.Outcome
	// Record is false when the outcome should not be persisted.
	Record bool
}
