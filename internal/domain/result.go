package domain

import "errors"

var (
	ErrCardsInPlay = errors.New("cards are still in play")
	ErrGameOver    = errors.New("game is over")
)

// ResultCode classifies the outcome of an engine call. Presentation text is
// derived from it, never the other way round.
type ResultCode string

const (
	PlayerWins      ResultCode = "player_wins"
	CPUWins         ResultCode = "cpu_wins"
	Tie             ResultCode = "tie"
	WarContinues    ResultCode = "war_continues"
	NukeSuccess     ResultCode = "nuke_success"
	NukeGameOver    ResultCode = "nuke_game_over"
	NukeUnavailable ResultCode = "nuke_unavailable"
)

// WinCode returns the round code for side winning.
func WinCode(side Side) ResultCode {
	switch side {
	case SidePlayer:
		return PlayerWins
	case SideCPU:
		return CPUWins
	default:
		return Tie
	}
}

// RoundResult describes one ResolveRound or ForceEnd call.
type RoundResult struct {
	Code ResultCode `json:"code"`
	// RoundWinner is the side that took the cards this round, if any.
	RoundWinner Side  `json:"round_winner"`
	PlayerCard  *Card `json:"player_card,omitempty"`
	CPUCard     *Card `json:"cpu_card,omitempty"`
	// CardsWon counts cards moved to RoundWinner, including the war pile.
	CardsWon int `json:"cards_won"`
	// WarDepth is the number of Wars stacked in the pile after this call.
	WarDepth int `json:"war_depth"`

	GameOver bool      `json:"game_over"`
	Winner   Side      `json:"winner"`
	Reason   EndReason `json:"reason"`

	Repair *RepairReport `json:"repair,omitempty"`
}

// NukeResult describes one ActivateNuke call.
type NukeResult struct {
	Code     ResultCode    `json:"code"`
	Actor    Side          `json:"actor"`
	Stolen   int           `json:"stolen"`
	Returned int           `json:"returned"` // in-flight cards sent home first
	GameOver bool          `json:"game_over"`
	Winner   Side          `json:"winner"`
	Reason   EndReason     `json:"reason"`
	Repair   *RepairReport `json:"repair,omitempty"`
}
