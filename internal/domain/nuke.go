package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownSide = errors.New("unknown side")

// ActivateNuke spends actor's one Nuke. Cards in flight go home first, then
// the last NukeSteal cards of the opponent's hand move to the back of the
// actor's hand. An opponent holding fewer than NukeSteal cards loses on the
// spot and nothing moves.
//
// A Nuke that was already spent is a no-op reported as NukeUnavailable.
func ActivateNuke(state GameState, actor Side, rules Rules) (GameState, NukeResult, error) {
	if actor != SidePlayer && actor != SideCPU {
		return state, NukeResult{}, fmt.Errorf("%w: %q", ErrUnknownSide, actor)
	}
	if state.GameOver {
		return state, NukeResult{}, ErrGameOver
	}
	res := NukeResult{Actor: actor}
	if !state.NukeAvailable(actor) {
		res.Code = NukeUnavailable
		return state, res, nil
	}

	rules = rules.normalized()
	s := state.Clone()
	s.spendNuke(actor)

	res.Returned = len(s.WarPile)
	if s.PlayerActive != nil {
		res.Returned++
	}
	if s.CPUActive != nil {
		res.Returned++
	}
	s.returnInFlight()

	target := actor.Opponent()
	hand := s.Hand(target)
	if len(hand) < rules.NukeSteal {
		s.finish(actor, EndNukeKnockout)
		res.Code = NukeGameOver
	} else {
		cut := len(hand) - rules.NukeSteal
		stolen := append([]Card(nil), hand[cut:]...)
		s.setHand(target, hand[:cut:cut])
		s.give(actor, stolen...)
		res.Code = NukeSuccess
		res.Stolen = len(stolen)
		checkTermination(&s, rules)
	}

	res.Repair = ensureInvariant(&s)
	res.GameOver = s.GameOver
	res.Winner = s.Winner
	res.Reason = s.EndReason
	return s, res, nil
}
