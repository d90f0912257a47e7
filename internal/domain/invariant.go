package domain

import "fmt"

// InvariantError reports a card total other than DeckSize.
type InvariantError struct {
	Total int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("card invariant violated: %d cards in play, want %d", e.Total, DeckSize)
}

// RepairReport describes a normalization performed by Repair.
type RepairReport struct {
	Before   int  `json:"before"`
	After    int  `json:"after"`
	Side     Side `json:"side"`
	Trimmed  int  `json:"trimmed"`
	Injected int  `json:"injected"`
}

// TotalCards counts every card in hands, active slots and the war pile.
func TotalCards(s GameState) int {
	total := len(s.PlayerHand) + len(s.CPUHand) + len(s.WarPile)
	if s.PlayerActive != nil {
		total++
	}
	if s.CPUActive != nil {
		total++
	}
	return total
}

// CheckInvariant returns an *InvariantError when s does not hold exactly
// DeckSize cards.
func CheckInvariant(s GameState) error {
	if total := TotalCards(s); total != DeckSize {
		return &InvariantError{Total: total}
	}
	return nil
}

// Repair normalizes s back to DeckSize cards. Excess cards are trimmed from
// the back of the side that most recently gained cards, spilling into the
// other hand and then the war pile. Missing cards are replaced by
// placeholders appended to that same side. A valid state comes back
// unchanged with a nil report.
func Repair(state GameState) (GameState, *RepairReport) {
	total := TotalCards(state)
	if total == DeckSize {
		return state, nil
	}
	s := state.Clone()
	side := s.LastGainer
	if side == SideNone {
		side = SidePlayer
	}
	report := &RepairReport{Before: total, Side: side}

	if excess := total - DeckSize; excess > 0 {
		for _, sd := range []Side{side, side.Opponent()} {
			hand := s.Hand(sd)
			n := min(excess, len(hand))
			s.setHand(sd, hand[:len(hand)-n])
			excess -= n
			report.Trimmed += n
		}
		if n := min(excess, len(s.WarPile)); n > 0 {
			s.WarPile = s.WarPile[:len(s.WarPile)-n]
			excess -= n
			report.Trimmed += n
		}
		if excess > 0 && s.CPUActive != nil {
			s.CPUActive = nil
			excess--
			report.Trimmed++
		}
		if excess > 0 && s.PlayerActive != nil {
			s.PlayerActive = nil
			report.Trimmed++
		}
	} else {
		missing := -excess
		fill := make([]Card, missing)
		for i := range fill {
			fill[i] = PlaceholderCard()
		}
		s.setHand(side, append(s.Hand(side), fill...))
		report.Injected = missing
	}

	report.After = TotalCards(s)
	return s, report
}

// ensureInvariant repairs s in place when needed.
func ensureInvariant(s *GameState) *RepairReport {
	repaired, report := Repair(*s)
	if report != nil {
		*s = repaired
	}
	return report
}
