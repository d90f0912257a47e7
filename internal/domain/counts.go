package domain

// CardCounts is the number of cards each side holds: its hand, its active
// card and its own stakes in the war pile.
type CardCounts struct {
	Player int `json:"player"`
	CPU    int `json:"cpu"`
}

// Counts reports the cards held by each side without drawing.
func Counts(s GameState) CardCounts {
	c := CardCounts{Player: len(s.PlayerHand), CPU: len(s.CPUHand)}
	if s.PlayerActive != nil {
		c.Player++
	}
	if s.CPUActive != nil {
		c.CPU++
	}
	for _, st := range s.WarPile {
		if st.Owner == SideCPU {
			c.CPU++
		} else {
			c.Player++
		}
	}
	return c
}

// Leader returns the side with more cards, or SideNone when even.
func (c CardCounts) Leader() Side {
	switch {
	case c.Player > c.CPU:
		return SidePlayer
	case c.CPU > c.Player:
		return SideCPU
	default:
		return SideNone
	}
}

// ForceEnd terminates the game from outside the rules, typically when the
// match timer runs out. Cards in flight return to their owners and the side
// holding more cards wins; equal holdings tie.
func ForceEnd(state GameState, reason EndReason) (GameState, RoundResult, error) {
	if state.GameOver {
		return state, RoundResult{}, ErrGameOver
	}
	if reason == EndNone {
		reason = EndTimeout
	}
	s := state.Clone()
	s.returnInFlight()
	leader := Counts(s).Leader()
	s.finish(leader, reason)

	res := RoundResult{Code: WinCode(leader)}
	return s, finishResult(&s, res), nil
}
