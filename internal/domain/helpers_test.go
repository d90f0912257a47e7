package domain

// ranks builds spade cards with the given ranks.
func ranks(rs ...int) []Card {
	out := make([]Card, len(rs))
	for i, r := range rs {
		out[i] = NewCard(r, SuitSpades)
	}
	return out
}

// padTo appends low filler cards until the hand holds n cards.
func padTo(hand []Card, n int) []Card {
	out := append([]Card(nil), hand...)
	for len(out) < n {
		out = append(out, NewCard(RankTwo, SuitClubs))
	}
	return out
}

// newState returns a 52-card state with the given hand heads. The player
// hand is padded to playerLen and the CPU hand to the remainder.
func newState(player, cpu []Card, playerLen int) GameState {
	return GameState{
		PlayerHand:          padTo(player, playerLen),
		CPUHand:             padTo(cpu, DeckSize-playerLen),
		PlayerNukeAvailable: true,
		CPUNukeAvailable:    true,
	}
}
