package domain

// Side identifies one of the two participants.
type Side string

const (
	SideNone   Side = ""
	SidePlayer Side = "player"
	SideCPU    Side = "cpu"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case SidePlayer:
		return SideCPU
	case SideCPU:
		return SidePlayer
	default:
		return SideNone
	}
}

// EndReason explains why a game finished.
type EndReason string

const (
	EndNone          EndReason = ""
	EndHandEmpty     EndReason = "hand_empty"
	EndLowCards      EndReason = "low_cards"
	EndWarStarvation EndReason = "war_starvation"
	EndNukeKnockout  EndReason = "nuke_knockout"
	EndTimeout       EndReason = "timeout"
)

// Stake is a card sitting in the war pile together with the side that put it there.
type Stake struct {
	Card  Card `json:"card"`
	Owner Side `json:"owner"`
}

// GameState is the whole state of one match. Engine functions take it by
// value and return a new state; slices are never shared with the input.
type GameState struct {
	PlayerHand   []Card `json:"player_hand"`
	CPUHand      []Card `json:"cpu_hand"`
	PlayerActive *Card  `json:"player_active,omitempty"`
	CPUActive    *Card  `json:"cpu_active,omitempty"`

	WarPile       []Stake `json:"war_pile"`
	WarInProgress bool    `json:"war_in_progress"`

	PlayerNukeAvailable bool `json:"player_nuke_available"`
	CPUNukeAvailable    bool `json:"cpu_nuke_available"`

	GameOver  bool      `json:"game_over"`
	Winner    Side      `json:"winner"` // SideNone on a tie
	EndReason EndReason `json:"end_reason"`

	// LastGainer is the side that most recently received cards; repair
	// trims from or tops up this side.
	LastGainer Side `json:"last_gainer"`
	Rounds     int  `json:"rounds"`
}

// Clone returns a deep copy of s.
func (s GameState) Clone() GameState {
	out := s
	out.PlayerHand = append([]Card(nil), s.PlayerHand...)
	out.CPUHand = append([]Card(nil), s.CPUHand...)
	out.WarPile = append([]Stake(nil), s.WarPile...)
	if s.PlayerActive != nil {
		c := *s.PlayerActive
		out.PlayerActive = &c
	}
	if s.CPUActive != nil {
		c := *s.CPUActive
		out.CPUActive = &c
	}
	return out
}

// Hand returns the hand for side.
func (s *GameState) Hand(side Side) []Card {
	if side == SideCPU {
		return s.CPUHand
	}
	return s.PlayerHand
}

func (s *GameState) setHand(side Side, cards []Card) {
	if side == SideCPU {
		s.CPUHand = cards
		return
	}
	s.PlayerHand = cards
}

// NukeAvailable reports whether side still holds its Nuke.
func (s *GameState) NukeAvailable(side Side) bool {
	if side == SideCPU {
		return s.CPUNukeAvailable
	}
	return s.PlayerNukeAvailable
}

func (s *GameState) spendNuke(side Side) {
	if side == SideCPU {
		s.CPUNukeAvailable = false
		return
	}
	s.PlayerNukeAvailable = false
}

// give appends cards to the back of side's hand.
func (s *GameState) give(side Side, cards ...Card) {
	if len(cards) == 0 {
		return
	}
	s.setHand(side, append(s.Hand(side), cards...))
	s.LastGainer = side
}

// take removes n cards from the front of side's hand.
func (s *GameState) take(side Side, n int) []Card {
	hand := s.Hand(side)
	taken := append([]Card(nil), hand[:n]...)
	s.setHand(side, hand[n:])
	return taken
}

// hasActive reports whether any card is face-up.
func (s *GameState) hasActive() bool {
	return s.PlayerActive != nil || s.CPUActive != nil
}

// returnInFlight sends active cards and war stakes back to their owners.
func (s *GameState) returnInFlight() {
	if s.PlayerActive != nil {
		s.give(SidePlayer, *s.PlayerActive)
		s.PlayerActive = nil
	}
	if s.CPUActive != nil {
		s.give(SideCPU, *s.CPUActive)
		s.CPUActive = nil
	}
	for _, st := range s.WarPile {
		owner := st.Owner
		if owner == SideNone {
			owner = SidePlayer
		}
		s.give(owner, st.Card)
	}
	s.WarPile = nil
	s.WarInProgress = false
}

func (s *GameState) finish(winner Side, reason EndReason) {
	s.GameOver = true
	s.Winner = winner
	s.EndReason = reason
}
