package domain

import "math/rand"

const (
	// DeckSize is the number of cards that must stay in circulation.
	DeckSize = 52
	// HandSize is the size of each side's opening hand.
	HandSize = DeckSize / 2
)

// NewDeck returns the 52-card deck in fixed generation order: suits in
// Suits order, ranks 2 through Ace within each suit.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := RankTwo; r <= RankAce; r++ {
			deck = append(deck, NewCard(r, s))
		}
	}
	return deck
}

// Shuffle permutes deck in place with an unbiased Fisher-Yates shuffle.
func Shuffle(deck []Card, rng *rand.Rand) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// BuildDeck returns a freshly shuffled deck.
func BuildDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	Shuffle(deck, rng)
	return deck
}

// InitializeGame shuffles a fresh deck and deals the first half to the
// player and the second half to the CPU, in deck order.
func InitializeGame(rng *rand.Rand) GameState {
	return Deal(BuildDeck(rng))
}

// Deal splits an already ordered deck into a new game state.
func Deal(deck []Card) GameState {
	half := len(deck) / 2
	return GameState{
		PlayerHand:          append([]Card(nil), deck[:half]...),
		CPUHand:             append([]Card(nil), deck[half:]...),
		PlayerNukeAvailable: true,
		CPUNukeAvailable:    true,
	}
}
