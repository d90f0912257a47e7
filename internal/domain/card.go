package domain

import "strconv"

// Suit is one of the four French suits. SuitNone marks placeholder cards.
type Suit string

const (
	SuitSpades   Suit = "♠"
	SuitHearts   Suit = "♥"
	SuitDiamonds Suit = "♦"
	SuitClubs    Suit = "♣"
	SuitNone     Suit = ""
)

// Suits lists the suits in deck generation order.
var Suits = [4]Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

const (
	RankTwo   = 2
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13
	RankAce   = 14

	// PlaceholderRank is the rank given to cards injected by invariant repair.
	PlaceholderRank = 7
)

// Card is an immutable playing card. Only Rank takes part in comparisons.
type Card struct {
	Rank    int    `json:"rank"`
	Suit    Suit   `json:"suit"`
	Display string `json:"display"`
}

// NewCard builds a card with its display label derived from rank.
func NewCard(rank int, suit Suit) Card {
	return Card{Rank: rank, Suit: suit, Display: RankLabel(rank)}
}

// PlaceholderCard is the neutral card used to fill a short deck.
func PlaceholderCard() Card {
	return NewCard(PlaceholderRank, SuitNone)
}

// IsPlaceholder reports whether the card was injected by repair.
func (c Card) IsPlaceholder() bool {
	return c.Suit == SuitNone
}

// Beats reports whether c outranks other. Suits never break ties.
func (c Card) Beats(other Card) bool {
	return c.Rank > other.Rank
}

// Ties reports whether both cards share a rank.
func (c Card) Ties(other Card) bool {
	return c.Rank == other.Rank
}

func (c Card) String() string {
	return c.Display + string(c.Suit)
}

// RankLabel returns "2".."10","J","Q","K","A".
func RankLabel(rank int) string {
	switch rank {
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	case RankAce:
		return "A"
	default:
		return strconv.Itoa(rank)
	}
}
