package bot

import "math/rand"

const (
	// DefaultNukeChance is the per-draw probability that the CPU fires.
	DefaultNukeChance = 0.10
	// DefaultNukeMinPlayerCards keeps the CPU from firing at a player who
	// could not survive the steal.
	DefaultNukeMinPlayerCards = 10
)

// RandomNuker fires the CPU Nuke with a fixed chance per draw once the
// opening draw is done and the player holds enough cards.
type RandomNuker struct {
	Chance         float64
	MinPlayerCards int
}

// NewBrain returns the built-in CPU strategy. A non-positive chance never
// fires.
func NewBrain(chance float64) Brain {
	if chance < 0 {
		chance = 0
	}
	return &RandomNuker{Chance: chance, MinPlayerCards: DefaultNukeMinPlayerCards}
}

func (b *RandomNuker) ShouldNuke(view View, rng *rand.Rand) bool {
	if !view.NukeAvailable || view.Rounds == 0 {
		return false
	}
	if view.PlayerCards < b.MinPlayerCards {
		return false
	}
	if b.Chance <= 0 {
		return false
	}
	return rng.Float64() < b.Chance
}
