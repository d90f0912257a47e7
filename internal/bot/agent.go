package bot

import (
	"math/rand"

	"nukewar/internal/domain"
)

// Agent is the CPU opponent seated in a match.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// NewAgent builds the CPU agent from the loaded identity and the given brain.
// A nil brain fires with DefaultNukeChance.
func NewAgent(brain Brain) *Agent {
	id := CPU()
	if brain == nil {
		brain = NewBrain(DefaultNukeChance)
	}
	return &Agent{ID: id.UserID, Name: id.DisplayName, Strategy: brain}
}

// WantsNuke asks the strategy whether to fire before the next draw.
func (a *Agent) WantsNuke(state domain.GameState, rng *rand.Rand) bool {
	if state.GameOver || !state.CPUNukeAvailable {
		return false
	}
	return a.Strategy.ShouldNuke(ViewOf(state), rng)
}
