package bot

import (
	"math/rand"

	"nukewar/internal/domain"
)

// View is what the CPU is allowed to see before a draw: counts only, never
// the order of either hand.
type View struct {
	Rounds        int
	PlayerCards   int
	CPUCards      int
	NukeAvailable bool
	WarInProgress bool
}

// ViewOf builds the CPU's view of a game state.
func ViewOf(state domain.GameState) View {
	counts := domain.Counts(state)
	return View{
		Rounds:        state.Rounds,
		PlayerCards:   counts.Player,
		CPUCards:      counts.CPU,
		NukeAvailable: state.CPUNukeAvailable,
		WarInProgress: state.WarInProgress,
	}
}

// Brain is the interface the CPU strategy implements.
type Brain interface {
	// ShouldNuke reports whether the CPU fires its Nuke before the next draw.
	ShouldNuke(view View, rng *rand.Rand) bool
}
