package domain

// Rules holds the tunable constants of the engine.
type Rules struct {
	// WarStake is the number of face-down cards each side adds per War.
	WarStake int
	// NukeSteal is the number of cards a Nuke takes from the back of the
	// opponent's hand. An opponent holding fewer loses outright.
	NukeSteal int
	// LowCardThreshold ends the game outside a War once a hand holds this
	// many cards or fewer. Zero disables the check.
	LowCardThreshold int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		WarStake:         3,
		NukeSteal:        10,
		LowCardThreshold: 3,
	}
}

func (r Rules) normalized() Rules {
	d := DefaultRules()
	if r.WarStake <= 0 {
		r.WarStake = d.WarStake
	}
	if r.NukeSteal <= 0 {
		r.NukeSteal = d.NukeSteal
	}
	if r.LowCardThreshold < 0 {
		r.LowCardThreshold = 0
	}
	return r
}
