package domain

// ResolveRound advances the game by one draw. Each side draws from the front
// of its hand; the higher rank takes both cards plus the war pile. A tie
// stakes WarStake cards per side and returns WarContinues, leaving the
// decisive draw to the next call.
//
// The input state is never modified. On a precondition failure the input is
// returned unchanged together with the error.
func ResolveRound(state GameState, rules Rules) (GameState, RoundResult, error) {
	if state.GameOver {
		return state, RoundResult{}, ErrGameOver
	}
	if state.hasActive() {
		return state, RoundResult{}, ErrCardsInPlay
	}
	rules = rules.normalized()
	s := state.Clone()
	res := RoundResult{}

	if len(s.PlayerHand) == 0 || len(s.CPUHand) == 0 {
		if s.WarInProgress {
			starveWar(&s, &res)
		} else {
			checkTermination(&s, rules)
		}
		return s, finishResult(&s, res), nil
	}

	s.Rounds++
	p := s.take(SidePlayer, 1)[0]
	c := s.take(SideCPU, 1)[0]
	s.PlayerActive, s.CPUActive = &p, &c
	res.PlayerCard, res.CPUCard = cardRef(p), cardRef(c)

	switch {
	case p.Beats(c):
		awardContested(&s, SidePlayer, &res)
	case c.Beats(p):
		awardContested(&s, SideCPU, &res)
	default:
		declareWar(&s, rules, &res)
	}

	checkTermination(&s, rules)
	return s, finishResult(&s, res), nil
}

// awardContested routes the war pile and both active cards to winner.
func awardContested(s *GameState, winner Side, res *RoundResult) {
	won := make([]Card, 0, len(s.WarPile)+2)
	for _, st := range s.WarPile {
		won = append(won, st.Card)
	}
	if s.PlayerActive != nil {
		won = append(won, *s.PlayerActive)
	}
	if s.CPUActive != nil {
		won = append(won, *s.CPUActive)
	}
	s.PlayerActive, s.CPUActive = nil, nil
	s.WarPile = nil
	s.WarInProgress = false
	s.give(winner, won...)

	res.Code = WinCode(winner)
	res.RoundWinner = winner
	res.CardsWon = len(won)
}

// declareWar commits both active cards and WarStake cards per side to the
// pile, or ends the game when either side cannot cover the stake.
func declareWar(s *GameState, rules Rules, res *RoundResult) {
	stake := rules.WarStake
	if len(s.PlayerHand) < stake || len(s.CPUHand) < stake {
		starveWar(s, res)
		return
	}

	s.WarPile = append(s.WarPile,
		Stake{Card: *s.PlayerActive, Owner: SidePlayer},
		Stake{Card: *s.CPUActive, Owner: SideCPU},
	)
	s.PlayerActive, s.CPUActive = nil, nil
	for _, c := range s.take(SidePlayer, stake) {
		s.WarPile = append(s.WarPile, Stake{Card: c, Owner: SidePlayer})
	}
	for _, c := range s.take(SideCPU, stake) {
		s.WarPile = append(s.WarPile, Stake{Card: c, Owner: SideCPU})
	}
	s.WarInProgress = true

	res.Code = WarContinues
	res.WarDepth = len(s.WarPile) / (2 * (stake + 1))
}

// starveWar ends a War that cannot be staked or drawn. The side holding
// strictly more cards (hand plus active) wins the game and the contested
// cards; equal holdings tie and each side takes back its own contribution.
func starveWar(s *GameState, res *RoundResult) {
	player, cpu := len(s.PlayerHand), len(s.CPUHand)
	if s.PlayerActive != nil {
		player++
	}
	if s.CPUActive != nil {
		cpu++
	}
	switch {
	case player > cpu:
		awardContested(s, SidePlayer, res)
		s.finish(SidePlayer, EndWarStarvation)
	case cpu > player:
		awardContested(s, SideCPU, res)
		s.finish(SideCPU, EndWarStarvation)
	default:
		s.returnInFlight()
		s.finish(SideNone, EndWarStarvation)
		res.Code = Tie
	}
}

// checkTermination applies the end-of-round rules in order: an empty hand
// loses, then a hand at or below LowCardThreshold loses. A pending War defers
// both checks to the next draw. Cards still in flight when the game ends go
// to the winner, or home on a tie.
func checkTermination(s *GameState, rules Rules) {
	if s.GameOver || s.WarInProgress {
		return
	}
	player, cpu := len(s.PlayerHand), len(s.CPUHand)
	threshold := rules.LowCardThreshold
	switch {
	case player == 0 && cpu == 0:
		s.finish(SideNone, EndHandEmpty)
	case player == 0:
		s.finish(SideCPU, EndHandEmpty)
	case cpu == 0:
		s.finish(SidePlayer, EndHandEmpty)
	case threshold == 0:
		return
	case player <= threshold:
		s.finish(SideCPU, EndLowCards)
	case cpu <= threshold:
		s.finish(SidePlayer, EndLowCards)
	default:
		return
	}
	settleInFlight(s)
}

func settleInFlight(s *GameState) {
	if !s.hasActive() && len(s.WarPile) == 0 {
		return
	}
	if s.Winner == SideNone {
		s.returnInFlight()
		return
	}
	var discard RoundResult
	awardContested(s, s.Winner, &discard)
}

// finishResult copies terminal fields into res and verifies the card count.
func finishResult(s *GameState, res RoundResult) RoundResult {
	res.Repair = ensureInvariant(s)
	res.GameOver = s.GameOver
	res.Winner = s.Winner
	res.Reason = s.EndReason
	if s.GameOver && (res.Code == "" || res.Code == WarContinues) {
		res.Code = WinCode(s.Winner)
	}
	return res
}

func cardRef(c Card) *Card {
	return &c
}
