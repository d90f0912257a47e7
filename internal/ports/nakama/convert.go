package nakama

import (
	"fmt"

	"nukewar/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodePayload renders fields as a JSON object through structpb so every
// message and label shares one encoder.
func encodePayload(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}
	b, err := protojson.MarshalOptions{EmitUnpopulated: true}.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return b, nil
}

// decodePayload parses an optional client JSON object. Empty input yields an
// empty map.
func decodePayload(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}

func cardValue(c *domain.Card) interface{} {
	if c == nil {
		return nil
	}
	return map[string]interface{}{
		"rank":    c.Rank,
		"suit":    string(c.Suit),
		"display": c.Display,
	}
}

func countsValue(c domain.CardCounts) map[string]interface{} {
	return map[string]interface{}{
		"player": c.Player,
		"cpu":    c.CPU,
	}
}

func repairValue(r *domain.RepairReport) interface{} {
	if r == nil {
		return nil
	}
	return map[string]interface{}{
		"before":   r.Before,
		"after":    r.After,
		"side":     string(r.Side),
		"trimmed":  r.Trimmed,
		"injected": r.Injected,
	}
}

// statePayload is the snapshot sent on join and after every new game. Hand
// contents stay hidden; only sizes and flags are public.
func statePayload(state *MatchState) map[string]interface{} {
	out := map[string]interface{}{
		"phase":        state.phase(),
		"player_id":    state.PlayerID,
		"cpu_name":     state.CPUName,
		"seconds_left": state.secondsLeft(),
	}
	if state.Match == nil {
		return out
	}
	g := state.Match.State
	out["match_id"] = state.Match.ID
	out["counts"] = countsValue(domain.Counts(g))
	out["player_hand"] = len(g.PlayerHand)
	out["cpu_hand"] = len(g.CPUHand)
	out["war_pile"] = len(g.WarPile)
	out["war_in_progress"] = g.WarInProgress
	out["player_nuke"] = g.PlayerNukeAvailable
	out["cpu_nuke"] = g.CPUNukeAvailable
	out["rounds"] = g.Rounds
	out["game_over"] = g.GameOver
	out["winner"] = string(g.Winner)
	out["reason"] = string(g.EndReason)
	return out
}

func roundPayload(res domain.RoundResult, counts domain.CardCounts) map[string]interface{} {
	return map[string]interface{}{
		"code":         string(res.Code),
		"round_winner": string(res.RoundWinner),
		"player_card":  cardValue(res.PlayerCard),
		"cpu_card":     cardValue(res.CPUCard),
		"cards_won":    res.CardsWon,
		"war_depth":    res.WarDepth,
		"game_over":    res.GameOver,
		"counts":       countsValue(counts),
		"repair":       repairValue(res.Repair),
	}
}

func warPayload(depth, pileSize int) map[string]interface{} {
	return map[string]interface{}{
		"depth":     depth,
		"pile_size": pileSize,
	}
}

func nukePayload(res domain.NukeResult, counts domain.CardCounts) map[string]interface{} {
	return map[string]interface{}{
		"code":      string(res.Code),
		"actor":     string(res.Actor),
		"stolen":    res.Stolen,
		"returned":  res.Returned,
		"game_over": res.GameOver,
		"counts":    countsValue(counts),
		"repair":    repairValue(res.Repair),
	}
}

func gameOverPayload(winner domain.Side, reason domain.EndReason, counts domain.CardCounts, result string) map[string]interface{} {
	return map[string]interface{}{
		"winner": string(winner),
		"reason": string(reason),
		"result": result,
		"counts": countsValue(counts),
	}
}

func errorPayload(code int, message string) map[string]interface{} {
	return map[string]interface{}{
		"code":    code,
		"message": message,
	}
}

func labelPayload(open bool, phase string) map[string]interface{} {
	return map[string]interface{}{
		"game":  labelGame,
		"open":  open,
		"phase": phase,
	}
}
