package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestCheckInvariant(t *testing.T) {
	if err := CheckInvariant(newState(nil, nil, HandSize)); err != nil {
		t.Fatalf("valid state: %v", err)
	}

	short := newState(nil, nil, HandSize)
	short.CPUHand = short.CPUHand[1:]
	err := CheckInvariant(short)
	var invErr *InvariantError
	if !errors.As(err, &invErr) {
		t.Fatalf("err = %v, want *InvariantError", err)
	}
	if invErr.Total != DeckSize-1 {
		t.Fatalf("total = %d, want %d", invErr.Total, DeckSize-1)
	}
}

func TestRepairNormalizesMalformedStates(t *testing.T) {
	tests := []struct {
		name        string
		playerLen   int
		cpuLen      int
		gainer      Side
		wantTrimmed int
		wantAdded   int
		wantPlayer  int
		wantCPU     int
	}{
		{"51 cards topped up on gainer", 26, 25, SideCPU, 0, 1, 26, 26},
		{"53 cards trimmed from gainer", 27, 26, SidePlayer, 1, 0, 26, 26},
		{"no gainer defaults to player", 20, 20, SideNone, 0, 12, 32, 20},
		{"excess spills into other hand", 2, 60, SidePlayer, 10, 0, 0, 52},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := GameState{
				PlayerHand: padTo(nil, tt.playerLen),
				CPUHand:    padTo(nil, tt.cpuLen),
				LastGainer: tt.gainer,
			}
			fixed, report := Repair(state)
			if report == nil {
				t.Fatal("expected a repair report")
			}
			if report.Trimmed != tt.wantTrimmed || report.Injected != tt.wantAdded {
				t.Fatalf("report = %+v, want trimmed %d injected %d", report, tt.wantTrimmed, tt.wantAdded)
			}
			if report.After != DeckSize || TotalCards(fixed) != DeckSize {
				t.Fatalf("total after repair = %d", TotalCards(fixed))
			}
			if len(fixed.PlayerHand) != tt.wantPlayer || len(fixed.CPUHand) != tt.wantCPU {
				t.Fatalf("hands = %d/%d, want %d/%d", len(fixed.PlayerHand), len(fixed.CPUHand), tt.wantPlayer, tt.wantCPU)
			}

			again, second := Repair(fixed)
			if second != nil {
				t.Fatalf("second repair produced report %+v", second)
			}
			if !reflect.DeepEqual(again, fixed) {
				t.Fatal("repairing a valid state changed it")
			}
		})
	}
}

func TestRepairInjectsPlaceholders(t *testing.T) {
	state := GameState{
		PlayerHand: padTo(nil, 26),
		CPUHand:    padTo(nil, 24),
		LastGainer: SideCPU,
	}
	fixed, _ := Repair(state)
	tail := fixed.CPUHand[24:]
	for _, c := range tail {
		if !c.IsPlaceholder() || c.Rank != PlaceholderRank {
			t.Fatalf("injected card = %+v, want placeholder", c)
		}
	}
}

func TestResolveRoundRepairsDrift(t *testing.T) {
	// A 51-card state is topped up during the next round and reported.
	state := GameState{
		PlayerHand: padTo(ranks(RankAce), 26),
		CPUHand:    padTo(ranks(3), 25),
	}
	next, res, err := ResolveRound(state, DefaultRules())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Repair == nil || res.Repair.Before != DeckSize-1 || res.Repair.Injected != 1 {
		t.Fatalf("repair report = %+v", res.Repair)
	}
	if res.Repair.Side != SidePlayer {
		t.Fatalf("repair side = %s, want the round winner", res.Repair.Side)
	}
	if err := CheckInvariant(next); err != nil {
		t.Fatal(err)
	}
}
