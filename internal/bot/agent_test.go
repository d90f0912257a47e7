package bot

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"nukewar/internal/domain"
)

type alwaysNuke struct{}

func (alwaysNuke) ShouldNuke(View, *rand.Rand) bool { return true }

func TestRandomNukerGates(t *testing.T) {
	brain := &RandomNuker{Chance: 1, MinPlayerCards: DefaultNukeMinPlayerCards}
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name string
		view View
		want bool
	}{
		{"first draw", View{Rounds: 0, PlayerCards: 26, NukeAvailable: true}, false},
		{"spent", View{Rounds: 5, PlayerCards: 26, NukeAvailable: false}, false},
		{"player too short", View{Rounds: 5, PlayerCards: 9, NukeAvailable: true}, false},
		{"eligible", View{Rounds: 5, PlayerCards: 10, NukeAvailable: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := brain.ShouldNuke(tt.view, rng); got != tt.want {
				t.Fatalf("ShouldNuke = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRandomNukerChance(t *testing.T) {
	brain := NewBrain(DefaultNukeChance)
	rng := rand.New(rand.NewSource(42))
	view := View{Rounds: 3, PlayerCards: 26, NukeAvailable: true}

	fired := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		if brain.ShouldNuke(view, rng) {
			fired++
		}
	}
	if fired < trials*8/100 || fired > trials*12/100 {
		t.Fatalf("fired %d/%d times, want about %.0f%%", fired, trials, DefaultNukeChance*100)
	}
}

func TestZeroChanceNeverFires(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	view := View{Rounds: 3, PlayerCards: 26, NukeAvailable: true}

	for _, chance := range []float64{0, -0.5} {
		brain := NewBrain(chance)
		for i := 0; i < 1000; i++ {
			if brain.ShouldNuke(view, rng) {
				t.Fatalf("NewBrain(%v) fired", chance)
			}
		}
	}
}

func TestAgentWantsNuke(t *testing.T) {
	agent := NewAgent(alwaysNuke{})
	rng := rand.New(rand.NewSource(1))

	state := domain.InitializeGame(rng)
	state.Rounds = 2
	if !agent.WantsNuke(state, rng) {
		t.Fatal("agent should follow its brain")
	}

	state.CPUNukeAvailable = false
	if agent.WantsNuke(state, rng) {
		t.Fatal("agent must not fire a spent nuke")
	}

	state.CPUNukeAvailable = true
	state.GameOver = true
	if agent.WantsNuke(state, rng) {
		t.Fatal("agent must not fire after game over")
	}
}

func TestViewOfHidesHandOrder(t *testing.T) {
	state := domain.InitializeGame(rand.New(rand.NewSource(9)))
	state.Rounds = 4
	view := ViewOf(state)
	if view.PlayerCards != domain.HandSize || view.CPUCards != domain.HandSize {
		t.Fatalf("view counts = %d/%d", view.PlayerCards, view.CPUCards)
	}
	if view.Rounds != 4 || !view.NukeAvailable {
		t.Fatalf("view = %+v", view)
	}
}

func TestLoadIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu_identity.json")
	if err := os.WriteFile(path, []byte(`{"user_id":"cpu-1","username":"warbot"}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := LoadIdentity(path); err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	id := CPU()
	if id.UserID != "cpu-1" || id.DisplayName != "warbot" {
		t.Fatalf("identity = %+v", id)
	}
	if !IsBot("cpu-1") || IsBot("someone") || IsBot("") {
		t.Fatal("IsBot should match only the cpu id")
	}
	if agent := NewAgent(nil); agent.ID != "cpu-1" || agent.Strategy == nil {
		t.Fatalf("agent = %+v", agent)
	}
}

func TestParseIdentityDefaults(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Identity
	}{
		{"display name from username", `{"user_id":"cpu-1","username":"warbot"}`, Identity{UserID: "cpu-1", Username: "warbot", DisplayName: "warbot"}},
		{"explicit display name", `{"user_id":"cpu-1","username":"warbot","display_name":"General CPU","avatar_index":3}`, Identity{UserID: "cpu-1", Username: "warbot", DisplayName: "General CPU", AvatarIndex: 3}},
		{"empty object", `{}`, Identity{UserID: "cpu", Username: "cpu", DisplayName: "cpu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIdentity([]byte(tt.data))
			if err != nil {
				t.Fatalf("parseIdentity: %v", err)
			}
			if got != tt.want {
				t.Fatalf("identity = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := parseIdentity([]byte(`{bad`)); err == nil {
		t.Fatal("expected error for malformed json")
	}
}
