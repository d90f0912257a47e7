package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"nukewar/internal/bot"
	"nukewar/internal/domain"
	"nukewar/internal/ports"
)

var (
	ErrNoMatch      = errors.New("no active match")
	ErrMatchOver    = errors.New("match already over")
	ErrMatchRunning = errors.New("match still running")
	ErrNukeUsed     = errors.New("nuke already used")
	ErrNoPlayer     = errors.New("player id is required")
)

// Match is one human-vs-CPU game and the bookkeeping around it.
type Match struct {
	ID        string
	PlayerID  string
	State     domain.GameState
	StartedAt time.Time
	EndedAt   time.Time
}

// Service contains Nuke War use-cases operating on domain state.
type Service struct {
	rng               *rand.Rand
	rules             domain.Rules
	cpu               *bot.Agent
	now               func() time.Time
	recordTimeoutTies bool
}

// Option customizes a Service.
type Option func(*Service)

// WithRules overrides the engine rules.
func WithRules(rules domain.Rules) Option {
	return func(s *Service) { s.rules = rules }
}

// WithCPU replaces the CPU agent. A nil agent never fires its Nuke.
func WithCPU(agent *bot.Agent) Option {
	return func(s *Service) { s.cpu = agent }
}

// WithClock sets the time source used for match timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTimeoutTies controls whether a timed-out match with even card counts
// is persisted as a tie (true) or dropped (false).
func WithTimeoutTies(record bool) Option {
	return func(s *Service) { s.recordTimeoutTies = record }
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand, opts ...Option) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Service{
		rng:               rng,
		rules:             domain.DefaultRules(),
		cpu:               bot.NewAgent(nil),
		now:               time.Now,
		recordTimeoutTies: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the rules the service plays by.
func (s *Service) Rules() domain.Rules {
	return s.rules
}

// StartMatch deals a fresh game for playerID. An empty matchID gets a new uuid.
func (s *Service) StartMatch(matchID, playerID string) (*Match, []Event, error) {
	if playerID == "" {
		return nil, nil, ErrNoPlayer
	}
	if matchID == "" {
		matchID = uuid.NewString()
	}
	m := &Match{
		ID:        matchID,
		PlayerID:  playerID,
		State:     domain.InitializeGame(s.rng),
		StartedAt: s.now(),
	}
	events := []Event{{
		Kind: EventMatchStarted,
		Payload: MatchStartedPayload{
			MatchID:  m.ID,
			PlayerID: playerID,
			Counts:   domain.Counts(m.State),
		},
	}}
	return m, events, nil
}

// Draw plays one round for the human player. The CPU may fire its Nuke
// first; if that ends the game no round is drawn.
func (s *Service) Draw(m *Match) ([]Event, error) {
	if m == nil {
		return nil, ErrNoMatch
	}
	if m.State.GameOver {
		return nil, ErrMatchOver
	}

	var events []Event
	if s.cpu != nil && s.cpu.WantsNuke(m.State, s.rng) {
		nukeEvents, err := s.nuke(m, domain.SideCPU)
		if err != nil {
			return nil, err
		}
		events = append(events, nukeEvents...)
		if m.State.GameOver {
			return events, nil
		}
	}

	next, res, err := domain.ResolveRound(m.State, s.rules)
	if err != nil {
		return events, fmt.Errorf("resolve round: %w", err)
	}
	m.State = next

	events = append(events, Event{
		Kind:    EventRoundResolved,
		Payload: RoundResolvedPayload{Result: res, Counts: domain.Counts(next)},
	})
	if res.Code == domain.WarContinues {
		events = append(events, Event{
			Kind:    EventWarDeclared,
			Payload: WarDeclaredPayload{Depth: res.WarDepth, PileSize: len(next.WarPile)},
		})
	}
	if res.Repair != nil {
		events = append(events, repairedEvent(res.Repair))
	}
	if res.GameOver {
		events = append(events, s.end(m))
	}
	return events, nil
}

// Nuke fires the human player's Nuke.
func (s *Service) Nuke(m *Match) ([]Event, error) {
	if m == nil {
		return nil, ErrNoMatch
	}
	if m.State.GameOver {
		return nil, ErrMatchOver
	}
	if !m.State.PlayerNukeAvailable {
		return nil, ErrNukeUsed
	}
	return s.nuke(m, domain.SidePlayer)
}

func (s *Service) nuke(m *Match, side domain.Side) ([]Event, error) {
	next, res, err := domain.ActivateNuke(m.State, side, s.rules)
	if err != nil {
		return nil, fmt.Errorf("activate nuke: %w", err)
	}
	if res.Code == domain.NukeUnavailable {
		return nil, ErrNukeUsed
	}
	m.State = next

	events := []Event{{
		Kind:    EventNukeLaunched,
		Payload: NukeLaunchedPayload{Result: res, Counts: domain.Counts(next)},
	}}
	if res.Repair != nil {
		events = append(events, repairedEvent(res.Repair))
	}
	if res.GameOver {
		events = append(events, s.end(m))
	}
	return events, nil
}

// Timeout ends a running match because its timer ran out. The side with
// more cards wins; even counts tie.
func (s *Service) Timeout(m *Match) ([]Event, error) {
	if m == nil {
		return nil, ErrNoMatch
	}
	if m.State.GameOver {
		return nil, ErrMatchOver
	}
	next, res, err := domain.ForceEnd(m.State, domain.EndTimeout)
	if err != nil {
		return nil, fmt.Errorf("force end: %w", err)
	}
	m.State = next

	var events []Event
	if res.Repair != nil {
		events = append(events, repairedEvent(res.Repair))
	}
	return append(events, s.end(m)), nil
}

// Outcome builds the persistence record of a finished match. record is false
// for matches that should not be stored.
func (s *Service) Outcome(m *Match) (outcome ports.Outcome, record bool, err error) {
	if m == nil {
		return ports.Outcome{}, false, ErrNoMatch
	}
	if !m.State.GameOver {
		return ports.Outcome{}, false, ErrMatchRunning
	}

	counts := domain.Counts(m.State)
	outcome = ports.Outcome{
		MatchID:     m.ID,
		PlayerID:    m.PlayerID,
		Result:      resultFor(m.State.Winner),
		Reason:      string(m.State.EndReason),
		Rounds:      m.State.Rounds,
		PlayerCards: counts.Player,
		CPUCards:    counts.CPU,
		EndedAt:     m.EndedAt,
	}
	record = true
	if m.State.EndReason == domain.EndTimeout && outcome.Result == ports.ResultTie {
		record = s.recordTimeoutTies
	}
	return outcome, record, nil
}

func (s *Service) end(m *Match) Event {
	m.EndedAt = s.now()
	outcome, record, _ := s.Outcome(m)
	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			Winner:  m.State.Winner,
			Reason:  m.State.EndReason,
			Counts:  domain.Counts(m.State),
			Outcome: outcome,
			Record:  record,
		},
	}
}

func repairedEvent(report *domain.RepairReport) Event {
	return Event{Kind: EventInvariantRepaired, Payload: InvariantRepairedPayload{Report: *report}}
}

func resultFor(winner domain.Side) ports.Result {
	switch winner {
	case domain.SidePlayer:
		return ports.ResultWin
	case domain.SideCPU:
		return ports.ResultLoss
	default:
		return ports.ResultTie
	}
}
