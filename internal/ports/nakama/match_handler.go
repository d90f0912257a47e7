package nakama

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nukewar/internal/app"
	"nukewar/internal/app/results"
	"nukewar/internal/bot"
	"nukewar/internal/config"
	"nukewar/internal/domain"
	"nukewar/internal/identity"
	"nukewar/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	tickRate = 1 // ticks per second

	// emptyGraceSeconds is how long a match survives without its player,
	// both before the first join and after a disconnect.
	emptyGraceSeconds = 30

	cpuIdentityPath = "data/cpu_identity.json"
)

// outcomeRecorder persists finished matches. *results.Recorder satisfies it.
type outcomeRecorder interface {
	Record(ctx context.Context, outcome ports.Outcome) error
}

// MatchState holds the authoritative runtime state for the Nakama match handler.
// A match seats exactly one human against the CPU.
type MatchState struct {
	PlayerUserID string           `json:"player_user_id"` // Nakama user id of the seated human
	PlayerID     string           `json:"player_id"`      // fid from the host token, or PlayerUserID
	Username     string           `json:"username"`
	CPUName      string           `json:"cpu_name"`
	Presence     runtime.Presence `json:"-"` // nil while the player is disconnected
	Tick         int64            `json:"tick"`
	TickRate     int              `json:"tick_rate"`
	DeadlineTick int64            `json:"deadline_tick"` // 0 when the game timer is off
	EmptySince   int64            `json:"empty_since"`   // tick the seat last became empty
	Games        int              `json:"games"`
	Label        string           `json:"label"`

	App      *app.Service       `json:"-"`
	Match    *app.Match         `json:"-"` // current game, nil before the first join
	Config   config.GameConfig  `json:"-"`
	Recorder outcomeRecorder    `json:"-"`
	Verifier *identity.Verifier `json:"-"`

	pendingFIDs map[string]string
}

func newMatchState(cfg config.GameConfig, sink ports.OutcomeSink, logger runtime.Logger) *MatchState {
	rules := domain.DefaultRules()
	rules.LowCardThreshold = cfg.LowCardThreshold

	var cpu *bot.Agent
	if cfg.CPUNukeChance > 0 {
		cpu = bot.NewAgent(bot.NewBrain(cfg.CPUNukeChance))
	}

	outcomeTimeout := cfg.OutcomeTimeoutSeconds
	if outcomeTimeout <= 0 {
		outcomeTimeout = app.DefaultOutcomeTimeoutSeconds
	}

	return &MatchState{
		CPUName:  bot.CPU().DisplayName,
		TickRate: tickRate,
		App: app.NewService(nil,
			app.WithRules(rules),
			app.WithCPU(cpu),
			app.WithTimeoutTies(cfg.RecordTimeoutTies),
		),
		Config:      cfg,
		Recorder:    results.NewRecorder(sink, logger, results.WithTimeout(time.Duration(outcomeTimeout)*time.Second)),
		Verifier:    identity.NewVerifier(cfg.HostTokenSecret),
		pendingFIDs: make(map[string]string),
	}
}

func (ms *MatchState) phase() string {
	switch {
	case ms.Match == nil:
		return PhaseLobby
	case ms.Match.State.GameOver:
		return PhaseFinished
	default:
		return PhasePlaying
	}
}

func (ms *MatchState) secondsLeft() int64 {
	if ms.DeadlineTick == 0 || ms.Match == nil || ms.Match.State.GameOver {
		return 0
	}
	left := (ms.DeadlineTick - ms.Tick) / int64(ms.TickRate)
	if left < 0 {
		return 0
	}
	return left
}

func (ms *MatchState) label() (string, error) {
	b, err := encodePayload(labelPayload(ms.PlayerUserID == "", ms.phase()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentity(cpuIdentityPath); err != nil {
		logger.Warn("MatchInit: Could not load cpu identity: %v", err)
	}
	if err := config.LoadGameConfig(config.DefaultPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	cfg := config.GetGameConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		var errs []error
		cfg, errs = cfg.WithEnv(env)
		for _, err := range errs {
			logger.Warn("MatchInit: Ignoring env override: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("MatchInit: Invalid config, using defaults: %v", err)
		cfg = config.Default()
	}

	state := newMatchState(cfg, NewNakamaResultsAdapter(nk, nk), logger)
	label, err := state.label()
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	state.Label = label

	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	if matchState.PlayerUserID != "" && matchState.PlayerUserID != userID {
		return state, false, "Match full"
	}

	fid := userID
	if token := metadata[joinTokenField]; token != "" {
		if !matchState.Verifier.Enabled() {
			logger.Warn("MatchJoinAttempt: Host token from %s ignored, no secret configured.", userID)
		} else {
			verified, err := matchState.Verifier.Verify(token)
			if err != nil {
				logger.Warn("MatchJoinAttempt: Rejecting %s: %v", userID, err)
				return state, false, "invalid host token"
			}
			fid = verified
		}
	}
	matchState.pendingFIDs[userID] = fid

	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	matchState.Tick = tick

	for _, p := range presences {
		userID := p.GetUserId()
		if matchState.PlayerUserID != "" && matchState.PlayerUserID != userID {
			logger.Warn("MatchJoin: User %s joined but the seat belongs to %s.", userID, matchState.PlayerUserID)
			continue
		}
		matchState.PlayerUserID = userID
		matchState.Username = p.GetUsername()
		matchState.Presence = p
		if fid, ok := matchState.pendingFIDs[userID]; ok {
			matchState.PlayerID = fid
			delete(matchState.pendingFIDs, userID)
		}
		if matchState.PlayerID == "" {
			matchState.PlayerID = userID
		}
		logger.Info("MatchJoin: User %s seated as player %s.", userID, matchState.PlayerID)
	}

	if matchState.Presence == nil {
		return matchState
	}
	if matchState.Match == nil {
		mh.startGame(ctx, matchState, dispatcher, logger)
		return matchState
	}

	// Reconnect: resend the snapshot of the running game.
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcast(matchState, dispatcher, logger, OpState, statePayload(matchState))
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		if p.GetUserId() == matchState.PlayerUserID {
			matchState.Presence = nil
			matchState.EmptySince = tick
			logger.Debug("MatchLeave: Player %s left at tick %d.", p.GetUserId(), tick)
		}
	}
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		senderID := msg.GetUserId()
		if senderID != matchState.PlayerUserID {
			logger.Warn("MatchLoop: Ignoring opcode %d from non-player %s", msg.GetOpCode(), senderID)
			continue
		}
		if _, err := decodePayload(msg.GetData()); err != nil {
			logger.Warn("MatchLoop: Invalid payload from %s: %v", senderID, err)
			mh.sendError(matchState, dispatcher, logger, 400, "invalid payload")
			continue
		}

		switch msg.GetOpCode() {
		case OpDraw:
			mh.handleDraw(ctx, matchState, dispatcher, logger)
		case OpNuke:
			mh.handleNuke(ctx, matchState, dispatcher, logger)
		case OpNewGame:
			mh.handleNewGame(ctx, matchState, dispatcher, logger)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.checkTimer(ctx, matchState, dispatcher, logger)

	if matchState.Presence == nil && tick-matchState.EmptySince >= int64(emptyGraceSeconds*matchState.TickRate) {
		logger.Info("MatchLoop: Terminating match without a player.")
		return nil
	}
	return matchState
}

func (mh *matchHandler) startGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	m, events, err := state.App.StartMatch("", state.PlayerID)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, 500, "could not start game")
		return
	}
	state.Match = m
	state.Games++
	state.DeadlineTick = 0
	if state.Config.GameSeconds > 0 {
		state.DeadlineTick = state.Tick + int64(state.Config.GameSeconds*state.TickRate)
	}

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	logger.Info("StartGame: Game %s started for player %s.", m.ID, state.PlayerID)
}

func (mh *matchHandler) handleDraw(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Match == nil {
		logger.Warn("handleDraw: Game not started.")
		return
	}
	events, err := state.App.Draw(state.Match)
	if err != nil {
		logger.Warn("handleDraw: Player %s failed to draw: %v", state.PlayerID, err)
		mh.sendError(state, dispatcher, logger, errorCode(err), err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleNuke(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Match == nil {
		logger.Warn("handleNuke: Game not started.")
		return
	}
	events, err := state.App.Nuke(state.Match)
	if err != nil {
		logger.Warn("handleNuke: Player %s failed to nuke: %v", state.PlayerID, err)
		mh.sendError(state, dispatcher, logger, errorCode(err), err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleNewGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Match != nil && !state.Match.State.GameOver {
		mh.sendError(state, dispatcher, logger, 409, app.ErrMatchRunning.Error())
		return
	}
	mh.startGame(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) checkTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Match == nil || state.Match.State.GameOver || state.DeadlineTick == 0 || state.Tick < state.DeadlineTick {
		return
	}
	events, err := state.App.Timeout(state.Match)
	if err != nil {
		logger.Error("checkTimer: Failed to end game %s: %v", state.Match.ID, err)
		return
	}
	logger.Info("checkTimer: Game %s timed out.", state.Match.ID)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	switch ev.Kind {
	case app.EventMatchStarted:
		mh.broadcast(state, dispatcher, logger, OpState, statePayload(state))
	case app.EventRoundResolved:
		p := ev.Payload.(app.RoundResolvedPayload)
		mh.broadcast(state, dispatcher, logger, OpRound, roundPayload(p.Result, p.Counts))
	case app.EventWarDeclared:
		p := ev.Payload.(app.WarDeclaredPayload)
		mh.broadcast(state, dispatcher, logger, OpWar, warPayload(p.Depth, p.PileSize))
	case app.EventNukeLaunched:
		p := ev.Payload.(app.NukeLaunchedPayload)
		mh.broadcast(state, dispatcher, logger, OpNukeFired, nukePayload(p.Result, p.Counts))
	case app.EventInvariantRepaired:
		p := ev.Payload.(app.InvariantRepairedPayload)
		logger.WithFields(map[string]interface{}{
			"before":   p.Report.Before,
			"after":    p.Report.After,
			"side":     string(p.Report.Side),
			"trimmed":  p.Report.Trimmed,
			"injected": p.Report.Injected,
		}).Error("Card invariant repaired in game %s", state.Match.ID)
	case app.EventGameEnded:
		p := ev.Payload.(app.GameEndedPayload)
		mh.broadcast(state, dispatcher, logger, OpGameOver, gameOverPayload(p.Winner, p.Reason, p.Counts, string(p.Outcome.Result)))
		mh.updateLabel(state, dispatcher, logger)
		if p.Record {
			outcome := p.Outcome
			outcome.UserID = state.PlayerUserID
			outcome.Username = state.Username
			if err := state.Recorder.Record(ctx, outcome); err != nil {
				logger.Error("Failed to record game %s: %v", outcome.MatchID, err)
			}
		} else {
			logger.Info("Game %s ended (%s) without a recorded outcome.", p.Outcome.MatchID, p.Reason)
		}
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
	}
}

func (mh *matchHandler) broadcast(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload map[string]interface{}) {
	bytes, err := encodePayload(payload)
	if err != nil {
		logger.Error("Failed to marshal opcode %d: %v", opCode, err)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, bytes, nil, nil, true); err != nil {
		logger.Error("Failed to broadcast opcode %d: %v", opCode, err)
	}
}

// sendError sends an error event to the seated player.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, code int, message string) {
	if state.Presence == nil {
		logger.Warn("Cannot send error to %s: Presence not found", state.PlayerUserID)
		return
	}
	bytes, err := encodePayload(errorPayload(code, message))
	if err != nil {
		logger.Error("Failed to marshal error event: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{state.Presence}, nil, true); err != nil {
		logger.Error("Failed to send error event: %v", err)
	}
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, app.ErrMatchOver), errors.Is(err, app.ErrNukeUsed):
		return 409
	case errors.Is(err, app.ErrNoMatch):
		return 404
	default:
		return 400
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := state.label()
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if label == state.Label {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
		return
	}
	state.Label = label
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
