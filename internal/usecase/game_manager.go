package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const DefaultThinkDelay = 500 * time.Millisecond

type botService interface {
	ChooseMove(board entity.Board, difficulty entity.Difficulty, botMark entity.Mark) (int, bool)
}

type scoreService interface {
	Scores(ctx context.Context) entity.Score
	Record(ctx context.Context, result entity.Result) entity.Score
	Reset(ctx context.Context) entity.Score
}

type soundService interface {
	MoveApplied()
	GameWon()
	GameDrawn()
	SetEnabled(enabled bool)
	Enabled() bool
}

// Event - what subscribers receive after every change. Move is nil unless a move was applied.
type Event struct {
	State        entity.GameState
	Score        entity.Score
	Move         *entity.Move
	SoundEnabled bool
}

type Timer interface {
	Stop() bool
}

// Scheduler - runs f after d, time.AfterFunc in production.
type Scheduler func(d time.Duration, f func()) Timer

func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type botTurn struct {
	timer Timer
	epoch uint64
}

// GameManager - drives one session: applies human moves, plays the bot after the
// think delay, keeps the score and fires sound cues. Every move goes through mu so
// the bot and the human never apply moves concurrently.
type GameManager struct {
	logger *slog.Logger

	session      *tictactoe.Session
	botService   botService
	scoreService scoreService
	soundService soundService

	botMark    entity.Mark
	thinkDelay time.Duration
	schedule   Scheduler

	mu        sync.Mutex
	pending   *botTurn
	listeners map[int]func(Event)
	nextID    int
	closed    bool
}

type Option func(*GameManager)

func WithScheduler(schedule Scheduler) Option {
	return func(that *GameManager) {
		that.schedule = schedule
	}
}

func WithThinkDelay(delay time.Duration) Option {
	return func(that *GameManager) {
		that.thinkDelay = delay
	}
}

func NewGameManager(
	logger *slog.Logger,
	session *tictactoe.Session,
	botService botService,
	scoreService scoreService,
	soundService soundService,
	opts ...Option,
) *GameManager {
	manager := &GameManager{
		logger: logger.With("component", "game_manager"),

		session:      session,
		botService:   botService,
		scoreService: scoreService,
		soundService: soundService,

		botMark:    entity.PlayerO,
		thinkDelay: DefaultThinkDelay,
		schedule:   AfterFunc,
		listeners:  make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// PlaceMark - a human move. It is ignored while the bot is to move, on an occupied
// cell and after the game is over.
func (that *GameManager) PlaceMark(ctx context.Context, cell int) (entity.GameState, bool) {
	log := that.logger.With("method", "PlaceMark", "cell", cell)

	that.mu.Lock()
	defer that.mu.Unlock()

	state := that.session.State()
	if that.closed || that.isBotTurn(state) {
		log.Debug("move rejected, not a human turn")
		return state, false
	}

	transition, ok := that.session.ApplyMove(cell)
	if !ok {
		log.Debug("move rejected by session")
		return state, false
	}

	that.afterMove(ctx, transition)

	return transition.After, true
}

// Reset - starts a new game, a pending bot move is dropped.
func (that *GameManager) Reset(ctx context.Context) entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelBotTurn()
	that.session.Reset()

	state := that.session.State()
	that.publish(ctx, state, nil)
	that.scheduleBotTurn(ctx, state)

	return state
}

// SetGameMode - leaving pvc drops a pending bot move, entering it on the bot's turn schedules one.
func (that *GameManager) SetGameMode(ctx context.Context, mode entity.GameMode) entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.session.State().Mode != mode {
		that.cancelBotTurn()
	}
	that.session.SetGameMode(mode)

	state := that.session.State()
	that.publish(ctx, state, nil)
	that.scheduleBotTurn(ctx, state)

	return state
}

// SetDifficulty - a pending bot move uses the new difficulty.
func (that *GameManager) SetDifficulty(ctx context.Context, difficulty entity.Difficulty) entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.session.SetDifficulty(difficulty)

	state := that.session.State()
	that.publish(ctx, state, nil)

	return state
}

func (that *GameManager) ResetScores(ctx context.Context) entity.Score {
	that.mu.Lock()
	defer that.mu.Unlock()

	score := that.scoreService.Reset(ctx)
	that.publish(ctx, that.session.State(), nil)

	return score
}

func (that *GameManager) SetSoundEnabled(enabled bool) {
	that.soundService.SetEnabled(enabled)
}

func (that *GameManager) SoundEnabled() bool {
	return that.soundService.Enabled()
}

func (that *GameManager) State() entity.GameState {
	return that.session.State()
}

func (that *GameManager) Scores(ctx context.Context) entity.Score {
	return that.scoreService.Scores(ctx)
}

// Subscribe - fn is called in apply order while the manager is locked, it must not
// call back into the manager. The returned func removes the subscription.
func (that *GameManager) Subscribe(fn func(Event)) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	id := that.nextID
	that.nextID++
	that.listeners[id] = fn

	return func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		delete(that.listeners, id)
	}
}

// Close - stops the pending bot move, later moves are rejected.
func (that *GameManager) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	that.cancelBotTurn()
}

// afterMove - score first, then cues and subscribers, then the bot.
func (that *GameManager) afterMove(ctx context.Context, transition tictactoe.Transition) {
	state := transition.After

	if transition.OutcomeChanged && state.IsFinished() {
		that.scoreService.Record(ctx, state.Result())
	}

	that.soundService.MoveApplied()
	switch state.Status {
	case entity.StatusWon:
		that.soundService.GameWon()
	case entity.StatusDraw:
		that.soundService.GameDrawn()
	}

	move := transition.Move
	that.publish(ctx, state, &move)

	that.scheduleBotTurn(ctx, state)
}

func (that *GameManager) isBotTurn(state entity.GameState) bool {
	return state.Mode == entity.ModePvC && state.CurrentPlayer == that.botMark
}

func (that *GameManager) scheduleBotTurn(ctx context.Context, state entity.GameState) {
	if that.closed || that.pending != nil || !state.IsInProgress() || !that.isBotTurn(state) {
		return
	}

	// the bot move outlives the request that triggered it
	ctx = context.WithoutCancel(ctx)

	turn := &botTurn{epoch: that.session.Epoch()}
	that.pending = turn
	turn.timer = that.schedule(that.thinkDelay, func() {
		that.playBotTurn(ctx, turn)
	})
}

func (that *GameManager) cancelBotTurn() {
	if that.pending == nil {
		return
	}

	that.pending.timer.Stop()
	that.pending = nil
}

func (that *GameManager) playBotTurn(ctx context.Context, turn *botTurn) {
	log := that.logger.With("method", "playBotTurn")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.pending != turn {
		log.Debug("bot move discarded, it was cancelled")
		return
	}
	that.pending = nil

	if that.closed || that.session.Epoch() != turn.epoch {
		log.Debug("bot move discarded, the session has moved on")
		return
	}

	state := that.session.State()
	if !state.IsInProgress() || !that.isBotTurn(state) {
		return
	}

	cell, ok := that.botService.ChooseMove(state.Board, state.Difficulty, that.botMark)
	if !ok {
		log.Warn("bot has no move on an unfinished board")
		return
	}

	transition, ok := that.session.ApplyMove(cell)
	if !ok {
		log.Error("bot move rejected by session", "cell", cell)
		return
	}

	that.afterMove(ctx, transition)
}

func (that *GameManager) publish(ctx context.Context, state entity.GameState, move *entity.Move) {
	if len(that.listeners) == 0 {
		return
	}

	event := Event{
		State:        state,
		Score:        that.scoreService.Scores(ctx),
		Move:         move,
		SoundEnabled: that.soundService.Enabled(),
	}

	for _, listener := range that.listeners {
		listener(event.clone())
	}
}

func (that Event) clone() Event {
	that.State = that.State.Clone()
	if that.Move != nil {
		move := *that.Move
		that.Move = &move
	}

	return that
}
