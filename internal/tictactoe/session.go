package tictactoe

import (
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// Transition - describes one applied move. Before and After are independent copies.
type Transition struct {
	Before         entity.GameState
	After          entity.GameState
	Move           entity.Move
	OutcomeChanged bool
}

// Session - owns the state of one game. Every method is safe for concurrent use,
// moves are applied one at a time.
type Session struct {
	mu sync.Mutex

	state entity.GameState
	epoch uint64
	now   func() time.Time
}

type Option func(*Session)

// WithClock - replaces the clock used for move timestamps.
func WithClock(now func() time.Time) Option {
	return func(that *Session) {
		that.now = now
	}
}

func NewSession(mode entity.GameMode, difficulty entity.Difficulty, opts ...Option) *Session {
	session := &Session{
		state: entity.NewGameState(mode, difficulty),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(session)
	}

	return session
}

// ApplyMove - places the current player's mark at cell. Returns false and leaves the
// state untouched when the cell is invalid or occupied, or the game is over.
func (that *Session) ApplyMove(cell int) (Transition, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.canPlace(cell) {
		return Transition{}, false
	}

	before := that.state.Clone()

	player := that.state.CurrentPlayer
	that.state.Board[cell] = player

	move := entity.Move{
		Position:  cell,
		Player:    player,
		Seq:       len(that.state.Moves) + 1,
		Timestamp: that.now(),
	}
	that.state.Moves = append(that.state.Moves, move)

	that.updateGameStatus(entity.Evaluate(that.state.Board))

	return Transition{
		Before:         before,
		After:          that.state.Clone(),
		Move:           move,
		OutcomeChanged: before.Status != that.state.Status,
	}, true
}

// canPlace - checks if the move is valid.
func (that *Session) canPlace(cell int) bool {
	if !that.state.IsInProgress() {
		return false
	}

	if !entity.IsValidCell(cell) {
		return false
	}

	return that.state.Board[cell] == entity.EmptyCell
}

// updateGameStatus - applies the evaluated board to the state. The turn passes on
// every applied move, finished games included, so it always matches move parity.
func (that *Session) updateGameStatus(result entity.Result) {
	switch result.Outcome {
	case entity.OutcomeWin:
		that.state.Status = entity.StatusWon
		that.state.Winner = result.Winner
		that.state.WinningLine = result.Line[:]
	case entity.OutcomeDraw:
		that.state.Status = entity.StatusDraw
	}

	that.state.CurrentPlayer = that.state.CurrentPlayer.Opponent()
}

// Reset - starts a new game keeping mode and difficulty.
func (that *Session) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.state = entity.NewGameState(that.state.Mode, that.state.Difficulty)
	that.epoch++
}

// SetGameMode - switching the mode invalidates moves scheduled for the previous one.
func (that *Session) SetGameMode(mode entity.GameMode) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state.Mode == mode {
		return
	}

	that.state.Mode = mode
	that.epoch++
}

func (that *Session) SetDifficulty(difficulty entity.Difficulty) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.state.Difficulty = difficulty
}

func (that *Session) State() entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state.Clone()
}

// Epoch - grows on every reset and mode switch.
func (that *Session) Epoch() uint64 {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.epoch
}
