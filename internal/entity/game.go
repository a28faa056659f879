package entity

import (
	"errors"
	"fmt"
	"time"
)

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusDraw       = "draw"
)

type GameMode string

const (
	ModePvP GameMode = "pvp"
	ModePvC GameMode = "pvc"
)

type Difficulty string

const (
	EasyDifficulty   Difficulty = "easy"
	MediumDifficulty Difficulty = "medium"
	HardDifficulty   Difficulty = "hard"
)

var (
	ErrUnknownGameMode   = errors.New("unknown game mode")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

func ParseGameMode(value string) (GameMode, error) {
	switch mode := GameMode(value); mode {
	case ModePvP, ModePvC:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGameMode, value)
	}
}

func ParseDifficulty(value string) (Difficulty, error) {
	switch difficulty := Difficulty(value); difficulty {
	case EasyDifficulty, MediumDifficulty, HardDifficulty:
		return difficulty, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, value)
	}
}

// Move - a recorded turn. Seq starts at 1 and grows by one per applied move.
type Move struct {
	Position  int       `json:"position"`
	Player    Mark      `json:"player"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

type GameState struct {
	Board         Board      `json:"board"`
	CurrentPlayer Mark       `json:"current_player"`
	Mode          GameMode   `json:"mode"`
	Difficulty    Difficulty `json:"difficulty"`
	Status        string     `json:"status"`
	Winner        Mark       `json:"winner,omitempty"`
	WinningLine   []int      `json:"winning_line"`
	Moves         []Move     `json:"moves"`
}

func NewGameState(mode GameMode, difficulty Difficulty) GameState {
	return GameState{
		CurrentPlayer: PlayerX,
		Mode:          mode,
		Difficulty:    difficulty,
		Status:        StatusInProgress,
		WinningLine:   []int{},
		Moves:         []Move{},
	}
}

func (that GameState) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusDraw
}

func (that GameState) IsInProgress() bool {
	return that.Status == StatusInProgress
}

// Result - the terminal result stored in the state, OutcomeInProgress while the game runs.
func (that GameState) Result() Result {
	switch that.Status {
	case StatusWon:
		result := Result{Outcome: OutcomeWin, Winner: that.Winner}
		copy(result.Line[:], that.WinningLine)
		return result
	case StatusDraw:
		return Result{Outcome: OutcomeDraw}
	default:
		return Result{Outcome: OutcomeInProgress}
	}
}

// Clone - deep copy, the slices are not shared with the receiver.
func (that GameState) Clone() GameState {
	clone := that
	clone.WinningLine = append(make([]int, 0, len(that.WinningLine)), that.WinningLine...)
	clone.Moves = append(make([]Move, 0, len(that.Moves)), that.Moves...)

	return clone
}
