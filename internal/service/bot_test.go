package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	x = entity.PlayerX
	o = entity.PlayerO
	e = entity.EmptyCell
)

// stubRandom - replays scripted values, IntN results are taken modulo n.
type stubRandom struct {
	ints   []int
	floats []float64
}

func (that *stubRandom) IntN(n int) int {
	if len(that.ints) == 0 {
		return 0
	}

	value := that.ints[0]
	that.ints = that.ints[1:]

	return value % n
}

func (that *stubRandom) Float64() float64 {
	if len(that.floats) == 0 {
		return 0
	}

	value := that.floats[0]
	that.floats = that.floats[1:]

	return value
}

func TestBotService_Hard(t *testing.T) {
	t.Run("Takes the win over the block", func(t *testing.T) {
		// Given: O can win at 5 while X threatens 2
		board := entity.Board{x, x, e, o, o, e, e, e, e}
		bot := NewBotService(&stubRandom{})

		// When: the hard bot plays O
		cell, ok := bot.ChooseMove(board, entity.HardDifficulty, o)

		// Then: it completes its own row
		require.True(t, ok)
		assert.Equal(t, 5, cell)
	})

	t.Run("Blocks the opponent", func(t *testing.T) {
		// Given: X threatens the top row and O cannot win
		board := entity.Board{x, x, e, e, o, e, e, e, e}
		bot := NewBotService(&stubRandom{})

		// When: the hard bot plays O
		cell, ok := bot.ChooseMove(board, entity.HardDifficulty, o)

		// Then: it blocks at 2
		require.True(t, ok)
		assert.Equal(t, 2, cell)
	})

	t.Run("Lowest winning cell first", func(t *testing.T) {
		// Given: X can win at 2 and at 6
		board := entity.Board{x, x, e, x, o, o, e, o, e}
		bot := NewBotService(&stubRandom{})

		cell, ok := bot.ChooseMove(board, entity.HardDifficulty, x)

		require.True(t, ok)
		assert.Equal(t, 2, cell)
	})

	t.Run("Takes the center", func(t *testing.T) {
		board := entity.Board{x, e, e, e, e, e, e, e, e}
		bot := NewBotService(&stubRandom{})

		cell, ok := bot.ChooseMove(board, entity.HardDifficulty, o)

		require.True(t, ok)
		assert.Equal(t, entity.CenterCell, cell)
	})

	t.Run("Picks among free corners", func(t *testing.T) {
		// Given: center and corner 0 are taken, corners 2, 6, 8 are free
		board := entity.Board{o, e, e, e, x, e, e, e, e}

		// When: the random source selects the third free corner
		bot := NewBotService(&stubRandom{ints: []int{2}})
		cell, ok := bot.ChooseMove(board, entity.HardDifficulty, o)

		// Then: corner 8 is played
		require.True(t, ok)
		assert.Equal(t, 8, cell)
	})

	t.Run("Only edges left", func(t *testing.T) {
		// Given: center and all corners are taken
		board := entity.Board{x, e, o, o, x, e, x, e, o}
		require.Equal(t, entity.OutcomeInProgress, entity.Evaluate(board).Outcome)

		// When: the hard bot plays O
		bot := NewBotService(&stubRandom{ints: []int{1}})
		cell, ok := bot.ChooseMove(board, entity.HardDifficulty, o)

		// Then: a free edge is played
		require.True(t, ok)
		assert.Contains(t, entity.EdgeCells[:], cell)
		assert.Equal(t, entity.EmptyCell, board[cell])
	})

	t.Run("No move on a full board", func(t *testing.T) {
		board := entity.Board{x, o, x, o, x, o, o, x, o}
		bot := NewBotService(&stubRandom{})

		for _, difficulty := range []entity.Difficulty{entity.EasyDifficulty, entity.MediumDifficulty, entity.HardDifficulty} {
			_, ok := bot.ChooseMove(board, difficulty, o)

			assert.False(t, ok)
		}
	})
}

func TestBotService_Medium(t *testing.T) {
	// Given: a board where the best move for O is the block at 2
	board := entity.Board{x, x, e, e, o, e, e, e, e}

	t.Run("Plays the best move below the threshold", func(t *testing.T) {
		bot := NewBotService(&stubRandom{floats: []float64{0.2}, ints: []int{5}})

		cell, ok := bot.ChooseMove(board, entity.MediumDifficulty, o)

		require.True(t, ok)
		assert.Equal(t, 2, cell)
	})

	t.Run("Plays randomly above the threshold", func(t *testing.T) {
		// free cells are 2, 3, 5, 6, 7, 8, index 4 is cell 7
		bot := NewBotService(&stubRandom{floats: []float64{0.8}, ints: []int{4}})

		cell, ok := bot.ChooseMove(board, entity.MediumDifficulty, o)

		require.True(t, ok)
		assert.Equal(t, 7, cell)
	})
}

func TestBotService_Easy(t *testing.T) {
	t.Run("Scripted random picks a free cell", func(t *testing.T) {
		board := entity.Board{x, e, o, e, x, e, e, e, e}
		bot := NewBotService(&stubRandom{ints: []int{3}})

		cell, ok := bot.ChooseMove(board, entity.EasyDifficulty, o)

		require.True(t, ok)
		assert.Equal(t, 6, cell)
	})

	t.Run("Always picks a free cell on every reachable board", func(t *testing.T) {
		bot := NewBotService(NewSeededRandom(42))

		walkGames(entity.Board{}, x, func(board entity.Board, turn entity.Mark) {
			cell, ok := bot.ChooseMove(board, entity.EasyDifficulty, turn)

			require.True(t, ok)
			require.Equal(t, entity.EmptyCell, board[cell])
		})
	})
}

func TestBotService_UnknownDifficulty(t *testing.T) {
	board := entity.Board{x, o, e, e, e, e, e, e, e}
	bot := NewBotService(&stubRandom{})

	cell, ok := bot.ChooseMove(board, entity.Difficulty("legendary"), o)

	require.True(t, ok)
	assert.Equal(t, 2, cell)
}

func TestBotService_HardOnEveryReachableBoard(t *testing.T) {
	bot := NewBotService(NewSeededRandom(7))

	walkGames(entity.Board{}, x, func(board entity.Board, turn entity.Mark) {
		cell, ok := bot.ChooseMove(board, entity.HardDifficulty, turn)
		require.True(t, ok)
		require.Equal(t, entity.EmptyCell, board[cell])

		winning, canWin := findWinningCell(board, turn)
		blocking, mustBlock := findWinningCell(board, turn.Opponent())

		switch {
		case canWin:
			require.Equal(t, winning, cell, "missed a win on %v", board)
		case mustBlock:
			require.Equal(t, blocking, cell, "missed a block on %v", board)
		case board[entity.CenterCell] == entity.EmptyCell:
			require.Equal(t, entity.CenterCell, cell)
		}
	})
}

func TestBotService_HardIsNotUnbeatable(t *testing.T) {
	// Given: X opens in a corner and the bot, playing O, answers with the rules
	bot := NewBotService(&stubRandom{})
	board := entity.Board{}

	play := func(cell int, mark entity.Mark) {
		require.Equal(t, entity.EmptyCell, board[cell])
		board[cell] = mark
	}

	play(0, x)
	cell, _ := bot.ChooseMove(board, entity.HardDifficulty, o)
	require.Equal(t, entity.CenterCell, cell)
	play(cell, o)

	// When: X takes the opposite corner, the bot answers with a corner
	play(8, x)
	cell, _ = bot.ChooseMove(board, entity.HardDifficulty, o)
	require.Equal(t, 2, cell)
	play(cell, o)

	// X blocks the diagonal and creates two threats at once
	play(6, x)
	cell, _ = bot.ChooseMove(board, entity.HardDifficulty, o)
	require.Equal(t, 3, cell)
	play(cell, o)

	// Then: X wins through the remaining threat
	play(7, x)
	result := entity.Evaluate(board)
	assert.Equal(t, entity.OutcomeWin, result.Outcome)
	assert.Equal(t, x, result.Winner)
}

// walkGames - visits every reachable unfinished board once, together with the mark to move.
func walkGames(board entity.Board, turn entity.Mark, visit func(entity.Board, entity.Mark)) {
	seen := make(map[entity.Board]struct{})

	var walk func(entity.Board, entity.Mark)
	walk = func(board entity.Board, turn entity.Mark) {
		if _, ok := seen[board]; ok {
			return
		}
		seen[board] = struct{}{}

		if entity.Evaluate(board).IsTerminal() {
			return
		}

		visit(board, turn)

		for _, cell := range board.EmptyCells() {
			walk(board.Place(cell, turn), turn.Opponent())
		}
	}

	walk(board, turn)
}
