package service

import (
	"math/rand/v2"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// optimalMoveChance - how often the medium bot plays the best move instead of a random one.
const optimalMoveChance = 0.5

// Random - source of the bot's choices. *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	IntN(n int) int
	Float64() float64
}

type BotService interface {
	// ChooseMove - returns the cell the bot plays, false if the board has no free cell.
	ChooseMove(board entity.Board, difficulty entity.Difficulty, botMark entity.Mark) (int, bool)
}

type botService struct {
	mu  sync.Mutex
	rnd Random
}

func NewBotService(rnd Random) BotService {
	return &botService{
		rnd: rnd,
	}
}

// NewSeededRandom - seed 0 picks a random seed.
func NewSeededRandom(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}

	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (that *botService) ChooseMove(board entity.Board, difficulty entity.Difficulty, botMark entity.Mark) (int, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, false
	}

	switch difficulty {
	case entity.EasyDifficulty:
		return that.pick(availableCells), true
	case entity.MediumDifficulty:
		if that.rnd.Float64() < optimalMoveChance {
			return that.bestMove(board, botMark)
		}
		return that.pick(availableCells), true
	case entity.HardDifficulty:
		return that.bestMove(board, botMark)
	default:
		return availableCells[0], true
	}
}

// bestMove - one ply lookahead: win, block, center, corner, edge.
func (that *botService) bestMove(board entity.Board, botMark entity.Mark) (int, bool) {
	if cell, ok := findWinningCell(board, botMark); ok {
		return cell, true
	}

	if cell, ok := findWinningCell(board, botMark.Opponent()); ok {
		return cell, true
	}

	if board[entity.CenterCell] == entity.EmptyCell {
		return entity.CenterCell, true
	}

	if corners := freeCells(board, entity.CornerCells); len(corners) > 0 {
		return that.pick(corners), true
	}

	if edges := freeCells(board, entity.EdgeCells); len(edges) > 0 {
		return that.pick(edges), true
	}

	return 0, false
}

func (that *botService) pick(cells []int) int {
	return cells[that.rnd.IntN(len(cells))]
}

// findWinningCell - the lowest free cell that completes a line for mark.
func findWinningCell(board entity.Board, mark entity.Mark) (int, bool) {
	for _, cell := range board.EmptyCells() {
		result := entity.Evaluate(board.Place(cell, mark))
		if result.Outcome == entity.OutcomeWin && result.Winner == mark {
			return cell, true
		}
	}

	return 0, false
}

func freeCells(board entity.Board, candidates [4]int) []int {
	cells := make([]int, 0, len(candidates))
	for _, cell := range candidates {
		if board[cell] == entity.EmptyCell {
			cells = append(cells, cell)
		}
	}

	return cells
}
