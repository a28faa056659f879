package entity

type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

const BoardSize = 9

var (
	// WinCombos are checked in this order, the first complete line wins.
	WinCombos = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}

	CenterCell  = 4
	CornerCells = [4]int{0, 2, 6, 8}
	EdgeCells   = [4]int{1, 3, 5, 7}
)

// Opponent - returns the other player's mark. Empty stays empty.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

type Board [BoardSize]Mark

func IsValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}

// EmptyCells - returns indexes of the free cells in ascending order.
func (that Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Place - returns a copy of the board with mark written at cell.
func (that Board) Place(cell int, mark Mark) Board {
	that[cell] = mark
	return that
}
