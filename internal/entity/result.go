package entity

type Outcome int

const (
	OutcomeInProgress Outcome = iota
	OutcomeWin
	OutcomeDraw
)

func (that Outcome) String() string {
	switch that {
	case OutcomeWin:
		return "win"
	case OutcomeDraw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Result - what Evaluate found on a board. Winner and Line are set only for OutcomeWin.
type Result struct {
	Outcome Outcome
	Winner  Mark
	Line    [3]int
}

func (that Result) IsTerminal() bool {
	return that.Outcome != OutcomeInProgress
}

// Evaluate - checks the board for a winner first and only then for a draw,
// so a full board with a complete line is always a win.
func Evaluate(board Board) Result {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return Result{Outcome: OutcomeWin, Winner: a, Line: combo}
		}
	}

	// the game will continue until all the squares are full
	if !board.IsFull() {
		return Result{Outcome: OutcomeInProgress}
	}

	return Result{Outcome: OutcomeDraw}
}
