package entity

import "math"

type Score struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

// Record - counts one finished game. In-progress results are ignored.
func (that Score) Record(result Result) Score {
	switch result.Outcome {
	case OutcomeWin:
		switch result.Winner {
		case PlayerX:
			that.X++
		case PlayerO:
			that.O++
		}
	case OutcomeDraw:
		that.Draws++
	}

	return that
}

func (that Score) Total() int {
	return that.X + that.O + that.Draws
}

// IsValid - false for counters that could only come from corrupted storage.
func (that Score) IsValid() bool {
	return that.X >= 0 && that.O >= 0 && that.Draws >= 0
}

// WinPercentage - share of games won by mark, rounded to the nearest integer.
func (that Score) WinPercentage(mark Mark) int {
	total := that.Total()
	if total == 0 {
		return 0
	}

	var wins int
	switch mark {
	case PlayerX:
		wins = that.X
	case PlayerO:
		wins = that.O
	default:
		wins = that.Draws
	}

	return int(math.Round(float64(wins) / float64(total) * 100))
}
