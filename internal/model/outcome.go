package model

// Result is how a game ended; Ongoing while it has not.
type Result string

const (
	Ongoing              Result = ""
	Checkmate            Result = "checkmate"
	Stalemate            Result = "stalemate"
	InsufficientMaterial Result = "insufficient material"
	FiftyMoveRule        Result = "fifty-move rule"
	ThreefoldRepetition  Result = "threefold repetition"
	Resignation          Result = "resignation"
	Agreement            Result = "agreement"
	Timeout              Result = "timeout"
)

// Decisive reports whether the result has a winner.
func (r Result) Decisive() bool {
	return r == Checkmate || r == Resignation || r == Timeout
}

// Evaluate decides whether the position with toMove to play has ended the
// game. repetitions is how often the current position has occurred.
func Evaluate(board *Board, toMove Color, repetitions int) Result {
	rules := NewRuleBook(board)
	if !rules.HasLegalMoves(toMove) {
		if rules.IsChecked(toMove) {
			return Checkmate
		}
		return Stalemate
	}
	if board.InsufficientMaterial() {
		return InsufficientMaterial
	}
	if board.FiftyMoves() {
		return FiftyMoveRule
	}
	if repetitions >= 3 {
		return ThreefoldRepetition
	}
	return Ongoing
}

// Repetitions counts how often each position has been seen, keyed by
// Board.Notation.
type Repetitions map[string]int

// Record counts board's current position and returns the new total.
func (r Repetitions) Record(board *Board) int {
	key := board.Notation()
	r[key]++
	return r[key]
}
