package entity

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	BoardSize = 9
)

// WinCombos lists every winning triple: rows, then columns, then diagonals.
// The order decides which triple is reported when more than one is complete.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Win describes a completed triple.
type Win struct {
	Player string
	Combo  [3]int
}

// Evaluate returns the first complete triple on the board, or nil.
func Evaluate(board [BoardSize]string) *Win {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return &Win{Player: a, Combo: combo}
		}
	}

	return nil
}

// IsFull reports whether every cell is occupied.
func IsFull(board [BoardSize]string) bool {
	for _, cell := range board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// IsDraw reports a full board without a winner.
func IsDraw(board [BoardSize]string) bool {
	return IsFull(board) && Evaluate(board) == nil
}

// IsValidCell reports whether index addresses an empty cell.
func IsValidCell(board [BoardSize]string, index int) bool {
	return index >= 0 && index < BoardSize && board[index] == EmptyCell
}

// IsMark reports whether mark is X or O.
func IsMark(mark string) bool {
	return mark == PlayerX || mark == PlayerO
}

// Opponent returns the other mark.
func Opponent(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
