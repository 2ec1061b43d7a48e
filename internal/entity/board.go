package entity

const (
	PlayerX = "X"
	PlayerO = "O"

	// ResultDraw is what both ends show when the board is full without a line.
	ResultDraw = "Empate"

	EmptyCell = ""

	BoardSize = 9
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [BoardSize]string

// Result - returns the winning mark, ResultDraw, or "" while the game can go on.
func (that Board) Result() string {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	// the game will continue until all the squares are full
	if !that.IsFull() {
		return ""
	}

	return ResultDraw
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

func (that Board) IsEmpty() bool {
	return that == Board{}
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
