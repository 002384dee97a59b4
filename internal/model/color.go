package model

// Color is the side a piece or player belongs to.
type Color string

const (
	White   Color = "white"
	Black   Color = "black"
	NoColor Color = ""
)

func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColor
}

// forward is the row delta a pawn of this colour advances by.
func (c Color) forward() int {
	if c == Black {
		return 1
	}
	return -1
}

func ParseColor(s string) (Color, bool) {
	switch s {
	case "w", "white":
		return White, true
	case "b", "black":
		return Black, true
	}
	return NoColor, false
}
