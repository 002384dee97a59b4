package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadNotation = errors.New("bad square notation")

// Coord is a square on a board of a given size. Row 0 is the top of the
// diagram (Black's back rank).
type Coord struct {
	Row  int `json:"row"`
	Col  int `json:"col"`
	Size int `json:"-"`
}

func NewCoord(size, row, col int) Coord {
	return Coord{Row: row, Col: col, Size: size}
}

func (c Coord) OutsideBoard() bool {
	return c.Row < 0 || c.Row >= c.Size || c.Col < 0 || c.Col >= c.Size
}

// Add does not check bounds; callers check OutsideBoard on the result.
func (c Coord) Add(dRow, dCol int) Coord {
	return Coord{Row: c.Row + dRow, Col: c.Col + dCol, Size: c.Size}
}

// Position renders the square as "e4".
func (c Coord) Position() string {
	return fmt.Sprintf("%c%d", 'a'+c.Col, c.Size-c.Row)
}

func (c Coord) String() string {
	return c.Position()
}

func (c Coord) getFileNotation() string {
	return fmt.Sprintf("%c", 'a'+c.Col)
}

func CoordFromPosition(size int, pos string) (Coord, error) {
	if len(pos) != 2 {
		return Coord{}, fmt.Errorf("%w: %q", ErrBadNotation, pos)
	}
	c := NewCoord(size, size-int(pos[1]-'0'), int(pos[0]-'a'))
	if pos[0] < 'a' || pos[1] < '1' || pos[1] > '9' || c.OutsideBoard() {
		return Coord{}, fmt.Errorf("%w: %q", ErrBadNotation, pos)
	}
	return c, nil
}

// CoordsFromMove reads "e2e4" (or "e2xd3") as start and destination. Only
// the leading and trailing squares matter.
func CoordsFromMove(size int, move string) (Coord, Coord, error) {
	move = strings.TrimSpace(move)
	if len(move) < 4 {
		return Coord{}, Coord{}, fmt.Errorf("%w: %q", ErrBadNotation, move)
	}
	start, err := CoordFromPosition(size, move[:2])
	if err != nil {
		return Coord{}, Coord{}, err
	}
	dest, err := CoordFromPosition(size, move[len(move)-2:])
	if err != nil {
		return Coord{}, Coord{}, err
	}
	return start, dest, nil
}
