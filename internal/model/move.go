package model

// MoveKind is the capture constraint a candidate move carries.
type MoveKind int

const (
	CannotTake MoveKind = iota
	MustTake
	CanTake
	MustTakeEnPassant
)

func (k MoveKind) String() string {
	switch k {
	case CannotTake:
		return "cannot take"
	case MustTake:
		return "must take"
	case CanTake:
		return "can take"
	case MustTakeEnPassant:
		return "must take en passant"
	}
	return "unknown"
}

type Move struct {
	From Coord    `json:"from"`
	To   Coord    `json:"to"`
	Kind MoveKind `json:"-"`
}

// WSMove is a move as clients send it, e.g. {"move": "e2e4"}.
type WSMove struct {
	Move string `json:"move"`
}

type CastleRookMove struct {
	From Coord `json:"from"`
	To   Coord `json:"to"`
}

type Ply struct {
	Piece          Piece           `json:"piece"`
	From           Coord           `json:"from"`
	To             Coord           `json:"to"`
	Text           string          `json:"text"`
	CapturedPiece  *Piece          `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	Promotion      PieceType       `json:"promotion"`
	Notation       string          `json:"notation"`
}

type MovePair struct {
	WhitePly *Ply `json:"whitePly"`
	BlackPly *Ply `json:"blackPly"`
}

type SimpleMove struct {
	From Coord `json:"from"`
	To   Coord `json:"to"`
}
