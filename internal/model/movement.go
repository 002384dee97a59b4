package model

type movementFlags struct {
	King          bool `json:"king"`
	KingSideRook  bool `json:"kingSideRook"`
	QueenSideRook bool `json:"queenSideRook"`
}

// MovementRecord remembers what has left the castling squares. Flags are
// never cleared.
type MovementRecord struct {
	White movementFlags `json:"white"`
	Black movementFlags `json:"black"`
}

func (m *MovementRecord) flags(color Color) *movementFlags {
	if color == White {
		return &m.White
	}
	return &m.Black
}

// update trips the rook flag for anything that leaves a home-rank corner,
// not only the rook that started there.
func (m *MovementRecord) update(piece Piece, start Coord) {
	flags := m.flags(piece.Color)
	if piece.Type == King {
		flags.King = true
		return
	}
	if start.Row != homeRow(start.Size, piece.Color) {
		return
	}
	switch start.Col {
	case 0:
		flags.QueenSideRook = true
	case start.Size - 1:
		flags.KingSideRook = true
	}
}

func (m MovementRecord) KingHasMoved(color Color) bool {
	return m.flags(color).King
}

func (m MovementRecord) KingSideRookHasMoved(color Color) bool {
	return m.flags(color).KingSideRook
}

func (m MovementRecord) QueenSideRookHasMoved(color Color) bool {
	return m.flags(color).QueenSideRook
}
