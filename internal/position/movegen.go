package position

// GenerateLegalMoves returns every legal move in the position. It generates
// pseudo-legal check evasions (if the side to move is in check) or
// pseudo-legal non-evasions otherwise, then confirms legality by playing and
// immediately unplaying each one: MakeMove already rejects moves that leave
// the mover's king in check, so this is the single point pins, discovered
// checks, and the king-walking-through-check castling rule are enforced.
func (p *Position) GenerateLegalMoves() []Move {
	var pseudo MoveList
	if p.InCheck() {
		p.genEvasions(&pseudo)
	} else {
		p.genNonEvasions(&pseudo)
	}

	legal := make([]Move, 0, pseudo.Len())
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		delta, ok := p.MakeMove(m)
		if !ok {
			continue
		}
		p.UnmakeMove(delta)
		legal = append(legal, m)
	}
	return legal
}

// AnnotateMove plays m and inspects the resulting position to set
// FlagCheck, FlagDoubleCheck, FlagMate, and FlagDraw (stalemate or the
// automatic draws), returning the annotated copy. m must already be legal
// in the current position.
func (p *Position) AnnotateMove(m Move) Move {
	delta, ok := p.MakeMove(m)
	if !ok {
		return m
	}
	defer p.UnmakeMove(delta)

	checkers := p.Checkers.PopCount()
	if checkers == 1 {
		m.Flags |= FlagCheck
	} else if checkers >= 2 {
		m.Flags |= FlagCheck | FlagDoubleCheck
	}

	if len(p.GenerateLegalMoves()) == 0 {
		if checkers > 0 {
			m.Flags |= FlagMate
		} else {
			m.Flags |= FlagDraw
		}
	}
	return m
}

// genNonEvasions generates every pseudo-legal move available when the side
// to move is not in check: all piece moves plus castling.
func (p *Position) genNonEvasions(ml *MoveList) {
	us := p.SideToMove
	p.genPawnMoves(ml, us)
	p.genKnightMoves(ml, us)
	p.genSliderMoves(ml, us, Bishop)
	p.genSliderMoves(ml, us, Rook)
	p.genSliderMoves(ml, us, Queen)
	p.genKingMoves(ml, us)
	p.genCastling(ml, us)
}

// genEvasions generates pseudo-legal moves when the side to move is in
// check: if two or more checkers, only king moves are considered (a double
// check can never be blocked or captured away); for a single checker, king
// moves, captures of the checker, and blocks along the check ray are
// generated.
func (p *Position) genEvasions(ml *MoveList) {
	us := p.SideToMove
	p.genKingMoves(ml, us)

	if p.Checkers.PopCount() >= 2 {
		return
	}

	checkerSq := p.Checkers.LSB()
	kingSq := p.KingSquare[us]
	target := p.Checkers | Between(kingSq, checkerSq)

	p.genPawnMovesToTargets(ml, us, target)
	p.genKnightMovesToTargets(ml, us, target)
	p.genSliderMovesToTargets(ml, us, Bishop, target)
	p.genSliderMovesToTargets(ml, us, Rook, target)
	p.genSliderMovesToTargets(ml, us, Queen, target)
}

func (p *Position) genKnightMoves(ml *MoveList, us Color) {
	p.genKnightMovesToTargets(ml, us, ^p.Occupied[us])
}

func (p *Position) genKnightMovesToTargets(ml *MoveList, us Color, targets Bitboard) {
	pieces := p.Pieces[us][Knight]
	for pieces != 0 {
		from := pieces.PopLSB()
		dests := KnightAttacks(from) & targets
		p.addSimpleMoves(ml, from, dests, Knight, us)
	}
}

func (p *Position) genSliderMoves(ml *MoveList, us Color, pt PieceType) {
	p.genSliderMovesToTargets(ml, us, pt, ^p.Occupied[us])
}

func (p *Position) genSliderMovesToTargets(ml *MoveList, us Color, pt PieceType, targets Bitboard) {
	pieces := p.Pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		var attacks Bitboard
		switch pt {
		case Bishop:
			attacks = BishopAttacks(from, p.AllOccupied)
		case Rook:
			attacks = RookAttacks(from, p.AllOccupied)
		case Queen:
			attacks = QueenAttacks(from, p.AllOccupied)
		}
		dests := attacks & targets
		p.addSimpleMoves(ml, from, dests, pt, us)
	}
}

func (p *Position) genKingMoves(ml *MoveList, us Color) {
	from := p.KingSquare[us]
	if from == NoSquare {
		return
	}
	dests := KingAttacks(from) &^ p.Occupied[us]
	them := us.Other()
	for dests != 0 {
		to := dests.PopLSB()
		if p.IsSquareAttacked(to, them) {
			continue
		}
		m := Move{From: from, To: to, Piece: King, Promotion: NoPieceType}
		if !p.IsEmpty(to) {
			m.Flags |= FlagCapture
		}
		ml.Add(m)
	}
}

func (p *Position) addSimpleMoves(ml *MoveList, from Square, dests Bitboard, pt PieceType, us Color) {
	for dests != 0 {
		to := dests.PopLSB()
		m := Move{From: from, To: to, Piece: pt, Promotion: NoPieceType}
		if !p.IsEmpty(to) {
			m.Flags |= FlagCapture
		}
		ml.Add(m)
	}
}

var promotionOrder = [4]PieceType{Queen, Rook, Knight, Bishop}

func (p *Position) genPawnMoves(ml *MoveList, us Color) {
	p.genPawnMovesToTargets(ml, us, Universe)
}

// genPawnMovesToTargets generates pawn pushes, double pushes, captures, en
// passant captures, and promotions, restricted to squares in targets for the
// destination (for evasion generation) while pushes are additionally
// constrained by occupancy as usual.
func (p *Position) genPawnMovesToTargets(ml *MoveList, us Color, targets Bitboard) {
	them := us.Other()
	pawns := p.Pieces[us][Pawn]
	empty := ^p.AllOccupied

	var startRank, promoRank Bitboard
	var pushDir, doublePushDir int
	if us == White {
		startRank, promoRank = Rank2, Rank8
		pushDir, doublePushDir = 8, 16
	} else {
		startRank, promoRank = Rank7, Rank1
		pushDir, doublePushDir = -8, -16
	}

	for bb := pawns; bb != 0; {
		from := bb.PopLSB()
		fromBB := SquareBB(from)

		single := shiftPawn(fromBB, pushDir) & empty
		if single != 0 && single&targets != 0 {
			to := single.LSB()
			p.addPawnMove(ml, from, to, us, promoRank, false, false)
		}
		if fromBB&startRank != 0 && single != 0 {
			double := shiftPawn(fromBB, doublePushDir) & empty
			if double != 0 && double&targets != 0 {
				to := double.LSB()
				ml.Add(Move{From: from, To: to, Piece: Pawn, Promotion: NoPieceType, Flags: FlagEPMove})
			}
		}

		caps := pawnAttacks[us][from] & p.Occupied[them] & targets
		for caps != 0 {
			to := caps.PopLSB()
			p.addPawnMove(ml, from, to, us, promoRank, true, false)
		}

		if p.EnPassant != NoSquare && pawnAttacks[us][from]&SquareBB(p.EnPassant) != 0 {
			capSq := p.EnPassant
			if us == White {
				capSq -= 8
			} else {
				capSq += 8
			}
			if SquareBB(p.EnPassant)&targets != 0 || SquareBB(capSq)&targets != 0 {
				ml.Add(Move{From: from, To: p.EnPassant, Piece: Pawn, Promotion: NoPieceType,
					Flags: FlagEPCapture | FlagCapture})
			}
		}
	}
}

func (p *Position) addPawnMove(ml *MoveList, from, to Square, us Color, promoRank Bitboard, capture bool, _ bool) {
	flags := MoveFlags(0)
	if capture {
		flags |= FlagCapture
	}
	if SquareBB(to)&promoRank != 0 {
		for _, promo := range promotionOrder {
			ml.Add(Move{From: from, To: to, Piece: Pawn, Promotion: promo, Flags: flags | FlagPromotion})
		}
		return
	}
	ml.Add(Move{From: from, To: to, Piece: Pawn, Promotion: NoPieceType, Flags: flags})
}

func shiftPawn(bb Bitboard, dir int) Bitboard {
	if dir > 0 {
		return bb << uint(dir)
	}
	return bb >> uint(-dir)
}

// genCastling generates the (up to two) pseudo-legal castling moves: squares
// between king and rook must be empty, and the squares the king passes
// through (including start and end) must not be attacked. Final legality
// (king not currently in check is implied by not being called from
// genEvasions) is double-checked by MakeMove's own-king-attacked test.
func (p *Position) genCastling(ml *MoveList, us Color) {
	them := us.Other()
	kingSq := p.KingSquare[us]

	var ksRight, qsRight CastlingRights
	var ksIdx, qsIdx int
	var homeRank Square
	if us == White {
		ksRight, qsRight = WhiteKingSideCastle, WhiteQueenSideCastle
		ksIdx, qsIdx = 0, 1
		homeRank = E1
	} else {
		ksRight, qsRight = BlackKingSideCastle, BlackQueenSideCastle
		ksIdx, qsIdx = 2, 3
		homeRank = E8
	}
	if kingSq != homeRank {
		return
	}

	tryCastle := func(right CastlingRights, idx int, flag MoveFlags) {
		if p.CastlingRights&right == 0 {
			return
		}
		if p.AllOccupied&castlingPathMask[idx] != 0 {
			return
		}
		safe := castlingSafeMask[idx]
		for sq := safe; sq != 0; {
			s := sq.PopLSB()
			if p.IsSquareAttacked(s, them) {
				return
			}
		}
		ml.Add(Move{From: kingSq, To: castlingKingTo[idx], Piece: King, Promotion: NoPieceType, Flags: flag})
	}
	tryCastle(ksRight, ksIdx, FlagCastleKS)
	tryCastle(qsRight, qsIdx, FlagCastleQS)
}
