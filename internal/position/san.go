package position

import (
	"fmt"
	"strings"
)

// SAN renders a legal move in standard algebraic notation, including the
// shortest disambiguation needed (file, then rank, then both) and a "+"/"#"
// suffix when the move gives check or mate. m.Flags must already carry
// FlagCheck/FlagMate if those are to be reflected; callers typically obtain
// m from GenerateLegalMoves after annotating it via AnnotateMove.
func (p *Position) SAN(m Move) string {
	if m.Flags&FlagCastleKS != 0 {
		return appendCheckSuffix("O-O", m)
	}
	if m.Flags&FlagCastleQS != 0 {
		return appendCheckSuffix("O-O-O", m)
	}

	var sb strings.Builder
	if m.Piece != Pawn {
		sb.WriteByte(strings.ToUpper(string(m.Piece.Char()))[0])
		sb.WriteString(p.disambiguation(m))
	} else if m.IsCapture() {
		sb.WriteByte(byte('a' + m.From.File()))
	}

	if m.IsCapture() {
		sb.WriteByte('x')
	}
	sb.WriteString(m.To.String())

	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte(strings.ToUpper(string(m.Promotion.Char()))[0])
	}

	return appendCheckSuffix(sb.String(), m)
}

func appendCheckSuffix(s string, m Move) string {
	switch {
	case m.Flags&FlagMate != 0:
		return s + "#"
	case m.Flags&FlagCheck != 0:
		return s + "+"
	default:
		return s
	}
}

// disambiguation returns the minimal file/rank/both prefix needed to
// distinguish m from other legal moves of the same piece type to the same
// destination square.
func (p *Position) disambiguation(m Move) string {
	legal := p.GenerateLegalMoves()
	sameFile, sameRank, ambiguous := false, false, false
	for _, other := range legal {
		if other.To != m.To || other.Piece != m.Piece || other.From == m.From {
			continue
		}
		ambiguous = true
		if other.From.File() == m.From.File() {
			sameFile = true
		}
		if other.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	if !ambiguous {
		return ""
	}
	switch {
	case !sameFile:
		return string(byte('a' + m.From.File()))
	case !sameRank:
		return string(byte('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// ParseSAN parses a move string against the position's legal moves. It
// accepts SAN ("Nf3", "exd5", "e8=Q+", "O-O"), long algebraic ("Nb1-c3",
// "e7-e8=Q"), and pure/hyphenated/"x" coordinate forms ("e2e4", "e2-e4",
// "e7xd8q"), matching whichever legal move the string identifies uniquely.
func (p *Position) ParseSAN(s string) (Move, error) {
	legal := p.GenerateLegalMoves()
	s = strings.TrimSpace(s)
	stripped := strings.TrimRight(s, "+#!?")

	norm := strings.ReplaceAll(stripped, "0-0-0", "O-O-O")
	norm = strings.ReplaceAll(norm, "0-0", "O-O")
	if norm == "O-O" {
		return findCastle(legal, FlagCastleKS, p.SideToMove)
	}
	if norm == "O-O-O" {
		return findCastle(legal, FlagCastleQS, p.SideToMove)
	}

	if mv, ok := tryParseCoordLike(norm, legal); ok {
		return mv, nil
	}

	return parseSANBody(norm, legal)
}

func findCastle(legal []Move, flag MoveFlags, us Color) (Move, error) {
	for _, m := range legal {
		if m.Flags&flag != 0 {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("castling not legal for %s", us)
}

// tryParseCoordLike matches forms that reduce to <square><sep?><square><promo?>:
// "e2e4", "e2-e4", "e7xd8=q", "e7xd8q".
func tryParseCoordLike(s string, legal []Move) (Move, bool) {
	clean := strings.ReplaceAll(s, "-", "")
	clean = strings.ReplaceAll(clean, "x", "")
	clean = strings.ReplaceAll(clean, "=", "")
	if len(clean) != 4 && len(clean) != 5 {
		return Move{}, false
	}
	from, err := ParseSquare(clean[0:2])
	if err != nil {
		return Move{}, false
	}
	to, err := ParseSquare(clean[2:4])
	if err != nil {
		return Move{}, false
	}
	var promo PieceType = NoPieceType
	if len(clean) == 5 {
		promo = promoFromChar(clean[4])
		if promo == NoPieceType {
			return Move{}, false
		}
	}
	for _, m := range legal {
		if m.From == from && m.To == to && m.Promotion == promo {
			return m, true
		}
	}
	return Move{}, false
}

func promoFromChar(c byte) PieceType {
	switch c {
	case 'q', 'Q':
		return Queen
	case 'r', 'R':
		return Rook
	case 'b', 'B':
		return Bishop
	case 'n', 'N':
		return Knight
	default:
		return NoPieceType
	}
}

// parseSANBody parses strict SAN: optional piece letter, optional
// disambiguation (file/rank/square), optional "x", destination square,
// optional "=promo".
func parseSANBody(s string, legal []Move) (Move, error) {
	orig := s
	piece := Pawn
	if len(s) > 0 && strings.ContainsRune("NBRQK", rune(s[0])) {
		piece = pieceFromLetter(s[0])
		s = s[1:]
	}

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		if idx+1 >= len(s) {
			return Move{}, fmt.Errorf("invalid SAN move: %q", orig)
		}
		promo = promoFromChar(s[idx+1])
		s = s[:idx]
	}

	s = strings.ReplaceAll(s, "x", "")
	if len(s) < 2 {
		return Move{}, fmt.Errorf("invalid SAN move: %q", orig)
	}
	destStr := s[len(s)-2:]
	disambig := s[:len(s)-2]
	to, err := ParseSquare(destStr)
	if err != nil {
		return Move{}, fmt.Errorf("invalid SAN move: %q", orig)
	}

	var fileFilter, rankFilter = -1, -1
	for _, c := range disambig {
		switch {
		case c >= 'a' && c <= 'h':
			fileFilter = int(c - 'a')
		case c >= '1' && c <= '8':
			rankFilter = int(c - '1')
		}
	}

	var candidates []Move
	for _, m := range legal {
		if m.Piece != piece || m.To != to {
			continue
		}
		if m.IsPromotion() && m.Promotion != promo {
			continue
		}
		if fileFilter >= 0 && m.From.File() != fileFilter {
			continue
		}
		if rankFilter >= 0 && m.From.Rank() != rankFilter {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if len(candidates) == 0 {
		return Move{}, fmt.Errorf("no legal move matches %q", orig)
	}
	return Move{}, fmt.Errorf("ambiguous move %q", orig)
}

func pieceFromLetter(c byte) PieceType {
	switch c {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	default:
		return NoPieceType
	}
}
