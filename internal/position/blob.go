package position

import "fmt"

// BlobSize is the fixed size in bytes of the packed position encoding.
const BlobSize = 38

// ToBlob encodes the position into the 38-byte form: 64 nibbles of mailbox
// content in bytes 0-31; side to move, castling rights and ep file (9 bits)
// in byte 32 plus the low bit of byte 37; halfmove clock and fullmove
// number as little-endian 16-bit values in bytes 33-36.
func (p *Position) ToBlob() [BlobSize]byte {
	var out [BlobSize]byte
	for sq := A1; sq <= H8; sq++ {
		piece := p.PieceAt(sq)
		nibble := byte(0)
		if piece != NoPiece {
			nibble = byte(piece.Type()) + 1
			if piece.Color() == Black {
				nibble |= 0x8
			}
		}
		byteIdx := int(sq) / 2
		if int(sq)%2 == 0 {
			out[byteIdx] = (out[byteIdx] &^ 0x0F) | nibble
		} else {
			out[byteIdx] = (out[byteIdx] &^ 0xF0) | (nibble << 4)
		}
	}

	tail := uint32(0)
	if p.SideToMove == Black {
		tail |= 1
	}
	tail |= uint32(p.CastlingRights&0xF) << 1
	epNibble := uint32(0)
	if p.EnPassant != NoSquare {
		epNibble = uint32(p.EnPassant.File()) + 1
	}
	tail |= epNibble << 5
	out[32] = byte(tail)

	out[33] = byte(p.HalfMoveClock)
	out[34] = byte(p.HalfMoveClock >> 8)
	out[35] = byte(p.FullMoveNumber)
	out[36] = byte(p.FullMoveNumber >> 8)
	out[37] = byte(tail >> 8)
	return out
}

// FromBlob decodes a 38-byte blob into a Position, re-verifying legality
// exactly as set_from_fen does.
func FromBlob(blob [BlobSize]byte) (*Position, error) {
	pos := &Position{EnPassant: NoSquare, FullMoveNumber: 1}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare
	for sq := range pos.Board {
		pos.Board[sq] = NoPiece
	}

	for sq := A1; sq <= H8; sq++ {
		byteIdx := int(sq) / 2
		var nibble byte
		if int(sq)%2 == 0 {
			nibble = blob[byteIdx] & 0x0F
		} else {
			nibble = (blob[byteIdx] >> 4) & 0x0F
		}
		if nibble == 0 {
			continue
		}
		pt := PieceType(nibble&0x7) - 1
		if pt > King {
			return nil, fmt.Errorf("blob decode: invalid piece nibble at square %s", sq)
		}
		c := White
		if nibble&0x8 != 0 {
			c = Black
		}
		pos.setPiece(NewPiece(pt, c), sq)
	}

	tail := uint32(blob[32]) | uint32(blob[37])<<8
	if tail&1 != 0 {
		pos.SideToMove = Black
	} else {
		pos.SideToMove = White
	}
	pos.CastlingRights = CastlingRights((tail >> 1) & 0xF)
	epNibble := (tail >> 5) & 0xF
	if epNibble != 0 {
		file := int(epNibble - 1)
		rank := 5
		if pos.SideToMove == Black {
			rank = 2
		}
		pos.EnPassant = NewSquare(file, rank)
	}

	pos.HalfMoveClock = int(blob[33]) | int(blob[34])<<8
	pos.FullMoveNumber = int(blob[35]) | int(blob[36])<<8

	pos.updateOccupied()
	pos.findKings()
	pos.Hash = pos.ComputeHash()
	pos.PawnKey = pos.ComputePawnKey()

	if !pos.Validate() {
		return nil, fmt.Errorf("blob decode: %s", pos.LastError())
	}
	return pos, nil
}
