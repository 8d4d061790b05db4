package position

// Fancy magic bitboards for sliding-piece attacks: each square has a
// relevant-occupancy mask and a multiplier that hashes any occupancy of
// that mask, collision-free, into a slot of a pre-computed attack table.

// slidingMagic holds one square's magic-bitboard entry.
type slidingMagic struct {
	mask   Bitboard
	magic  uint64
	shift  uint8
	offset uint32
}

var (
	bishopMagics [64]slidingMagic
	rookMagics   [64]slidingMagic

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

// rayDirection is one of the four diagonal or four orthogonal step vectors
// used to build an occupancy mask or to ray-cast an attack set.
type rayDirection struct{ df, dr int }

var bishopDirections = [4]rayDirection{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
var rookDirections = [4]rayDirection{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// castRay walks from sq in direction d, stopping (inclusive) at the first
// occupied square or the board edge.
func castRay(sq Square, d rayDirection, occupied Bitboard, edgeInclusive bool) Bitboard {
	var attacks Bitboard
	file, rank := sq.File(), sq.Rank()
	for {
		file += d.df
		rank += d.dr
		if file < 0 || file > 7 || rank < 0 || rank > 7 {
			return attacks
		}
		if nf, nr := file+d.df, rank+d.dr; !edgeInclusive && (nf < 0 || nf > 7 || nr < 0 || nr > 7) {
			// mask construction excludes the board edge, since an edge
			// occupant never changes whether the slider can reach it
			return attacks
		}
		s := NewSquare(file, rank)
		attacks |= SquareBB(s)
		if occupied&SquareBB(s) != 0 {
			return attacks
		}
	}
}

func slidingAttacksSlow(sq Square, occupied Bitboard, dirs [4]rayDirection) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		attacks |= castRay(sq, d, occupied, true)
	}
	return attacks
}

func slidingMask(sq Square, dirs [4]rayDirection) Bitboard {
	var mask Bitboard
	for _, d := range dirs {
		mask |= castRay(sq, d, Empty, false)
	}
	return mask
}

// occupancyFromIndex expands index (0..2^bits-1) into an occupancy subset
// of mask, treating each set bit of mask as one bit of index in turn.
func occupancyFromIndex(index, bits int, mask Bitboard) Bitboard {
	var occ Bitboard
	for i := 0; i < bits; i++ {
		sq := mask.LSB()
		mask &= mask - 1
		if index&(1<<i) != 0 {
			occ |= SquareBB(sq)
		}
	}
	return occ
}

// buildSlidingTable fills magics[sq] for every square and writes every
// reachable occupancy's attack set into table starting at the returned
// entry's offset, using the supplied magic multipliers.
func buildSlidingTable(magics *[64]slidingMagic, table []Bitboard, numbers *[64]uint64, dirs [4]rayDirection) {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := slidingMask(sq, dirs)
		bitsUsed := mask.PopCount()

		magics[sq] = slidingMagic{
			mask:   mask,
			magic:  numbers[sq],
			shift:  uint8(64 - bitsUsed),
			offset: offset,
		}

		entries := 1 << bitsUsed
		for i := 0; i < entries; i++ {
			occ := occupancyFromIndex(i, bitsUsed, mask)
			idx := (uint64(occ) * numbers[sq]) >> (64 - bitsUsed)
			table[offset+uint32(idx)] = slidingAttacksSlow(sq, occ, dirs)
		}
		offset += uint32(entries)
	}
}

func initMagics() {
	buildSlidingTable(&bishopMagics, bishopTable[:], &bishopMagicNumbers, bishopDirections)
	buildSlidingTable(&rookMagics, rookTable[:], &rookMagicNumbers, rookDirections)
}

func lookupSliding(magics *[64]slidingMagic, table []Bitboard, sq Square, occupied Bitboard) Bitboard {
	m := &magics[sq]
	idx := ((uint64(occupied) & uint64(m.mask)) * m.magic) >> m.shift
	return table[m.offset+uint32(idx)]
}

func getBishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return lookupSliding(&bishopMagics, bishopTable[:], sq, occupied)
}

func getRookAttacks(sq Square, occupied Bitboard) Bitboard {
	return lookupSliding(&rookMagics, rookTable[:], sq, occupied)
}

// Magic multipliers below are a found-by-search perfect hash for each
// square's relevant-occupancy mask: changing any one value risks table
// collisions, so these are the one part of this file kept as plain data
// rather than rederived.
var bishopMagicNumbers = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicNumbers = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}
