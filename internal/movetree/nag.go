package movetree

// NAG constants are the standard Numeric Annotation Glyph codes used by
// PGN. Only the ones a human annotator commonly reaches for are named; any
// other value in 0..255 has no symbol: Symbol returns "" for it and the PGN
// writer renders it in $n form.
const (
	NAGNone                   = 0
	NAGGoodMove               = 1  // !
	NAGPoorMove               = 2  // ?
	NAGVeryGoodMove           = 3  // !!
	NAGVeryPoorMove           = 4  // ??
	NAGSpeculativeMove        = 5  // !?
	NAGQuestionableMove       = 6  // ?!
	NAGForcedMove             = 7
	NAGDrawishPosition        = 10 // =
	NAGUnclearPosition        = 13
	NAGWhiteSlightAdvantage   = 14
	NAGBlackSlightAdvantage   = 15
	NAGWhiteModerateAdvantage = 16
	NAGBlackModerateAdvantage = 17
	NAGWhiteDecisiveAdvantage = 18
	NAGBlackDecisiveAdvantage = 19
	NAGWithInitiative         = 36
	NAGWithAttack             = 40
	NAGZugzwang               = 22
	NAGNovelty                = 146
)

// symbolTable is the published int→glyph inverse for the handful of NAGs
// that have a conventional textual symbol; PGN writers emit these instead
// of the numeric `$n` form, and the tokenizer recognizes them directly.
var symbolTable = map[int]string{
	NAGGoodMove:             "!",
	NAGPoorMove:             "?",
	NAGVeryGoodMove:         "!!",
	NAGVeryPoorMove:         "??",
	NAGSpeculativeMove:      "!?",
	NAGQuestionableMove:     "?!",
	NAGDrawishPosition:      "=",
	NAGWhiteSlightAdvantage: "+/=",
	NAGBlackSlightAdvantage: "=/+",
	NAGWhiteDecisiveAdvantage: "+-",
	NAGBlackDecisiveAdvantage: "-+",
}

var symbolToNAG = func() map[string]int {
	m := make(map[string]int, len(symbolTable))
	for n, s := range symbolTable {
		m[s] = n
	}
	return m
}()

// Symbol returns the conventional glyph for a NAG code, or "" if it has none
// (callers fall back to the numeric "$n" form).
func Symbol(nag int) string {
	return symbolTable[nag]
}

// ParseSymbol returns the NAG code for a conventional glyph, and whether one
// was found.
func ParseSymbol(sym string) (int, bool) {
	n, ok := symbolToNAG[sym]
	return n, ok
}
