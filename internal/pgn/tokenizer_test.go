package pgn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, s string) []Token {
	t.Helper()
	tok := NewTokenizer(strings.NewReader(s))
	var toks []Token
	for {
		tk, err := tok.Next()
		require.NoError(t, err)
		if tk.Kind == TokEOF {
			return toks
		}
		toks = append(toks, tk)
	}
}

func TestTokenizeTagPair(t *testing.T) {
	toks := tokenize(t, `[Event "World Championship"]`)
	require.Len(t, toks, 1)
	assert.Equal(t, TokTagPair, toks[0].Kind)
	assert.Equal(t, "Event", toks[0].Name)
	assert.Equal(t, "World Championship", toks[0].Value)
}

func TestTokenizeMovetext(t *testing.T) {
	toks := tokenize(t, `1. e4 e5 2. Nf3 Nc6 1-0`)
	var kinds []TokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	assert.Equal(t, []TokenKind{
		TokMoveNumber, TokMove, TokMove,
		TokMoveNumber, TokMove, TokMove,
		TokResult,
	}, kinds)
	assert.Equal(t, "e4", toks[1].Text)
	assert.Equal(t, "1-0", toks[6].Text)
}

func TestTokenizeNAGAndSymbolic(t *testing.T) {
	toks := tokenize(t, `e4 $1 Nf3!? ??`)
	require.Len(t, toks, 4)
	assert.Equal(t, TokMove, toks[0].Kind)
	assert.Equal(t, TokNAG, toks[1].Kind)
	assert.Equal(t, "1", toks[1].Text)
	assert.Equal(t, TokMove, toks[2].Kind)
	assert.Equal(t, TokSymbolicNAG, toks[3].Kind)
	assert.Equal(t, "??", toks[3].Text)
}

func TestTokenizeComment(t *testing.T) {
	toks := tokenize(t, `e4 {a solid opening} e5`)
	require.Len(t, toks, 3)
	assert.Equal(t, TokComment, toks[1].Kind)
	assert.Equal(t, "a solid opening", toks[1].Text)
}

func TestTokenizeVariation(t *testing.T) {
	toks := tokenize(t, `e4 (d4 d5) e5`)
	var kinds []TokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	assert.Equal(t, []TokenKind{
		TokMove, TokVarStart, TokMove, TokMove, TokVarEnd, TokMove,
	}, kinds)
}

func TestTokenizeLineCommentSkipped(t *testing.T) {
	toks := tokenize(t, "e4 ; trailing remark\ne5")
	require.Len(t, toks, 2)
	assert.Equal(t, "e4", toks[0].Text)
	assert.Equal(t, "e5", toks[1].Text)
}

func TestIsMoveNumber(t *testing.T) {
	assert.True(t, isMoveNumber("12."))
	assert.True(t, isMoveNumber("12..."))
	assert.True(t, isMoveNumber("1"))
	assert.False(t, isMoveNumber("e4"))
	assert.False(t, isMoveNumber(""))
}
