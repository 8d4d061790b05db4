package cfdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesscore/chesscore/internal/game"
)

func seedTwoGames(t *testing.T, db *DB) (carlsenID, tataID int64) {
	t.Helper()
	g1 := sampleGameRecord(t)
	id1, err := db.WriteGame(g1, 0)
	require.NoError(t, err)

	g2 := game.New()
	g2.Roster.White = "Carlsen, Magnus"
	g2.Roster.Black = "Caruana, Fabiano"
	g2.Roster.Event = "Tata Steel"
	g2.Roster.ECO = "B90"
	g2.Roster.Result = game.Draw
	g2.Roster.Year = 2023
	id2, err := db.WriteGame(g2, 0)
	require.NoError(t, err)

	return id1, id2
}

func TestSearchByWhiteExact(t *testing.T) {
	db := openTempDB(t)
	id1, id2 := seedTwoGames(t, db)

	var got []int64
	err := db.Search([]Criterion{{Field: FieldWhite, Match: Equals, Value: "Carlsen, Magnus"}}, nil, 0, 0,
		func(id int64) bool { got = append(got, id); return true })
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{id1, id2}, got)
}

func TestSearchByPlayerMatchesEitherColor(t *testing.T) {
	db := openTempDB(t)
	_, id2 := seedTwoGames(t, db)

	var got []int64
	err := db.Search([]Criterion{{Field: FieldPlayer, Match: Equals, Value: "Caruana, Fabiano"}}, nil, 0, 0,
		func(id int64) bool { got = append(got, id); return true })
	require.NoError(t, err)
	assert.Equal(t, []int64{id2}, got)
}

func TestSearchByECOStartsWith(t *testing.T) {
	db := openTempDB(t)
	id1, _ := seedTwoGames(t, db)

	var got []int64
	err := db.Search([]Criterion{{Field: FieldECO, Match: StartsWith, Value: "C2"}}, nil, 0, 0,
		func(id int64) bool { got = append(got, id); return true })
	require.NoError(t, err)
	assert.Equal(t, []int64{id1}, got)
}

func TestSearchByDateYear(t *testing.T) {
	db := openTempDB(t)
	id1, _ := seedTwoGames(t, db)

	var got []int64
	err := db.Search([]Criterion{{Field: FieldDate, Value: "2021"}}, nil, 0, 0,
		func(id int64) bool { got = append(got, id); return true })
	require.NoError(t, err)
	assert.Equal(t, []int64{id1}, got)
}

func TestSearchLimitWithDescendingSort(t *testing.T) {
	db := openTempDB(t)
	_, id2 := seedTwoGames(t, db)

	var got []int64
	err := db.Search(nil, []SortCriterion{{Field: SortGameID, Descending: true}}, 0, 1,
		func(id int64) bool { got = append(got, id); return true })
	require.NoError(t, err)
	assert.Equal(t, []int64{id2}, got)
}

func TestSearchCallbackStopsIteration(t *testing.T) {
	db := openTempDB(t)
	seedTwoGames(t, db)

	var got []int64
	err := db.Search(nil, nil, 0, 0, func(id int64) bool {
		got = append(got, id)
		return false
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDateClauseRejectsBadLength(t *testing.T) {
	c := Criterion{Field: FieldDate, Value: "12345"}
	_, _, err := c.buildClause()
	assert.Error(t, err)
}
