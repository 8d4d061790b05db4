package timecontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHumanGameIn(t *testing.T) {
	tc, err := Parse("G/5", FormatUnknown)
	require.NoError(t, err)
	require.Len(t, tc.Periods, 1)
	assert.Equal(t, GameIn, tc.Periods[0].Type)
	assert.Equal(t, 0, tc.Periods[0].Moves)
	assert.Equal(t, 300, tc.Periods[0].Time)

	notation, err := tc.Notation(FormatHuman)
	require.NoError(t, err)
	assert.Equal(t, "G/5", notation)
}

func TestParsePGNComposite(t *testing.T) {
	tc, err := Parse("40/7200+30:20/3600:1800", FormatUnknown)
	require.NoError(t, err)
	require.Len(t, tc.Periods, 3)

	assert.Equal(t, Period{Type: Rollover, Moves: 40, Time: 7200, Increment: 30}, tc.Periods[0])
	assert.Equal(t, Period{Type: Rollover, Moves: 20, Time: 3600, Increment: 0}, tc.Periods[1])
	assert.Equal(t, Period{Type: GameIn, Moves: 0, Time: 1800, Increment: 0}, tc.Periods[2])

	notation, err := tc.Notation(FormatPGN)
	require.NoError(t, err)
	assert.Equal(t, "40/7200+30:20/3600:1800", notation)
}

func TestTimeTrackerUnderGameInOneMinute(t *testing.T) {
	tc, err := Parse("G/1", FormatUnknown)
	require.NoError(t, err)
	tracker := NewTimeTracker(tc)
	assert.Equal(t, 60000, tracker.TimeLeftMS)

	tracker.Update(1200)
	assert.Equal(t, 58800, tracker.TimeLeftMS)
	tracker.Update(37000)
	assert.Equal(t, 21800, tracker.TimeLeftMS)
	tracker.Update(20002)
	assert.Equal(t, 1798, tracker.TimeLeftMS)
	tracker.Update(1798)
	assert.Equal(t, 0, tracker.TimeLeftMS)
	assert.False(t, tracker.OutOfTime)
	tracker.Update(1)
	assert.Equal(t, 0, tracker.TimeLeftMS)
	assert.True(t, tracker.OutOfTime)
}

func TestValidateRejectsMisplacedPeriods(t *testing.T) {
	tc := TimeControl{Periods: []Period{
		{Type: GameIn, Time: 300},
		{Type: Rollover, Moves: 40, Time: 7200},
	}}
	assert.Error(t, tc.Validate())
}
