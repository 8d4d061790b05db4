package engine

import (
	"time"

	"github.com/chesscore/chesscore/internal/position"
	"github.com/chesscore/chesscore/internal/timecontrol"
)

// ClockLimits builds the GoLimits for a "go" command driven by wall-clock
// time controls. It reports both sides' remaining time (GoClock mode defers
// the per-move budget decision to the child engine, which is the usual UCI
// division of responsibility). WInc and BInc both carry the increment of the
// side to move's active period, and MovesToGo carries that side's moves left
// when the period is a rollover. When the tracker reports no periods at all
// it returns an infinite search; it does not compute a movetime itself.
func ClockLimits(white, black *timecontrol.TimeTracker, toMove position.Color) GoLimits {
	if len(white.TC.Periods) == 0 {
		return GoLimits{Mode: GoInfinite}
	}

	limits := GoLimits{
		Mode:  GoClock,
		WTime: time.Duration(white.TimeLeftMS) * time.Millisecond,
		BTime: time.Duration(black.TimeLeftMS) * time.Millisecond,
	}

	var ours *timecontrol.TimeTracker
	if toMove == position.White {
		ours = white
	} else {
		ours = black
	}
	if ours.ActivePeriod < len(ours.TC.Periods) {
		p := ours.TC.Periods[ours.ActivePeriod]
		limits.WInc = time.Duration(p.Increment) * time.Second
		limits.BInc = limits.WInc
		if p.Type == timecontrol.Rollover {
			limits.MovesToGo = ours.MovesLeftIn
		}
	}
	return limits
}

// FallbackMoveTime estimates a per-move budget directly from a tracker when
// no child engine time-management is available, mirroring the ratio the
// teacher's own UCI frontend used: remaining time split over an estimate of
// moves left, plus most of the increment, capped at 90% of what remains.
func FallbackMoveTime(t *timecontrol.TimeTracker, movesRemainingHint int) time.Duration {
	if t.TimeLeftMS <= 0 {
		return 10 * time.Millisecond
	}
	remaining := movesRemainingHint
	if remaining <= 0 {
		remaining = 30
	}

	var incMS int
	if t.ActivePeriod < len(t.TC.Periods) {
		incMS = t.TC.Periods[t.ActivePeriod].Increment * 1000
	}

	base := t.TimeLeftMS / remaining
	budget := base + (incMS * 90 / 100)

	max := t.TimeLeftMS * 90 / 100
	if budget > max {
		budget = max
	}
	if budget < 10 {
		budget = 10
	}
	return time.Duration(budget) * time.Millisecond
}
