// Package timecontrol implements chess clock time controls: the ordered
// period list (TimeControl), its human/PGN text notations, and the
// TimeTracker that applies elapsed time and per-move increments against it.
package timecontrol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chesscore/chesscore/internal/xbit"
)

// PeriodType distinguishes the three kinds of time-control period.
type PeriodType int

const (
	// Rollover grants Moves moves in Time seconds, with moves_left resetting
	// to Moves (and time_left gaining Time seconds) every time it reaches 0.
	Rollover PeriodType = iota
	// GameIn grants the rest of the game in Time seconds; Moves is always 0.
	GameIn
	// MovesIn grants exactly one move in Time seconds; Moves is always 1 and
	// Increment is always 0. Each move gets a fresh Time-second allocation.
	MovesIn
)

func (t PeriodType) String() string {
	switch t {
	case Rollover:
		return "rollover"
	case GameIn:
		return "game-in"
	case MovesIn:
		return "moves-in"
	default:
		return "unknown"
	}
}

// Period is one entry in a TimeControl's ordered period list.
type Period struct {
	Type      PeriodType
	Moves     int
	Time      int // seconds
	Increment int // seconds, per move
}

// TimeControl is the ordered list of periods governing a game clock.
type TimeControl struct {
	Periods []Period
}

// Validate checks the period-list invariants: at least one period; a
// rollover period requires moves>0 and time>0; a game-in period requires
// moves=0 and time>0; a moves-in period requires moves=1, time>0,
// increment=0; only the last period may be game-in or moves-in.
func (tc TimeControl) Validate() error {
	if len(tc.Periods) == 0 {
		return fmt.Errorf("timecontrol: at least one period required")
	}
	for i, p := range tc.Periods {
		last := i == len(tc.Periods)-1
		switch p.Type {
		case Rollover:
			if p.Moves <= 0 || p.Time <= 0 {
				return fmt.Errorf("timecontrol: rollover period %d requires moves>0, time>0", i)
			}
		case GameIn:
			if p.Moves != 0 || p.Time <= 0 {
				return fmt.Errorf("timecontrol: game-in period %d requires moves=0, time>0", i)
			}
			if !last {
				return fmt.Errorf("timecontrol: game-in period %d must be last", i)
			}
		case MovesIn:
			if p.Moves != 1 || p.Time <= 0 || p.Increment != 0 {
				return fmt.Errorf("timecontrol: moves-in period %d requires moves=1, time>0, increment=0", i)
			}
			if !last {
				return fmt.Errorf("timecontrol: moves-in period %d must be last", i)
			}
		default:
			return fmt.Errorf("timecontrol: unknown period type at %d", i)
		}
	}
	return nil
}

// Format selects which text grammar Parse/Notation use.
type Format int

const (
	FormatUnknown Format = iota
	FormatHuman
	FormatPGN
)

// Parse parses a time-control string under the requested format, or
// auto-detects it when format is FormatUnknown: a composite separated by
// ":" is PGN, one separated by "," is human, and a single bare period is
// disambiguated per-period (see parsePeriodAuto).
func Parse(s string, format Format) (TimeControl, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeControl{}, fmt.Errorf("timecontrol: empty string")
	}

	switch format {
	case FormatHuman:
		return parseJoined(s, ",", parseHumanPeriod)
	case FormatPGN:
		return parseJoined(s, ":", parsePGNPeriod)
	default:
		if strings.Contains(s, ":") {
			return parseJoined(s, ":", parsePGNPeriod)
		}
		if strings.Contains(s, ",") {
			return parseJoined(s, ",", parseHumanPeriod)
		}
		p, err := parsePeriodAuto(s)
		if err != nil {
			return TimeControl{}, err
		}
		return TimeControl{Periods: []Period{p}}, nil
	}
}

func parseJoined(s, sep string, parseOne func(string) (Period, error)) (TimeControl, error) {
	parts := strings.Split(s, sep)
	tc := TimeControl{Periods: make([]Period, 0, len(parts))}
	for _, part := range parts {
		p, err := parseOne(part)
		if err != nil {
			return TimeControl{}, err
		}
		tc.Periods = append(tc.Periods, p)
	}
	return tc, nil
}

// parsePeriodAuto disambiguates a single bare period with no composite
// separator present. "G/" and "M/" prefixes are unambiguously human (PGN
// never uses them). A bare "<moves>/<number>" with no +/- increment hint
// is the true ambiguity the spec calls out: it defaults to the PGN reading
// (number is already seconds) when number>=300, and to the human reading
// (number is minutes) otherwise.
func parsePeriodAuto(s string) (Period, error) {
	if strings.HasPrefix(s, "G/") || strings.HasPrefix(s, "M/") {
		return parseHumanPeriod(s)
	}
	if strings.HasPrefix(s, "*") {
		return parsePGNPeriod(s)
	}
	if strings.ContainsAny(s, "+-") {
		return parsePGNPeriod(s)
	}
	if strings.Contains(s, "/") {
		fields := strings.SplitN(s, "/", 3)
		if len(fields) == 2 {
			n, err := strconv.Atoi(fields[1])
			if err == nil {
				if n >= 300 {
					return parsePGNPeriod(s)
				}
				return parseHumanPeriod(s)
			}
		}
		return parseHumanPeriod(s)
	}
	return parsePGNPeriod(s)
}

func parseHumanPeriod(s string) (Period, error) {
	switch {
	case strings.HasPrefix(s, "G/"):
		fields := strings.Split(s[2:], "/")
		mins, err := strconv.Atoi(fields[0])
		if err != nil {
			return Period{}, fmt.Errorf("timecontrol: invalid game-in minutes in %q", s)
		}
		inc := 0
		if len(fields) > 1 {
			inc, err = strconv.Atoi(fields[1])
			if err != nil {
				return Period{}, fmt.Errorf("timecontrol: invalid increment in %q", s)
			}
		}
		return Period{Type: GameIn, Moves: 0, Time: mins * 60, Increment: inc}, nil

	case strings.HasPrefix(s, "M/"):
		sec, err := strconv.Atoi(s[2:])
		if err != nil {
			return Period{}, fmt.Errorf("timecontrol: invalid moves-in seconds in %q", s)
		}
		return Period{Type: MovesIn, Moves: 1, Time: sec, Increment: 0}, nil

	default:
		fields := strings.Split(s, "/")
		if len(fields) < 2 {
			return Period{}, fmt.Errorf("timecontrol: invalid human period %q", s)
		}
		moves, err := strconv.Atoi(fields[0])
		if err != nil {
			return Period{}, fmt.Errorf("timecontrol: invalid move count in %q", s)
		}
		mins, err := strconv.Atoi(fields[1])
		if err != nil {
			return Period{}, fmt.Errorf("timecontrol: invalid minutes in %q", s)
		}
		inc := 0
		if len(fields) > 2 {
			inc, err = strconv.Atoi(fields[2])
			if err != nil {
				return Period{}, fmt.Errorf("timecontrol: invalid increment in %q", s)
			}
		}
		return Period{Type: Rollover, Moves: moves, Time: mins * 60, Increment: inc}, nil
	}
}

func parsePGNPeriod(s string) (Period, error) {
	if strings.HasPrefix(s, "*") {
		sec, err := strconv.Atoi(s[1:])
		if err != nil {
			return Period{}, fmt.Errorf("timecontrol: invalid moves-in seconds in %q", s)
		}
		return Period{Type: MovesIn, Moves: 1, Time: sec, Increment: 0}, nil
	}

	body, inc := splitIncrement(s)
	if slash := strings.IndexByte(body, '/'); slash >= 0 {
		moves, err := strconv.Atoi(body[:slash])
		if err != nil {
			return Period{}, fmt.Errorf("timecontrol: invalid move count in %q", s)
		}
		sec, err := strconv.Atoi(body[slash+1:])
		if err != nil {
			return Period{}, fmt.Errorf("timecontrol: invalid seconds in %q", s)
		}
		return Period{Type: Rollover, Moves: moves, Time: sec, Increment: inc}, nil
	}

	sec, err := strconv.Atoi(body)
	if err != nil {
		return Period{}, fmt.Errorf("timecontrol: invalid seconds in %q", s)
	}
	return Period{Type: GameIn, Moves: 0, Time: sec, Increment: inc}, nil
}

func splitIncrement(s string) (body string, inc int) {
	for i := 1; i < len(s); i++ {
		if s[i] == '+' || s[i] == '-' {
			n, err := strconv.Atoi(s[i:])
			if err == nil {
				return s[:i], n
			}
		}
	}
	return s, 0
}

// Notation renders tc in the requested format (FormatUnknown is rejected:
// callers must pick which grammar to write).
func (tc TimeControl) Notation(format Format) (string, error) {
	parts := make([]string, 0, len(tc.Periods))
	switch format {
	case FormatHuman:
		for _, p := range tc.Periods {
			parts = append(parts, humanNotation(p))
		}
		return strings.Join(parts, ","), nil
	case FormatPGN:
		for _, p := range tc.Periods {
			parts = append(parts, pgnNotation(p))
		}
		return strings.Join(parts, ":"), nil
	default:
		return "", fmt.Errorf("timecontrol: Notation requires FormatHuman or FormatPGN")
	}
}

func humanNotation(p Period) string {
	switch p.Type {
	case GameIn:
		if p.Increment != 0 {
			return fmt.Sprintf("G/%d/%d", p.Time/60, p.Increment)
		}
		return fmt.Sprintf("G/%d", p.Time/60)
	case MovesIn:
		return fmt.Sprintf("M/%d", p.Time)
	default:
		if p.Increment != 0 {
			return fmt.Sprintf("%d/%d/%d", p.Moves, p.Time/60, p.Increment)
		}
		return fmt.Sprintf("%d/%d", p.Moves, p.Time/60)
	}
}

func pgnNotation(p Period) string {
	switch p.Type {
	case GameIn:
		if p.Increment != 0 {
			return fmt.Sprintf("%d+%d", p.Time, p.Increment)
		}
		return strconv.Itoa(p.Time)
	case MovesIn:
		return fmt.Sprintf("*%d", p.Time)
	default:
		if p.Increment != 0 {
			return fmt.Sprintf("%d/%d+%d", p.Moves, p.Time, p.Increment)
		}
		return fmt.Sprintf("%d/%d", p.Moves, p.Time)
	}
}

// TimeTracker applies elapsed time and move increments against a
// TimeControl for one side of a game.
type TimeTracker struct {
	TC            TimeControl
	ActivePeriod  int
	TimeLeftMS    int
	MovesLeftIn   int
	OutOfTime     bool
}

// NewTimeTracker returns a tracker reset to the start of tc.
func NewTimeTracker(tc TimeControl) *TimeTracker {
	t := &TimeTracker{TC: tc}
	t.Reset()
	return t
}

// Reset returns the tracker to the beginning of its first period.
func (t *TimeTracker) Reset() {
	t.ActivePeriod = 0
	t.OutOfTime = false
	if len(t.TC.Periods) == 0 {
		return
	}
	p := t.TC.Periods[0]
	t.TimeLeftMS = p.Time * 1000
	t.MovesLeftIn = p.Moves
}

// Update subtracts elapsedMS from the clock. If the clock was already at
// zero when Update is called, it flags out_of_time; otherwise it clamps at
// zero without flagging (matching the spec's worked example: reaching
// exactly zero is not itself an out-of-time event).
func (t *TimeTracker) Update(elapsedMS int) {
	if t.TimeLeftMS <= 0 {
		t.OutOfTime = true
		return
	}
	t.TimeLeftMS -= elapsedMS
	if t.TimeLeftMS < 0 {
		t.TimeLeftMS = 0
	}
}

// AdvanceMove applies the active period's increment and move-count
// bookkeeping after a move completes. Rollover periods replenish
// moves_left and add the next period's time budget once moves_left reaches
// zero (a last rollover period repeats itself); moves-in periods reset to a
// fresh allocation every move.
func (t *TimeTracker) AdvanceMove() {
	if t.ActivePeriod >= len(t.TC.Periods) {
		return
	}
	p := t.TC.Periods[t.ActivePeriod]
	t.TimeLeftMS += p.Increment * 1000

	switch p.Type {
	case MovesIn:
		t.TimeLeftMS = p.Time * 1000
	case Rollover:
		if t.MovesLeftIn > 0 {
			t.MovesLeftIn--
		}
		if t.MovesLeftIn == 0 {
			if t.ActivePeriod+1 < len(t.TC.Periods) {
				t.ActivePeriod++
			}
			next := t.TC.Periods[t.ActivePeriod]
			t.TimeLeftMS += next.Time * 1000
			t.MovesLeftIn = next.Moves
		}
	case GameIn:
		// Last period by construction; nothing to roll over to.
	}
}

// ToBlob packs tc as: a 4-bit period count, followed per period by {4-bit
// type, 8-bit moves, 16-bit time in seconds, 4-bit increment}.
func (tc TimeControl) ToBlob() []byte {
	w := xbit.NewBitWriter()
	w.WriteBits(uint64(len(tc.Periods)), 4)
	for _, p := range tc.Periods {
		w.WriteBits(uint64(p.Type), 4)
		w.WriteBits(uint64(p.Moves), 8)
		w.WriteBits(uint64(p.Time), 16)
		w.WriteBits(uint64(p.Increment), 4)
	}
	return w.Bytes()
}

// TimeControlFromBlob decodes the format ToBlob produces.
func TimeControlFromBlob(blob []byte) (TimeControl, error) {
	r := xbit.NewBitReader(blob)
	count, err := r.ReadBits(4)
	if err != nil {
		return TimeControl{}, fmt.Errorf("timecontrol: truncated blob reading period count: %w", err)
	}
	tc := TimeControl{Periods: make([]Period, 0, count)}
	for i := uint64(0); i < count; i++ {
		typ, err := r.ReadBits(4)
		if err != nil {
			return TimeControl{}, fmt.Errorf("timecontrol: truncated blob reading period %d type: %w", i, err)
		}
		moves, err := r.ReadBits(8)
		if err != nil {
			return TimeControl{}, fmt.Errorf("timecontrol: truncated blob reading period %d moves: %w", i, err)
		}
		secs, err := r.ReadBits(16)
		if err != nil {
			return TimeControl{}, fmt.Errorf("timecontrol: truncated blob reading period %d time: %w", i, err)
		}
		inc, err := r.ReadBits(4)
		if err != nil {
			return TimeControl{}, fmt.Errorf("timecontrol: truncated blob reading period %d increment: %w", i, err)
		}
		tc.Periods = append(tc.Periods, Period{
			Type:      PeriodType(typ),
			Moves:     int(moves),
			Time:      int(secs),
			Increment: int(inc),
		})
	}
	return tc, nil
}
