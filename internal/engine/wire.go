package engine

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chesscore/chesscore/internal/position"
)

func interruptSignal() os.Signal { return os.Interrupt }

// ioLoop is the single cooperative worker that owns both directions of the
// wire: it drains outbound messages to the child's stdin and parses lines
// arriving on the child's stdout, translating each into a Message on
// fromEngine. It runs until the quit signal fires or stdout closes.
func (w *Worker) ioLoop(scanner *bufio.Scanner) {
	lines := make(chan string, 256)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-w.quit:
			return

		case line, ok := <-lines:
			if !ok {
				w.fromEngine <- Message{Kind: MsgError, Err: fmt.Errorf("engine: child stdout closed")}
				return
			}
			w.handleInbound(line)

		case out, ok := <-w.toEngine:
			if !ok {
				return
			}
			w.handleOutbound(out)
		}
	}
}

func (w *Worker) writeLine(s string) {
	w.mu.Lock()
	stdin := w.stdin
	w.mu.Unlock()
	if stdin == nil {
		return
	}
	_, _ = stdin.Write([]byte(s + "\n"))
}

func (w *Worker) handleOutbound(m Message) {
	switch m.Kind {
	case MsgUCI:
		w.writeLine("uci")
	case MsgDebug:
		w.writeLine("debug on")
	case MsgIsReady:
		w.writeLine("isready")
	case MsgRegister:
		w.writeLine(buildRegister(m))
	case MsgSetOption:
		w.writeLine(buildSetOption(m.SetOptionName, m.SetOptionValue))
	case MsgNewGame:
		w.writeLine("ucinewgame")
	case MsgPosition:
		w.lastPosition = m.Position
		w.writeLine(buildPosition(m.Position))
	case MsgGo:
		w.writeLine(buildGo(m.Go))
	case MsgStop:
		w.writeLine("stop")
	case MsgPonderHit:
		w.writeLine("ponderhit")
	case MsgQuit:
		w.writeLine("quit")
	}
}

func buildRegister(m Message) string {
	if m.RegisterLater {
		return "register later"
	}
	var b strings.Builder
	b.WriteString("register")
	if m.RegisterName != "" {
		b.WriteString(" name " + m.RegisterName)
	}
	if m.RegisterCode != "" {
		b.WriteString(" code " + m.RegisterCode)
	}
	return b.String()
}

func buildSetOption(name, value string) string {
	if value == "" {
		return "setoption name " + name
	}
	return "setoption name " + name + " value " + value
}

func buildPosition(spec PositionSpec) string {
	var b strings.Builder
	if spec.FEN == "" {
		b.WriteString("position startpos")
	} else {
		b.WriteString("position fen " + spec.FEN)
	}
	if len(spec.Moves) > 0 {
		b.WriteString(" moves")
		for _, m := range spec.Moves {
			b.WriteString(" " + m.String())
		}
	}
	return b.String()
}

// buildGo renders a go command, honoring mode priority infinite > depth >
// clock times > fixed movetime.
func buildGo(g GoLimits) string {
	var b strings.Builder
	b.WriteString("go")
	switch g.Mode {
	case GoInfinite:
		b.WriteString(" infinite")
	case GoDepth:
		b.WriteString(fmt.Sprintf(" depth %d", g.Depth))
	case GoClock:
		if g.WTime > 0 {
			b.WriteString(fmt.Sprintf(" wtime %d", g.WTime.Milliseconds()))
		}
		if g.BTime > 0 {
			b.WriteString(fmt.Sprintf(" btime %d", g.BTime.Milliseconds()))
		}
		if g.WInc > 0 {
			b.WriteString(fmt.Sprintf(" winc %d", g.WInc.Milliseconds()))
		}
		if g.BInc > 0 {
			b.WriteString(fmt.Sprintf(" binc %d", g.BInc.Milliseconds()))
		}
		if g.MovesToGo > 0 {
			b.WriteString(fmt.Sprintf(" movestogo %d", g.MovesToGo))
		}
	case GoMoveTime:
		b.WriteString(fmt.Sprintf(" movetime %d", g.MoveTime.Milliseconds()))
	}
	return b.String()
}

// handleInbound parses one line of child stdout and emits a Message.
func (w *Worker) handleInbound(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	fields := strings.Fields(line)
	cmd := fields[0]
	rest := fields[1:]

	switch cmd {
	case "id":
		if len(rest) >= 2 {
			switch rest[0] {
			case "name":
				w.fromEngine <- Message{Kind: MsgID, IDName: strings.Join(rest[1:], " ")}
			case "author":
				w.fromEngine <- Message{Kind: MsgID, IDAuthor: strings.Join(rest[1:], " ")}
			}
		}
	case "uciok":
		w.fromEngine <- Message{Kind: MsgUCIOk}
	case "readyok":
		w.fromEngine <- Message{Kind: MsgReadyOk}
	case "registration":
		if len(rest) > 0 && rest[0] == "error" {
			w.fromEngine <- Message{Kind: MsgRegistrationError}
		}
	case "option":
		w.fromEngine <- Message{Kind: MsgOption, Option: parseOption(rest)}
	case "info":
		if len(rest) > 0 && rest[0] == "string" {
			w.fromEngine <- Message{Kind: MsgInfoString, InfoString: strings.Join(rest[1:], " ")}
			return
		}
		w.fromEngine <- Message{Kind: MsgInfoSearch, Info: w.parseInfo(rest)}
	case "bestmove":
		w.onBestMove(rest)
	default:
		// Unrecognized lines (engine banners, copyright text) are ignored.
	}
}

func (w *Worker) onBestMove(rest []string) {
	bestMoveCounter.Inc()
	if !w.goStarted.IsZero() {
		searchDuration.Observe(time.Since(w.goStarted).Seconds())
	}

	msg := Message{Kind: MsgBestMove}
	if len(rest) > 0 {
		msg.BestMove = w.resolveWireMove(rest[0])
	}
	if len(rest) >= 3 && rest[1] == "ponder" {
		msg.PonderMove = w.resolveWireMove(rest[2])
		msg.HasPonder = true
	}
	w.fromEngine <- msg

	w.setState(StateIdle)
	w.mu.Lock()
	pending := w.pendingOption
	w.pendingOption = nil
	w.mu.Unlock()
	for _, p := range pending {
		w.send(p)
	}
}

// resolveWireMove replays the last-sent position to resolve a coordinate
// string against a concrete position.Move (so From/To/Piece/Flags are
// filled in, not just the raw squares).
func (w *Worker) resolveWireMove(s string) position.Move {
	pos := startingPosition(w.lastPosition.FEN)
	for _, m := range w.lastPosition.Moves {
		pos.MakeMove(m)
	}
	m, err := position.ParseCoordMove(s, pos)
	if err != nil {
		return position.NullMove
	}
	return m
}

func startingPosition(fen string) *position.Position {
	if fen == "" {
		return position.NewPosition()
	}
	pos, err := position.ParseFEN(fen)
	if err != nil {
		return position.NewPosition()
	}
	return pos
}

// parseInfo scans an "info" line's fields left to right, stopping PV
// parsing at the first move that fails to resolve against the last-sent
// position (a truncated or desynced PV is better than a wrong one).
func (w *Worker) parseInfo(fields []string) SearchInfo {
	var info SearchInfo
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			i++
			if i < len(fields) {
				info.Depth, _ = strconv.Atoi(fields[i])
			}
		case "seldepth":
			i++
			if i < len(fields) {
				info.SelDepth, _ = strconv.Atoi(fields[i])
			}
		case "score":
			i++
			if i < len(fields) {
				switch fields[i] {
				case "cp":
					i++
					if i < len(fields) {
						info.Score.CP, _ = strconv.Atoi(fields[i])
					}
				case "mate":
					i++
					if i < len(fields) {
						info.Score.IsMate = true
						info.Score.Mate, _ = strconv.Atoi(fields[i])
					}
				}
				if i+1 < len(fields) {
					switch fields[i+1] {
					case "lowerbound":
						info.Score.Bound = ScoreLower
						i++
					case "upperbound":
						info.Score.Bound = ScoreUpper
						i++
					}
				}
			}
		case "nodes":
			i++
			if i < len(fields) {
				n, _ := strconv.ParseUint(fields[i], 10, 64)
				info.Nodes = n
			}
		case "nps":
			i++
			if i < len(fields) {
				n, _ := strconv.ParseUint(fields[i], 10, 64)
				info.NPS = n
			}
		case "time":
			i++
			if i < len(fields) {
				ms, _ := strconv.Atoi(fields[i])
				info.Time = time.Duration(ms) * time.Millisecond
			}
		case "hashfull":
			i++
			if i < len(fields) {
				info.HashFull, _ = strconv.Atoi(fields[i])
			}
		case "tbhits":
			i++
			if i < len(fields) {
				n, _ := strconv.ParseUint(fields[i], 10, 64)
				info.TBHits = n
			}
		case "pv":
			info.PV = w.parsePV(fields[i+1:])
			i = len(fields)
		case "currmove", "currmovenumber", "multipv", "cpuload":
			// Recognized but not retained; each takes exactly one argument.
			i++
		case "refutation", "currline":
			// Recognized but not retained; consumes the rest of the line.
			i = len(fields)
		default:
			// Unrecognized token; ignore.
		}
	}
	return info
}

func (w *Worker) parsePV(tokens []string) []position.Move {
	pos := startingPosition(w.lastPosition.FEN)
	for _, m := range w.lastPosition.Moves {
		pos.MakeMove(m)
	}
	var pv []position.Move
	for _, tok := range tokens {
		m, err := position.ParseCoordMove(tok, pos)
		if err != nil {
			break
		}
		if _, ok := pos.MakeMove(m); !ok {
			break
		}
		pv = append(pv, m)
	}
	return pv
}

func parseOption(fields []string) OptionDescriptor {
	var opt OptionDescriptor
	i := 0
	for i < len(fields) {
		switch fields[i] {
		case "name":
			i++
			start := i
			for i < len(fields) && fields[i] != "type" {
				i++
			}
			opt.Name = strings.Join(fields[start:i], " ")
		case "type":
			i++
			if i < len(fields) {
				switch fields[i] {
				case "check":
					opt.Kind = OptionCheck
				case "spin":
					opt.Kind = OptionSpin
				case "combo":
					opt.Kind = OptionCombo
				case "button":
					opt.Kind = OptionButton
				case "string":
					opt.Kind = OptionString
				}
				i++
			}
		case "default":
			i++
			start := i
			for i < len(fields) && fields[i] != "min" && fields[i] != "max" && fields[i] != "var" {
				i++
			}
			opt.Default = strings.Join(fields[start:i], " ")
		case "min":
			i++
			if i < len(fields) {
				opt.Min, _ = strconv.Atoi(fields[i])
				i++
			}
		case "max":
			i++
			if i < len(fields) {
				opt.Max, _ = strconv.Atoi(fields[i])
				i++
			}
		case "var":
			i++
			if i < len(fields) {
				opt.Vars = append(opt.Vars, fields[i])
				i++
			}
		default:
			i++
		}
	}
	return opt
}
