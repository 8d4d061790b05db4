// Package engine drives an external UCI-speaking chess engine as a child
// process: it owns the process lifetime, translates a small internal
// message vocabulary to and from the engine's text wire protocol, and
// tracks the handshake/search state machine a conforming engine obeys.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chesscore/chesscore/internal/book"
	"github.com/chesscore/chesscore/internal/position"
	"github.com/chesscore/chesscore/internal/timecontrol"
)

// State is the engine worker's handshake/search state machine.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateIdle
	StateReady
	StateThinking
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateThinking:
		return "thinking"
	default:
		return "unknown"
	}
}

// GoMode selects which go-command limit the worker honors, in the priority
// order infinite > depth > clock times > fixed movetime.
type GoMode int

const (
	GoInfinite GoMode = iota
	GoDepth
	GoClock
	GoMoveTime
)

// GoLimits parameterizes an outbound "go" command.
type GoLimits struct {
	Mode      GoMode
	Depth     int
	MoveTime  time.Duration
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// PositionSpec is the outbound "position" command's argument: either the
// standard start position or an explicit FEN, plus the moves played since.
type PositionSpec struct {
	FEN   string // empty means startpos
	Moves []position.Move
}

// Score is a search evaluation, normalized to White's point of view.
type Score struct {
	CP      int
	Mate    int
	IsMate  bool
	Bound   ScoreBound
}

type ScoreBound int

const (
	ScoreExact ScoreBound = iota
	ScoreLower
	ScoreUpper
)

// SearchInfo carries one parsed "info" line's recognized fields.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    Score
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	HashFull int
	TBHits   uint64
	PV       []position.Move
}

// OptionKind mirrors the five UCI option value kinds.
type OptionKind int

const (
	OptionCheck OptionKind = iota
	OptionSpin
	OptionCombo
	OptionButton
	OptionString
)

// OptionDescriptor records one "option" line the engine advertised.
type OptionDescriptor struct {
	Name    string
	Kind    OptionKind
	Default string
	Min, Max int
	Vars    []string
}

// Message is the internal event vocabulary exchanged with a worker's
// caller: outbound requests flow in on ToEngine, inbound notifications flow
// out on FromEngine.
type Message struct {
	Kind MessageKind

	// Outbound payloads.
	SetOptionName, SetOptionValue string
	Position                     PositionSpec
	Go                            GoLimits
	RegisterLater                bool
	RegisterName, RegisterCode   string

	// Inbound payloads.
	IDName, IDAuthor string
	Option           OptionDescriptor
	Info             SearchInfo
	InfoString       string
	BestMove         position.Move
	PonderMove       position.Move
	HasPonder        bool
	Err              error
}

type MessageKind int

const (
	MsgUCI MessageKind = iota
	MsgDebug
	MsgIsReady
	MsgRegister
	MsgSetOption
	MsgNewGame
	MsgPosition
	MsgGo
	MsgStop
	MsgPonderHit
	MsgQuit

	MsgID
	MsgUCIOk
	MsgReadyOk
	MsgRegistrationError
	MsgOption
	MsgInfoSearch
	MsgInfoString
	MsgBestMove
	MsgError
	MsgMainloopAlive
)

var metricsOnce sync.Once

var (
	stateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chesscore",
		Subsystem: "engine",
		Name:      "state",
		Help:      "Current engine worker state (0=unloaded..4=thinking).",
	})
	bestMoveCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chesscore",
		Subsystem: "engine",
		Name:      "bestmove_total",
		Help:      "Number of bestmove messages received from the child engine.",
	})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chesscore",
		Subsystem: "engine",
		Name:      "search_duration_seconds",
		Help:      "Wall time between a go command and its bestmove.",
		Buckets:   prometheus.DefBuckets,
	})
)

func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(stateGauge, bestMoveCounter, searchDuration)
	})
}

// Worker manages one child engine process.
type Worker struct {
	cmdPath string
	cmdArgs []string
	log     *zap.Logger

	mu    sync.Mutex
	state State
	proc  *exec.Cmd
	stdin io.WriteCloser

	toEngine   chan Message
	fromEngine chan Message
	quit       chan struct{}
	eg         *errgroup.Group

	lastPosition  PositionSpec
	goStarted     time.Time
	pendingOption []Message // set_option calls deferred while thinking

	tracker *timecontrol.TimeTracker

	book    *book.Book
	useBook bool
}

// UseBook enables or disables consulting an opening book before dispatching
// a search to the child engine, mirroring the way a GUI-side UCI driver can
// short-circuit "go" with its own book move instead of ever asking the
// engine to think.
func (w *Worker) UseBook(b *book.Book, enabled bool) {
	w.mu.Lock()
	w.book = b
	w.useBook = enabled
	w.mu.Unlock()
}

// New constructs a Worker for the given engine executable. It does not
// start the process; call Start for that.
func New(path string, args []string, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	registerMetrics()
	return &Worker{
		cmdPath:    path,
		cmdArgs:    args,
		log:        log,
		state:      StateUnloaded,
		toEngine:   make(chan Message, 64),
		fromEngine: make(chan Message, 256),
		quit:       make(chan struct{}),
	}
}

// FromEngine returns the channel of inbound notifications.
func (w *Worker) FromEngine() <-chan Message { return w.fromEngine }

// State reports the worker's current state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
	stateGauge.Set(float64(s))
}

// Start spawns the child process and begins the cooperative I/O loop. It
// sends the initial "uci" handshake and blocks until uciok arrives or ctx is
// done.
func (w *Worker) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, w.cmdPath, w.cmdArgs...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("engine: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("engine: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("engine: starting %s: %w", w.cmdPath, err)
	}

	w.mu.Lock()
	w.proc = cmd
	w.stdin = stdin
	w.mu.Unlock()

	eg, _ := errgroup.WithContext(ctx)
	w.eg = eg
	eg.Go(func() error {
		w.ioLoop(bufio.NewScanner(stdout))
		return nil
	})

	w.setState(StateLoaded)
	ready := make(chan struct{})
	go func() {
		for msg := range w.fromEngine {
			if msg.Kind == MsgUCIOk {
				close(ready)
				return
			}
		}
	}()

	w.send(Message{Kind: MsgUCI})

	select {
	case <-ready:
		w.setState(StateIdle)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send writes one outbound message to the to-engine queue.
func (w *Worker) send(m Message) {
	select {
	case w.toEngine <- m:
	case <-w.quit:
	}
}

// SetOption queues a setoption command. If the worker is currently
// thinking, the command is held until the in-flight search completes
// (UCI forbids setoption while searching).
func (w *Worker) SetOption(name, value string) {
	m := Message{Kind: MsgSetOption, SetOptionName: name, SetOptionValue: value}
	w.mu.Lock()
	thinking := w.state == StateThinking
	if thinking {
		w.pendingOption = append(w.pendingOption, m)
	}
	w.mu.Unlock()
	if !thinking {
		w.send(m)
	}
}

// NewGame queues ucinewgame.
func (w *Worker) NewGame() { w.send(Message{Kind: MsgNewGame}) }

// SetPosition queues a position command, followed by a go under resumeGo
// when resumeGo is non-nil. If the worker is mid-search, a stop is queued
// first; the stopped search's bestmove is not discarded but delivered like
// any other, resolved against the most recently sent position.
func (w *Worker) SetPosition(spec PositionSpec, resumeGo *GoLimits) {
	w.mu.Lock()
	thinking := w.state == StateThinking
	w.mu.Unlock()

	if thinking {
		w.send(Message{Kind: MsgStop})
	}
	w.send(Message{Kind: MsgPosition, Position: spec})
	if resumeGo != nil {
		w.send(Message{Kind: MsgGo, Go: *resumeGo})
	}
}

// Go starts a search under limits. If an opening book is enabled and holds
// a move for the last-sent position, it answers immediately with that move
// as a bestmove message instead of dispatching anything to the child.
func (w *Worker) Go(limits GoLimits) {
	w.mu.Lock()
	b, useBook := w.book, w.useBook
	w.mu.Unlock()

	if useBook && b != nil {
		pos := startingPosition(w.lastPosition.FEN)
		for _, m := range w.lastPosition.Moves {
			pos.MakeMove(m)
		}
		if move, ok := b.Probe(pos); ok {
			w.fromEngine <- Message{Kind: MsgBestMove, BestMove: move}
			return
		}
	}

	w.goStarted = time.Now()
	w.setState(StateThinking)
	w.send(Message{Kind: MsgGo, Go: limits})
}

// Stop requests the current search halt and report its bestmove.
func (w *Worker) Stop() { w.send(Message{Kind: MsgStop}) }

// Quit requests graceful shutdown; Close escalates if the process lingers.
func (w *Worker) Quit() {
	w.send(Message{Kind: MsgQuit})
}

// Wait blocks until the I/O loop goroutine exits (child stdout closed or
// Close was called), returning its error, if any.
func (w *Worker) Wait() error {
	if w.eg == nil {
		return nil
	}
	return w.eg.Wait()
}

// Close terminates the child process, sending SIGINT then escalating to
// SIGKILL if it does not exit within the grace period.
func (w *Worker) Close() error {
	close(w.quit)
	_ = w.Wait()

	w.mu.Lock()
	proc := w.proc
	w.mu.Unlock()
	if proc == nil || proc.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	_ = proc.Process.Signal(interruptSignal())
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		_ = proc.Process.Kill()
		return <-done
	}
}
