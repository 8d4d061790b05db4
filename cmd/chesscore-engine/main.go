// Command chesscore-engine drives a child UCI engine from the command
// line: it spawns the given executable, performs the handshake, sets up a
// position, runs one fixed-depth search, and prints the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chesscore/chesscore/internal/engine"
	"github.com/chesscore/chesscore/internal/position"
)

func main() {
	fen := flag.String("fen", "", "FEN to analyze (default: standard starting position)")
	moves := flag.String("moves", "", "space-separated coordinate moves played from fen/startpos")
	depth := flag.Int("depth", 10, "search depth in plies")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: chesscore-engine [-fen FEN] [-moves \"e2e4 e7e5\"] [-depth N] <engine-path> [engine-args...]")
		os.Exit(2)
	}
	path := flag.Arg(0)
	args := flag.Args()[1:]

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	w := engine.New(path, args, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		log.Fatalf("starting engine %s: %v", path, err)
	}
	defer w.Close()

	spec := engine.PositionSpec{FEN: *fen}
	if *moves != "" {
		pos := startingPosition(*fen)
		for _, tok := range strings.Fields(*moves) {
			m, err := position.ParseCoordMove(tok, pos)
			if err != nil {
				log.Fatalf("parsing move %q: %v", tok, err)
			}
			pos.MakeMove(m)
			spec.Moves = append(spec.Moves, m)
		}
	}
	w.SetPosition(spec, nil)
	w.Go(engine.GoLimits{Mode: engine.GoDepth, Depth: *depth})

	for msg := range w.FromEngine() {
		switch msg.Kind {
		case engine.MsgInfoSearch:
			fmt.Printf("info depth=%d score=%+d nodes=%d\n", msg.Info.Depth, msg.Info.Score.CP, msg.Info.Nodes)
		case engine.MsgBestMove:
			fmt.Printf("bestmove %s\n", msg.BestMove.String())
			return
		case engine.MsgError:
			log.Fatalf("engine error: %v", msg.Err)
		}
	}
}

func startingPosition(fen string) *position.Position {
	if fen == "" {
		return position.NewPosition()
	}
	pos, err := position.ParseFEN(fen)
	if err != nil {
		log.Fatalf("parsing fen: %v", err)
	}
	return pos
}
