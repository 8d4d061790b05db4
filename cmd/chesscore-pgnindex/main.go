// Command chesscore-pgnindex builds or inspects a PGN sidecar index.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/chesscore/chesscore/internal/pgn"
)

func main() {
	indexDir := flag.String("index-dir", ".", "directory holding the sidecar .idx file")
	list := flag.Bool("list", false, "print each indexed game's offset and line number")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: chesscore-pgnindex [-index-dir dir] [-list] <file.pgn>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	var built int
	db, err := pgn.OpenWithLogger(path, *indexDir, logger, func(n int) { built = n })
	if err != nil {
		log.Fatalf("opening %s: %v", path, err)
	}

	fmt.Printf("%s: %d games indexed\n", path, db.Len())
	if built > 0 {
		fmt.Printf("(rebuilt %d sidecar entries)\n", built)
	}

	if *list {
		for i := 0; i < db.Len(); i++ {
			g, err := db.ReadAt(i)
			if err != nil {
				log.Fatalf("reading game %d: %v", i, err)
			}
			fmt.Printf("%4d  %-20s vs %-20s  %s\n", i, g.Roster.White, g.Roster.Black, g.Roster.Result)
		}
	}
}
