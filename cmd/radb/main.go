// Command radb is the relational-algebra query tool's entry point.
//
// Grounded on ShubhamNegi4-DaemonDB/main.go: load config/open storage once
// at startup, construct the execution engine over it, then hand off to an
// interactive REPL (or, with -source, a single batch file) until QUIT/EOF.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"radb/internal/buffer"
	"radb/internal/engine"
	"radb/internal/engineconfig"
	"radb/internal/shell"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	sourceFile := flag.String("source", "", "run this <data>/<f>.ra batch file instead of an interactive session")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := engineconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "radb: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "radb: %v\n", err)
		return 1
	}
	if err := os.MkdirAll(cfg.TempDir(), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "radb: %v\n", err)
		return 1
	}

	buf, err := buffer.New(cfg.TempDir(), cfg.BlockCount, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "radb: %v\n", err)
		return 1
	}

	eng := engine.New(buf, cfg, log)
	sh := shell.New(eng, cfg.DataDir, log)

	if *sourceFile != "" {
		return sh.Run(strings.NewReader("SOURCE "+*sourceFile), false)
	}

	return sh.Run(os.Stdin, true)
}
