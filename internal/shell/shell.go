// Package shell is the line-oriented REPL front end: it owns stdin/stdout,
// the "SOURCE <f>" / "QUIT" control-flow keywords spec.md §6 calls out as
// shell-level rather than engine-level, and the human-readable rendering of
// engine.Result.
//
// Grounded on ShubhamNegi4-DaemonDB/main.go's bufio.Scanner prompt loop,
// generalized from its hardcoded lex/parse/codegen/execute pipeline to
// queryparse.Parse + engine.Execute, and extended with file-sourcing and a
// humanize-formatted LIST TABLES/PRINT rendering.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"radb/internal/engine"
	"radb/internal/queryparse"
)

// Shell drives one REPL session against a single Engine.
type Shell struct {
	Engine *engine.Engine
	Log    *slog.Logger
	Out    io.Writer
	DataDir string
}

// New constructs a Shell rendering to stdout.
func New(eng *engine.Engine, dataDir string, log *slog.Logger) *Shell {
	if log == nil {
		log = slog.Default()
	}
	return &Shell{Engine: eng, Log: log, Out: os.Stdout, DataDir: dataDir}
}

// Run reads lines from in until EOF or a QUIT line, executing each one and
// printing either its rendered Result or a one-line diagnostic. It returns
// the process exit code spec.md §6 calls for: 0 on a clean QUIT/EOF, 1 if any
// line produced an uncaught runtime failure.
func (sh *Shell) Run(in io.Reader, interactive bool) int {
	scanner := bufio.NewScanner(in)
	failed := false
	for {
		if interactive {
			fmt.Fprint(sh.Out, "radb> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		quit, err := sh.runLine(line)
		if err != nil {
			fmt.Fprintf(sh.Out, "ERROR: %v\n", err)
			failed = true
		}
		if quit {
			return 0
		}
	}
	if failed {
		return 1
	}
	return 0
}

// runLine executes one line, returning quit=true if it was "QUIT".
func (sh *Shell) runLine(line string) (quit bool, err error) {
	upper := strings.ToUpper(line)
	switch {
	case upper == "QUIT":
		return true, nil
	case strings.HasPrefix(upper, "SOURCE "):
		fname := strings.TrimSpace(line[len("SOURCE "):])
		return false, sh.runSourceFile(fname)
	default:
		return false, sh.runQuery(line)
	}
}

// runSourceFile runs every non-blank, non-comment line of <data>/<f>.ra in
// order, stopping at the first error (matching spec.md §6's batch semantics:
// a SOURCE file is a script, not a best-effort sweep).
func (sh *Shell) runSourceFile(name string) error {
	path := sh.DataDir + "/" + name + ".ra"
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("shell: source %q: %w", name, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") || strings.EqualFold(line, "QUIT") {
			continue
		}
		if err := sh.runQuery(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (sh *Shell) runQuery(line string) error {
	cmd, err := queryparse.Parse(line)
	if err != nil {
		return err
	}
	if cmd == nil {
		return nil
	}
	result, err := sh.Engine.Execute(cmd)
	if err != nil {
		return err
	}
	sh.render(cmd, result)
	return nil
}

func (sh *Shell) render(cmd *engine.Command, result *engine.Result) {
	if result == nil {
		return
	}
	switch {
	case len(result.Tables) > 0 || cmd.Kind == engine.KindListTables:
		sh.renderTables(result.Tables)
	case result.Columns != nil:
		sh.renderRows(result.Columns, result.Rows)
	case cmd.Kind == engine.KindUpdate || cmd.Kind == engine.KindDelete:
		fmt.Fprintf(sh.Out, "%s rows\n", humanize.Comma(int64(result.Count)))
	}
}

func (sh *Shell) renderTables(tables []engine.TableInfo) {
	for _, t := range tables {
		fmt.Fprintf(sh.Out, "%s\t%s rows\t%d blocks\n", t.Name, humanize.Comma(t.RowCount), t.BlockCount)
	}
}

func (sh *Shell) renderRows(columns []string, rows [][]int64) {
	fmt.Fprintln(sh.Out, strings.Join(columns, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = humanize.Comma(v)
		}
		fmt.Fprintln(sh.Out, strings.Join(cells, "\t"))
	}
}
