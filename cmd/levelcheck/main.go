// Command levelcheck inspects level files before they ship.
//
//	levelcheck validate [--dir levels] [file ...]
//	levelcheck analyze  [--dir levels] [--moves] [file ...]
//
// validate checks each file against the level schema and the layout rules
// (rectangular rows, known characters, one spawn marker). analyze also builds
// the level and searches for the shortest slide sequence that breaks every
// tile, reporting levels that cannot be cleared.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/tileslide/game/config"
	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

// ValidationResult captures the outcome of checking a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Level  *engine.LevelConfig
}

// AnalysisResult is the solver report for one valid level.
type AnalysisResult struct {
	File     string
	Name     string
	Width    int
	Height   int
	Tiles    int
	Solvable bool
	Moves    []string
	Distance int
	Explored int
	Err      error
}

var errChecksFailed = errors.New("some levels failed")

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	dirFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "dir",
			Value: "levels",
			Usage: "directory scanned when no files are given",
		}
	}
	return &cli.Command{
		Name:   "levelcheck",
		Usage:  "validate and analyze tile slide level files",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check level files against the schema and layout rules",
				ArgsUsage: "[file ...]",
				Flags:     []cli.Flag{dirFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(out, cmd.String("dir"), cmd.Args().Slice())
				},
			},
			{
				Name:      "analyze",
				Usage:     "solve each level and report its shortest solution",
				ArgsUsage: "[file ...]",
				Flags: []cli.Flag{
					dirFlag(),
					&cli.BoolFlag{Name: "moves", Usage: "print the solution path"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runAnalyze(out, cmd.String("dir"), cmd.Args().Slice(), cmd.Bool("moves"))
				},
			},
		},
	}
}

// levelFiles returns args when present, otherwise every .json file in dir.
func levelFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func validateLevel(schema *jsonschema.Schema, path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read file: %v", err))
		return result
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	level, err := config.ParseLevel(schema, id, data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Level = level
	return result
}

func validateAll(dir string, args []string) ([]ValidationResult, error) {
	files, err := levelFiles(dir, args)
	if err != nil {
		return nil, err
	}
	schema, err := config.CompileLevelSchema()
	if err != nil {
		return nil, err
	}
	results := make([]ValidationResult, 0, len(files))
	for _, f := range files {
		results = append(results, validateLevel(schema, f))
	}
	return results, nil
}

func runValidate(out io.Writer, dir string, args []string) error {
	results, err := validateAll(dir, args)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(out, "✓ %s\n", r.File)
			continue
		}
		failed++
		fmt.Fprintf(out, "✗ %s\n", r.File)
		for _, e := range r.Errors {
			fmt.Fprintf(out, "    %s\n", e)
		}
	}
	fmt.Fprintf(out, "\n%d of %d levels valid\n", len(results)-failed, len(results))

	if failed > 0 {
		return fmt.Errorf("%w: %d invalid", errChecksFailed, failed)
	}
	return nil
}

func analyzeLevel(file string, cfg *engine.LevelConfig) AnalysisResult {
	result := AnalysisResult{File: file, Name: cfg.Name}
	level, err := engine.BuildLevel(cfg, 0)
	if err != nil {
		result.Err = err
		return result
	}
	result.Height = len(cfg.Layout)
	for _, row := range cfg.Layout {
		if len(row) > result.Width {
			result.Width = len(row)
		}
	}
	result.Tiles = len(level.Tiles)

	sol, err := engine.Solve(level)
	if err != nil {
		result.Err = err
		return result
	}
	result.Solvable = sol.Solvable
	result.Moves = sol.Path
	result.Distance = sol.Distance
	result.Explored = sol.Explored
	return result
}

func runAnalyze(out io.Writer, dir string, args []string, showMoves bool) error {
	results, err := validateAll(dir, args)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Valid {
			failed++
			fmt.Fprintf(out, "✗ %s: %s\n", r.File, strings.Join(r.Errors, "; "))
			continue
		}
		a := analyzeLevel(r.File, r.Level)
		switch {
		case a.Err != nil:
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", a.File, a.Err)
		case !a.Solvable:
			failed++
			fmt.Fprintf(out, "✗ %s (%s) %dx%d, %d tiles: unsolvable after %d states\n",
				a.File, a.Name, a.Width, a.Height, a.Tiles, a.Explored)
		default:
			fmt.Fprintf(out, "✓ %s (%s) %dx%d, %d tiles: %d moves over %d cells, %d states\n",
				a.File, a.Name, a.Width, a.Height, a.Tiles, len(a.Moves), a.Distance, a.Explored)
			if showMoves && len(a.Moves) > 0 {
				fmt.Fprintf(out, "    %s\n", strings.Join(a.Moves, " "))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, failed, len(results))
	}
	return nil
}
