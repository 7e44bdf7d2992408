package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
	"github.com/danielpatrickdp/tau-anchor/internal/replay"
	"github.com/danielpatrickdp/tau-anchor/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run database (DB mode)")
	runID := flag.String("run", "", "run to replay in DB mode (default: most recent)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	tolerance := flag.Float64("tolerance", 0, "allowed |harmonic| difference in DB mode (0 = bit-identical)")
	verbose := flag.Bool("v", false, "print every compared step, not only divergences")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/tau.db [--run id] [--tolerance x]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *verbose)
	} else {
		exitCode = runDBMode(*dbPath, *runID, *tolerance, *verbose)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, runID string, tolerance float64, verbose bool) int {
	s, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer s.Close()

	if runID == "" {
		runs, err := s.ListRuns(1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
			return 2
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "no runs found")
			return 2
		}
		runID = runs[0].ID
	}

	run, err := s.GetRun(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get run: %v\n", err)
		return 2
	}
	cfg, err := engine.ParseConfig([]byte(run.ConfigJSON))
	if err != nil {
		fmt.Fprintf(os.Stderr, "run config: %v\n", err)
		return 2
	}
	entries, err := s.Steps(run.ID, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read steps: %v\n", err)
		return 2
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no logged steps\n", run.ID)
		return 2
	}
	expected, err := replay.FromEntries(entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode steps: %v\n", err)
		return 2
	}

	// replay far enough to cover every logged step, even if the run was cut short
	n := int(expected[len(expected)-1].Step) + 1
	actual, err := replay.Replay(cfg, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	fmt.Printf("Run %s: %d steps recorded, %d logged\n\n", run.ID, run.Steps, len(entries))
	return printComparison(expected, actual, replay.Compare(expected, actual, tolerance), verbose)
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	cfg, err := f.EngineConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	actual, err := replay.Replay(cfg, f.Steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	expected := f.ExpectedResults()
	return printComparison(expected, actual, replay.Compare(expected, actual, f.Tolerance), verbose)
}

// #endregion fixture-mode

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(expected, actual []replay.Result, sum replay.Summary, verbose bool) int {
	byStep := make(map[uint64][]replay.Mismatch, len(sum.Mismatches))
	for _, m := range sum.Mismatches {
		byStep[m.Step] = append(byStep[m.Step], m)
	}
	replayed := make(map[uint64]replay.Result, len(actual))
	for _, r := range actual {
		replayed[r.Step] = r
	}

	fmt.Printf("%-10s| %-11s| %-11s| %s\n", "Step", "Expected", "Replayed", "Match")
	fmt.Printf("%-10s+%-12s+%-12s+%s\n", "----------", "------------", "------------", "------")
	for _, exp := range expected {
		diffs := byStep[exp.Step]
		if len(diffs) == 0 && !verbose {
			continue
		}
		got := "-"
		if r, ok := replayed[exp.Step]; ok {
			got = r.Anchor.String()
		}
		match := "OK"
		for _, d := range diffs {
			match = "DIFF " + d.Field
		}
		fmt.Printf("%-10d| %-11s| %-11s| %s\n", exp.Step, exp.Anchor, got, match)
	}

	diverge := len(byStep)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(expected), len(expected)-diverge, diverge)
	for _, m := range sum.Mismatches {
		if m.Field == "harmonic" {
			fmt.Printf("  %s\n", m)
		}
	}

	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
