package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/logging"
	"github.com/danielpatrickdp/tau-anchor/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show a single run and its steps")
	steps := flag.Int("steps", 50, "with --run, show the first N steps (0 = all)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/tau.db [--last N] [--run id] [--steps N] [--json]")
		os.Exit(2)
	}

	s, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if *runID != "" {
		err = runDetailMode(s, *runID, *steps, *jsonOut)
	} else {
		err = runListMode(s, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	Steps      uint64 `json:"steps"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func runListMode(s *store.Store, last int, jsonOut bool) error {
	runs, err := s.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// store returns DESC, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		lr := listRow{
			RunID:     r.ID,
			Status:    r.Status,
			Steps:     r.Steps,
			StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
		if !r.FinishedAt.IsZero() {
			lr.FinishedAt = r.FinishedAt.Format("2006-01-02T15:04:05Z")
		}
		rows[len(runs)-1-i] = lr
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-8s  %-9s  %12s  %-20s  %s\n", "Run", "Status", "Steps", "Started", "Finished")
	fmt.Printf("%-8s+-%-9s+-%12s+-%-20s+-%s\n", "--------", "---------", "------------", "--------------------", "--------------------")
	for _, r := range rows {
		finished := "—"
		if r.FinishedAt != "" {
			finished = r.FinishedAt
		}
		fmt.Printf("%-8s  %-9s  %12d  %-20s  %s\n", shortID(r.RunID), r.Status, r.Steps, r.StartedAt, finished)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID      string          `json:"run_id"`
	Status     string          `json:"status"`
	Steps      uint64          `json:"steps"`
	Logged     int             `json:"logged"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at,omitempty"`
	Anchors    map[string]int  `json:"anchors"`
	Config     json.RawMessage `json:"config"`
	StepRows   []stepRow       `json:"step_rows"`
}

type stepRow struct {
	Step           uint64  `json:"step"`
	Anchor         string  `json:"anchor"`
	Harmonic       float64 `json:"harmonic"`
	Mode           string  `json:"processing_mode,omitempty"`
	Attention      string  `json:"attention_scale,omitempty"`
	MemoryPriority float64 `json:"memory_priority"`
}

func runDetailMode(s *store.Store, runID string, limit int, jsonOut bool) error {
	run, err := s.GetRun(runID)
	if err != nil {
		return err
	}
	entries, err := s.Steps(runID, 0)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:     run.ID,
		Status:    run.Status,
		Steps:     run.Steps,
		Logged:    len(entries),
		StartedAt: run.StartedAt.Format("2006-01-02T15:04:05Z"),
		Anchors:   countAnchors(entries),
		Config:    json.RawMessage(run.ConfigJSON),
	}
	if !run.FinishedAt.IsZero() {
		out.FinishedAt = run.FinishedAt.Format("2006-01-02T15:04:05Z")
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for _, e := range entries {
		out.StepRows = append(out.StepRows, stepRow{
			Step:           e.Step,
			Anchor:         e.Anchor,
			Harmonic:       e.Harmonic,
			Mode:           e.Mode,
			Attention:      e.Attention,
			MemoryPriority: e.MemoryPriority,
		})
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", out.RunID)
	fmt.Printf("Status:     %s\n", out.Status)
	fmt.Printf("Steps:      %d (%d logged)\n", out.Steps, out.Logged)
	fmt.Printf("Started:    %s\n", out.StartedAt)
	if out.FinishedAt != "" {
		fmt.Printf("Finished:   %s\n", out.FinishedAt)
	}

	fmt.Printf("\nAnchors:\n")
	for _, st := range anchor.States {
		fmt.Printf("  %-12s %d\n", st, out.Anchors[st.String()])
	}

	if len(out.StepRows) > 0 {
		fmt.Printf("\n%8s  %-10s  %9s  %-11s  %-5s  %s\n", "Step", "Anchor", "Harmonic", "Mode", "Scale", "Mem")
		for _, r := range out.StepRows {
			fmt.Printf("%8d  %-10s  %+9.4f  %-11s  %-5s  %.2f\n",
				r.Step, r.Anchor, r.Harmonic, r.Mode, r.Attention, r.MemoryPriority)
		}
	}
	return nil
}

func countAnchors(entries []logging.StepEntry) map[string]int {
	counts := make(map[string]int, len(anchor.States))
	for _, e := range entries {
		counts[e.Anchor]++
	}
	return counts
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
