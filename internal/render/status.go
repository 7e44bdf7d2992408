package render

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// StatusLine is the single in-place line shown with the terminal plot.
// It carries no leading carriage return.
func StatusLine(rec engine.Record, plot, pattern string) string {
	return fmt.Sprintf("Step %9s | Anchor: %-10s | Mode: %-11s | Scale: %-5s | Mem: %.2f | Harm: %+.3f | Plot: %s | Pat: %-60s",
		humanize.Comma(int64(rec.Step)),
		rec.Anchor,
		rec.Hints.Mode,
		rec.Hints.Attention,
		rec.Hints.MemoryPriority,
		rec.Harmonic,
		plot,
		pattern,
	)
}

// SummaryLine is the periodic scrolling line printed without the plot.
func SummaryLine(rec engine.Record) string {
	return fmt.Sprintf("Step %3d: %-10s | Mode: %-11s | Scale: %-5s | Memory: %.2f",
		rec.Step,
		rec.Anchor,
		rec.Hints.Mode,
		rec.Hints.Attention,
		rec.Hints.MemoryPriority,
	)
}

// FinalLine reports the outcome of a run.
func FinalLine(steps uint64, counts map[anchor.State]uint64, cancelled bool) string {
	verb := "completed"
	if cancelled {
		verb = "interrupted"
	}
	return fmt.Sprintf("Run %s after %s steps (FLOW_PLUS %s, FLOW_MINUS %s, SYNC %s)",
		verb,
		humanize.Comma(int64(steps)),
		humanize.Comma(int64(counts[anchor.FlowPlus])),
		humanize.Comma(int64(counts[anchor.FlowMinus])),
		humanize.Comma(int64(counts[anchor.Sync])),
	)
}
