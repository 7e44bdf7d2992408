package render

import (
	"fmt"
	"io"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region printer-config

// PrinterConfig controls console output.
type PrinterConfig struct {
	Plot         bool // redraw one status line in place with a sparkline
	ASCII        bool // ASCII blocks instead of Unicode
	Encoded      bool // space-separated pattern symbols
	PlotEvery    uint64
	SummaryEvery uint64
	Width        int // sparkline and pattern width
}

// DefaultPrinterConfig returns the console defaults: a summary line every
// 20 steps, or an in-place plot every 5 when Plot is set.
func DefaultPrinterConfig() PrinterConfig {
	return PrinterConfig{
		PlotEvery:    5,
		SummaryEvery: 20,
		Width:        PatternWidth,
	}
}

// #endregion printer-config

// #region printer

// Printer is a host observer that writes progress to a terminal.
type Printer struct {
	w         io.Writer
	config    PrinterConfig
	pattern   *Pattern
	harmonics []float64
	plotted   bool
	err       error
}

// NewPrinter writes to w. Zero intervals fall back to the defaults.
func NewPrinter(w io.Writer, config PrinterConfig) *Printer {
	def := DefaultPrinterConfig()
	if config.PlotEvery == 0 {
		config.PlotEvery = def.PlotEvery
	}
	if config.SummaryEvery == 0 {
		config.SummaryEvery = def.SummaryEvery
	}
	if config.Width <= 0 {
		config.Width = def.Width
	}
	return &Printer{
		w:         w,
		config:    config,
		pattern:   NewPattern(config.Width),
		harmonics: make([]float64, 0, config.Width),
	}
}

// Observe implements host.Observer.
func (p *Printer) Observe(rec engine.Record) {
	p.pattern.Push(rec.Anchor)
	if len(p.harmonics) == p.config.Width {
		copy(p.harmonics, p.harmonics[1:])
		p.harmonics = p.harmonics[:p.config.Width-1]
	}
	p.harmonics = append(p.harmonics, rec.Harmonic)

	switch {
	case p.config.Plot && rec.Step%p.config.PlotEvery == 0:
		plot := Sparkline(p.harmonics, p.config.Width, p.config.ASCII)
		p.write("\r" + StatusLine(rec, plot, p.pattern.String(p.config.Encoded)))
		p.plotted = true
	case rec.Step%p.config.SummaryEvery == 0:
		p.write(SummaryLine(rec) + "\n")
	}
}

// Finish ends an in-place status line so later output starts on a fresh row.
func (p *Printer) Finish() error {
	if p.plotted {
		p.write("\n")
		p.plotted = false
	}
	return p.err
}

// Err returns the first write error, if any.
func (p *Printer) Err() error { return p.err }

func (p *Printer) write(s string) {
	if p.err != nil {
		return
	}
	if _, err := io.WriteString(p.w, s); err != nil {
		p.err = fmt.Errorf("write console: %w", err)
	}
}

// #endregion printer
