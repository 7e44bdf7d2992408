package render

import (
	"strings"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
)

// PatternWidth is how many recent anchors a Pattern keeps.
const PatternWidth = 60

// Pattern is a rolling window of anchor symbols ('+', '-', '0'), oldest first.
type Pattern struct {
	syms []rune
	max  int
}

// NewPattern keeps the last n symbols; n <= 0 means PatternWidth.
func NewPattern(n int) *Pattern {
	if n <= 0 {
		n = PatternWidth
	}
	return &Pattern{syms: make([]rune, 0, n), max: n}
}

// Push appends the symbol for s, evicting the oldest when full.
func (p *Pattern) Push(s anchor.State) {
	if len(p.syms) == p.max {
		copy(p.syms, p.syms[1:])
		p.syms = p.syms[:p.max-1]
	}
	p.syms = append(p.syms, rune(s.Symbol()))
}

// Len reports how many symbols are held.
func (p *Pattern) Len() int { return len(p.syms) }

// String joins the symbols; encoded separates them with spaces.
func (p *Pattern) String(encoded bool) string {
	if !encoded {
		return string(p.syms)
	}
	parts := make([]string, len(p.syms))
	for i, r := range p.syms {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
