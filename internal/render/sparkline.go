package render

import "strings"

var (
	unicodeBlocks = []rune("▁▂▃▄▅▆▇█")
	asciiBlocks   = []rune(".:-=+*#@")
)

// flatRange is the spread below which a series is drawn as a flat line.
const flatRange = 1e-9

// Sparkline draws the last width values as one row of eight-level blocks,
// scaled to their own min and max. The result is always width runes wide.
func Sparkline(vals []float64, width int, ascii bool) string {
	if width <= 0 {
		return ""
	}
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}
	if len(vals) == 0 {
		return strings.Repeat(" ", width)
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	if hi-lo < flatRange {
		b.WriteString(strings.Repeat("-", len(vals)))
	} else {
		blocks := unicodeBlocks
		if ascii {
			blocks = asciiBlocks
		}
		for _, v := range vals {
			t := (v - lo) / (hi - lo)
			b.WriteRune(blocks[int(t*float64(len(blocks)-1))])
		}
	}
	b.WriteString(strings.Repeat(" ", width-len(vals)))
	return b.String()
}
