package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// DefaultWindow is the smoothing window used for run reports.
const DefaultWindow = 100

// #region phase-error

// PhaseError returns |x[i] - m[i]| where m is a centred moving average of
// width window over values. Positions whose window runs past either end
// treat the missing samples as zero, so edges are pulled toward zero. The
// window is clamped to [1, len(values)].
func PhaseError(values []float64, window int) []float64 {
	n := len(values)
	if n == 0 {
		return []float64{}
	}
	window = max(1, min(window, n))
	weight := 1 / float64(window)
	offset := (window - 1) / 2

	out := make([]float64, n)
	for i := range values {
		hi := i + offset
		lo := hi - window + 1
		var mean float64
		for k := max(lo, 0); k <= min(hi, n-1); k++ {
			mean += float64(values[k] * weight)
		}
		out[i] = math.Abs(values[i] - mean)
	}
	return out
}

// #endregion phase-error

// #region csv

// WriteCSV writes a Step,PhaseError table, one row per sample.
func WriteCSV(w io.Writer, errs []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Step", "PhaseError"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, v := range errs {
		row := []string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// #endregion csv
