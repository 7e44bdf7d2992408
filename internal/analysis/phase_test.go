package analysis

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func TestPhaseError_ZeroPaddedEdges(t *testing.T) {
	got := PhaseError([]float64{1, 1, 1, 1}, 3)
	want := []float64{1.0 / 3, 0, 0, 1.0 / 3}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestPhaseError_EvenWindowLeansLeft(t *testing.T) {
	// window 4 covers [i-2, i+1]
	got := PhaseError([]float64{0, 0, 4, 0, 0}, 4)
	want := []float64{0, 1, 3, 1, 1}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestPhaseError_WindowClamped(t *testing.T) {
	vals := []float64{2, -2}
	// window 100 clamps to 2: means are [2/2, 0/2] = [1, 0]
	got := PhaseError(vals, 100)
	if !approx(got[0], 1) || !approx(got[1], 2) {
		t.Errorf("clamped window: got %v", got)
	}
	// window 0 clamps to 1: each value is its own mean
	for i, v := range PhaseError(vals, 0) {
		if v != 0 {
			t.Errorf("window 1 index %d: expected 0, got %v", i, v)
		}
	}
}

func TestPhaseError_Empty(t *testing.T) {
	got := PhaseError(nil, 10)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestPhaseError_NonNegative(t *testing.T) {
	vals := make([]float64, 500)
	for i := range vals {
		vals[i] = math.Sin(float64(i) / 7)
	}
	for i, v := range PhaseError(vals, DefaultWindow) {
		if v < 0 || math.IsNaN(v) {
			t.Fatalf("index %d: invalid error %v", i, v)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []float64{0.5, 0, 1e-05}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Step,PhaseError\n0,0.5\n1,0\n2,1e-05\n"
	if buf.String() != want {
		t.Errorf("csv:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	WriteCSV(&buf, nil)
	if strings.TrimSpace(buf.String()) != "Step,PhaseError" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriteError(t *testing.T) {
	if err := WriteCSV(failingWriter{}, []float64{1}); err == nil {
		t.Fatal("expected error from failing writer")
	}
}
