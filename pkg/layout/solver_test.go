package layout

import (
	"math"
	"testing"
)

func TestSolveColumnWidthPolicies(t *testing.T) {
	if got := solveColumnWidth(ProportionWidth(0.5), 1280, 16, 0); got != (1280-16)*0.5-16 {
		t.Fatalf("expected proportional width %v, got %v", (1280-16)*0.5-16, got)
	}
	if got := solveColumnWidth(FixedWidth(420), 1280, 16, 0); got != 420 {
		t.Fatalf("expected fixed width 420, got %v", got)
	}
	if got := solveColumnWidth(FitContentWidth(), 1280, 16, 333); got != 333 {
		t.Fatalf("expected fit-content width 333, got %v", got)
	}
	if got := solveColumnWidth(ProportionWidth(0.0001), 1280, 16, 0); got != 1 {
		t.Fatalf("expected floor width 1, got %v", got)
	}
}

func TestProportionalWidthsSumAtZeroGap(t *testing.T) {
	fractions := []float64{0.25, 0.25, 0.5}
	var sum float64
	for _, f := range fractions {
		sum += solveColumnWidth(ProportionWidth(f), 800, 0, 0)
	}
	if math.Abs(sum-800) > 1 {
		t.Fatalf("expected widths to sum to 800 within 1px, got %v", sum)
	}
}

func TestWidthFractionInvertsSolve(t *testing.T) {
	px := solveColumnWidth(ProportionWidth(0.4), 1280, 16, 0)
	if f := widthFraction(px, 1280, 16); math.Abs(f-0.4) > 1e-9 {
		t.Fatalf("expected fraction 0.4, got %v", f)
	}
}

func TestSolveHeightsEqualShares(t *testing.T) {
	hs := solveHeights(720, 0, []heightEntry{{weight: 1}, {weight: 1}, {weight: 1}})
	for i, h := range hs {
		if h != 240 {
			t.Fatalf("expected tile %d height 240, got %v", i, h)
		}
	}
}

func TestSolveHeightsWeighted(t *testing.T) {
	hs := solveHeights(720, 0, []heightEntry{{weight: 2}, {weight: 1}, {weight: 1}})
	want := []float64{360, 180, 180}
	for i, h := range hs {
		if math.Abs(h-want[i]) > 1e-9 {
			t.Fatalf("expected heights %v, got %v", want, hs)
		}
	}
}

func TestSolveHeightsSubtractsGaps(t *testing.T) {
	hs := solveHeights(720, 16, []heightEntry{{weight: 1}, {weight: 1}})
	if hs[0] != 352 || hs[1] != 352 {
		t.Fatalf("expected 352 each after one gap, got %v", hs)
	}
}

func TestSolveHeightsRedistributesClampedRemainder(t *testing.T) {
	hs := solveHeights(720, 0, []heightEntry{
		{weight: 1, max: 100},
		{weight: 1},
		{weight: 1},
	})
	want := []float64{100, 310, 310}
	for i := range want {
		if math.Abs(hs[i]-want[i]) > 1e-9 {
			t.Fatalf("expected heights %v, got %v", want, hs)
		}
	}
}

func TestSolveHeightsMinimumsOverflow(t *testing.T) {
	hs := solveHeights(300, 0, []heightEntry{
		{weight: 1, min: 200},
		{weight: 1, min: 200},
		{weight: 1},
	})
	if hs[0] != 200 || hs[1] != 200 {
		t.Fatalf("expected minimums kept, got %v", hs)
	}
	if hs[2] < 1 {
		t.Fatalf("expected the flexible tile to keep at least 1px, got %v", hs[2])
	}
	if hs[0]+hs[1]+hs[2] <= 300 {
		t.Fatalf("expected the column to overflow available height, got %v", hs)
	}
}

func TestColumnXsAccumulateWithGaps(t *testing.T) {
	xs := columnXs([]float64{400, 300, 500}, 0)
	if xs[0] != 0 || xs[1] != 400 || xs[2] != 700 {
		t.Fatalf("expected [0 400 700], got %v", xs)
	}
	xs = columnXs([]float64{400, 300, 500}, 16)
	if xs[0] != 0 || xs[1] != 416 || xs[2] != 732 {
		t.Fatalf("expected [0 416 732], got %v", xs)
	}
}

func TestWeightForHeightSettlesTile(t *testing.T) {
	w := weightForHeight(500, 720, 1)
	hs := solveHeights(720, 0, []heightEntry{{weight: w}, {weight: 1}})
	if math.Abs(hs[0]-500) > 1e-6 {
		t.Fatalf("expected reweighted tile at 500, got %v", hs[0])
	}
	if math.Abs(hs[1]-220) > 1e-6 {
		t.Fatalf("expected sibling at 220, got %v", hs[1])
	}
}
