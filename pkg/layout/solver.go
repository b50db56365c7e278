package layout

// heightEntry describes one tile's vertical constraints for the height
// solver. A zero max means unconstrained.
type heightEntry struct {
	weight float64
	min    float64
	max    float64
}

// solveColumnWidth resolves a width policy to a proposed pixel width.
// Proportions count the trailing gap as part of their share, so fractions
// summing to 1 exactly fill the working area.
func solveColumnWidth(w Width, workingW, gap, naturalWidth float64) float64 {
	var px float64
	switch w.Kind {
	case WidthProportion:
		px = (workingW-gap)*w.Value - gap
	case WidthFixed:
		px = w.Value
	default:
		px = naturalWidth
	}
	if px < 1 {
		px = 1
	}
	return px
}

// widthFraction inverts solveColumnWidth for proportional policies,
// recovering the fraction a pixel width occupies.
func widthFraction(px, workingW, gap float64) float64 {
	denom := workingW - gap
	if denom <= 0 {
		return 1
	}
	return (px + gap) / denom
}

// solveHeights distributes a column's height among its tiles by weight.
// Tiles pinned by min/max constraints keep their clamped height and the
// remainder is shared once among the flexible tiles. Minimum sizes win
// over available space, so a crowded column may overflow past the bottom.
func solveHeights(total, gap float64, entries []heightEntry) []float64 {
	n := len(entries)
	if n == 0 {
		return nil
	}
	avail := total - gap*float64(n-1)
	if avail < 0 {
		avail = 0
	}

	heights := make([]float64, n)
	clamped := make([]bool, n)

	assign := func(pool float64, include func(i int) bool) {
		var sum float64
		for i, e := range entries {
			if include(i) {
				sum += e.weight
			}
		}
		if sum <= 0 {
			return
		}
		for i, e := range entries {
			if include(i) {
				heights[i] = pool * e.weight / sum
			}
		}
	}

	assign(avail, func(int) bool { return true })

	var pinned float64
	for i, e := range entries {
		h := clampHeight(heights[i], e)
		if h != heights[i] {
			clamped[i] = true
			heights[i] = h
			pinned += h
		}
	}

	if pinned > 0 {
		rest := avail - pinned
		if rest < 0 {
			rest = 0
		}
		assign(rest, func(i int) bool { return !clamped[i] })
		for i, e := range entries {
			if !clamped[i] {
				heights[i] = clampHeight(heights[i], e)
			}
		}
	}

	// Minimums win over available space. When they cannot all fit, every
	// tile keeps at least a sliver and the column overflows past the
	// bottom edge instead of losing windows.
	for i := range heights {
		if heights[i] < 1 {
			heights[i] = 1
		}
	}
	return heights
}

func clampHeight(h float64, e heightEntry) float64 {
	if e.min > 0 && h < e.min {
		h = e.min
	}
	if e.max > 0 && h > e.max {
		h = e.max
	}
	return h
}

// weightForHeight computes the weight that settles one tile at a
// requested height while sibling weights stay fixed.
func weightForHeight(h, avail, otherWeights float64) float64 {
	if otherWeights <= 0 {
		return 1
	}
	rest := avail - h
	if rest <= 0 {
		return otherWeights * 10000
	}
	return h * otherWeights / rest
}

// columnXs lays columns along the strip. The first column sits at strip
// origin zero and each successor follows after one gap.
func columnXs(widths []float64, gap float64) []float64 {
	xs := make([]float64, len(widths))
	var x float64
	for i, w := range widths {
		xs[i] = x
		x += w + gap
	}
	return xs
}
