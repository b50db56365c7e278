package geometry

import "math"

// Monitor scale guessing, following Mutter's heuristics:
// https://gitlab.gnome.org/GNOME/mutter/-/blob/gnome-46/src/backends/meta-monitor.c

const (
	minScale       = 1
	maxScale       = 4
	scaleSteps     = 4
	minLogicalArea = 800 * 480

	mobileTargetDPI    = 135.
	largeTargetDPI     = 110.
	largeMinSizeInches = 20.
)

// GuessMonitorScale picks a default scale for a monitor from its physical
// size in millimeters and its native resolution in physical pixels.
func GuessMonitorScale(widthMM, heightMM, resW, resH int) float64 {
	if widthMM == 0 || heightMM == 0 {
		return 1.
	}

	diagInches := math.Sqrt(float64(widthMM*widthMM+heightMM*heightMM)) / 25.4

	targetDPI := largeTargetDPI
	if diagInches < largeMinSizeInches {
		targetDPI = mobileTargetDPI
	}

	physicalDPI := math.Sqrt(float64(resW*resW+resH*resH)) / diagInches
	perfectScale := physicalDPI / targetDPI

	best := 1.
	bestDist := math.Inf(1)
	for _, scale := range SupportedScales(resW, resH) {
		if d := math.Abs(scale - perfectScale); d < bestDist {
			best = scale
			bestDist = d
		}
	}
	return best
}

// SupportedScales lists the scales in [1, 4] at quarter steps that leave at
// least an 800x480 logical area on the given resolution.
func SupportedScales(resW, resH int) []float64 {
	var scales []float64
	for x := minScale * scaleSteps; x <= maxScale*scaleSteps; x++ {
		scale := float64(x) / scaleSteps
		logicalW := math.Round(float64(resW) / scale)
		logicalH := math.Round(float64(resH) / scale)
		if logicalW*logicalH >= minLogicalArea {
			scales = append(scales, scale)
		}
	}
	return scales
}

// ClosestRepresentableScale rounds a scale to the nearest multiple of 1/120,
// the granularity of the fractional-scale protocol.
func ClosestRepresentableScale(scale float64) float64 {
	const fractionalScaleDenom = 120.
	return math.Round(scale*fractionalScaleDenom) / fractionalScaleDenom
}
