package contrast

import (
	"gonum.org/v1/gonum/stat"
)

// intensities are the bucket values 0..255, already sorted as stat requires.
var intensities = func() []float64 {
	x := make([]float64, Buckets)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}()

// AutoWindow derives a window from the histogram that clips the darkest low
// and brightest high fractions of pixels, e.g. AutoWindow(h, 0.01, 0.99).
// Returns the full window for an empty histogram or invalid fractions.
func AutoWindow(h *Histogram, low, high float64) Window {
	w := DefaultWindow()
	if h == nil || h.Total() == 0 || low < 0 || high > 1 || low >= high {
		return w
	}
	weights := h.weights()
	w.Min = int(stat.Quantile(low, stat.Empirical, intensities, weights))
	w.Max = int(stat.Quantile(high, stat.Empirical, intensities, weights))
	w.Histogram = h
	return w
}

// Mean returns the mean intensity and its standard deviation.
func (h *Histogram) Mean() (mean, std float64) {
	if h == nil || h.Total() == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(intensities, h.weights())
}

func (h *Histogram) weights() []float64 {
	weights := make([]float64, Buckets)
	for i, c := range h {
		weights[i] = float64(c)
	}
	return weights
}
