package formation

import (
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Metrics are the spatial statistics of one team's position series
type Metrics struct {
	Width       float64 `json:"width"`
	Depth       float64 `json:"depth"`
	Compactness float64 `json:"compactness"`
}

//ComputeMetrics reduces a position series to its spread: width and depth are the spans of x and y,
//compactness is the sum of distances from the series centroid (grows with spread and with the number of positions).
//An empty series yields all-zero metrics, "no players seen" is a valid outcome.
func ComputeMetrics(series features.PositionSeries) Metrics {
	if len(series) == 0 {
		return Metrics{}
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = p.X
		ys[i] = p.Y
	}

	centroid := geom.Pt(stat.Mean(xs, nil), stat.Mean(ys, nil))

	compactness := 0.0
	for _, p := range series {
		compactness += p.Distance(centroid)
	}

	return Metrics{
		Width:       floats.Max(xs) - floats.Min(xs),
		Depth:       floats.Max(ys) - floats.Min(ys),
		Compactness: compactness,
	}
}
