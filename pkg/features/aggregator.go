package features

import (
	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
)

//PositionSeries is every position seen for one team over a video, in frame order.
//Detections are not matched between frames, so the series is a population sample of where the team's
//players were, not a per-player trajectory. Several detections from the same frame are all kept.
type PositionSeries []geom.Point

//Aggregator collects per-frame observations in a single pass over the video into per-team position series
//(formation path) and per-frame feature vectors (risk path). Owned by one request, not safe for concurrent use.
type Aggregator struct {
	extractor *Extractor
	required  []string
	series    map[detect.Team]PositionSeries
	vectors   []Vector
	frames    int
	lastFrame int
}

//NewAggregator returns an empty aggregator computing features with given extractor (default extractor when nil).
//When required names are given, a frame's vector is kept only if it carries every one of them; frames
//missing one (partial pose, occluded joint) are treated like frames without a pose.
func NewAggregator(extractor *Extractor, required ...string) *Aggregator {
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &Aggregator{
		extractor: extractor,
		required:  append([]string(nil), required...),
		series:    make(map[detect.Team]PositionSeries),
		lastFrame: -1,
	}
}

//Add records one frame's observations. Team positions are appended to their team's series; the first
//observation with landmarks that yields a usable vector contributes one feature vector for the frame.
//Frames without a usable pose contribute no vector.
func (a *Aggregator) Add(frameIndex int, observations []detect.Observation) {
	if frameIndex != a.lastFrame {
		a.frames++
		a.lastFrame = frameIndex
	}

	vectorAdded := false
	for _, o := range observations {
		if o.Team != detect.NoTeam {
			a.series[o.Team] = append(a.series[o.Team], o.Position)
		}

		if vectorAdded || !o.HasPose() {
			continue
		}
		if v := a.extractor.Extract(o.Landmarks); a.usable(v) {
			a.vectors = append(a.vectors, v)
			vectorAdded = true
		}
	}
}

func (a *Aggregator) usable(v Vector) bool {
	if len(v) == 0 {
		return false
	}
	for _, name := range a.required {
		if _, ok := v[name]; !ok {
			return false
		}
	}
	return true
}

//Series returns a copy of team's positions so far
func (a *Aggregator) Series(team detect.Team) PositionSeries {
	s := a.series[team]
	res := make(PositionSeries, len(s))
	copy(res, s)
	return res
}

//Vectors returns the feature vectors collected so far, one per frame with a usable pose
func (a *Aggregator) Vectors() []Vector {
	res := make([]Vector, len(a.vectors))
	copy(res, a.vectors)
	return res
}

//Frames returns how many distinct frames were added
func (a *Aggregator) Frames() int {
	return a.frames
}
