package features

import (
	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
)

//Vector maps a feature name (a joint angle) to its value for one frame
type Vector map[string]float64

//Extractor turns one frame's landmarks into a feature vector.
//Baseline training and risk analysis share the same extractor so both see identical features.
type Extractor struct {
	joints []Joint
}

//NewExtractor builds an extractor for given joints, DefaultJoints when none given
func NewExtractor(joints ...Joint) *Extractor {
	if len(joints) == 0 {
		joints = DefaultJoints
	}
	return &Extractor{joints: joints}
}

//Extract computes every joint angle whose three landmarks are present. Joints with a missing
//or degenerate landmark are left out of the vector, the vector may be empty.
func (e *Extractor) Extract(landmarks detect.Landmarks) Vector {
	v := make(Vector)
	for _, j := range e.joints {
		a, ok1 := landmarks[j.From]
		b, ok2 := landmarks[j.Vertex]
		c, ok3 := landmarks[j.To]
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		if angle, ok := JointAngle(a, b, c); ok {
			v[j.Name] = angle
		}
	}
	return v
}
