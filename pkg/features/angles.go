package features

import (
	"math"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
)

//JointAngle returns the interior angle at b, in degrees, formed by segments b->a and b->c.
//ok is false when one of the segments has zero length (angle undefined).
func JointAngle(a, b, c geom.Point) (angle float64, ok bool) {
	ba := a.Sub(b)
	bc := c.Sub(b)

	norms := ba.Norm() * bc.Norm()
	if norms == 0 {
		return 0, false
	}

	cosine := ba.Dot(bc) / norms
	cosine = math.Max(-1, math.Min(1, cosine)) //rounding can push it slightly out of acos domain

	return math.Acos(cosine) * 180 / math.Pi, true
}

//Joint is a named angle measured at Vertex between From and To landmarks
type Joint struct {
	Name   string
	From   string
	Vertex string
	To     string
}

//Feature names
const (
	LeftKneeAngle   = "left_knee_angle"
	RightKneeAngle  = "right_knee_angle"
	LeftHipAngle    = "left_hip_angle"
	RightHipAngle   = "right_hip_angle"
	LeftElbowAngle  = "left_elbow_angle"
	RightElbowAngle = "right_elbow_angle"
)

//DefaultJoints are the joint angles extracted from every frame with a pose
var DefaultJoints = []Joint{
	{Name: LeftKneeAngle, From: detect.LeftHip, Vertex: detect.LeftKnee, To: detect.LeftAnkle},
	{Name: RightKneeAngle, From: detect.RightHip, Vertex: detect.RightKnee, To: detect.RightAnkle},
	{Name: LeftHipAngle, From: detect.LeftShoulder, Vertex: detect.LeftHip, To: detect.LeftKnee},
	{Name: RightHipAngle, From: detect.RightShoulder, Vertex: detect.RightHip, To: detect.RightKnee},
	{Name: LeftElbowAngle, From: detect.LeftShoulder, Vertex: detect.LeftElbow, To: detect.LeftWrist},
	{Name: RightElbowAngle, From: detect.RightShoulder, Vertex: detect.RightElbow, To: detect.RightWrist},
}

//DefaultModelFeatures is the input layout baselines are trained on unless configured otherwise
var DefaultModelFeatures = []string{LeftKneeAngle}

//KnownFeature reports whether name is produced by one of DefaultJoints
func KnownFeature(name string) bool {
	for _, j := range DefaultJoints {
		if j.Name == name {
			return true
		}
	}
	return false
}
