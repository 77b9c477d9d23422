package detect

import (
	"image"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
)

//Team identifies which team an observation was assigned to
type Team int

const (
	//NoTeam is used by strategies that don't assign teams (pose landmarks)
	NoTeam Team = iota
	TeamA
	TeamB
)

//Teams lists the teams a match analysis reports on, in output order
var Teams = []Team{TeamA, TeamB}

func (t Team) String() string {
	switch t {
	case TeamA:
		return "teamA"
	case TeamB:
		return "teamB"
	default:
		return "none"
	}
}

//Landmark names, COCO body layout as produced by OpenPose style networks
const (
	Nose          = "nose"
	Neck          = "neck"
	RightShoulder = "right_shoulder"
	RightElbow    = "right_elbow"
	RightWrist    = "right_wrist"
	LeftShoulder  = "left_shoulder"
	LeftElbow     = "left_elbow"
	LeftWrist     = "left_wrist"
	RightHip      = "right_hip"
	RightKnee     = "right_knee"
	RightAnkle    = "right_ankle"
	LeftHip       = "left_hip"
	LeftKnee      = "left_knee"
	LeftAnkle     = "left_ankle"
	RightEye      = "right_eye"
	LeftEye       = "left_eye"
	RightEar      = "right_ear"
	LeftEar       = "left_ear"
)

//CocoKeypoints is the heatmap channel order of the pose network
var CocoKeypoints = []string{
	Nose, Neck,
	RightShoulder, RightElbow, RightWrist,
	LeftShoulder, LeftElbow, LeftWrist,
	RightHip, RightKnee, RightAnkle,
	LeftHip, LeftKnee, LeftAnkle,
	RightEye, LeftEye, RightEar, LeftEar,
}

//Landmarks maps a landmark name to its position in frame coordinates. Missing landmarks are absent, never zero-filled.
type Landmarks map[string]geom.Point

//Observation is one detected player in one frame
type Observation struct {
	Team      Team
	Position  geom.Point
	Box       image.Rectangle
	Landmarks Landmarks //nil for the color strategy
}

//HasPose reports whether observation carries body landmarks
func (o Observation) HasPose() bool {
	return len(o.Landmarks) > 0
}
