package render

import (
	"image"
	"image/color"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"gocv.io/x/gocv"
)

var teamAColor = color.RGBA{0, 0, 255, 0}
var teamBColor = color.RGBA{255, 0, 0, 0}
var landmarkColor = color.RGBA{0, 255, 0, 0}
var whiteRGB = color.RGBA{255, 255, 255, 0}

const markerRadius = 10

//skeleton lists the landmark pairs joined when a pose is plotted
var skeleton = [][2]string{
	{detect.Neck, detect.RightShoulder}, {detect.RightShoulder, detect.RightElbow}, {detect.RightElbow, detect.RightWrist},
	{detect.Neck, detect.LeftShoulder}, {detect.LeftShoulder, detect.LeftElbow}, {detect.LeftElbow, detect.LeftWrist},
	{detect.Neck, detect.RightHip}, {detect.RightHip, detect.RightKnee}, {detect.RightKnee, detect.RightAnkle},
	{detect.Neck, detect.LeftHip}, {detect.LeftHip, detect.LeftKnee}, {detect.LeftKnee, detect.LeftAnkle},
	{detect.Neck, detect.Nose},
}

func teamColor(t detect.Team) color.RGBA {
	switch t {
	case detect.TeamA:
		return teamAColor
	case detect.TeamB:
		return teamBColor
	default:
		return whiteRGB
	}
}

//plotObservations draws every observation on frame: a marker per player, a line between consecutive
//detections of the same team (the formation shape) and the body skeleton for pose observations
func plotObservations(frame *gocv.Mat, observations []detect.Observation) {
	last := make(map[detect.Team]image.Point)

	for _, o := range observations {
		if o.HasPose() {
			plotPose(frame, o.Landmarks)
			continue
		}

		c := teamColor(o.Team)
		p := o.Position.Image()

		if prev, ok := last[o.Team]; ok {
			gocv.Line(frame, prev, p, c, 2)
		}
		last[o.Team] = p

		gocv.Circle(frame, p, markerRadius, c, 2)
		gocv.PutText(frame, o.Team.String(), image.Pt(p.X-markerRadius, p.Y-markerRadius-5), gocv.FontHersheyPlain, 1, c, 1)
	}
}

func plotPose(frame *gocv.Mat, landmarks detect.Landmarks) {
	for _, pair := range skeleton {
		from, ok1 := landmarks[pair[0]]
		to, ok2 := landmarks[pair[1]]
		if ok1 && ok2 {
			gocv.Line(frame, from.Image(), to.Image(), whiteRGB, 2)
		}
	}

	for _, pt := range landmarks {
		gocv.Circle(frame, pt.Image(), 4, landmarkColor, -1) //thickness -1 == filled circle
	}
}
