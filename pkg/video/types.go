package video

import (
	"errors"

	"gocv.io/x/gocv"
)

//ErrUnreadableVideo is returned when a video file cannot be opened at all
var ErrUnreadableVideo = errors.New("unreadable video")

//DefaultMaxFrames bounds how many frames one request decodes
const DefaultMaxFrames = 200

//Frame is one decoded picture tagged with its index in capture order.
//Mat belongs to whoever produced the frame (usually a Source), consumers must treat it as read-only
//and must not keep it after the producer moved on to the next frame.
type Frame struct {
	Index int
	Mat   gocv.Mat
}

//Width returns frame's width in pixels
func (f Frame) Width() int {
	return f.Mat.Cols()
}

//Height returns frame's height in pixels
func (f Frame) Height() int {
	return f.Mat.Rows()
}

//Properties describes the stream a Source decodes, the renderer writes its output with the same values
type Properties struct {
	Width  int
	Height int
	FPS    float64
}
