package detect

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
	"gocv.io/x/gocv"
)

const (
	//DefaultPoseInputSize is the square blob size fed to the pose network
	DefaultPoseInputSize = 368

	//DefaultPoseThreshold is the minimal heatmap confidence for a keypoint to count as found
	DefaultPoseThreshold = 0.1
)

//PoseEstimator is the landmark strategy: it runs an OpenPose style body network (COCO keypoints) on the frame
//and returns a single observation holding the found landmarks, or nothing when no body is found.
//One estimator can be shared between requests, network calls are serialized.
type PoseEstimator struct {
	mu        sync.Mutex
	net       gocv.Net
	inputSize int
	threshold float32
}

//PoseOption configures a PoseEstimator
type PoseOption func(*PoseEstimator)

//WithPoseInputSize sets the blob size the network runs at
func WithPoseInputSize(size int) PoseOption {
	return func(p *PoseEstimator) {
		if size > 0 {
			p.inputSize = size
		}
	}
}

//WithPoseThreshold sets the keypoint confidence threshold
func WithPoseThreshold(threshold float64) PoseOption {
	return func(p *PoseEstimator) {
		if threshold > 0 {
			p.threshold = float32(threshold)
		}
	}
}

//NewPoseEstimator loads the pose network from modelPath (tensorflow .pb, caffe, onnx... anything gocv.ReadNet handles)
func NewPoseEstimator(modelPath string, opts ...PoseOption) (*PoseEstimator, error) {
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("NewPoseEstimator: could not load model '%s'", modelPath)
	}

	p := &PoseEstimator{
		net:       net,
		inputSize: DefaultPoseInputSize,
		threshold: DefaultPoseThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

//Detect finds body landmarks in frame. Frames without any keypoint above threshold yield no observation.
func (p *PoseEstimator) Detect(frame video.Frame) ([]Observation, error) {
	if frame.Mat.Empty() {
		return nil, nil
	}

	heatmaps, err := p.forward(frame.Mat)
	if err != nil {
		return nil, err
	}
	defer heatmaps.Close()

	s := heatmaps.Size()
	if len(s) != 4 {
		return nil, errors.New("PoseEstimator: unexpected network output shape")
	}
	nparts, h, w := s[1], s[2], s[3]
	if nparts > len(CocoKeypoints) {
		nparts = len(CocoKeypoints) //rest of channels are background and part affinity fields
	}

	scaleX := float64(frame.Width()) / float64(w)
	scaleY := float64(frame.Height()) / float64(h)

	landmarks := make(Landmarks)
	for i := 0; i < nparts; i++ {
		heatmap, err := heatmaps.FromPtr(h, w, gocv.MatTypeCV32F, 0, i)
		if err != nil {
			return nil, fmt.Errorf("PoseEstimator: reading heatmap %d: %w", i, err)
		}

		_, conf, _, pt := gocv.MinMaxLoc(heatmap)
		heatmap.Close()

		if conf > p.threshold {
			landmarks[CocoKeypoints[i]] = geom.Pt(float64(pt.X)*scaleX, float64(pt.Y)*scaleY)
		}
	}

	if len(landmarks) == 0 {
		return nil, nil
	}

	return []Observation{{
		Team:      NoTeam,
		Position:  landmarksCenter(landmarks),
		Box:       landmarksBox(landmarks),
		Landmarks: landmarks,
	}}, nil
}

func (p *PoseEstimator) forward(img gocv.Mat) (gocv.Mat, error) {
	blob := gocv.BlobFromImage(img, 1, image.Pt(p.inputSize, p.inputSize), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.net.SetInput(blob, "")
	out := p.net.Forward("")
	if out.Empty() {
		out.Close()
		return gocv.Mat{}, errors.New("PoseEstimator: empty network output")
	}

	return out, nil
}

//Close releases the network
func (p *PoseEstimator) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.net.Close()
}

func landmarksCenter(l Landmarks) geom.Point {
	var sx, sy float64
	for _, pt := range l {
		sx += pt.X
		sy += pt.Y
	}
	n := float64(len(l))
	return geom.Pt(sx/n, sy/n)
}

func landmarksBox(l Landmarks) image.Rectangle {
	r := image.Rectangle{}
	for _, pt := range l {
		ip := pt.Image()
		r = r.Union(image.Rectangle{Min: ip, Max: ip.Add(image.Pt(1, 1))})
	}
	return r
}
