package detect

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var (
	blue = color.RGBA{0, 0, 255, 0}
	red  = color.RGBA{255, 0, 0, 0}
)

func syntheticFrame(t *testing.T) video.Frame {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 300, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })

	gocv.Rectangle(&mat, image.Rect(10, 10, 30, 30), blue, -1)    //team A player
	gocv.Rectangle(&mat, image.Rect(100, 50, 130, 80), red, -1)   //team B player
	gocv.Rectangle(&mat, image.Rect(200, 150, 210, 160), blue, -1) //too small, noise

	return video.Frame{Index: 0, Mat: mat}
}

func TestColorSegmenterDetect(t *testing.T) {
	seg, err := NewColorSegmenter()
	require.NoError(t, err)

	frame := syntheticFrame(t)
	before := frame.Mat.Clone()
	defer before.Close()

	obs, err := seg.Detect(frame)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, TeamA, obs[0].Team)
	assert.Equal(t, geom.Pt(20, 20), obs[0].Position)
	assert.Nil(t, obs[0].Landmarks)

	assert.Equal(t, TeamB, obs[1].Team)
	assert.Equal(t, geom.Pt(115, 65), obs[1].Position)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(frame.Mat, before, &diff)
	assert.Equal(t, 0.0, diff.Sum().Val1+diff.Sum().Val2+diff.Sum().Val3, "frame must not be modified")
}

func TestColorSegmenterMinArea(t *testing.T) {
	seg, err := NewColorSegmenter(WithMinArea(0), WithOpenKernel(0))
	require.NoError(t, err)

	obs, err := seg.Detect(syntheticFrame(t))
	require.NoError(t, err)
	assert.Len(t, obs, 3)
}

func TestColorSegmenterEmptyFrame(t *testing.T) {
	seg, err := NewColorSegmenter()
	require.NoError(t, err)

	empty := gocv.NewMat()
	defer empty.Close()

	obs, err := seg.Detect(video.Frame{Mat: empty})
	assert.NoError(t, err)
	assert.Empty(t, obs)
}

func TestNewColorSegmenterRejectsBadRanges(t *testing.T) {
	_, err := NewColorSegmenter(WithTeamRanges(TeamRange{Team: TeamA, Lower: HSV{H: 50}, Upper: HSV{H: 10, S: 255, V: 255}}))
	assert.Error(t, err)

	_, err = NewColorSegmenter(WithTeamRanges(TeamRange{Lower: HSV{}, Upper: HSV{H: 10}}))
	assert.Error(t, err)

	_, err = NewColorSegmenter(WithTeamRanges(TeamRange{Team: TeamB, Lower: HSV{}, Upper: HSV{H: 200, S: 255, V: 255}}))
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	a := LocalizerFunc(func(video.Frame) ([]Observation, error) {
		return []Observation{{Team: TeamA}}, nil
	})
	b := LocalizerFunc(func(video.Frame) ([]Observation, error) {
		return []Observation{{Team: TeamB}, {Team: TeamB}}, nil
	})

	obs, err := Chain(a, b).Detect(video.Frame{})
	require.NoError(t, err)
	assert.Equal(t, []Observation{{Team: TeamA}, {Team: TeamB}, {Team: TeamB}}, obs)

	boom := errors.New("boom")
	failing := LocalizerFunc(func(video.Frame) ([]Observation, error) { return nil, boom })
	_, err = Chain(a, failing, b).Detect(video.Frame{})
	assert.ErrorIs(t, err, boom)
}

func TestTeamString(t *testing.T) {
	assert.Equal(t, "teamA", TeamA.String())
	assert.Equal(t, "teamB", TeamB.String())
	assert.Equal(t, "none", NoTeam.String())
}
