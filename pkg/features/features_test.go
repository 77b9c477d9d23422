package features

import (
	"testing"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJointAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c geom.Point
		want    float64
		ok      bool
	}{
		{"right angle", geom.Pt(0, 1), geom.Pt(0, 0), geom.Pt(1, 0), 90, true},
		{"straight leg", geom.Pt(0, 0), geom.Pt(0, 1), geom.Pt(0, 2), 180, true},
		{"folded", geom.Pt(1, 0), geom.Pt(0, 0), geom.Pt(2, 0), 0, true},
		{"45 degrees", geom.Pt(1, 0), geom.Pt(0, 0), geom.Pt(1, 1), 45, true},
		{"degenerate arm", geom.Pt(0, 0), geom.Pt(0, 0), geom.Pt(1, 1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JointAngle(tt.a, tt.b, tt.c)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func leg() detect.Landmarks {
	return detect.Landmarks{
		detect.LeftHip:   geom.Pt(0, 0),
		detect.LeftKnee:  geom.Pt(0, 10),
		detect.LeftAnkle: geom.Pt(10, 10),
	}
}

func TestExtract(t *testing.T) {
	v := NewExtractor().Extract(leg())
	require.Len(t, v, 1)
	assert.InDelta(t, 90, v[LeftKneeAngle], 1e-9)

	l := leg()
	l[detect.LeftShoulder] = geom.Pt(0, -10)
	v = NewExtractor().Extract(l)
	assert.InDelta(t, 180, v[LeftHipAngle], 1e-9)
	assert.NotContains(t, v, RightKneeAngle)

	assert.Empty(t, NewExtractor().Extract(detect.Landmarks{detect.Nose: geom.Pt(1, 1)}))
}

func TestAggregator(t *testing.T) {
	agg := NewAggregator(nil)

	agg.Add(0, []detect.Observation{
		{Team: detect.TeamA, Position: geom.Pt(1, 1)},
		{Team: detect.TeamA, Position: geom.Pt(2, 2)},
		{Team: detect.TeamB, Position: geom.Pt(3, 3)},
	})
	agg.Add(1, nil)
	agg.Add(2, []detect.Observation{
		{Team: detect.NoTeam, Landmarks: leg()},
		{Team: detect.NoTeam, Landmarks: leg()},
		{Team: detect.TeamA, Position: geom.Pt(4, 4)},
	})
	agg.Add(3, []detect.Observation{{Team: detect.NoTeam, Landmarks: detect.Landmarks{detect.Nose: geom.Pt(0, 0)}}})

	assert.Equal(t, PositionSeries{geom.Pt(1, 1), geom.Pt(2, 2), geom.Pt(4, 4)}, agg.Series(detect.TeamA))
	assert.Equal(t, PositionSeries{geom.Pt(3, 3)}, agg.Series(detect.TeamB))
	assert.Empty(t, agg.Series(detect.NoTeam))
	assert.Len(t, agg.Vectors(), 1, "one vector per frame with a usable pose")
	assert.Equal(t, 4, agg.Frames())

	s := agg.Series(detect.TeamA)
	s[0] = geom.Pt(100, 100)
	assert.Equal(t, geom.Pt(1, 1), agg.Series(detect.TeamA)[0], "series is returned as a snapshot")
}

func TestAggregatorSkipsVectorsMissingRequiredFeatures(t *testing.T) {
	arm := detect.Landmarks{
		detect.LeftShoulder: geom.Pt(0, 0),
		detect.LeftElbow:    geom.Pt(0, 10),
		detect.LeftWrist:    geom.Pt(10, 10),
	}

	agg := NewAggregator(nil, LeftKneeAngle)
	agg.Add(0, []detect.Observation{{Landmarks: leg()}})
	agg.Add(1, []detect.Observation{{Landmarks: arm}})
	agg.Add(2, []detect.Observation{{Landmarks: arm}, {Landmarks: leg()}})

	vectors := agg.Vectors()
	require.Len(t, vectors, 2)
	for _, v := range vectors {
		assert.Contains(t, v, LeftKneeAngle)
	}
	assert.Equal(t, 3, agg.Frames())

	_, err := Project(vectors, []string{LeftKneeAngle})
	assert.NoError(t, err)

	//without a layout any extracted angle counts
	loose := NewAggregator(nil)
	loose.Add(0, []detect.Observation{{Landmarks: arm}})
	assert.Len(t, loose.Vectors(), 1)
}

func TestProject(t *testing.T) {
	vectors := []Vector{
		{LeftKneeAngle: 90, RightKneeAngle: 100},
		{LeftKneeAngle: 120, RightKneeAngle: 110, LeftHipAngle: 5},
	}

	m, err := Project(vectors, []string{RightKneeAngle, LeftKneeAngle})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 100.0, m.At(0, 0))
	assert.Equal(t, 120.0, m.At(1, 1))

	_, err = Project(vectors, []string{LeftHipAngle})
	assert.ErrorIs(t, err, ErrFeatureShape)
	assert.Contains(t, err.Error(), "vector 0")

	_, err = Project(nil, []string{LeftKneeAngle})
	assert.ErrorIs(t, err, ErrFeatureShape)
}

func TestKnownFeature(t *testing.T) {
	assert.True(t, KnownFeature(LeftKneeAngle))
	assert.False(t, KnownFeature("toe_angle"))
}
