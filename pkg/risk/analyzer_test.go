package risk

import (
	"context"
	"fmt"
	"testing"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/baseline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type fakeModel struct {
	id        string
	distances []float64
	labels    []int
	scored    int
}

func (m *fakeModel) PlayerID() string   { return m.id }
func (m *fakeModel) Features() []string { return []string{features.LeftKneeAngle} }

func (m *fakeModel) Score(x mat.Matrix) ([]float64, []int, error) {
	m.scored++
	r, _ := x.Dims()
	return m.distances[:r], m.labels[:r], nil
}

type fakeLoader map[string]*fakeModel

func (l fakeLoader) Load(_ context.Context, playerID string) (baseline.Model, error) {
	m, ok := l[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", baseline.ErrModelNotFound, playerID)
	}
	return m, nil
}

func vectors(n int) []features.Vector {
	res := make([]features.Vector, n)
	for i := range res {
		res[i] = features.Vector{features.LeftKneeAngle: 140 + float64(i)}
	}
	return res
}

func newAnalyzer(t *testing.T, models fakeLoader) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(models, DefaultLevels())
	require.NoError(t, err)
	return a
}

func TestAnalyzeScenarioD(t *testing.T) {
	m := &fakeModel{
		id:        "p7",
		distances: []float64{-0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05},
		labels:    []int{1, 1, 1, -1, 1, 1, 1, 1, 1, 1},
	}
	a := newAnalyzer(t, fakeLoader{"p7": m})

	res, err := a.Analyze(context.Background(), "p7", vectors(10))
	require.NoError(t, err)
	assert.Equal(t, "p7", res.PlayerID)
	assert.InDelta(t, 0.05, res.RiskScore, 1e-12)
	assert.Equal(t, Low, res.RiskLevel)
	assert.Equal(t, 1, res.AnomalousFrameCount)
}

func TestAnalyzeScenarioE(t *testing.T) {
	m := &fakeModel{id: "p7"}
	a := newAnalyzer(t, fakeLoader{"p7": m})

	_, err := a.Analyze(context.Background(), "p7", nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, 0, m.scored)
}

func TestAnalyzeScenarioF(t *testing.T) {
	m := &fakeModel{id: "p7"}
	a := newAnalyzer(t, fakeLoader{"p7": m})

	_, err := a.Analyze(context.Background(), "ghost", vectors(3))
	assert.ErrorIs(t, err, baseline.ErrModelNotFound)
	assert.Equal(t, 0, m.scored)
}

func TestAnalyzeFeatureShape(t *testing.T) {
	m := &fakeModel{id: "p7", distances: []float64{0, 0}, labels: []int{1, 1}}
	a := newAnalyzer(t, fakeLoader{"p7": m})

	_, err := a.Analyze(context.Background(), "p7", []features.Vector{{features.LeftKneeAngle: 1}, {features.RightKneeAngle: 2}})
	assert.ErrorIs(t, err, features.ErrFeatureShape)
	assert.Equal(t, 0, m.scored)
}

func TestAnalyzeCancelled(t *testing.T) {
	m := &fakeModel{id: "p7", distances: []float64{0}, labels: []int{1}}
	a := newAnalyzer(t, fakeLoader{"p7": m})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Analyze(ctx, "p7", vectors(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeCountsAnomalies(t *testing.T) {
	m := &fakeModel{
		id:        "p7",
		distances: []float64{-0.4, -0.2, 0.1, 0.05},
		labels:    []int{-1, -1, 1, 1},
	}
	a := newAnalyzer(t, fakeLoader{"p7": m})

	res, err := a.Analyze(context.Background(), "p7", vectors(4))
	require.NoError(t, err)
	assert.InDelta(t, 0.1125, res.RiskScore, 1e-12)
	assert.Equal(t, Moderate, res.RiskLevel)
	assert.Equal(t, 2, res.AnomalousFrameCount)
	assert.LessOrEqual(t, res.AnomalousFrameCount, 4)
}

func TestLevels(t *testing.T) {
	l := DefaultLevels()
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, Low},
		{0.0999, Low},
		{0.1, Moderate},
		{0.2999, Moderate},
		{0.3, High},
		{5, High},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Level(tt.score), "score %v", tt.score)
	}

	assert.Error(t, Levels{Moderate: 0.5, High: 0.1}.Validate())
	assert.Error(t, Levels{Moderate: -1, High: 0.1}.Validate())
	_, err := NewAnalyzer(nil, DefaultLevels())
	assert.Error(t, err)
}

func TestAnalyzeWithTrainedBaseline(t *testing.T) {
	trainer, err := baseline.NewTrainer(nil, baseline.DefaultForestParams())
	require.NoError(t, err)
	store := baseline.NewModelStore(baseline.NewMemoryRepository(), trainer, nil)
	require.NoError(t, store.Fit(context.Background(), "p9", vectors(60)))

	a, err := NewAnalyzer(store, DefaultLevels())
	require.NoError(t, err)

	res, err := a.Analyze(context.Background(), "p9", vectors(20))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.RiskScore, 0.0)
	assert.LessOrEqual(t, res.AnomalousFrameCount, 20)
	assert.Contains(t, []RiskLevel{Low, Moderate, High}, res.RiskLevel)
}
