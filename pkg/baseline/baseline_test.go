package baseline

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func normalMotion(n int) []features.Vector {
	rng := rand.New(rand.NewSource(1))
	vectors := make([]features.Vector, n)
	for i := range vectors {
		vectors[i] = features.Vector{
			features.LeftKneeAngle:  150 + 4*rng.NormFloat64(),
			features.RightKneeAngle: 148 + 3*rng.NormFloat64(),
		}
	}
	return vectors
}

func testTrainer(t *testing.T) *Trainer {
	t.Helper()
	tr, err := NewTrainer([]string{features.LeftKneeAngle}, ForestParams{Trees: 100, SampleSize: 256, Seed: 7})
	require.NoError(t, err)
	return tr
}

func TestForestSeparatesOutliers(t *testing.T) {
	b, err := testTrainer(t).Train("p1", normalMotion(300))
	require.NoError(t, err)

	x := mat.NewDense(3, 1, []float64{150, 147, 20})
	distances, labels, err := b.Score(x)
	require.NoError(t, err)
	require.Len(t, distances, 3)

	assert.Less(t, distances[2], 0.0)
	assert.Equal(t, LabelAnomalous, labels[2])
	assert.Less(t, distances[2], distances[0])
	assert.Less(t, distances[2], distances[1])
}

func TestForestIsDeterministic(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 50})
	a, err := FitForest(x, ForestParams{Trees: 20, SampleSize: 4, Seed: 3})
	require.NoError(t, err)
	b, err := FitForest(x, ForestParams{Trees: 20, SampleSize: 4, Seed: 3})
	require.NoError(t, err)

	for _, v := range []float64{0, 2.5, 50, 100} {
		assert.Equal(t, a.Decision([]float64{v}), b.Decision([]float64{v}))
	}
}

func TestForestEdgeCases(t *testing.T) {
	_, err := FitForest(mat.NewDense(1, 1, nil), ForestParams{Trees: 0})
	assert.Error(t, err, "no trees")

	single, err := FitForest(mat.NewDense(1, 1, []float64{4}), ForestParams{Trees: 5, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, single.Decision([]float64{100}))

	constant, err := FitForest(mat.NewDense(3, 1, []float64{4, 4, 4}), ForestParams{Trees: 5, Seed: 1})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(constant.Decision([]float64{4})))
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 10.24, averagePathLength(256), 0.01)
}

func TestTrainerErrors(t *testing.T) {
	tr := testTrainer(t)

	_, err := tr.Train("p1", nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = tr.Train("p1", []features.Vector{{features.RightKneeAngle: 1}})
	assert.ErrorIs(t, err, features.ErrFeatureShape)

	_, err = NewTrainer([]string{"toe_angle"}, DefaultForestParams())
	assert.Error(t, err)

	_, err = NewTrainer(nil, ForestParams{})
	assert.Error(t, err)
}

func TestBaselineScoreShapeMismatch(t *testing.T) {
	b, err := testTrainer(t).Train("p1", normalMotion(10))
	require.NoError(t, err)

	_, _, err = b.Score(mat.NewDense(1, 2, []float64{1, 2}))
	assert.ErrorIs(t, err, features.ErrFeatureShape)
}

func TestBaselineJSONRoundTrip(t *testing.T) {
	b, err := testTrainer(t).Train("p1", normalMotion(50))
	require.NoError(t, err)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	var decoded Baseline
	require.NoError(t, json.Unmarshal(data, &decoded))

	row := []float64{133}
	assert.Equal(t, b.Forest.Decision(row), decoded.Forest.Decision(row))
	assert.Equal(t, []string{features.LeftKneeAngle}, decoded.Features())
}

func testRepositories(t *testing.T) map[string]Repository {
	db, err := OpenDB("sqlite", filepath.Join(t.TempDir(), "baselines.db"), false)
	require.NoError(t, err)

	repos := map[string]Repository{
		"memory": NewMemoryRepository(),
		"sql":    NewSQLRepository(db),
	}

	if addr := os.Getenv("PITCH_TEST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { client.Close() })
		repos["redis"] = NewRedisRepository(client, nil)
	}

	return repos
}

func TestModelStore(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewModelStore(repo, testTrainer(t), nil)

			_, err := store.Load(ctx, "unknown-"+name)
			assert.ErrorIs(t, err, ErrModelNotFound)

			_, err = store.Load(ctx, "  ")
			assert.ErrorIs(t, err, ErrModelNotFound)

			require.NoError(t, store.Fit(ctx, " striker-"+name+" ", normalMotion(40)))

			m, err := store.Load(ctx, "striker-"+name)
			require.NoError(t, err)
			assert.Equal(t, "striker-"+name, m.PlayerID())
			assert.Equal(t, []string{features.LeftKneeAngle}, m.Features())

			//a fresh store reads the persisted model back
			other := NewModelStore(repo, testTrainer(t), nil)
			reloaded, err := other.Load(ctx, "striker-"+name)
			require.NoError(t, err)

			x := mat.NewDense(1, 1, []float64{90})
			d1, _, err := m.Score(x)
			require.NoError(t, err)
			d2, _, err := reloaded.Score(x)
			require.NoError(t, err)
			assert.Equal(t, d1, d2)

			assert.ErrorIs(t, store.Fit(ctx, "empty-"+name, nil), ErrInsufficientData)
			assert.Error(t, store.Fit(ctx, "", normalMotion(5)))
		})
	}
}

func TestModelStoreConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	store := NewModelStore(NewMemoryRepository(), testTrainer(t), nil)
	require.NoError(t, store.Fit(ctx, "p", normalMotion(30)))
	store.Forget("p")

	var wg sync.WaitGroup
	models := make([]Model, 16)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := store.Load(ctx, "p")
			assert.NoError(t, err)
			models[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range models {
		assert.Same(t, models[0], m)
	}
}
