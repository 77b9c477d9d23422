package baseline

import (
	"errors"
	"fmt"
	"time"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"gonum.org/v1/gonum/mat"
)

//Label values returned by Model.Score
const (
	LabelNormal    = 1
	LabelAnomalous = -1
)

//Model scores feature matrices against one player's normal motion.
//Implementations must be immutable after load so concurrent requests can share them.
type Model interface {
	PlayerID() string

	//Features is the ordered input layout: column j of a scored matrix holds Features()[j]
	Features() []string

	//Score returns, per row, a continuous distance (negative = anomalous) and a label (LabelNormal or LabelAnomalous)
	Score(x mat.Matrix) (distances []float64, labels []int, err error)
}

//Baseline is an isolation forest fitted on one player's normal-motion feature vectors
type Baseline struct {
	Player       string    `json:"player_id"`
	FeatureNames []string  `json:"features"`
	Forest       *Forest   `json:"forest"`
	Samples      int       `json:"samples"`
	TrainedAt    time.Time `json:"trained_at"`
}

func (b *Baseline) PlayerID() string {
	return b.Player
}

func (b *Baseline) Features() []string {
	return append([]string(nil), b.FeatureNames...)
}

func (b *Baseline) Score(x mat.Matrix) ([]float64, []int, error) {
	rows, cols := x.Dims()
	if cols != len(b.FeatureNames) || b.Forest == nil || cols != b.Forest.Dims {
		return nil, nil, fmt.Errorf("%w: got %d columns, model expects %d", features.ErrFeatureShape, cols, len(b.FeatureNames))
	}

	distances := make([]float64, rows)
	labels := make([]int, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		distances[i] = b.Forest.Decision(row)
		if distances[i] < 0 {
			labels[i] = LabelAnomalous
		} else {
			labels[i] = LabelNormal
		}
	}

	return distances, labels, nil
}

//Trainer fits baselines with a fixed feature layout and forest parameters
type Trainer struct {
	features []string
	params   ForestParams
	now      func() time.Time
}

//NewTrainer returns a trainer. An empty layout defaults to features.DefaultModelFeatures.
func NewTrainer(featureNames []string, params ForestParams) (*Trainer, error) {
	if len(featureNames) == 0 {
		featureNames = features.DefaultModelFeatures
	}
	for _, f := range featureNames {
		if !features.KnownFeature(f) {
			return nil, fmt.Errorf("baseline: unknown feature '%s'", f)
		}
	}
	if params.Trees <= 0 {
		return nil, errors.New("baseline: forest needs at least one tree")
	}

	return &Trainer{
		features: append([]string(nil), featureNames...),
		params:   params,
		now:      time.Now,
	}, nil
}

//Features returns the layout new baselines are trained with
func (t *Trainer) Features() []string {
	return append([]string(nil), t.features...)
}

//Train fits a baseline for playerID. No vectors fails with ErrInsufficientData; vectors lacking a layout
//feature fail with features.ErrFeatureShape.
func (t *Trainer) Train(playerID string, vectors []features.Vector) (*Baseline, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no feature vectors to train '%s' on", ErrInsufficientData, playerID)
	}

	x, err := features.Project(vectors, t.features)
	if err != nil {
		return nil, err
	}

	forest, err := FitForest(x, t.params)
	if err != nil {
		return nil, err
	}

	return &Baseline{
		Player:       playerID,
		FeatureNames: t.Features(),
		Forest:       forest,
		Samples:      len(vectors),
		TrainedAt:    t.now().UTC(),
	}, nil
}
