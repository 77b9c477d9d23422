package risk

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/baseline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"gonum.org/v1/gonum/stat"
)

//ErrInsufficientData is returned when there is nothing to score; a zero score is never fabricated
var ErrInsufficientData = baseline.ErrInsufficientData

//RiskLevel is the categorical reading of a risk score
type RiskLevel string

const (
	Low      RiskLevel = "LOW"
	Moderate RiskLevel = "MODERATE"
	High     RiskLevel = "HIGH"
)

//Levels are the cut points partitioning scores: [0, Moderate) LOW, [Moderate, High) MODERATE, [High, inf) HIGH
type Levels struct {
	Moderate float64 `mapstructure:"moderate"`
	High     float64 `mapstructure:"high"`
}

//DefaultLevels are 0.1 and 0.3
func DefaultLevels() Levels {
	return Levels{Moderate: 0.1, High: 0.3}
}

//Validate checks cut points are ordered and non negative
func (l Levels) Validate() error {
	if l.Moderate < 0 || l.High < l.Moderate {
		return fmt.Errorf("risk levels: need 0 <= moderate (%v) <= high (%v)", l.Moderate, l.High)
	}
	return nil
}

//Level maps a score to its bucket, a value equal to a cut point falls into the upper bucket
func (l Levels) Level(score float64) RiskLevel {
	switch {
	case score < l.Moderate:
		return Low
	case score < l.High:
		return Moderate
	default:
		return High
	}
}

//Assessment is the injury risk reading of one player over one video
type Assessment struct {
	PlayerID            string    `json:"player_id"`
	RiskScore           float64   `json:"risk_score"`
	RiskLevel           RiskLevel `json:"risk_level"`
	AnomalousFrameCount int       `json:"anomalous_frame_count"`
}

//ModelLoader is the part of the model store the analyzer needs
type ModelLoader interface {
	Load(ctx context.Context, playerID string) (baseline.Model, error)
}

//Analyzer scores a player's feature vectors against the player's baseline. It keeps no per-request state.
type Analyzer struct {
	models ModelLoader
	levels Levels
}

//NewAnalyzer returns an analyzer using given cut points
func NewAnalyzer(models ModelLoader, levels Levels) (*Analyzer, error) {
	if models == nil {
		return nil, errors.New("risk: nil model loader")
	}
	if err := levels.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{models: models, levels: levels}, nil
}

//Analyze loads playerID's baseline, scores every vector and summarizes: risk score is |mean distance|,
//anomalous frames are vectors the model labels anomalous.
//Errors: baseline.ErrModelNotFound (nothing scored), ErrInsufficientData (no vectors), features.ErrFeatureShape.
func (a *Analyzer) Analyze(ctx context.Context, playerID string, vectors []features.Vector) (Assessment, error) {
	model, err := a.models.Load(ctx, playerID)
	if err != nil {
		return Assessment{}, err
	}

	if len(vectors) == 0 {
		return Assessment{}, fmt.Errorf("%w: no frame with a detected pose for player '%s'", ErrInsufficientData, playerID)
	}

	x, err := features.Project(vectors, model.Features())
	if err != nil {
		return Assessment{}, err
	}

	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}

	distances, labels, err := model.Score(x)
	if err != nil {
		return Assessment{}, fmt.Errorf("risk: scoring player '%s': %w", playerID, err)
	}
	if len(distances) != len(vectors) || len(labels) != len(vectors) {
		return Assessment{}, fmt.Errorf("risk: model returned %d distances and %d labels for %d vectors", len(distances), len(labels), len(vectors))
	}

	anomalous := 0
	for _, l := range labels {
		if l == baseline.LabelAnomalous {
			anomalous++
		}
	}

	score := math.Abs(stat.Mean(distances, nil))
	return Assessment{
		PlayerID:            model.PlayerID(),
		RiskScore:           score,
		RiskLevel:           a.levels.Level(score),
		AnomalousFrameCount: anomalous,
	}, nil
}
