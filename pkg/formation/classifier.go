package formation

import (
	"errors"
	"math"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
)

//DefaultCompactnessNorm maps raw compactness to a tactical score in [0,1]
const DefaultCompactnessNorm = 100000

//Assessment is the tactical reading of one team
type Assessment struct {
	Formation       string  `json:"formation"`
	GoalProbability float64 `json:"goal_probability"`
	TacticalScore   float64 `json:"tactical_score"`
}

//Classifier evaluates ordered rules, first match wins. It holds no state: same metrics always give the same assessment.
type Classifier struct {
	rules           []Rule
	compactnessNorm float64
}

//NewClassifier validates rules and norm. Rules are copied, later changes to the slice don't affect the classifier.
func NewClassifier(rules []Rule, compactnessNorm float64) (*Classifier, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	if compactnessNorm <= 0 || math.IsNaN(compactnessNorm) || math.IsInf(compactnessNorm, 0) {
		return nil, errors.New("formation: compactness norm must be a positive number")
	}

	cp := make([]Rule, len(rules))
	for i, r := range rules {
		cp[i] = r
		cp[i].When = append([]Condition(nil), r.When...)
	}

	return &Classifier{rules: cp, compactnessNorm: compactnessNorm}, nil
}

//DefaultClassifier uses DefaultRules(DefaultThresholds()) and DefaultCompactnessNorm
func DefaultClassifier() *Classifier {
	c, _ := NewClassifier(DefaultRules(DefaultThresholds()), DefaultCompactnessNorm)
	return c
}

//Classify maps metrics to a formation, goal probability and tactical score
func (c *Classifier) Classify(m Metrics) Assessment {
	var res Assessment
	for _, r := range c.rules {
		if r.Matches(m) {
			res.Formation = r.Formation
			res.GoalProbability = r.GoalProbability
			break
		}
	}

	res.TacticalScore = math.Max(0, math.Min(m.Compactness/c.compactnessNorm, 1))
	return res
}

//Evaluate computes metrics and assessment from the same series snapshot
func (c *Classifier) Evaluate(series features.PositionSeries) (Metrics, Assessment) {
	m := ComputeMetrics(series)
	return m, c.Classify(m)
}
