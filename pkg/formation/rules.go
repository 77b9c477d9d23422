package formation

import (
	"errors"
	"fmt"
)

//Metric names usable in rule conditions
const (
	MetricWidth       = "width"
	MetricDepth       = "depth"
	MetricCompactness = "compactness"
)

//Condition holds when the named metric is strictly above the threshold
type Condition struct {
	Metric string  `mapstructure:"metric" json:"metric"`
	Above  float64 `mapstructure:"above" json:"above"`
}

func (c Condition) holds(m Metrics) bool {
	return m.value(c.Metric) > c.Above
}

//Rule maps metrics matching all of its conditions to a formation. A rule without conditions always matches.
type Rule struct {
	Formation       string      `mapstructure:"formation" json:"formation"`
	GoalProbability float64     `mapstructure:"goal_probability" json:"goal_probability"`
	When            []Condition `mapstructure:"when" json:"when"`
}

//Matches reports whether every condition of the rule holds for m
func (r Rule) Matches(m Metrics) bool {
	for _, c := range r.When {
		if !c.holds(m) {
			return false
		}
	}
	return true
}

func (m Metrics) value(metric string) float64 {
	switch metric {
	case MetricWidth:
		return m.Width
	case MetricDepth:
		return m.Depth
	case MetricCompactness:
		return m.Compactness
	default:
		return 0
	}
}

//Thresholds parameterize the default rule chain
type Thresholds struct {
	WidthHigh float64 `mapstructure:"width_high"`
	DepthHigh float64 `mapstructure:"depth_high"`
	WidthMid  float64 `mapstructure:"width_mid"`
}

//DefaultThresholds are the pixel spans the default rules were tuned on
func DefaultThresholds() Thresholds {
	return Thresholds{WidthHigh: 600, DepthHigh: 400, WidthMid: 400}
}

//Formation labels produced by the default rules
const (
	Formation433            = "4-3-3"
	Formation442            = "4-4-2"
	FormationDefensiveBlock = "Defensive Block"
)

//DefaultRules builds the three-step chain: wide and deep -> 4-3-3, wide -> 4-4-2, otherwise a defensive block
func DefaultRules(th Thresholds) []Rule {
	return []Rule{
		{
			Formation:       Formation433,
			GoalProbability: 0.68,
			When: []Condition{
				{Metric: MetricWidth, Above: th.WidthHigh},
				{Metric: MetricDepth, Above: th.DepthHigh},
			},
		},
		{
			Formation:       Formation442,
			GoalProbability: 0.55,
			When:            []Condition{{Metric: MetricWidth, Above: th.WidthMid}},
		},
		{
			Formation:       FormationDefensiveBlock,
			GoalProbability: 0.35,
		},
	}
}

//ValidateRules checks a rule set is usable: non empty, known metrics, probabilities in [0,1],
//and ends with a single catch-all rule so every metrics value gets a formation.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return errors.New("formation rules: empty rule set")
	}

	for i, r := range rules {
		if r.Formation == "" {
			return fmt.Errorf("formation rules: rule %d has no formation", i)
		}
		if r.GoalProbability < 0 || r.GoalProbability > 1 {
			return fmt.Errorf("formation rules: rule %d goal probability %v outside [0,1]", i, r.GoalProbability)
		}
		for _, c := range r.When {
			if c.Metric != MetricWidth && c.Metric != MetricDepth && c.Metric != MetricCompactness {
				return fmt.Errorf("formation rules: rule %d uses unknown metric '%s'", i, c.Metric)
			}
		}
		if len(r.When) == 0 && i != len(rules)-1 {
			return fmt.Errorf("formation rules: catch-all rule %d must be last", i)
		}
	}

	if len(rules[len(rules)-1].When) != 0 {
		return errors.New("formation rules: last rule must be a catch-all")
	}

	return nil
}
