package backtest

// Recommendations come from an ordered rule table rather than scattered
// branches, so the table can be replaced from configuration and tested
// on its own.

// Metric names a report quantity a rule condition can test.
type Metric string

const (
	MetricAverageScore Metric = "average_score"
	MetricConsistency  Metric = "consistency"
	MetricStressScore  Metric = "stress_score"
	MetricVolatility   Metric = "volatility"
	MetricMaxLoss      Metric = "max_loss"
	MetricVaR95        Metric = "var95"
)

// Op compares a metric against a rule's reference value.
type Op string

const (
	OpLT Op = "lt"
	OpGT Op = "gt"
	OpEQ Op = "eq"
)

// Condition is one comparison inside a rule.
type Condition struct {
	Metric Metric  `mapstructure:"metric"`
	Op     Op      `mapstructure:"op"`
	Value  float64 `mapstructure:"value"`
}

// Rule fires when all of its conditions hold, contributing its text to
// the recommendation list. Rules are evaluated in declaration order.
type Rule struct {
	Name string      `mapstructure:"name"`
	When []Condition `mapstructure:"when"`
	Text string      `mapstructure:"text"`
}

// ruleInput carries the report quantities rules test against.
// stressScore is nil when no stress scenarios ran; rules referencing it
// then never fire.
type ruleInput struct {
	averageScore float64
	consistency  float64
	volatility   float64
	maxLoss      float64
	var95        float64
	stressScore  *float64
}

// fallbackRecommendation keeps the list non-empty when no rule fires.
const fallbackRecommendation = "Monitor market conditions closely"

// DefaultRules returns the compiled-in recommendation table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "low_consistency",
			When: []Condition{{MetricConsistency, OpLT, 0.5}},
			Text: "Consider reducing position size in volatile scenarios",
		},
		{
			Name: "deep_max_loss",
			When: []Condition{{MetricMaxLoss, OpLT, -0.25}},
			Text: "Implement stop-loss mechanisms for downside protection",
		},
		{
			Name: "deep_var",
			When: []Condition{{MetricVaR95, OpLT, -0.20}},
			Text: "Implement stop-loss mechanisms for downside protection",
		},
		{
			Name: "stress_fragile",
			When: []Condition{{MetricStressScore, OpLT, 40}},
			Text: "Monitor key signals more frequently during market stress",
		},
		{
			Name: "weak_thesis",
			When: []Condition{{MetricAverageScore, OpLT, 40}},
			Text: "Review thesis assumptions regularly",
		},
		{
			Name: "undefined_risk_ratio",
			When: []Condition{{MetricVolatility, OpEQ, 0}},
			Text: "Implement proper risk management",
		},
		{
			Name: "stress_conviction",
			When: []Condition{
				{MetricStressScore, OpGT, 70},
				{MetricAverageScore, OpGT, 60},
			},
			Text: "Maintain conviction; thesis shows strong stress resistance",
		},
	}
}

// evaluateRules walks the table in order and collects fired texts,
// deduplicated, with the fallback when nothing fired.
func evaluateRules(rules []Rule, in ruleInput) []string {
	var out []string
	seen := make(map[string]bool)

	for _, rule := range rules {
		if !ruleHolds(rule, in) {
			continue
		}
		if seen[rule.Text] {
			continue
		}
		seen[rule.Text] = true
		out = append(out, rule.Text)
	}

	if len(out) == 0 {
		out = append(out, fallbackRecommendation)
	}
	return out
}

func ruleHolds(rule Rule, in ruleInput) bool {
	for _, cond := range rule.When {
		value, ok := metricValue(cond.Metric, in)
		if !ok {
			return false
		}
		switch cond.Op {
		case OpLT:
			if !(value < cond.Value) {
				return false
			}
		case OpGT:
			if !(value > cond.Value) {
				return false
			}
		case OpEQ:
			if value != cond.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func metricValue(m Metric, in ruleInput) (float64, bool) {
	switch m {
	case MetricAverageScore:
		return in.averageScore, true
	case MetricConsistency:
		return in.consistency, true
	case MetricStressScore:
		if in.stressScore == nil {
			return 0, false
		}
		return *in.stressScore, true
	case MetricVolatility:
		return in.volatility, true
	case MetricMaxLoss:
		return in.maxLoss, true
	case MetricVaR95:
		return in.var95, true
	}
	return 0, false
}
