// Package classify infers a classification level and value-chain position
// for a signal from its name. Inference is advisory: callers that know the
// level set it explicitly, and that assignment is final.
package classify

import (
	"strings"

	"github.com/threshold-labs/sentry/internal/core"
)

// ChainPosition locates a signal along the value chain of the thesis
// subject.
type ChainPosition string

const (
	ChainUpstream   ChainPosition = "upstream"
	ChainMidstream  ChainPosition = "midstream"
	ChainDownstream ChainPosition = "downstream"
	ChainUnknown    ChainPosition = "unknown"
)

// Classification is the inferred placement of a signal.
type Classification struct {
	Level         core.Level
	ChainPosition ChainPosition
}

// Keyword tables per level. Matching is case-insensitive substring.
var (
	internalResearchKeywords = []string{
		"internal", "proprietary", "channel check", "expert network",
		"alternative data", "survey panel", "scraped",
	}

	sentimentKeywords = []string{
		"sentiment", "analyst", "rating", "recommendation",
		"estimate revision", "put/call", "news score", "guidance accuracy",
		"opinion", "confidence index",
	}

	complexAggregationKeywords = []string{
		"market share", "concentration", "penetration rate",
		"relative to peers", "peer relative", "vs sector", "index weight",
	}

	derivedMetricKeywords = []string{
		"ratio", "margin", "growth rate", "yoy", "qoq", "yield",
		"multiple", "p/e", "roic", "wacc", "turnover", "conversion rate",
		"efficiency",
	}

	simpleAggregationKeywords = []string{
		"daily", "weekly", "monthly", "quarterly", "total", "aggregate",
		"sum of", "count of", "average",
	}

	rawActivityKeywords = []string{
		"foot traffic", "housing starts", "building permits", "job postings",
		"shipping container", "truck movements", "rail car", "port traffic",
		"factory utilization", "manufacturing output", "production capacity",
		"transaction count", "patent applications", "drilling permits",
		"capacity additions", "badge swipes", "loan applications",
	}

	chainKeywords = map[ChainPosition][]string{
		ChainUpstream: {
			"raw material", "commodit", "mining", "extraction",
			"semiconductor", "chip", "wafer", "foundry", "gpu", "component",
			"capacity utilization",
		},
		ChainMidstream: {
			"processing", "refining", "manufacturing", "assembly",
			"logistics", "distribution", "warehous", "data center", "capex",
			"infrastructure", "cloud", "deployment",
		},
		ChainDownstream: {
			"retail", "consumer", "end-user", "subscription", "adoption",
			"usage", "revenue", "point-of-sale", "customer", "api calls",
		},
	}
)

// InferLevel guesses the classification level from a signal name.
//
// Precedence runs from the most processed form of data to the least:
// a name mentioning both an aggregation period and a ratio describes a
// derived metric, not an aggregate. Names matching nothing default to
// derived_metric, the most common level for thesis-tracking metrics.
func InferLevel(name string) core.Level {
	lower := strings.ToLower(name)

	checks := []struct {
		level    core.Level
		keywords []string
	}{
		{core.LevelInternalResearch, internalResearchKeywords},
		{core.LevelSentiment, sentimentKeywords},
		{core.LevelComplexAggregation, complexAggregationKeywords},
		{core.LevelDerivedMetric, derivedMetricKeywords},
		{core.LevelSimpleAggregation, simpleAggregationKeywords},
		{core.LevelRawActivity, rawActivityKeywords},
	}

	for _, check := range checks {
		if matchesAny(lower, check.keywords) {
			return check.level
		}
	}
	return core.LevelDerivedMetric
}

// InferChainPosition guesses where along the value chain a signal sits.
func InferChainPosition(name string) ChainPosition {
	lower := strings.ToLower(name)
	for _, pos := range []ChainPosition{ChainUpstream, ChainMidstream, ChainDownstream} {
		if matchesAny(lower, chainKeywords[pos]) {
			return pos
		}
	}
	return ChainUnknown
}

// Classify combines level and chain-position inference.
func Classify(name string) Classification {
	return Classification{
		Level:         InferLevel(name),
		ChainPosition: InferChainPosition(name),
	}
}

func matchesAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
