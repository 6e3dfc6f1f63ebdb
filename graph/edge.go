package graph

import (
	"fmt"
	"strconv"
)

// Edge connects two nodes in a workflow.
//
// An edge with a nil When is a plain edge and takes part in ordinary
// successor selection. An edge with a When predicate is conditional: after
// its source executes, it fires when the predicate holds and the source has
// been visited fewer than MaxVisits times in the current run (MaxVisits 0
// means no cap). Conditional edges are evaluated before plain ones, in the
// order they were declared.
type Edge struct {
	From string
	To   string

	When      Predicate
	MaxVisits int

	// Note, if set, produces the run log line appended when the edge fires.
	Note func(State) string
}

// Predicate evaluates run state to decide whether a conditional edge fires.
// Predicates must be pure.
type Predicate func(state State) bool

// Conditional reports whether the edge carries a predicate.
func (e Edge) Conditional() bool {
	return e.When != nil
}

func (e Edge) fires(state State, visits int) bool {
	if e.When == nil {
		return false
	}
	if e.MaxVisits > 0 && visits >= e.MaxVisits {
		return false
	}
	return e.When(state)
}

// Defaults for the quality loop.
const (
	DefaultScoreKey     = "quality_score"
	DefaultThresholdKey = "quality_threshold"
	DefaultThreshold    = 7
	DefaultMaxVisits    = 3
)

// LoopRule declares a bounded loop-back: after Source runs, jump back to
// Target while state[ScoreKey] < state[ThresholdKey], at most until Source
// has been visited MaxVisits times.
//
// A missing score reads as ScoreDefault and a missing threshold as
// ThresholdDefault (7 when unset; an explicit 0 is kept). A value that is
// present but not numeric stops the loop.
type LoopRule struct {
	Source           string   `json:"source" yaml:"source"`
	Target           string   `json:"target" yaml:"target"`
	ScoreKey         string   `json:"score_key,omitempty" yaml:"score_key,omitempty"`
	ScoreDefault     float64  `json:"score_default,omitempty" yaml:"score_default,omitempty"`
	ThresholdKey     string   `json:"threshold_key,omitempty" yaml:"threshold_key,omitempty"`
	ThresholdDefault *float64 `json:"threshold_default,omitempty" yaml:"threshold_default,omitempty"`
	MaxVisits        int      `json:"max_visits,omitempty" yaml:"max_visits,omitempty"`
}

// QualityLoop returns the code review loop: suggest_improvements jumps back
// to detect_issues while quality_score is below quality_threshold (default 7),
// for at most 3 visits.
func QualityLoop() LoopRule {
	return LoopRule{
		Source:       "suggest_improvements",
		Target:       "detect_issues",
		ScoreKey:     DefaultScoreKey,
		ThresholdKey: DefaultThresholdKey,
		MaxVisits:    DefaultMaxVisits,
	}
}

// withDefaults fills empty keys, an unset threshold default and a zero visit cap.
func (r LoopRule) withDefaults() LoopRule {
	if r.ScoreKey == "" {
		r.ScoreKey = DefaultScoreKey
	}
	if r.ThresholdKey == "" {
		r.ThresholdKey = DefaultThresholdKey
	}
	if r.ThresholdDefault == nil {
		threshold := float64(DefaultThreshold)
		r.ThresholdDefault = &threshold
	}
	if r.MaxVisits == 0 {
		r.MaxVisits = DefaultMaxVisits
	}
	return r
}

// Edge converts the rule into a conditional edge.
func (r LoopRule) Edge() Edge {
	r = r.withDefaults()
	thresholdDefault := *r.ThresholdDefault
	return Edge{
		From:      r.Source,
		To:        r.Target,
		MaxVisits: r.MaxVisits,
		When: func(s State) bool {
			score, ok := r.value(s, r.ScoreKey, r.ScoreDefault)
			if !ok {
				return false
			}
			threshold, ok := r.value(s, r.ThresholdKey, thresholdDefault)
			if !ok {
				return false
			}
			return score < threshold
		},
		Note: func(s State) string {
			return fmt.Sprintf("%s=%s < threshold=%s, looping",
				r.ScoreKey,
				formatValue(s, r.ScoreKey, r.ScoreDefault),
				formatValue(s, r.ThresholdKey, thresholdDefault))
		},
	}
}

func (r LoopRule) value(s State, key string, def float64) (float64, bool) {
	v, present := s[key]
	if !present {
		return def, true
	}
	return Number(v)
}

func formatValue(s State, key string, def float64) string {
	v, present := s[key]
	if !present {
		return strconv.FormatFloat(def, 'f', -1, 64)
	}
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
