package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/textsim"
)

// Adjustment weights and caps
const (
	agreementBoost    = 0.01
	agreementCap      = 0.10
	missingPenalty    = 0.03
	missingCap        = 0.25
	extraPenalty      = 0.025
	extraCap          = 0.20
	factualPenalty    = 0.05
	factualCap        = 0.30
	lowThreshold      = 0.30
	moderateThreshold = 0.50
	highThreshold     = 0.70
)

// Factors are the aggregate comparison results the confidence is built from
type Factors struct {
	Similarity    float64 // Whole-text similarity in [0,1]
	Overlap       float64 // N-gram overlap in [0,1]
	TrulyMissing  int     // Wiki sentences with no counterpart
	Extra         int     // Grok sentences with no counterpart
	FactualErrors int
	Agreement     int // Sentences identical on both sides
	Reworded      int // Sentence pairs matched by similarity
}

// Scorer turns comparison factors into a confidence summary
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate scores the factors. Adjustments apply in a fixed order and each
// adds a rationale sentence only when its count is positive.
func (s *Scorer) Calculate(f Factors) model.ConfidenceSummary {
	score := (f.Similarity + f.Overlap) / 2
	rationale := []string{}

	// 1. Agreement boost
	if f.Agreement > 0 {
		score += capped(f.Agreement, agreementBoost, agreementCap)
		rationale = append(rationale, fmt.Sprintf("%d sentences match exactly between sources", f.Agreement))
	}

	// 2. Rewording (informational only)
	if f.Reworded > 0 {
		rationale = append(rationale, fmt.Sprintf("%d sentences reworded but semantically similar", f.Reworded))
	}

	// 3. Missing context penalty
	if f.TrulyMissing > 0 {
		score -= capped(f.TrulyMissing, missingPenalty, missingCap)
		rationale = append(rationale, fmt.Sprintf("%d Wikipedia sentences truly missing on Grokipedia", f.TrulyMissing))
	}

	// 4. Extra content penalty
	if f.Extra > 0 {
		score -= capped(f.Extra, extraPenalty, extraCap)
		rationale = append(rationale, fmt.Sprintf("%d Grokipedia sentences not found on Wikipedia", f.Extra))
	}

	// 5. Factual error penalty
	if f.FactualErrors > 0 {
		score -= capped(f.FactualErrors, factualPenalty, factualCap)
		rationale = append(rationale, fmt.Sprintf("%d factual errors detected", f.FactualErrors))
	}

	score = textsim.Round3(clamp(score))

	return model.ConfidenceSummary{
		Label:     Label(score),
		Score:     score,
		Rationale: rationale,
	}
}

// Label maps a score to its band. Boundary values belong to the higher band.
func Label(score float64) model.ConfidenceLabel {
	switch {
	case score < lowThreshold:
		return model.ConfidenceSuspectedDivergence
	case score < moderateThreshold:
		return model.ConfidenceLow
	case score < highThreshold:
		return model.ConfidenceModerate
	default:
		return model.ConfidenceHigh
	}
}

func capped(count int, weight, limit float64) float64 {
	return math.Min(float64(count)*weight, limit)
}

// clamp bounds the score to [0,1]; NaN collapses to 0
func clamp(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
