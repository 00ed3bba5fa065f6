package services

import (
	"math"

	"sahayak-agent/internal/models"

	"github.com/shopspring/decimal"
)

const (
	trustPointsPerEntry   = 2.5
	trustBonusThreshold   = 30
	trustConsistencyBonus = 25
	trustScoreCap         = 100
)

// TrustService computes the 0-100 trust score from a beneficiary's
// ledger. The score depends only on the entry count, not amounts or
// recency: it rewards consistency of logging, not transaction size.
// That is a product decision, not a shortcut.
type TrustService struct{}

func NewTrustService() *TrustService {
	return &TrustService{}
}

// ComputeScore is pure and recomputed on every read; the ledger can
// grow between renders.
func (s *TrustService) ComputeScore(entries []models.KhataEntry) int {
	n := len(entries)
	score := float64(n) * trustPointsPerEntry
	if n >= trustBonusThreshold {
		score += trustConsistencyBonus
	}
	rounded := int(math.Round(score))
	if rounded > trustScoreCap {
		return trustScoreCap
	}
	return rounded
}

// Summarize builds the khata screen's derived view: total earnings,
// entry count and the trust score.
func (s *TrustService) Summarize(entries []models.KhataEntry) models.KhataSummary {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return models.KhataSummary{
		TotalEarnings: total,
		EntryCount:    len(entries),
		TrustScore:    s.ComputeScore(entries),
	}
}
