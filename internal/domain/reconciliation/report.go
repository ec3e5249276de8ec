package reconciliation

import (
	"strings"

	"github.com/auctify/settlement-engine/internal/domain/entity"
)

// Stats is the derived summary of a result set
type Stats struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Unsold    int `json:"unsold"`
	Anomalies int `json:"anomalies"`
}

// Summarize counts results per status
func Summarize(results []*entity.ReconciliationResult) Stats {
	stats := Stats{Processed: len(results)}
	for _, r := range results {
		switch r.Status {
		case entity.ResultStatusSold:
			stats.Matched++
		case entity.ResultStatusUnsold:
			stats.Unsold++
		case entity.ResultStatusAnomaly:
			stats.Anomalies++
		}
	}
	return stats
}

// Filter selects results by status and case-insensitive seller name substring.
// Empty fields match everything.
type Filter struct {
	Status     string
	SellerName string
}

func (f Filter) Match(r *entity.ReconciliationResult) bool {
	if f.Status != "" && !strings.EqualFold(f.Status, r.Status) {
		return false
	}
	if f.SellerName != "" && !strings.Contains(strings.ToLower(r.SellerName), strings.ToLower(strings.TrimSpace(f.SellerName))) {
		return false
	}
	return true
}

// Apply returns the matching results in their original order
func (f Filter) Apply(results []*entity.ReconciliationResult) []*entity.ReconciliationResult {
	out := make([]*entity.ReconciliationResult, 0, len(results))
	for _, r := range results {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
