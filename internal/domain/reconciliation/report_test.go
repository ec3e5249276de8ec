package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/auctify/settlement-engine/internal/domain/entity"
)

func sampleResults() []*entity.ReconciliationResult {
	return []*entity.ReconciliationResult{
		{LotNumber: 1, Status: entity.ResultStatusSold, SellerName: "Galerie Dupont"},
		{LotNumber: 2, Status: entity.ResultStatusUnsold, SellerName: "Maison Leroy"},
		{LotNumber: 3, Status: entity.ResultStatusAnomaly, SellerName: ""},
		{LotNumber: 4, Status: entity.ResultStatusSold, SellerName: "DUPONT Frères"},
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{Processed: 4, Matched: 2, Unsold: 1, Anomalies: 1}, Summarize(sampleResults()))
	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		lots   []int
	}{
		{"no filter", Filter{}, []int{1, 2, 3, 4}},
		{"status", Filter{Status: entity.ResultStatusSold}, []int{1, 4}},
		{"status lower case", Filter{Status: "anomaly"}, []int{3}},
		{"seller substring case-insensitive", Filter{SellerName: "dupont"}, []int{1, 4}},
		{"status and seller", Filter{Status: entity.ResultStatusUnsold, SellerName: "dupont"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []int{}
			for _, r := range tt.filter.Apply(sampleResults()) {
				got = append(got, r.LotNumber)
			}
			assert.Equal(t, tt.lots, got)
		})
	}
}
