// Package analytics computes the financial summary shown on the dashboard.
// The same figures are produced server-side from the database; both paths
// must agree for identical input sets.
package analytics

import "talenthub/pkg/domain"

// Summary aggregates the agency's financial position.
type Summary struct {
	Fatturato        float64 `json:"fatturato"`
	PagamentiTalent  float64 `json:"pagamentiTalent"`
	CostiExtra       float64 `json:"costiExtra"`
	Incassato        float64 `json:"incassato"`
	Utile            float64 `json:"utile"`
	MarginPercentage float64 `json:"marginPercentage"`
}

// Compute derives the summary from in-memory collections. Revenue is the sum
// of campaign budgets, payouts the sum of collaboration fees. Margin
// percentage is defined as zero when revenue is zero.
func Compute(campaigns []domain.Campaign, collaborations []domain.Collaboration, costs []domain.ExtraCost, income []domain.Income) Summary {
	var s Summary
	for _, c := range campaigns {
		s.Fatturato += c.TotalBudget
	}
	for _, c := range collaborations {
		s.PagamentiTalent += c.Fee
	}
	for _, c := range costs {
		s.CostiExtra += c.Amount
	}
	for _, i := range income {
		if i.Status == domain.IncomeReceived {
			s.Incassato += i.Amount
		}
	}
	s.Utile = s.Fatturato - s.PagamentiTalent - s.CostiExtra
	if s.Fatturato != 0 {
		s.MarginPercentage = s.Utile / s.Fatturato * 100
	}
	return s
}
