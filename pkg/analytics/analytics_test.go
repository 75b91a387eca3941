package analytics

import (
	"math"
	"testing"

	"talenthub/pkg/domain"
)

func TestComputeAggregates(t *testing.T) {
	campaigns := []domain.Campaign{
		{ID: "c-1", TotalBudget: 10000},
		{ID: "c-2", TotalBudget: 5000},
	}
	collaborations := []domain.Collaboration{
		{ID: "col-1", CampaignID: "c-1", Fee: 7000},
		{ID: "col-2", CampaignID: "c-2", Fee: 2500},
	}
	costs := []domain.ExtraCost{
		{ID: "x-1", CampaignID: "c-1", Amount: 800},
	}
	income := []domain.Income{
		{ID: "i-1", CampaignID: "c-1", Amount: 4000, Status: domain.IncomeReceived},
		{ID: "i-2", CampaignID: "c-1", Amount: 6000, Status: domain.IncomePending},
	}

	s := Compute(campaigns, collaborations, costs, income)
	if s.Fatturato != 15000 {
		t.Errorf("fatturato = %v, want 15000", s.Fatturato)
	}
	if s.PagamentiTalent != 9500 {
		t.Errorf("pagamentiTalent = %v, want 9500", s.PagamentiTalent)
	}
	if s.CostiExtra != 800 {
		t.Errorf("costiExtra = %v, want 800", s.CostiExtra)
	}
	if s.Incassato != 4000 {
		t.Errorf("incassato = %v, want 4000", s.Incassato)
	}
	if s.Utile != 4700 {
		t.Errorf("utile = %v, want 4700", s.Utile)
	}
	want := 4700.0 / 15000.0 * 100
	if math.Abs(s.MarginPercentage-want) > 1e-9 {
		t.Errorf("marginPercentage = %v, want %v", s.MarginPercentage, want)
	}
}

func TestComputeZeroRevenue(t *testing.T) {
	s := Compute(nil, []domain.Collaboration{{Fee: 100}}, []domain.ExtraCost{{Amount: 50}}, nil)
	if s.Fatturato != 0 {
		t.Errorf("fatturato = %v, want 0", s.Fatturato)
	}
	if s.Utile != -150 {
		t.Errorf("utile = %v, want -150", s.Utile)
	}
	if s.MarginPercentage != 0 {
		t.Errorf("marginPercentage = %v, want 0 when revenue is 0", s.MarginPercentage)
	}
	if math.IsNaN(s.MarginPercentage) || math.IsInf(s.MarginPercentage, 0) {
		t.Errorf("marginPercentage must be finite, got %v", s.MarginPercentage)
	}
}

func TestComputeEmptyInput(t *testing.T) {
	s := Compute(nil, nil, nil, nil)
	if s != (Summary{}) {
		t.Errorf("empty input should produce zero summary, got %+v", s)
	}
}
