package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"talenthub/pkg/analytics"
	"talenthub/pkg/domain"
)

// Both implementations must behave identically; the suite runs against each.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Run("talent crud", func(t *testing.T) {
		s := open(t)
		created, err := s.CreateTalent(domain.Talent{Name: "Giulia Ferri", Email: "giulia@agenzia.it", Status: domain.TalentActive})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected generated id")
		}
		if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
			t.Fatal("expected timestamps to be stamped")
		}

		got, ok, err := s.GetTalent(created.ID)
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if got.Name != "Giulia Ferri" {
			t.Errorf("got name %q", got.Name)
		}

		updated, err := s.UpdateTalent(created.ID, map[string]any{"stageName": "Giu", "status": "inactive"})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.StageName != "Giu" || updated.Status != domain.TalentInactive {
			t.Errorf("patch not applied: %+v", updated)
		}
		if updated.Email != "giulia@agenzia.it" {
			t.Errorf("untouched field changed: %q", updated.Email)
		}

		if err := s.DeleteTalent(created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, _ := s.GetTalent(created.ID); ok {
			t.Error("talent still present after delete")
		}
	})

	t.Run("talent json columns roundtrip", func(t *testing.T) {
		s := open(t)
		created, err := s.CreateTalent(domain.Talent{
			Name:    "Marco Valli",
			Status:  domain.TalentActive,
			Socials: []domain.SocialProfile{{Platform: "instagram", Handle: "@marcovalli", Followers: 120000}},
			Gallery: []string{"/files/g1.jpg", "/files/g2.jpg"},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, ok, err := s.GetTalent(created.ID)
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if len(got.Socials) != 1 || got.Socials[0].Handle != "@marcovalli" {
			t.Errorf("socials lost: %+v", got.Socials)
		}
		if len(got.Gallery) != 2 || got.Gallery[1] != "/files/g2.jpg" {
			t.Errorf("gallery lost: %+v", got.Gallery)
		}
	})

	t.Run("update missing returns not found", func(t *testing.T) {
		s := open(t)
		if _, err := s.UpdateBrand("nope", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete missing returns not found", func(t *testing.T) {
		s := open(t)
		if err := s.DeleteIncome("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("negative budget rejected on every campaign write", func(t *testing.T) {
		s := open(t)
		if _, err := s.CreateCampaign(domain.Campaign{Name: "Bad", TotalBudget: -500}); !errors.Is(err, domain.ErrNegativeBudget) {
			t.Errorf("create: expected ErrNegativeBudget, got %v", err)
		}
		if _, _, _, err := s.CreateCampaignComposite(domain.Campaign{Name: "Bad", TotalBudget: -1}, nil); !errors.Is(err, domain.ErrNegativeBudget) {
			t.Errorf("composite: expected ErrNegativeBudget, got %v", err)
		}
		created, err := s.CreateCampaign(domain.Campaign{Name: "Good", TotalBudget: 1000})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := s.UpdateCampaign(created.ID, map[string]any{"totalBudget": -1.0}); !errors.Is(err, domain.ErrNegativeBudget) {
			t.Errorf("update: expected ErrNegativeBudget, got %v", err)
		}
		campaigns, err := s.ListCampaigns()
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(campaigns) != 1 || campaigns[0].TotalBudget != 1000 {
			t.Errorf("rejected writes reached storage: %+v", campaigns)
		}
	})

	t.Run("composite campaign", func(t *testing.T) {
		s := open(t)
		when := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		c, collab, appt, err := s.CreateCampaignComposite(
			domain.Campaign{Name: "Launch", BrandName: "Acme", TotalBudget: 10000, AgencyFeePercent: 30, Status: domain.CampaignActive},
			&CompositeLink{TalentID: "t-9", ActivityDate: when},
		)
		if err != nil {
			t.Fatalf("composite: %v", err)
		}
		if collab == nil || appt == nil {
			t.Fatal("expected derived records")
		}
		if collab.Fee != 7000 {
			t.Errorf("fee = %v, want 7000", collab.Fee)
		}
		if collab.CampaignID != c.ID || collab.Status != domain.CollaborationConfirmed || collab.PaymentStatus != domain.PaymentUnpaid {
			t.Errorf("unexpected collaboration: %+v", collab)
		}
		if appt.CollaborationID != collab.ID || appt.Type != domain.AppointmentShooting || !appt.Date.Equal(when) {
			t.Errorf("unexpected appointment: %+v", appt)
		}

		collabs, err := s.ListCollaborations()
		if err != nil || len(collabs) != 1 {
			t.Fatalf("list collaborations: %v (n=%d)", err, len(collabs))
		}
		appts, err := s.ListAppointments()
		if err != nil || len(appts) != 1 {
			t.Fatalf("list appointments: %v (n=%d)", err, len(appts))
		}
	})

	t.Run("composite without link creates campaign only", func(t *testing.T) {
		s := open(t)
		_, collab, appt, err := s.CreateCampaignComposite(
			domain.Campaign{Name: "Solo", TotalBudget: 500, Status: domain.CampaignDraft}, nil)
		if err != nil {
			t.Fatalf("composite: %v", err)
		}
		if collab != nil || appt != nil {
			t.Error("expected no derived records")
		}
	})

	t.Run("analytics matches client computation", func(t *testing.T) {
		s := open(t)
		mustCreate := func(err error) {
			t.Helper()
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		_, err := s.CreateCampaign(domain.Campaign{Name: "A", TotalBudget: 8000, AgencyFeePercent: 25, Status: domain.CampaignActive})
		mustCreate(err)
		_, err = s.CreateCampaign(domain.Campaign{Name: "B", TotalBudget: 2000, Status: domain.CampaignDraft})
		mustCreate(err)
		_, err = s.CreateCollaboration(domain.Collaboration{CampaignID: "c", TalentID: "t", Fee: 6000, PaymentStatus: domain.PaymentUnpaid, Status: domain.CollaborationConfirmed})
		mustCreate(err)
		_, err = s.CreateExtraCost(domain.ExtraCost{CampaignID: "c", Amount: 450, Status: domain.CostPaid})
		mustCreate(err)
		_, err = s.CreateIncome(domain.Income{CampaignID: "c", Amount: 4000, Status: domain.IncomeReceived})
		mustCreate(err)
		_, err = s.CreateIncome(domain.Income{CampaignID: "c", Amount: 1000, Status: domain.IncomePending})
		mustCreate(err)

		summary, err := s.AnalyticsSummary()
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		campaigns, _ := s.ListCampaigns()
		collabs, _ := s.ListCollaborations()
		costs, _ := s.ListExtraCosts()
		income, _ := s.ListIncome()
		want := analytics.Compute(campaigns, collabs, costs, income)
		if summary != want {
			t.Errorf("summary = %+v, want %+v", summary, want)
		}
		if summary.Fatturato != 10000 || summary.Incassato != 4000 {
			t.Errorf("unexpected totals: %+v", summary)
		}
		if summary.Utile != 10000-6000-450 {
			t.Errorf("utile = %v", summary.Utile)
		}
	})

	t.Run("analytics empty dataset", func(t *testing.T) {
		s := open(t)
		summary, err := s.AnalyticsSummary()
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if summary != (analytics.Summary{}) {
			t.Errorf("expected zero summary, got %+v", summary)
		}
	})

	t.Run("users", func(t *testing.T) {
		s := open(t)
		if n, _ := s.UserCount(); n != 0 {
			t.Fatalf("expected empty user table, got %d", n)
		}
		err := s.SaveUser(domain.User{ID: "u-1", Username: "admin", Name: "Admin", Role: domain.RoleAdmin, PasswordHash: "hash", CreatedAt: time.Now().UTC()})
		if err != nil {
			t.Fatalf("save user: %v", err)
		}
		u, ok, err := s.GetUserByUsername("admin")
		if err != nil || !ok {
			t.Fatalf("get user: ok=%v err=%v", ok, err)
		}
		if u.PasswordHash != "hash" || u.Role != domain.RoleAdmin {
			t.Errorf("unexpected user: %+v", u)
		}
		if _, ok, _ := s.GetUserByUsername("ghost"); ok {
			t.Error("unexpected user found")
		}
		if n, _ := s.UserCount(); n != 1 {
			t.Errorf("user count = %d", n)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestGormStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewGormStore(filepath.Join(t.TempDir(), "agency.db"))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		return s
	})
}

func TestGormStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agency.db")
	first, err := NewGormStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	created, err := first.CreateBrand(domain.Brand{Name: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	second, err := NewGormStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	brands, err := second.ListBrands()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(brands) != 1 || brands[0].ID != created.ID {
		t.Fatalf("expected persisted brand, got %+v", brands)
	}
}
