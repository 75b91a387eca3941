package syncstore

import (
	"time"

	"talenthub/internal/auth"
	"talenthub/pkg/domain"
)

// Seed data used when the remote is unreachable and no local snapshot
// exists yet, so a first offline start still shows a working dashboard.

func seedTalents() []domain.Talent {
	return []domain.Talent{
		{
			ID:        "t-1",
			Name:      "Giulia Ferri",
			StageName: "giulia.ferri",
			Email:     "giulia@agency.example",
			Status:    domain.TalentActive,
			Socials: []domain.SocialProfile{
				{Platform: "instagram", Handle: "@giulia.ferri", Followers: 182000},
				{Platform: "tiktok", Handle: "@giuliaferri", Followers: 95000},
			},
		},
		{
			ID:        "t-2",
			Name:      "Marco Valli",
			StageName: "marcovalli",
			Email:     "marco@agency.example",
			Status:    domain.TalentActive,
			Socials: []domain.SocialProfile{
				{Platform: "youtube", Handle: "MarcoValli", Followers: 310000},
			},
		},
	}
}

func seedBrands() []domain.Brand {
	return []domain.Brand{
		{ID: "b-1", Name: "Acme", ContactName: "Laura Conti", ContactEmail: "laura@acme.example"},
		{ID: "b-2", Name: "Nordica", ContactEmail: "marketing@nordica.example"},
	}
}

func seedCampaigns() []domain.Campaign {
	deadline := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	return []domain.Campaign{
		{
			ID:               "c-1",
			Name:             "Summer Drop",
			BrandName:        "Acme",
			TotalBudget:      8000,
			AgencyFeePercent: 25,
			Status:           domain.CampaignActive,
			Deadline:         &deadline,
		},
	}
}

func seedCollaborations() []domain.Collaboration {
	return []domain.Collaboration{
		{
			ID:            "col-1",
			CampaignID:    "c-1",
			TalentID:      "t-1",
			Fee:           6000,
			PaidAmount:    0,
			PaymentStatus: domain.PaymentUnpaid,
			Status:        domain.CollaborationConfirmed,
		},
	}
}

func seedAppointments() []domain.Appointment {
	return []domain.Appointment{
		{
			ID:              "a-1",
			TalentID:        "t-1",
			CollaborationID: "col-1",
			Type:            domain.AppointmentShooting,
			Date:            time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC),
			Status:          domain.AppointmentPlanned,
		},
	}
}

func seedIncome() []domain.Income {
	return []domain.Income{
		{
			ID:         "i-1",
			CampaignID: "c-1",
			Amount:     4000,
			Date:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Status:     domain.IncomeReceived,
		},
	}
}

func seedCosts() []domain.ExtraCost {
	return []domain.ExtraCost{
		{
			ID:          "x-1",
			CampaignID:  "c-1",
			Description: "Studio fotografico",
			Amount:      450,
			Date:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			Status:      domain.CostPaid,
		},
	}
}

// Demo accounts for the offline login path. Password hashes are computed at
// seed time, the snapshot never stores them.
func seedUsers() []domain.User {
	return []domain.User{
		{ID: "u-1", Username: "admin", Name: "Amministratore", Role: domain.RoleAdmin, PasswordHash: auth.HashPassword("admin123")},
		{ID: "u-2", Username: "team", Name: "Team", Role: domain.RoleTeam, PasswordHash: auth.HashPassword("team123")},
		{ID: "u-3", Username: "finance", Name: "Finanza", Role: domain.RoleFinance, PasswordHash: auth.HashPassword("finance123")},
	}
}
