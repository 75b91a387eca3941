// Package store defines persistence for the agency backend with two
// implementations: an in-memory store used by tests and a GORM/SQLite store
// used in production.
package store

import (
	"errors"
	"time"

	"talenthub/pkg/analytics"
	"talenthub/pkg/domain"
)

// ErrNotFound indicates the referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// CompositeLink asks the composite campaign creation to also derive a
// collaboration and a shooting appointment.
type CompositeLink struct {
	TalentID     string
	ActivityDate time.Time
}

// Store defines persistence operations for every dashboard entity.
type Store interface {
	// talents
	ListTalents() ([]domain.Talent, error)
	GetTalent(id string) (domain.Talent, bool, error)
	CreateTalent(domain.Talent) (domain.Talent, error)
	UpdateTalent(id string, patch map[string]any) (domain.Talent, error)
	DeleteTalent(id string) error

	// brands
	ListBrands() ([]domain.Brand, error)
	CreateBrand(domain.Brand) (domain.Brand, error)
	UpdateBrand(id string, patch map[string]any) (domain.Brand, error)
	DeleteBrand(id string) error

	// campaigns
	ListCampaigns() ([]domain.Campaign, error)
	CreateCampaign(domain.Campaign) (domain.Campaign, error)
	UpdateCampaign(id string, patch map[string]any) (domain.Campaign, error)
	DeleteCampaign(id string) error
	// CreateCampaignComposite applies campaign, derived collaboration and
	// shooting appointment as one transaction.
	CreateCampaignComposite(c domain.Campaign, link *CompositeLink) (domain.Campaign, *domain.Collaboration, *domain.Appointment, error)

	// collaborations
	ListCollaborations() ([]domain.Collaboration, error)
	CreateCollaboration(domain.Collaboration) (domain.Collaboration, error)
	UpdateCollaboration(id string, patch map[string]any) (domain.Collaboration, error)
	DeleteCollaboration(id string) error

	// appointments
	ListAppointments() ([]domain.Appointment, error)
	CreateAppointment(domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(id string, patch map[string]any) (domain.Appointment, error)
	DeleteAppointment(id string) error

	// ledgers
	ListIncome() ([]domain.Income, error)
	CreateIncome(domain.Income) (domain.Income, error)
	UpdateIncome(id string, patch map[string]any) (domain.Income, error)
	DeleteIncome(id string) error
	ListExtraCosts() ([]domain.ExtraCost, error)
	CreateExtraCost(domain.ExtraCost) (domain.ExtraCost, error)
	UpdateExtraCost(id string, patch map[string]any) (domain.ExtraCost, error)
	DeleteExtraCost(id string) error

	// notifications
	ListNotifications() ([]domain.Notification, error)
	CreateNotification(domain.Notification) (domain.Notification, error)
	UpdateNotification(id string, patch map[string]any) (domain.Notification, error)
	DeleteNotification(id string) error

	// analytics
	AnalyticsSummary() (analytics.Summary, error)

	// users
	SaveUser(domain.User) error
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	UserCount() (int, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
