package domain

import (
	"errors"
	"math"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft  CampaignStatus = "Bozza"
	CampaignActive CampaignStatus = "Attiva"
	CampaignClosed CampaignStatus = "Chiusa"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Non Saldato"
	PaymentPending PaymentStatus = "In Attesa"
	PaymentPaid    PaymentStatus = "Saldato"
)

type CollaborationStatus string

const (
	CollaborationProposed  CollaborationStatus = "Proposta"
	CollaborationConfirmed CollaborationStatus = "Confermata"
	CollaborationCompleted CollaborationStatus = "Completata"
)

type AppointmentType string

const (
	AppointmentShooting    AppointmentType = "Shooting"
	AppointmentPublication AppointmentType = "Pubblicazione"
	AppointmentCall        AppointmentType = "Call"
	AppointmentDelivery    AppointmentType = "Consegna"
	AppointmentOther       AppointmentType = "Altro"
)

type AppointmentStatus string

const (
	AppointmentPlanned   AppointmentStatus = "planned"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type TalentStatus string

const (
	TalentActive   TalentStatus = "active"
	TalentInactive TalentStatus = "inactive"
)

type LedgerStatus string

const (
	IncomeReceived LedgerStatus = "Incassato"
	IncomePending  LedgerStatus = "In Attesa"
	CostPaid       LedgerStatus = "Pagato"
	CostUnpaid     LedgerStatus = "Da Pagare"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeam    UserRole = "team"
	RoleFinance UserRole = "finance"
	RoleTalent  UserRole = "talent"
)

// SocialProfile is one social media presence of a talent.
type SocialProfile struct {
	Platform  string `json:"platform"`
	Handle    string `json:"handle"`
	Followers int64  `json:"followers"`
}

// Attachment references a document uploaded for a talent.
type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Talent struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	StageName       string          `json:"stageName,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Socials         []SocialProfile `json:"socials,omitempty"`
	IBAN            string          `json:"iban,omitempty"`
	VATNumber       string          `json:"vatNumber,omitempty"`
	Status          TalentStatus    `json:"status"`
	Gallery         []string        `json:"gallery,omitempty"`
	Attachments     []Attachment    `json:"attachments,omitempty"`
	ProfilePhotoURL string          `json:"profilePhotoUrl,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type Brand struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ContactName    string    `json:"contactName,omitempty"`
	ContactEmail   string    `json:"contactEmail,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	LogoURL        string    `json:"logoUrl,omitempty"`
	BillingAddress string    `json:"billingAddress,omitempty"`
	VATNumber      string    `json:"vatNumber,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Campaign struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// BrandName is denormalized on purpose: the legacy data path references
	// brands by name, not by foreign key.
	BrandName        string         `json:"brand"`
	TotalBudget      float64        `json:"totalBudget"`
	AgencyFeePercent float64        `json:"agencyFeePercent"`
	Status           CampaignStatus `json:"status"`
	Deadline         *time.Time     `json:"deadline,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type Collaboration struct {
	ID            string              `json:"id"`
	CampaignID    string              `json:"campaignId"`
	TalentID      string              `json:"talentId"`
	Fee           float64             `json:"fee"`
	PaidAmount    float64             `json:"paidAmount"`
	PaymentStatus PaymentStatus       `json:"paymentStatus"`
	Status        CollaborationStatus `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type Appointment struct {
	ID              string            `json:"id"`
	TalentID        string            `json:"talentId"`
	CollaborationID string            `json:"collaborationId,omitempty"`
	Type            AppointmentType   `json:"type"`
	Date            time.Time         `json:"date"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

type Income struct {
	ID          string       `json:"id"`
	CampaignID  string       `json:"campaignId"`
	Description string       `json:"description,omitempty"`
	Amount      float64      `json:"amount"`
	Date        time.Time    `json:"date"`
	Status      LedgerStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type ExtraCost struct {
	ID          string       `json:"id"`
	CampaignID  string       `json:"campaignId"`
	Description string       `json:"description,omitempty"`
	Amount      float64      `json:"amount"`
	Date        time.Time    `json:"date"`
	Status      LedgerStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type Notification struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"`
	TalentID     string    `json:"talentId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the descriptor returned by a successful login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ErrNegativeBudget rejects campaign writes whose total budget is below
// zero. A negative budget would flow straight into the revenue aggregates.
var ErrNegativeBudget = errors.New("totalBudget must be >= 0")

// ValidateCampaign checks the invariants every campaign create and update
// must satisfy, whichever path the write takes.
func ValidateCampaign(c Campaign) error {
	if c.TotalBudget < 0 {
		return ErrNegativeBudget
	}
	return nil
}

// TalentFee computes the talent payout portion of a campaign budget:
// floor(totalBudget * (1 - agencyFeePercent/100)). The online and offline
// paths must use this same formula.
func TalentFee(totalBudget, agencyFeePercent float64) float64 {
	return math.Floor(totalBudget * (1 - agencyFeePercent/100))
}

// PaymentStatusFor derives the payment status a collaboration must carry
// after its paid amount changes.
func PaymentStatusFor(fee, paid float64) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentUnpaid
	case paid < fee:
		return PaymentPending
	default:
		return PaymentPaid
	}
}

func (t Talent) EntityID() string        { return t.ID }
func (b Brand) EntityID() string         { return b.ID }
func (c Campaign) EntityID() string      { return c.ID }
func (c Collaboration) EntityID() string { return c.ID }
func (a Appointment) EntityID() string   { return a.ID }
func (i Income) EntityID() string        { return i.ID }
func (c ExtraCost) EntityID() string     { return c.ID }
func (n Notification) EntityID() string  { return n.ID }

// Entity is implemented by every record the store manages.
type Entity interface {
	EntityID() string
}
