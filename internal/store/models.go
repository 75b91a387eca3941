package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"talenthub/pkg/domain"
)

// GORM models used for persistence. List-valued fields are serialized into
// JSON columns; SQLite has no array type and the lists are opaque to every
// query we run.

type TalentModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"not null"`
	StageName       string
	Email           string
	Phone           string
	Socials         datatypes.JSON
	IBAN            string
	VATNumber       string
	Status          string `gorm:"not null"`
	Gallery         datatypes.JSON
	Attachments     datatypes.JSON
	ProfilePhotoURL string
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type BrandModel struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"not null;index"`
	ContactName    string
	ContactEmail   string
	Phone          string
	LogoURL        string
	BillingAddress string
	VATNumber      string
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type CampaignModel struct {
	ID               string `gorm:"primaryKey"`
	Name             string `gorm:"not null"`
	BrandName        string `gorm:"index"`
	TotalBudget      float64
	AgencyFeePercent float64
	Status           string `gorm:"not null"`
	Deadline         *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

type CollaborationModel struct {
	ID            string `gorm:"primaryKey"`
	CampaignID    string `gorm:"not null;index"`
	TalentID      string `gorm:"not null;index"`
	Fee           float64
	PaidAmount    float64
	PaymentStatus string    `gorm:"not null"`
	Status        string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type AppointmentModel struct {
	ID              string `gorm:"primaryKey"`
	TalentID        string `gorm:"not null;index"`
	CollaborationID string `gorm:"index"`
	Type            string `gorm:"not null"`
	Date            time.Time
	Status          string `gorm:"not null"`
	Notes           string
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type IncomeModel struct {
	ID          string `gorm:"primaryKey"`
	CampaignID  string `gorm:"not null;index"`
	Description string
	Amount      float64
	Date        time.Time
	Status      string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type ExtraCostModel struct {
	ID          string `gorm:"primaryKey"`
	CampaignID  string `gorm:"not null;index"`
	Description string
	Amount      float64
	Date        time.Time
	Status      string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type NotificationModel struct {
	ID        string `gorm:"primaryKey"`
	Severity  string `gorm:"not null"`
	Message   string `gorm:"not null"`
	Read      bool
	CreatedAt time.Time `gorm:"not null;index"`
}

type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	TalentID     string    `gorm:"index"`
	CreatedAt    time.Time `gorm:"not null"`
}

func talentToModel(t domain.Talent) (TalentModel, error) {
	socials, err := toJSON(t.Socials)
	if err != nil {
		return TalentModel{}, err
	}
	gallery, err := toJSON(t.Gallery)
	if err != nil {
		return TalentModel{}, err
	}
	attachments, err := toJSON(t.Attachments)
	if err != nil {
		return TalentModel{}, err
	}
	return TalentModel{
		ID:              t.ID,
		Name:            t.Name,
		StageName:       t.StageName,
		Email:           t.Email,
		Phone:           t.Phone,
		Socials:         socials,
		IBAN:            t.IBAN,
		VATNumber:       t.VATNumber,
		Status:          string(t.Status),
		Gallery:         gallery,
		Attachments:     attachments,
		ProfilePhotoURL: t.ProfilePhotoURL,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}, nil
}

func talentFromModel(m TalentModel) (domain.Talent, error) {
	t := domain.Talent{
		ID:              m.ID,
		Name:            m.Name,
		StageName:       m.StageName,
		Email:           m.Email,
		Phone:           m.Phone,
		IBAN:            m.IBAN,
		VATNumber:       m.VATNumber,
		Status:          domain.TalentStatus(m.Status),
		ProfilePhotoURL: m.ProfilePhotoURL,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if err := fromJSON(m.Socials, &t.Socials); err != nil {
		return domain.Talent{}, err
	}
	if err := fromJSON(m.Gallery, &t.Gallery); err != nil {
		return domain.Talent{}, err
	}
	if err := fromJSON(m.Attachments, &t.Attachments); err != nil {
		return domain.Talent{}, err
	}
	return t, nil
}

func brandToModel(b domain.Brand) BrandModel {
	return BrandModel{
		ID:             b.ID,
		Name:           b.Name,
		ContactName:    b.ContactName,
		ContactEmail:   b.ContactEmail,
		Phone:          b.Phone,
		LogoURL:        b.LogoURL,
		BillingAddress: b.BillingAddress,
		VATNumber:      b.VATNumber,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func brandFromModel(m BrandModel) domain.Brand {
	return domain.Brand{
		ID:             m.ID,
		Name:           m.Name,
		ContactName:    m.ContactName,
		ContactEmail:   m.ContactEmail,
		Phone:          m.Phone,
		LogoURL:        m.LogoURL,
		BillingAddress: m.BillingAddress,
		VATNumber:      m.VATNumber,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func campaignToModel(c domain.Campaign) CampaignModel {
	return CampaignModel{
		ID:               c.ID,
		Name:             c.Name,
		BrandName:        c.BrandName,
		TotalBudget:      c.TotalBudget,
		AgencyFeePercent: c.AgencyFeePercent,
		Status:           string(c.Status),
		Deadline:         c.Deadline,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func campaignFromModel(m CampaignModel) domain.Campaign {
	return domain.Campaign{
		ID:               m.ID,
		Name:             m.Name,
		BrandName:        m.BrandName,
		TotalBudget:      m.TotalBudget,
		AgencyFeePercent: m.AgencyFeePercent,
		Status:           domain.CampaignStatus(m.Status),
		Deadline:         m.Deadline,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func collaborationToModel(c domain.Collaboration) CollaborationModel {
	return CollaborationModel{
		ID:            c.ID,
		CampaignID:    c.CampaignID,
		TalentID:      c.TalentID,
		Fee:           c.Fee,
		PaidAmount:    c.PaidAmount,
		PaymentStatus: string(c.PaymentStatus),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func collaborationFromModel(m CollaborationModel) domain.Collaboration {
	return domain.Collaboration{
		ID:            m.ID,
		CampaignID:    m.CampaignID,
		TalentID:      m.TalentID,
		Fee:           m.Fee,
		PaidAmount:    m.PaidAmount,
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		Status:        domain.CollaborationStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func appointmentToModel(a domain.Appointment) AppointmentModel {
	return AppointmentModel{
		ID:              a.ID,
		TalentID:        a.TalentID,
		CollaborationID: a.CollaborationID,
		Type:            string(a.Type),
		Date:            a.Date,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func appointmentFromModel(m AppointmentModel) domain.Appointment {
	return domain.Appointment{
		ID:              m.ID,
		TalentID:        m.TalentID,
		CollaborationID: m.CollaborationID,
		Type:            domain.AppointmentType(m.Type),
		Date:            m.Date,
		Status:          domain.AppointmentStatus(m.Status),
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func incomeToModel(i domain.Income) IncomeModel {
	return IncomeModel{
		ID:          i.ID,
		CampaignID:  i.CampaignID,
		Description: i.Description,
		Amount:      i.Amount,
		Date:        i.Date,
		Status:      string(i.Status),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func incomeFromModel(m IncomeModel) domain.Income {
	return domain.Income{
		ID:          m.ID,
		CampaignID:  m.CampaignID,
		Description: m.Description,
		Amount:      m.Amount,
		Date:        m.Date,
		Status:      domain.LedgerStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func extraCostToModel(c domain.ExtraCost) ExtraCostModel {
	return ExtraCostModel{
		ID:          c.ID,
		CampaignID:  c.CampaignID,
		Description: c.Description,
		Amount:      c.Amount,
		Date:        c.Date,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func extraCostFromModel(m ExtraCostModel) domain.ExtraCost {
	return domain.ExtraCost{
		ID:          m.ID,
		CampaignID:  m.CampaignID,
		Description: m.Description,
		Amount:      m.Amount,
		Date:        m.Date,
		Status:      domain.LedgerStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func notificationToModel(n domain.Notification) NotificationModel {
	return NotificationModel{
		ID:        n.ID,
		Severity:  string(n.Severity),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func notificationFromModel(m NotificationModel) domain.Notification {
	return domain.Notification{
		ID:        m.ID,
		Severity:  domain.Severity(m.Severity),
		Message:   m.Message,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		TalentID:     u.TalentID,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Name:         m.Name,
		Role:         domain.UserRole(m.Role),
		PasswordHash: m.PasswordHash,
		TalentID:     m.TalentID,
		CreatedAt:    m.CreatedAt,
	}
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return datatypes.JSON(data), nil
}

func fromJSON(col datatypes.JSON, out any) error {
	if len(col) == 0 {
		return nil
	}
	if err := json.Unmarshal(col, out); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}
