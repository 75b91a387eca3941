package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"talenthub/pkg/analytics"
	"talenthub/pkg/domain"
)

// GormStore implements Store using GORM over the pure-Go SQLite driver.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database file and runs auto-migrations.
func NewGormStore(path string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&TalentModel{},
		&BrandModel{},
		&CampaignModel{},
		&CollaborationModel{},
		&AppointmentModel{},
		&IncomeModel{},
		&ExtraCostModel{},
		&NotificationModel{},
		&UserModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) ListTalents() ([]domain.Talent, error) {
	var models []TalentModel
	if err := g.db.Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list talents: %w", err)
	}
	res := make([]domain.Talent, 0, len(models))
	for _, m := range models {
		t, err := talentFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func (g *GormStore) GetTalent(id string) (domain.Talent, bool, error) {
	var m TalentModel
	err := g.db.First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Talent{}, false, nil
	}
	if err != nil {
		return domain.Talent{}, false, fmt.Errorf("get talent: %w", err)
	}
	t, err := talentFromModel(m)
	if err != nil {
		return domain.Talent{}, false, err
	}
	return t, true, nil
}

func (g *GormStore) CreateTalent(t domain.Talent) (domain.Talent, error) {
	t.ID = ensureID(t.ID)
	t.CreatedAt, t.UpdatedAt = stamp(t.CreatedAt)
	m, err := talentToModel(t)
	if err != nil {
		return domain.Talent{}, err
	}
	if err := g.db.Create(&m).Error; err != nil {
		return domain.Talent{}, fmt.Errorf("create talent: %w", err)
	}
	return t, nil
}

func (g *GormStore) UpdateTalent(id string, patch map[string]any) (domain.Talent, error) {
	var out domain.Talent
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m TalentModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update talent", err)
		}
		current, err := talentFromModel(m)
		if err != nil {
			return err
		}
		merged, err := domain.Merge(current, patch)
		if err != nil {
			return err
		}
		merged.ID = id
		merged.UpdatedAt = time.Now().UTC()
		next, err := talentToModel(merged)
		if err != nil {
			return err
		}
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update talent: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteTalent(id string) error {
	return deleteByID[TalentModel](g.db, "talent", id)
}

func (g *GormStore) ListBrands() ([]domain.Brand, error) {
	var models []BrandModel
	if err := g.db.Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	res := make([]domain.Brand, 0, len(models))
	for _, m := range models {
		res = append(res, brandFromModel(m))
	}
	return res, nil
}

func (g *GormStore) CreateBrand(b domain.Brand) (domain.Brand, error) {
	b.ID = ensureID(b.ID)
	b.CreatedAt, b.UpdatedAt = stamp(b.CreatedAt)
	m := brandToModel(b)
	if err := g.db.Create(&m).Error; err != nil {
		return domain.Brand{}, fmt.Errorf("create brand: %w", err)
	}
	return b, nil
}

func (g *GormStore) UpdateBrand(id string, patch map[string]any) (domain.Brand, error) {
	var out domain.Brand
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m BrandModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update brand", err)
		}
		merged, err := domain.Merge(brandFromModel(m), patch)
		if err != nil {
			return err
		}
		merged.ID = id
		merged.UpdatedAt = time.Now().UTC()
		next := brandToModel(merged)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update brand: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteBrand(id string) error {
	return deleteByID[BrandModel](g.db, "brand", id)
}

func (g *GormStore) ListCampaigns() ([]domain.Campaign, error) {
	var models []CampaignModel
	if err := g.db.Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	res := make([]domain.Campaign, 0, len(models))
	for _, m := range models {
		res = append(res, campaignFromModel(m))
	}
	return res, nil
}

func (g *GormStore) CreateCampaign(c domain.Campaign) (domain.Campaign, error) {
	if err := domain.ValidateCampaign(c); err != nil {
		return domain.Campaign{}, err
	}
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	m := campaignToModel(c)
	if err := g.db.Create(&m).Error; err != nil {
		return domain.Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

func (g *GormStore) UpdateCampaign(id string, patch map[string]any) (domain.Campaign, error) {
	var out domain.Campaign
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m CampaignModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update campaign", err)
		}
		merged, err := domain.Merge(campaignFromModel(m), patch)
		if err != nil {
			return err
		}
		if err := domain.ValidateCampaign(merged); err != nil {
			return err
		}
		merged.ID = id
		merged.UpdatedAt = time.Now().UTC()
		next := campaignToModel(merged)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update campaign: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteCampaign(id string) error {
	return deleteByID[CampaignModel](g.db, "campaign", id)
}

// CreateCampaignComposite writes the campaign and, when link is set, the
// derived collaboration and shooting appointment inside one transaction.
func (g *GormStore) CreateCampaignComposite(c domain.Campaign, link *CompositeLink) (domain.Campaign, *domain.Collaboration, *domain.Appointment, error) {
	if err := domain.ValidateCampaign(c); err != nil {
		return domain.Campaign{}, nil, nil, err
	}
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	var (
		collab *domain.Collaboration
		appt   *domain.Appointment
	)
	err := g.db.Transaction(func(tx *gorm.DB) error {
		m := campaignToModel(c)
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("create campaign: %w", err)
		}
		if link == nil {
			return nil
		}
		now := time.Now().UTC()
		newCollab := domain.Collaboration{
			ID:            domain.NewID(),
			CampaignID:    c.ID,
			TalentID:      link.TalentID,
			Fee:           domain.TalentFee(c.TotalBudget, c.AgencyFeePercent),
			PaymentStatus: domain.PaymentUnpaid,
			Status:        domain.CollaborationConfirmed,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		cm := collaborationToModel(newCollab)
		if err := tx.Create(&cm).Error; err != nil {
			return fmt.Errorf("create collaboration: %w", err)
		}
		newAppt := domain.Appointment{
			ID:              domain.NewID(),
			TalentID:        link.TalentID,
			CollaborationID: newCollab.ID,
			Type:            domain.AppointmentShooting,
			Date:            link.ActivityDate,
			Status:          domain.AppointmentPlanned,
			Notes:           c.Name,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		am := appointmentToModel(newAppt)
		if err := tx.Create(&am).Error; err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		collab = &newCollab
		appt = &newAppt
		return nil
	})
	if err != nil {
		return domain.Campaign{}, nil, nil, err
	}
	return c, collab, appt, nil
}

func (g *GormStore) ListCollaborations() ([]domain.Collaboration, error) {
	var models []CollaborationModel
	if err := g.db.Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list collaborations: %w", err)
	}
	res := make([]domain.Collaboration, 0, len(models))
	for _, m := range models {
		res = append(res, collaborationFromModel(m))
	}
	return res, nil
}

func (g *GormStore) CreateCollaboration(c domain.Collaboration) (domain.Collaboration, error) {
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	m := collaborationToModel(c)
	if err := g.db.Create(&m).Error; err != nil {
		return domain.Collaboration{}, fmt.Errorf("create collaboration: %w", err)
	}
	return c, nil
}

func (g *GormStore) UpdateCollaboration(id string, patch map[string]any) (domain.Collaboration, error) {
	var out domain.Collaboration
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m CollaborationModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update collaboration", err)
		}
		merged, err := domain.Merge(collaborationFromModel(m), patch)
		if err != nil {
			return err
		}
		merged.ID = id
		merged.UpdatedAt = time.Now().UTC()
		next := collaborationToModel(merged)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update collaboration: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteCollaboration(id string) error {
	return deleteByID[CollaborationModel](g.db, "collaboration", id)
}

func (g *GormStore) ListAppointments() ([]domain.Appointment, error) {
	var models []AppointmentModel
	if err := g.db.Order("date").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	res := make([]domain.Appointment, 0, len(models))
	for _, m := range models {
		res = append(res, appointmentFromModel(m))
	}
	return res, nil
}

func (g *GormStore) CreateAppointment(a domain.Appointment) (domain.Appointment, error) {
	a.ID = ensureID(a.ID)
	a.CreatedAt, a.UpdatedAt = stamp(a.CreatedAt)
	m := appointmentToModel(a)
	if err := g.db.Create(&m).Error; err != nil {
		return domain.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return a, nil
}

func (g *GormStore) UpdateAppointment(id string, patch map[string]any) (domain.Appointment, error) {
	var out domain.Appointment
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m AppointmentModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update appointment", err)
		}
		merged, err := domain.Merge(appointmentFromModel(m), patch)
		if err != nil {
			return err
		}
		merged.ID = id
		merged.UpdatedAt = time.Now().UTC()
		next := appointmentToModel(merged)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteAppointment(id string) error {
	return deleteByID[AppointmentModel](g.db, "appointment", id)
}

func (g *GormStore) ListIncome() ([]domain.Income, error) {
	var models []IncomeModel
	if err := g.db.Order("date").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	res := make([]domain.Income, 0, len(models))
	for _, m := range models {
		res = append(res, incomeFromModel(m))
	}
	return res, nil
}

func (g *GormStore) CreateIncome(i domain.Income) (domain.Income, error) {
	i.ID = ensureID(i.ID)
	i.CreatedAt, i.UpdatedAt = stamp(i.CreatedAt)
	m := incomeToModel(i)
	if err := g.db.Create(&m).Error; err != nil {
		return domain.Income{}, fmt.Errorf("create income: %w", err)
	}
	return i, nil
}

func (g *GormStore) UpdateIncome(id string, patch map[string]any) (domain.Income, error) {
	var out domain.Income
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m IncomeModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update income", err)
		}
		merged, err := domain.Merge(incomeFromModel(m), patch)
		if err != nil {
			return err
		}
		merged.ID = id
		merged.UpdatedAt = time.Now().UTC()
		next := incomeToModel(merged)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update income: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteIncome(id string) error {
	return deleteByID[IncomeModel](g.db, "income", id)
}

func (g *GormStore) ListExtraCosts() ([]domain.ExtraCost, error) {
	var models []ExtraCostModel
	if err := g.db.Order("date").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list extra costs: %w", err)
	}
	res := make([]domain.ExtraCost, 0, len(models))
	for _, m := range models {
		res = append(res, extraCostFromModel(m))
	}
	return res, nil
}

func (g *GormStore) CreateExtraCost(c domain.ExtraCost) (domain.ExtraCost, error) {
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	m := extraCostToModel(c)
	if err := g.db.Create(&m).Error; err != nil {
		return domain.ExtraCost{}, fmt.Errorf("create extra cost: %w", err)
	}
	return c, nil
}

func (g *GormStore) UpdateExtraCost(id string, patch map[string]any) (domain.ExtraCost, error) {
	var out domain.ExtraCost
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m ExtraCostModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update extra cost", err)
		}
		merged, err := domain.Merge(extraCostFromModel(m), patch)
		if err != nil {
			return err
		}
		merged.ID = id
		merged.UpdatedAt = time.Now().UTC()
		next := extraCostToModel(merged)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update extra cost: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteExtraCost(id string) error {
	return deleteByID[ExtraCostModel](g.db, "extra cost", id)
}

func (g *GormStore) ListNotifications() ([]domain.Notification, error) {
	var models []NotificationModel
	if err := g.db.Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	res := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		res = append(res, notificationFromModel(m))
	}
	return res, nil
}

func (g *GormStore) CreateNotification(n domain.Notification) (domain.Notification, error) {
	n.ID = ensureID(n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	m := notificationToModel(n)
	if err := g.db.Create(&m).Error; err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (g *GormStore) UpdateNotification(id string, patch map[string]any) (domain.Notification, error) {
	var out domain.Notification
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var m NotificationModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translateErr("update notification", err)
		}
		merged, err := domain.Merge(notificationFromModel(m), patch)
		if err != nil {
			return err
		}
		merged.ID = id
		next := notificationToModel(merged)
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("update notification: %w", err)
		}
		out = merged
		return nil
	})
	return out, err
}

func (g *GormStore) DeleteNotification(id string) error {
	return deleteByID[NotificationModel](g.db, "notification", id)
}

// AnalyticsSummary aggregates in SQL rather than loading collections into
// memory. Figures match analytics.Compute for the same data set.
func (g *GormStore) AnalyticsSummary() (analytics.Summary, error) {
	var s analytics.Summary
	if err := g.db.Model(&CampaignModel{}).
		Select("COALESCE(SUM(total_budget), 0)").Scan(&s.Fatturato).Error; err != nil {
		return analytics.Summary{}, fmt.Errorf("sum campaign budgets: %w", err)
	}
	if err := g.db.Model(&CollaborationModel{}).
		Select("COALESCE(SUM(fee), 0)").Scan(&s.PagamentiTalent).Error; err != nil {
		return analytics.Summary{}, fmt.Errorf("sum collaboration fees: %w", err)
	}
	if err := g.db.Model(&ExtraCostModel{}).
		Select("COALESCE(SUM(amount), 0)").Scan(&s.CostiExtra).Error; err != nil {
		return analytics.Summary{}, fmt.Errorf("sum extra costs: %w", err)
	}
	if err := g.db.Model(&IncomeModel{}).
		Where("status = ?", string(domain.IncomeReceived)).
		Select("COALESCE(SUM(amount), 0)").Scan(&s.Incassato).Error; err != nil {
		return analytics.Summary{}, fmt.Errorf("sum received income: %w", err)
	}
	s.Utile = s.Fatturato - s.PagamentiTalent - s.CostiExtra
	if s.Fatturato != 0 {
		s.MarginPercentage = s.Utile / s.Fatturato * 100
	}
	return s, nil
}

func (g *GormStore) SaveUser(u domain.User) error {
	m := userToModel(u)
	if err := g.db.Save(&m).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (g *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var m UserModel
	err := g.db.First(&m, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return userFromModel(m), true, nil
}

func (g *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var m UserModel
	err := g.db.First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return userFromModel(m), true, nil
}

func (g *GormStore) UserCount() (int, error) {
	var count int64
	if err := g.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(count), nil
}

func deleteByID[M any](db *gorm.DB, kind, id string) error {
	var model M
	res := db.Delete(&model, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translateErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
