// Package syncstore is the dual-mode state container behind the dashboard.
// It holds every entity collection in memory, mirrors mutations to the
// remote API while it is reachable and falls back to local snapshots with
// client-generated identifiers while it is not.
package syncstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"talenthub/internal/apiclient"
	"talenthub/internal/auth"
	"talenthub/internal/snapshot"
	"talenthub/pkg/analytics"
	"talenthub/pkg/domain"
)

// Snapshot keys. One key per collection, one for the session, one for the
// locally known users.
const (
	keyTalents        = "talents"
	keyBrands         = "brands"
	keyCampaigns      = "campaigns"
	keyCollaborations = "collaborations"
	keyAppointments   = "appointments"
	keyIncome         = "income"
	keyCosts          = "costs"
	keyNotifications  = "notifications"
	keySession        = "session"
	keyUsers          = "users"
)

// FileCategory selects where a talent upload lands.
type FileCategory string

const (
	FileGallery      FileCategory = "gallery"
	FileAttachment   FileCategory = "attachment"
	FileProfilePhoto FileCategory = "profile-photo"
)

// Store is the single authoritative state container. One instance per
// running application; consumers receive it by injection, never through a
// package-level singleton.
type Store struct {
	api    *apiclient.Client
	snap   *snapshot.Store
	online atomic.Bool

	talents        *dataset[domain.Talent]
	brands         *dataset[domain.Brand]
	campaigns      *dataset[domain.Campaign]
	collaborations *dataset[domain.Collaboration]
	appointments   *dataset[domain.Appointment]
	income         *dataset[domain.Income]
	costs          *dataset[domain.ExtraCost]

	mu            sync.RWMutex
	notifications []domain.Notification
	session       *domain.Session
	users         []domain.User
}

// New wires a store against the given transport and snapshot storage. Call
// Load before anything else.
func New(api *apiclient.Client, snap *snapshot.Store) *Store {
	s := &Store{api: api, snap: snap}
	online := s.Online
	s.talents = newDataset(keyTalents, online,
		remoteBackend[domain.Talent]{api: api, path: apiclient.PathTalents},
		localBackend[domain.Talent]{snap: snap, key: keyTalents})
	s.brands = newDataset(keyBrands, online,
		remoteBackend[domain.Brand]{api: api, path: apiclient.PathBrands},
		localBackend[domain.Brand]{snap: snap, key: keyBrands})
	s.campaigns = newDataset(keyCampaigns, online,
		remoteBackend[domain.Campaign]{api: api, path: apiclient.PathCampaigns},
		localBackend[domain.Campaign]{snap: snap, key: keyCampaigns})
	s.collaborations = newDataset(keyCollaborations, online,
		remoteBackend[domain.Collaboration]{api: api, path: apiclient.PathCollaborations},
		localBackend[domain.Collaboration]{snap: snap, key: keyCollaborations})
	s.appointments = newDataset(keyAppointments, online,
		remoteBackend[domain.Appointment]{api: api, path: apiclient.PathAppointments},
		localBackend[domain.Appointment]{snap: snap, key: keyAppointments})
	s.income = newDataset(keyIncome, online,
		remoteBackend[domain.Income]{api: api, path: apiclient.PathIncome},
		localBackend[domain.Income]{snap: snap, key: keyIncome})
	s.costs = newDataset(keyCosts, online,
		remoteBackend[domain.ExtraCost]{api: api, path: apiclient.PathCosts},
		localBackend[domain.ExtraCost]{snap: snap, key: keyCosts})
	return s
}

// Online reports the current synchronization mode.
func (s *Store) Online() bool {
	return s.online.Load()
}

// Load probes connectivity once and hydrates every collection: a fan-out
// remote fetch when the backend answers, the local snapshots (or seed data)
// otherwise. A failure in any one remote fetch degrades the whole session
// to offline, the dataset is one coherent whole.
func (s *Store) Load(ctx context.Context) error {
	s.restoreSession()
	if s.api.Probe(ctx) {
		err := s.fetchAll(ctx)
		if err == nil {
			s.online.Store(true)
			s.loadLocalOnly()
			return nil
		}
		slog.Warn("remote fetch failed, using local data", "err", err)
	}
	s.online.Store(false)
	return s.loadLocal(ctx)
}

// Reprobe re-evaluates connectivity and reports the new mode. Operations
// already in flight are unaffected; subsequent calls route through the new
// mode. There is no automatic timer, callers decide when to re-check.
func (s *Store) Reprobe(ctx context.Context) bool {
	online := s.api.Probe(ctx)
	s.online.Store(online)
	return online
}

func (s *Store) fetchAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.talents.fetchRemote(ctx) })
	g.Go(func() error { return s.brands.fetchRemote(ctx) })
	g.Go(func() error { return s.campaigns.fetchRemote(ctx) })
	g.Go(func() error { return s.collaborations.fetchRemote(ctx) })
	g.Go(func() error { return s.appointments.fetchRemote(ctx) })
	g.Go(func() error { return s.income.fetchRemote(ctx) })
	g.Go(func() error { return s.costs.fetchRemote(ctx) })
	return g.Wait()
}

func (s *Store) loadLocal(ctx context.Context) error {
	if err := s.talents.loadLocal(ctx, seedTalents()); err != nil {
		return err
	}
	if err := s.brands.loadLocal(ctx, seedBrands()); err != nil {
		return err
	}
	if err := s.campaigns.loadLocal(ctx, seedCampaigns()); err != nil {
		return err
	}
	if err := s.collaborations.loadLocal(ctx, seedCollaborations()); err != nil {
		return err
	}
	if err := s.appointments.loadLocal(ctx, seedAppointments()); err != nil {
		return err
	}
	if err := s.income.loadLocal(ctx, seedIncome()); err != nil {
		return err
	}
	if err := s.costs.loadLocal(ctx, seedCosts()); err != nil {
		return err
	}
	s.loadLocalOnly()
	return nil
}

// loadLocalOnly hydrates the collections that never live on the remote:
// notifications and the locally known users.
func (s *Store) loadLocalOnly() {
	var notifications []domain.Notification
	if _, err := s.snap.Load(keyNotifications, &notifications); err != nil {
		slog.Warn("notification snapshot unreadable", "err", err)
	}
	var users []domain.User
	found, err := s.snap.Load(keyUsers, &users)
	if err != nil {
		slog.Warn("user snapshot unreadable", "err", err)
	}
	if !found {
		users = seedUsers()
	}
	s.mu.Lock()
	s.notifications = notifications
	s.users = users
	s.mu.Unlock()
}

func (s *Store) restoreSession() {
	var session domain.Session
	found, err := s.snap.Load(keySession, &session)
	if err != nil {
		slog.Warn("session snapshot unreadable", "err", err)
		return
	}
	if !found {
		return
	}
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	s.api.SetToken(session.Token)
}

// Login authenticates online against the backend, offline against locally
// known accounts. The session is persisted so a later offline start can
// resume it.
func (s *Store) Login(ctx context.Context, username, password string) (domain.Session, error) {
	if s.Online() {
		session, err := s.api.Login(ctx, username, password)
		if err != nil {
			return domain.Session{}, err
		}
		s.api.SetToken(session.Token)
		s.setSession(session)
		return session, nil
	}
	s.mu.RLock()
	users := s.users
	s.mu.RUnlock()
	for _, u := range users {
		if u.Username == username && u.PasswordHash != "" && auth.CheckPassword(password, u.PasswordHash) {
			session := domain.Session{Token: domain.NewID(), User: u}
			s.setSession(session)
			return session, nil
		}
	}
	return domain.Session{}, ErrOfflineLogin
}

// Logout drops the session locally and, when online, server-side too.
func (s *Store) Logout(ctx context.Context) error {
	if s.Online() {
		if err := s.api.Logout(ctx); err != nil {
			slog.Warn("remote logout failed", "err", err)
		}
	}
	s.api.SetToken("")
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return s.snap.Delete(keySession)
}

// Session returns the active session, if any.
func (s *Store) Session() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

func (s *Store) setSession(session domain.Session) {
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	if err := s.snap.Save(keySession, session); err != nil {
		slog.Warn("session snapshot write failed", "err", err)
	}
}

// Talents returns a copy of the talent roster.
func (s *Store) Talents() []domain.Talent { return s.talents.List() }

// Talent returns one talent by id.
func (s *Store) Talent(id string) (domain.Talent, bool) { return s.talents.Get(id) }

func (s *Store) CreateTalent(ctx context.Context, t domain.Talent) (domain.Talent, error) {
	return createIn(ctx, s, s.talents, "Talent", t)
}

func (s *Store) UpdateTalent(ctx context.Context, id string, patch map[string]any) (domain.Talent, error) {
	return updateIn(ctx, s, s.talents, "Talent", id, patch)
}

func (s *Store) DeleteTalent(ctx context.Context, id string) error {
	return deleteIn(ctx, s, s.talents, "Talent", id)
}

// Brands returns a copy of the brand records.
func (s *Store) Brands() []domain.Brand { return s.brands.List() }

func (s *Store) CreateBrand(ctx context.Context, b domain.Brand) (domain.Brand, error) {
	return createIn(ctx, s, s.brands, "Brand", b)
}

func (s *Store) UpdateBrand(ctx context.Context, id string, patch map[string]any) (domain.Brand, error) {
	return updateIn(ctx, s, s.brands, "Brand", id, patch)
}

func (s *Store) DeleteBrand(ctx context.Context, id string) error {
	return deleteIn(ctx, s, s.brands, "Brand", id)
}

// Campaigns returns a copy of the campaign collection.
func (s *Store) Campaigns() []domain.Campaign { return s.campaigns.List() }

func (s *Store) CreateCampaign(ctx context.Context, c domain.Campaign) (domain.Campaign, error) {
	if err := domain.ValidateCampaign(c); err != nil {
		return domain.Campaign{}, err
	}
	return createIn(ctx, s, s.campaigns, "Campagna", c)
}

func (s *Store) UpdateCampaign(ctx context.Context, id string, patch map[string]any) (domain.Campaign, error) {
	if budget, ok := patchNumber(patch, "totalBudget"); ok && budget < 0 {
		return domain.Campaign{}, domain.ErrNegativeBudget
	}
	return updateIn(ctx, s, s.campaigns, "Campagna", id, patch)
}

// patchNumber reads a numeric patch value, whether it came from a JSON
// decode (float64) or straight from Go code (int).
func patchNumber(patch map[string]any, key string) (float64, bool) {
	switch v := patch[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (s *Store) DeleteCampaign(ctx context.Context, id string) error {
	return deleteIn(ctx, s, s.campaigns, "Campagna", id)
}

// Collaborations returns a copy of the collaboration collection.
func (s *Store) Collaborations() []domain.Collaboration { return s.collaborations.List() }

func (s *Store) CreateCollaboration(ctx context.Context, c domain.Collaboration) (domain.Collaboration, error) {
	if c.PaymentStatus == "" {
		c.PaymentStatus = domain.PaymentStatusFor(c.Fee, c.PaidAmount)
	}
	return createIn(ctx, s, s.collaborations, "Collaborazione", c)
}

func (s *Store) UpdateCollaboration(ctx context.Context, id string, patch map[string]any) (domain.Collaboration, error) {
	return updateIn(ctx, s, s.collaborations, "Collaborazione", id, patch)
}

func (s *Store) DeleteCollaboration(ctx context.Context, id string) error {
	return deleteIn(ctx, s, s.collaborations, "Collaborazione", id)
}

// SetCollaborationPaid records a (possibly partial) payment and keeps the
// stored payment status consistent with the derivation rule.
func (s *Store) SetCollaborationPaid(ctx context.Context, id string, paid float64) (domain.Collaboration, error) {
	current, ok := s.collaborations.Get(id)
	if !ok {
		return domain.Collaboration{}, fmt.Errorf("collaborations %q: %w", id, ErrNotFound)
	}
	patch := map[string]any{
		"paidAmount":    paid,
		"paymentStatus": string(domain.PaymentStatusFor(current.Fee, paid)),
	}
	return updateIn(ctx, s, s.collaborations, "Collaborazione", id, patch)
}

// Appointments returns a copy of the appointment collection.
func (s *Store) Appointments() []domain.Appointment { return s.appointments.List() }

func (s *Store) CreateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	return createIn(ctx, s, s.appointments, "Appuntamento", a)
}

func (s *Store) UpdateAppointment(ctx context.Context, id string, patch map[string]any) (domain.Appointment, error) {
	return updateIn(ctx, s, s.appointments, "Appuntamento", id, patch)
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	return deleteIn(ctx, s, s.appointments, "Appuntamento", id)
}

// Income returns a copy of the income ledger.
func (s *Store) Income() []domain.Income { return s.income.List() }

func (s *Store) CreateIncome(ctx context.Context, i domain.Income) (domain.Income, error) {
	return createIn(ctx, s, s.income, "Incasso", i)
}

func (s *Store) UpdateIncome(ctx context.Context, id string, patch map[string]any) (domain.Income, error) {
	return updateIn(ctx, s, s.income, "Incasso", id, patch)
}

func (s *Store) DeleteIncome(ctx context.Context, id string) error {
	return deleteIn(ctx, s, s.income, "Incasso", id)
}

// ExtraCosts returns a copy of the extra cost ledger.
func (s *Store) ExtraCosts() []domain.ExtraCost { return s.costs.List() }

func (s *Store) CreateExtraCost(ctx context.Context, c domain.ExtraCost) (domain.ExtraCost, error) {
	return createIn(ctx, s, s.costs, "Costo extra", c)
}

func (s *Store) UpdateExtraCost(ctx context.Context, id string, patch map[string]any) (domain.ExtraCost, error) {
	return updateIn(ctx, s, s.costs, "Costo extra", id, patch)
}

func (s *Store) DeleteExtraCost(ctx context.Context, id string) error {
	return deleteIn(ctx, s, s.costs, "Costo extra", id)
}

// TalentLink asks CreateCampaignWithTalent to also derive a collaboration
// and a shooting appointment for the given talent.
type TalentLink struct {
	TalentID     string
	ActivityDate time.Time
}

// CreateCampaignWithTalent creates a campaign and, when link is given, a
// collaboration plus a shooting appointment in the same logical action.
// Online this is a single backend request followed by a re-fetch of the
// three affected collections; offline everything is synthesized locally.
// The talent fee is floor(totalBudget * (1 - agencyFeePercent/100)) in both
// modes.
func (s *Store) CreateCampaignWithTalent(ctx context.Context, c domain.Campaign, link *TalentLink) (domain.Campaign, error) {
	if err := domain.ValidateCampaign(c); err != nil {
		return domain.Campaign{}, err
	}
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}
	if s.Online() {
		req := apiclient.CompositeCampaignRequest{Campaign: c}
		if link != nil {
			req.TalentID = link.TalentID
			date := link.ActivityDate
			req.ActivityDate = &date
		}
		resp, err := s.api.CreateCampaignComposite(ctx, req)
		if err != nil {
			return domain.Campaign{}, err
		}
		// Read-after-write: re-fetch the affected collections instead of
		// guessing what the server derived.
		for _, fetch := range []func(context.Context) error{
			s.campaigns.fetchRemote, s.collaborations.fetchRemote, s.appointments.fetchRemote,
		} {
			if err := fetch(ctx); err != nil {
				slog.Warn("post-composite refetch failed", "err", err)
			}
		}
		s.notifyMutation("Campagna \"" + resp.Campaign.Name + "\" creata")
		return resp.Campaign, nil
	}

	campaign, err := s.campaigns.create(ctx, c)
	if err != nil {
		return domain.Campaign{}, err
	}
	if link != nil {
		fee := domain.TalentFee(campaign.TotalBudget, campaign.AgencyFeePercent)
		collab, err := s.collaborations.create(ctx, domain.Collaboration{
			CampaignID:    campaign.ID,
			TalentID:      link.TalentID,
			Fee:           fee,
			PaymentStatus: domain.PaymentUnpaid,
			Status:        domain.CollaborationConfirmed,
		})
		if err != nil {
			return campaign, err
		}
		if _, err := s.appointments.create(ctx, domain.Appointment{
			TalentID:        link.TalentID,
			CollaborationID: collab.ID,
			Type:            domain.AppointmentShooting,
			Date:            link.ActivityDate,
			Status:          domain.AppointmentPlanned,
		}); err != nil {
			return campaign, err
		}
	}
	s.notifyMutation("Campagna \"" + campaign.Name + "\" creata")
	return campaign, nil
}

// UploadTalentFile pushes one file for a talent. Only available online;
// offline the call is rejected before any network attempt.
func (s *Store) UploadTalentFile(ctx context.Context, talentID string, category FileCategory, filename string, r io.Reader) (domain.Talent, error) {
	if !s.Online() {
		return domain.Talent{}, ErrOfflineUpload
	}
	talent, err := s.api.UploadTalentFile(ctx, talentID, string(category), filename, r)
	if err != nil {
		return domain.Talent{}, err
	}
	s.talents.mu.Lock()
	s.talents.items = spliceByID(s.talents.items, talent)
	s.talents.mu.Unlock()
	s.notifyMutation("File caricato per " + talent.Name)
	return talent, nil
}

// AnalyticsSummary returns the financial summary: server-computed online,
// derived from the in-memory collections offline.
func (s *Store) AnalyticsSummary(ctx context.Context) (analytics.Summary, error) {
	if s.Online() {
		return s.api.AnalyticsSummary(ctx)
	}
	return analytics.Compute(s.Campaigns(), s.Collaborations(), s.ExtraCosts(), s.Income()), nil
}

// Notifications returns a copy of the notification feed, newest last.
func (s *Store) Notifications() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// MarkNotificationRead flags one notification as read.
func (s *Store) MarkNotificationRead(id string) {
	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			break
		}
	}
	s.mu.Unlock()
	s.persistNotifications()
}

// ClearNotifications empties the feed.
func (s *Store) ClearNotifications() {
	s.mu.Lock()
	s.notifications = nil
	s.mu.Unlock()
	s.persistNotifications()
}

// notifyMutation records the transient notification every successful
// mutation emits: success severity online, info severity offline so the
// user knows the change has not reached the server yet.
func (s *Store) notifyMutation(message string) {
	severity := domain.SeveritySuccess
	if !s.Online() {
		severity = domain.SeverityInfo
		message += " (in locale)"
	}
	s.mu.Lock()
	s.notifications = append(s.notifications, domain.Notification{
		ID:        domain.NewID(),
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	s.mu.Unlock()
	s.persistNotifications()
}

func (s *Store) persistNotifications() {
	if s.Online() {
		return
	}
	s.mu.RLock()
	notifications := make([]domain.Notification, len(s.notifications))
	copy(notifications, s.notifications)
	s.mu.RUnlock()
	if err := s.snap.Save(keyNotifications, notifications); err != nil {
		slog.Warn("notification snapshot write failed", "err", err)
	}
}

// Generic mutation wrappers. Each delegates to the dataset and emits the
// mutation notification, keeping the per-entity methods above one-liners.

func createIn[T domain.Entity](ctx context.Context, s *Store, d *dataset[T], label string, item T) (T, error) {
	created, err := d.create(ctx, item)
	if err != nil {
		return created, err
	}
	s.notifyMutation(label + " creato")
	return created, nil
}

func updateIn[T domain.Entity](ctx context.Context, s *Store, d *dataset[T], label string, id string, patch map[string]any) (T, error) {
	updated, err := d.update(ctx, id, patch)
	if err != nil {
		return updated, err
	}
	s.notifyMutation(label + " aggiornato")
	return updated, nil
}

func deleteIn[T domain.Entity](ctx context.Context, s *Store, d *dataset[T], label string, id string) error {
	removed, err := d.delete(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.notifyMutation(label + " eliminato")
	}
	return nil
}
