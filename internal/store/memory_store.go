package store

import (
	"sync"
	"time"

	"talenthub/pkg/analytics"
	"talenthub/pkg/domain"
)

// memTable keeps one entity collection in insertion order.
type memTable[T domain.Entity] struct {
	order []string
	items map[string]T
}

func newMemTable[T domain.Entity]() *memTable[T] {
	return &memTable[T]{items: make(map[string]T)}
}

func (t *memTable[T]) list() []T {
	res := make([]T, 0, len(t.order))
	for _, id := range t.order {
		if item, ok := t.items[id]; ok {
			res = append(res, item)
		}
	}
	return res
}

func (t *memTable[T]) get(id string) (T, bool) {
	item, ok := t.items[id]
	return item, ok
}

func (t *memTable[T]) put(item T) {
	id := item.EntityID()
	if _, exists := t.items[id]; !exists {
		t.order = append(t.order, id)
	}
	t.items[id] = item
}

func (t *memTable[T]) patch(id string, patch map[string]any) (T, error) {
	var zero T
	current, ok := t.items[id]
	if !ok {
		return zero, ErrNotFound
	}
	merged, err := domain.Merge(current, patch)
	if err != nil {
		return zero, err
	}
	t.items[id] = merged
	return merged, nil
}

func (t *memTable[T]) remove(id string) error {
	if _, ok := t.items[id]; !ok {
		return ErrNotFound
	}
	delete(t.items, id)
	filtered := t.order[:0]
	for _, item := range t.order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	t.order = filtered
	return nil
}

// MemoryStore keeps every collection in-process. It backs tests and the
// zero-configuration dev mode of the daemon.
type MemoryStore struct {
	mu             sync.RWMutex
	talents        *memTable[domain.Talent]
	brands         *memTable[domain.Brand]
	campaigns      *memTable[domain.Campaign]
	collaborations *memTable[domain.Collaboration]
	appointments   *memTable[domain.Appointment]
	income         *memTable[domain.Income]
	extraCosts     *memTable[domain.ExtraCost]
	notifications  *memTable[domain.Notification]
	users          map[string]domain.User // key: user ID
	username       map[string]string      // username -> user ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		talents:        newMemTable[domain.Talent](),
		brands:         newMemTable[domain.Brand](),
		campaigns:      newMemTable[domain.Campaign](),
		collaborations: newMemTable[domain.Collaboration](),
		appointments:   newMemTable[domain.Appointment](),
		income:         newMemTable[domain.Income](),
		extraCosts:     newMemTable[domain.ExtraCost](),
		notifications:  newMemTable[domain.Notification](),
		users:          make(map[string]domain.User),
		username:       make(map[string]string),
	}
}

func (m *MemoryStore) ListTalents() ([]domain.Talent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.talents.list(), nil
}

func (m *MemoryStore) GetTalent(id string) (domain.Talent, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.talents.get(id)
	return t, ok, nil
}

func (m *MemoryStore) CreateTalent(t domain.Talent) (domain.Talent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = ensureID(t.ID)
	t.CreatedAt, t.UpdatedAt = stamp(t.CreatedAt)
	m.talents.put(t)
	return t, nil
}

func (m *MemoryStore) UpdateTalent(id string, patch map[string]any) (domain.Talent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.talents.patch(id, patch)
	if err != nil {
		return domain.Talent{}, err
	}
	t.UpdatedAt = time.Now().UTC()
	m.talents.put(t)
	return t, nil
}

func (m *MemoryStore) DeleteTalent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.talents.remove(id)
}

func (m *MemoryStore) ListBrands() ([]domain.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.brands.list(), nil
}

func (m *MemoryStore) CreateBrand(b domain.Brand) (domain.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = ensureID(b.ID)
	b.CreatedAt, b.UpdatedAt = stamp(b.CreatedAt)
	m.brands.put(b)
	return b, nil
}

func (m *MemoryStore) UpdateBrand(id string, patch map[string]any) (domain.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.brands.patch(id, patch)
	if err != nil {
		return domain.Brand{}, err
	}
	b.UpdatedAt = time.Now().UTC()
	m.brands.put(b)
	return b, nil
}

func (m *MemoryStore) DeleteBrand(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brands.remove(id)
}

func (m *MemoryStore) ListCampaigns() ([]domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.campaigns.list(), nil
}

func (m *MemoryStore) CreateCampaign(c domain.Campaign) (domain.Campaign, error) {
	if err := domain.ValidateCampaign(c); err != nil {
		return domain.Campaign{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	m.campaigns.put(c)
	return c, nil
}

func (m *MemoryStore) UpdateCampaign(id string, patch map[string]any) (domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.campaigns.get(id)
	if !ok {
		return domain.Campaign{}, ErrNotFound
	}
	c, err := domain.Merge(current, patch)
	if err != nil {
		return domain.Campaign{}, err
	}
	if err := domain.ValidateCampaign(c); err != nil {
		return domain.Campaign{}, err
	}
	c.ID = id
	c.UpdatedAt = time.Now().UTC()
	m.campaigns.put(c)
	return c, nil
}

func (m *MemoryStore) DeleteCampaign(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns.remove(id)
}

// CreateCampaignComposite stores the campaign and derives the linked
// collaboration and shooting appointment in one critical section so a
// partial write is never observable.
func (m *MemoryStore) CreateCampaignComposite(c domain.Campaign, link *CompositeLink) (domain.Campaign, *domain.Collaboration, *domain.Appointment, error) {
	if err := domain.ValidateCampaign(c); err != nil {
		return domain.Campaign{}, nil, nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	m.campaigns.put(c)
	if link == nil {
		return c, nil, nil, nil
	}
	now := time.Now().UTC()
	collab := domain.Collaboration{
		ID:            domain.NewID(),
		CampaignID:    c.ID,
		TalentID:      link.TalentID,
		Fee:           domain.TalentFee(c.TotalBudget, c.AgencyFeePercent),
		PaymentStatus: domain.PaymentUnpaid,
		Status:        domain.CollaborationConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.collaborations.put(collab)
	appt := domain.Appointment{
		ID:              domain.NewID(),
		TalentID:        link.TalentID,
		CollaborationID: collab.ID,
		Type:            domain.AppointmentShooting,
		Date:            link.ActivityDate,
		Status:          domain.AppointmentPlanned,
		Notes:           c.Name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.appointments.put(appt)
	return c, &collab, &appt, nil
}

func (m *MemoryStore) ListCollaborations() ([]domain.Collaboration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collaborations.list(), nil
}

func (m *MemoryStore) CreateCollaboration(c domain.Collaboration) (domain.Collaboration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	m.collaborations.put(c)
	return c, nil
}

func (m *MemoryStore) UpdateCollaboration(id string, patch map[string]any) (domain.Collaboration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.collaborations.patch(id, patch)
	if err != nil {
		return domain.Collaboration{}, err
	}
	c.UpdatedAt = time.Now().UTC()
	m.collaborations.put(c)
	return c, nil
}

func (m *MemoryStore) DeleteCollaboration(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collaborations.remove(id)
}

func (m *MemoryStore) ListAppointments() ([]domain.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.appointments.list(), nil
}

func (m *MemoryStore) CreateAppointment(a domain.Appointment) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = ensureID(a.ID)
	a.CreatedAt, a.UpdatedAt = stamp(a.CreatedAt)
	m.appointments.put(a)
	return a, nil
}

func (m *MemoryStore) UpdateAppointment(id string, patch map[string]any) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.appointments.patch(id, patch)
	if err != nil {
		return domain.Appointment{}, err
	}
	a.UpdatedAt = time.Now().UTC()
	m.appointments.put(a)
	return a, nil
}

func (m *MemoryStore) DeleteAppointment(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointments.remove(id)
}

func (m *MemoryStore) ListIncome() ([]domain.Income, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.income.list(), nil
}

func (m *MemoryStore) CreateIncome(i domain.Income) (domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i.ID = ensureID(i.ID)
	i.CreatedAt, i.UpdatedAt = stamp(i.CreatedAt)
	m.income.put(i)
	return i, nil
}

func (m *MemoryStore) UpdateIncome(id string, patch map[string]any) (domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.income.patch(id, patch)
	if err != nil {
		return domain.Income{}, err
	}
	i.UpdatedAt = time.Now().UTC()
	m.income.put(i)
	return i, nil
}

func (m *MemoryStore) DeleteIncome(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.income.remove(id)
}

func (m *MemoryStore) ListExtraCosts() ([]domain.ExtraCost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.extraCosts.list(), nil
}

func (m *MemoryStore) CreateExtraCost(c domain.ExtraCost) (domain.ExtraCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = ensureID(c.ID)
	c.CreatedAt, c.UpdatedAt = stamp(c.CreatedAt)
	m.extraCosts.put(c)
	return c, nil
}

func (m *MemoryStore) UpdateExtraCost(id string, patch map[string]any) (domain.ExtraCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.extraCosts.patch(id, patch)
	if err != nil {
		return domain.ExtraCost{}, err
	}
	c.UpdatedAt = time.Now().UTC()
	m.extraCosts.put(c)
	return c, nil
}

func (m *MemoryStore) DeleteExtraCost(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extraCosts.remove(id)
}

func (m *MemoryStore) ListNotifications() ([]domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notifications.list(), nil
}

func (m *MemoryStore) CreateNotification(n domain.Notification) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = ensureID(n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	m.notifications.put(n)
	return n, nil
}

func (m *MemoryStore) UpdateNotification(id string, patch map[string]any) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.notifications.patch(id, patch)
	if err != nil {
		return domain.Notification{}, err
	}
	m.notifications.put(n)
	return n, nil
}

func (m *MemoryStore) DeleteNotification(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications.remove(id)
}

// AnalyticsSummary aggregates over current collections.
func (m *MemoryStore) AnalyticsSummary() (analytics.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return analytics.Compute(m.campaigns.list(), m.collaborations.list(), m.extraCosts.list(), m.income.list()), nil
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.username[u.Username] = u.ID
	return nil
}

func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.username[username]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func ensureID(id string) string {
	if id == "" {
		return domain.NewID()
	}
	return id
}

func stamp(created time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		created = now
	}
	return created, now
}
