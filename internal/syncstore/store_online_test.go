package syncstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	stdsync "sync"
	"testing"

	"talenthub/internal/apiclient"
	"talenthub/internal/snapshot"
	"talenthub/pkg/domain"
)

// fakeBackend is a minimal in-memory rendition of the agency API used to
// exercise the online path.
type fakeBackend struct {
	mu   stdsync.Mutex
	seq  int
	data map[string][]map[string]any
	// failMutations makes every mutating request answer 500.
	failMutations bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: map[string][]map[string]any{}}
}

func (f *fakeBackend) add(resource string, item map[string]any) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item["id"] == nil || item["id"] == "" {
		f.seq++
		item["id"] = fmt.Sprintf("srv-%d", f.seq)
	}
	f.data[resource] = append(f.data[resource], item)
	return item
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet && f.failMutations {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		return
	}
	if r.URL.Path == "/analytics/summary" {
		f.writeJSON(w, map[string]any{"fatturato": 12345.0, "utile": 999.0, "marginPercentage": 8.1})
		return
	}
	if r.URL.Path == "/campaigns/composite" && r.Method == http.MethodPost {
		f.handleComposite(w, r)
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	resource := "/" + parts[0]
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		f.mu.Lock()
		items := f.data[resource]
		f.mu.Unlock()
		if items == nil {
			items = []map[string]any{}
		}
		f.writeJSON(w, items)
	case len(parts) == 1 && r.Method == http.MethodPost:
		var item map[string]any
		_ = json.NewDecoder(r.Body).Decode(&item)
		f.writeJSON(w, f.add(resource, item))
	case len(parts) == 4 && parts[2] == "files":
		// Upload: echo the talent with the file appended to its gallery.
		f.writeJSON(w, map[string]any{"id": parts[1], "name": "Giulia Ferri", "gallery": []string{"/files/" + parts[1] + "/shot.jpg"}})
	case len(parts) == 2 && r.Method == http.MethodPatch:
		var patch map[string]any
		_ = json.NewDecoder(r.Body).Decode(&patch)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, item := range f.data[resource] {
			if item["id"] == parts[1] {
				for k, v := range patch {
					item[k] = v
				}
				f.data[resource][i] = item
				f.writeJSON(w, item)
				return
			}
		}
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	case len(parts) == 2 && r.Method == http.MethodDelete:
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, item := range f.data[resource] {
			if item["id"] == parts[1] {
				f.data[resource] = append(f.data[resource][:i], f.data[resource][i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBackend) handleComposite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Campaign map[string]any `json:"campaign"`
		TalentID string         `json:"talentId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	campaign := f.add("/campaigns", req.Campaign)
	resp := map[string]any{"campaign": campaign}
	if req.TalentID != "" {
		collab := f.add("/collaborations", map[string]any{
			"campaignId": campaign["id"], "talentId": req.TalentID,
			"fee": 7000.0, "status": "Confermata", "paymentStatus": "Non Saldato",
		})
		resp["collaboration"] = collab
		resp["appointment"] = f.add("/appointments", map[string]any{
			"talentId": req.TalentID, "collaborationId": collab["id"],
			"type": "Shooting", "status": "planned",
		})
	}
	f.writeJSON(w, resp)
}

func (f *fakeBackend) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newOnlineStore(t *testing.T) (*Store, *fakeBackend, *httptest.Server) {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	snap, err := snapshot.New(t.TempDir())
	if err != nil {
		t.Fatalf("snapshot store: %v", err)
	}
	store := New(apiclient.NewClient(srv.URL), snap)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !store.Online() {
		t.Fatal("store must come up online against a healthy backend")
	}
	return store, backend, srv
}

func TestLoadOnlineFetchesRemoteCollections(t *testing.T) {
	backend := newFakeBackend()
	backend.add("/talents", map[string]any{"name": "Remote Talent", "status": "active"})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	snap, err := snapshot.New(t.TempDir())
	if err != nil {
		t.Fatalf("snapshot store: %v", err)
	}
	store := New(apiclient.NewClient(srv.URL), snap)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	talents := store.Talents()
	if len(talents) != 1 || talents[0].Name != "Remote Talent" {
		t.Fatalf("remote collection not hydrated: %+v", talents)
	}
}

func TestOnlineCreateSplicesServerCopy(t *testing.T) {
	store, _, _ := newOnlineStore(t)
	created, err := store.CreateBrand(context.Background(), domain.Brand{Name: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(created.ID, "srv-") {
		t.Fatalf("expected the server-assigned identifier, got %q", created.ID)
	}
	brands := store.Brands()
	if len(brands) != 1 || brands[0].ID != created.ID {
		t.Fatalf("server copy not spliced into memory: %+v", brands)
	}
}

func TestOnlineMutationFailureLeavesMemoryUnchanged(t *testing.T) {
	store, backend, _ := newOnlineStore(t)
	ctx := context.Background()
	created, err := store.CreateBrand(ctx, domain.Brand{Name: "Before"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	backend.failMutations = true
	if _, err := store.UpdateBrand(ctx, created.ID, map[string]any{"name": "After"}); err == nil {
		t.Fatal("expected the server failure to propagate")
	}
	brands := store.Brands()
	if len(brands) != 1 || brands[0].Name != "Before" {
		t.Fatalf("memory changed despite remote failure: %+v", brands)
	}
}

func TestOnlineDeleteFailureAbortsLocalRemoval(t *testing.T) {
	store, backend, _ := newOnlineStore(t)
	ctx := context.Background()
	created, err := store.CreateIncome(ctx, domain.Income{CampaignID: "c-1", Amount: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	backend.failMutations = true
	if err := store.DeleteIncome(ctx, created.ID); err == nil {
		t.Fatal("expected the remote delete failure to propagate")
	}
	if len(store.Income()) != 1 {
		t.Fatal("entity removed locally despite remote failure")
	}
}

func TestOnlineCompositeRefetchesAffectedCollections(t *testing.T) {
	store, _, _ := newOnlineStore(t)
	campaign, err := store.CreateCampaignWithTalent(context.Background(), domain.Campaign{
		Name: "Launch", BrandName: "Acme", TotalBudget: 10000, AgencyFeePercent: 30,
	}, &TalentLink{TalentID: "t-1"})
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if len(store.Campaigns()) != 1 {
		t.Fatalf("campaigns not refetched: %+v", store.Campaigns())
	}
	collabs := store.Collaborations()
	if len(collabs) != 1 || collabs[0].CampaignID != campaign.ID {
		t.Fatalf("collaborations not refetched: %+v", collabs)
	}
	if len(store.Appointments()) != 1 {
		t.Fatalf("appointments not refetched: %+v", store.Appointments())
	}
}

func TestOnlineMutationEmitsSuccessNotification(t *testing.T) {
	store, _, _ := newOnlineStore(t)
	if _, err := store.CreateBrand(context.Background(), domain.Brand{Name: "Acme"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	notifications := store.Notifications()
	if len(notifications) == 0 {
		t.Fatal("mutation must emit a notification")
	}
	if notifications[len(notifications)-1].Severity != domain.SeveritySuccess {
		t.Errorf("online mutation severity = %q, want success", notifications[len(notifications)-1].Severity)
	}
}

func TestOnlineAnalyticsComesFromServer(t *testing.T) {
	store, _, _ := newOnlineStore(t)
	summary, err := store.AnalyticsSummary(context.Background())
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if summary.Fatturato != 12345 || summary.Utile != 999 {
		t.Fatalf("expected the server-computed summary, got %+v", summary)
	}
}

func TestOnlineUploadSplicesUpdatedTalent(t *testing.T) {
	store, backend, _ := newOnlineStore(t)
	backend.add("/talents", map[string]any{"id": "t-1", "name": "Giulia Ferri", "status": "active"})
	ctx := context.Background()
	if err := store.talents.fetchRemote(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	talent, err := store.UploadTalentFile(ctx, "t-1", FileGallery, "shot.jpg", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(talent.Gallery) != 1 {
		t.Fatalf("gallery not updated: %+v", talent)
	}
	got, ok := store.Talent("t-1")
	if !ok || len(got.Gallery) != 1 {
		t.Fatalf("updated talent not spliced: %+v ok=%v", got, ok)
	}
}

func TestReprobeFlipsRoutingMidSession(t *testing.T) {
	store, _, srv := newOnlineStore(t)
	ctx := context.Background()

	srv.Close()
	if store.Reprobe(ctx) {
		t.Fatal("reprobe against a dead backend must report offline")
	}
	// Subsequent operations take the local path without a restart.
	created, err := store.CreateBrand(ctx, domain.Brand{Name: "Offline Brand"})
	if err != nil {
		t.Fatalf("offline create after reprobe: %v", err)
	}
	if created.ID == "" || strings.HasPrefix(created.ID, "srv-") {
		t.Fatalf("expected a client-generated identifier, got %q", created.ID)
	}
}
