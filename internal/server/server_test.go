package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talenthub/internal/apiclient"
	"talenthub/internal/auth"
	"talenthub/internal/ratelimit"
	"talenthub/internal/storage"
	"talenthub/internal/store"
	"talenthub/pkg/analytics"
	"talenthub/pkg/domain"
)

type testEnv struct {
	ts    *httptest.Server
	store *store.MemoryStore
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemoryStore()
	if err := mem.SaveUser(domain.User{
		ID:           "u-1",
		Username:     "admin",
		Name:         "Amministratore",
		Role:         domain.RoleAdmin,
		PasswordHash: auth.HashPassword("admin123"),
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	objects, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	srv := New(Config{
		Store:    mem,
		Sessions: store.NewMemorySessionStore(),
		Objects:  objects,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	env := &testEnv{ts: ts, store: mem}
	env.token = env.login(t, "admin", "admin123")
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(e.ts.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var session domain.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session.Token
}

func (e *testEnv) do(t *testing.T, method, path string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, err := http.Post(env.ts.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLoginRateLimited(t *testing.T) {
	mem := store.NewMemoryStore()
	limiter, err := ratelimit.NewLocalFixedWindowLimiter(2, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	srv := New(Config{Store: mem, Sessions: store.NewMemorySessionStore(), LoginLimiter: limiter})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := []byte(`{"username":"x","password":"y"}`)
	var last int
	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL+"/auth/login", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third attempt status = %d, want 429", last)
	}
}

func TestRequestsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.ts.URL + "/talents")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/auth/logout", nil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/talents", nil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want 401", resp.StatusCode)
	}
}

func TestTalentCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/talents", domain.Talent{Name: "Giulia Ferri", Status: domain.TalentActive})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decodeBody[domain.Talent](t, resp)
	if created.ID == "" {
		t.Fatal("expected server-assigned id")
	}

	resp = env.do(t, http.MethodGet, "/talents", nil)
	talents := decodeBody[[]domain.Talent](t, resp)
	if len(talents) != 1 {
		t.Fatalf("list returned %d talents", len(talents))
	}

	resp = env.do(t, http.MethodPatch, "/talents/"+created.ID, map[string]any{"stageName": "Giu"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	updated := decodeBody[domain.Talent](t, resp)
	if updated.StageName != "Giu" || updated.Name != "Giulia Ferri" {
		t.Fatalf("unexpected patched talent: %+v", updated)
	}

	resp = env.do(t, http.MethodDelete, "/talents/"+created.ID, nil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPatch, "/talents/"+created.ID, map[string]any{"name": "x"})
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("patch after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateTalentRequiresName(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/talents", domain.Talent{Status: domain.TalentActive})
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCampaignNegativeBudgetRejected(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/campaigns", domain.Campaign{Name: "Bad", TotalBudget: -500})
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("create status = %d, want 400", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/campaigns", domain.Campaign{Name: "Good", TotalBudget: 1000})
	created := decodeBody[domain.Campaign](t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPatch, "/campaigns/"+created.ID, map[string]any{"totalBudget": -1})
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("patch status = %d, want 400", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/campaigns/composite", compositeCampaignRequest{
		Campaign: domain.Campaign{Name: "Bad", TotalBudget: -1},
	})
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("composite status = %d, want 400", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/campaigns", nil)
	campaigns := decodeBody[[]domain.Campaign](t, resp)
	if len(campaigns) != 1 || campaigns[0].TotalBudget != 1000 {
		t.Fatalf("rejected writes reached the store: %+v", campaigns)
	}
}

func TestCompositeCampaignEndpoint(t *testing.T) {
	env := newTestEnv(t)
	when := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	resp := env.do(t, http.MethodPost, "/campaigns/composite", compositeCampaignRequest{
		Campaign:     domain.Campaign{Name: "Launch", BrandName: "Acme", TotalBudget: 10000, AgencyFeePercent: 30, Status: domain.CampaignActive},
		TalentID:     "t-9",
		ActivityDate: &when,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decodeBody[compositeCampaignResponse](t, resp)
	if out.Collaboration == nil || out.Appointment == nil {
		t.Fatal("expected derived records")
	}
	if out.Collaboration.Fee != 7000 {
		t.Errorf("fee = %v, want 7000", out.Collaboration.Fee)
	}
	if out.Appointment.Type != domain.AppointmentShooting || !out.Appointment.Date.Equal(when) {
		t.Errorf("unexpected appointment: %+v", out.Appointment)
	}
}

func TestAnalyticsSummaryMatchesClientComputation(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/campaigns", domain.Campaign{Name: "A", TotalBudget: 8000, AgencyFeePercent: 25, Status: domain.CampaignActive}).Body.Close()
	env.do(t, http.MethodPost, "/collaborations", domain.Collaboration{CampaignID: "c", TalentID: "t", Fee: 6000, PaymentStatus: domain.PaymentUnpaid, Status: domain.CollaborationConfirmed}).Body.Close()
	env.do(t, http.MethodPost, "/costs", domain.ExtraCost{CampaignID: "c", Amount: 450, Status: domain.CostPaid}).Body.Close()
	env.do(t, http.MethodPost, "/income", domain.Income{CampaignID: "c", Amount: 4000, Status: domain.IncomeReceived}).Body.Close()

	resp := env.do(t, http.MethodGet, "/analytics/summary", nil)
	summary := decodeBody[analytics.Summary](t, resp)

	campaigns, _ := env.store.ListCampaigns()
	collabs, _ := env.store.ListCollaborations()
	costs, _ := env.store.ListExtraCosts()
	income, _ := env.store.ListIncome()
	want := analytics.Compute(campaigns, collabs, costs, income)
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	if summary.Fatturato != 8000 || summary.Utile != 1550 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
}

func TestTalentUploadCategories(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/talents", domain.Talent{Name: "Marco Valli", Status: domain.TalentActive})
	talent := decodeBody[domain.Talent](t, resp)

	upload := func(category, filename string) domain.Talent {
		t.Helper()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		part.Write([]byte("filedata"))
		writer.Close()

		req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/talents/"+talent.ID+"/files/"+category, body)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+env.token)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("upload status = %d", resp.StatusCode)
		}
		return decodeBody[domain.Talent](t, resp)
	}

	updated := upload("gallery", "shot.jpg")
	if len(updated.Gallery) != 1 || !strings.HasPrefix(updated.Gallery[0], "/files/") {
		t.Fatalf("gallery not updated: %+v", updated.Gallery)
	}

	updated = upload("attachment", "contratto.pdf")
	if len(updated.Attachments) != 1 || updated.Attachments[0].Name != "contratto.pdf" {
		t.Fatalf("attachments not updated: %+v", updated.Attachments)
	}

	updated = upload("profile-photo", "profilo.jpg")
	if updated.ProfilePhotoURL == "" {
		t.Fatalf("profile photo not set: %+v", updated)
	}
	if len(updated.Gallery) != 1 {
		t.Fatalf("gallery should be untouched by profile photo: %+v", updated.Gallery)
	}
}

func TestUploadRejectsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/talents", domain.Talent{Name: "Marco Valli", Status: domain.TalentActive})
	talent := decodeBody[domain.Talent](t, resp)

	resp = env.do(t, http.MethodPost, "/talents/"+talent.ID+"/files/banner", nil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

// The real HTTP client and the server must agree on every wire shape.
func TestAPIClientRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	client := apiclient.NewClient(env.ts.URL)
	ctx := context.Background()

	if !client.Probe(ctx) {
		t.Fatal("probe should succeed")
	}
	session, err := client.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	client.SetToken(session.Token)

	var created domain.Brand
	if err := client.PostJSON(ctx, apiclient.PathBrands, domain.Brand{Name: "Acme"}, &created); err != nil {
		t.Fatalf("post brand: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected server-assigned id")
	}

	var patched domain.Brand
	if err := client.PatchJSON(ctx, apiclient.PathBrands+"/"+created.ID, map[string]any{"contactName": "Mario"}, &patched); err != nil {
		t.Fatalf("patch brand: %v", err)
	}
	if patched.ContactName != "Mario" {
		t.Fatalf("patch lost: %+v", patched)
	}

	var brands []domain.Brand
	if err := client.GetJSON(ctx, apiclient.PathBrands, &brands); err != nil {
		t.Fatalf("list brands: %v", err)
	}
	if len(brands) != 1 {
		t.Fatalf("list returned %d brands", len(brands))
	}

	if err := client.Delete(ctx, apiclient.PathBrands+"/"+created.ID); err != nil {
		t.Fatalf("delete brand: %v", err)
	}
	var apiErr *apiclient.APIError
	err = client.Delete(ctx, apiclient.PathBrands+"/"+created.ID)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}

	if err := client.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := client.GetJSON(ctx, apiclient.PathBrands, &brands); err == nil {
		t.Fatal("expected error after logout")
	}
}
