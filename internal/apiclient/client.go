// Package apiclient talks JSON-over-HTTP to the agency backend. Every entity
// collection lives under its own resource path with the usual verb mapping.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"talenthub/pkg/analytics"
	"talenthub/pkg/domain"
)

// Resource paths, one per entity collection.
const (
	PathTalents        = "/talents"
	PathBrands         = "/brands"
	PathCampaigns      = "/campaigns"
	PathCollaborations = "/collaborations"
	PathAppointments   = "/appointments"
	PathIncome         = "/income"
	PathCosts          = "/costs"
	PathNotifications  = "/notifications"
)

// Client calls the agency backend over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError represents a backend error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a backend client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken installs the bearer token sent on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// Probe reports whether the backend is reachable. It never returns an error:
// its job is exactly to turn a network failure into a boolean.
func (c *Client) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Login authenticates against the backend and returns the session descriptor.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	payload := map[string]string{"username": username, "password": password}
	var session domain.Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", payload, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Logout invalidates the current session token.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// GetJSON fetches a resource collection or single entity.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON creates an entity and decodes the authoritative server copy.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, payload, out)
}

// PatchJSON applies a partial update and decodes the merged entity.
func (c *Client) PatchJSON(ctx context.Context, path string, payload, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, payload, out)
}

// Delete removes an entity by resource path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// CompositeCampaignRequest asks the backend to create a campaign and,
// optionally, a linked collaboration plus a shooting appointment in one
// transaction.
type CompositeCampaignRequest struct {
	Campaign     domain.Campaign `json:"campaign"`
	TalentID     string          `json:"talentId,omitempty"`
	ActivityDate *time.Time      `json:"activityDate,omitempty"`
}

// CompositeCampaignResponse echoes everything the backend created.
type CompositeCampaignResponse struct {
	Campaign      domain.Campaign       `json:"campaign"`
	Collaboration *domain.Collaboration `json:"collaboration,omitempty"`
	Appointment   *domain.Appointment   `json:"appointment,omitempty"`
}

// CreateCampaignComposite sends the composite campaign creation request.
func (c *Client) CreateCampaignComposite(ctx context.Context, req CompositeCampaignRequest) (CompositeCampaignResponse, error) {
	var resp CompositeCampaignResponse
	if err := c.doJSON(ctx, http.MethodPost, PathCampaigns+"/composite", req, &resp); err != nil {
		return CompositeCampaignResponse{}, err
	}
	return resp, nil
}

// AnalyticsSummary fetches the server-computed financial summary.
func (c *Client) AnalyticsSummary(ctx context.Context) (analytics.Summary, error) {
	var summary analytics.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/summary", nil, &summary); err != nil {
		return analytics.Summary{}, err
	}
	return summary, nil
}

// UploadTalentFile uploads one file for a talent under the given category
// (gallery, attachment or profile-photo) and returns the updated talent.
func (c *Client) UploadTalentFile(ctx context.Context, talentID, category, filename string, r io.Reader) (domain.Talent, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return domain.Talent{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.Talent{}, err
	}
	if err := writer.Close(); err != nil {
		return domain.Talent{}, err
	}

	path := fmt.Sprintf("%s%s/%s/files/%s", c.baseURL, PathTalents, talentID, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, body)
	if err != nil {
		return domain.Talent{}, err
	}
	c.addAuthHeader(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var talent domain.Talent
	if err := c.do(req, &talent); err != nil {
		return domain.Talent{}, err
	}
	return talent, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addAuthHeader(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addAuthHeader(req *http.Request) {
	if c.token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
}
