// Package server exposes the agency backend over HTTP. The route surface is
// the mirror image of the client in internal/apiclient: one resource path per
// entity collection plus auth, composite campaign creation, analytics and
// talent file uploads.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"talenthub/internal/auth"
	"talenthub/internal/ratelimit"
	"talenthub/internal/storage"
	"talenthub/internal/store"
	"talenthub/internal/util"
	"talenthub/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	Store          store.Store
	Sessions       store.SessionStore
	Objects        storage.ObjectStore
	LoginLimiter   *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	MaxUploadBytes int64
	// FileDir, when set, is served read-only under /files/.
	FileDir string
}

// Server exposes HTTP endpoints for the agency backend.
type Server struct {
	store          store.Store
	sessions       store.SessionStore
	objects        storage.ObjectStore
	loginLimiter   *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	maxUploadBytes int64
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		store:          cfg.Store,
		sessions:       cfg.Sessions,
		objects:        cfg.Objects,
		loginLimiter:   cfg.LoginLimiter,
		trustedProxies: cfg.TrustedProxies,
		maxUploadBytes: normalizeMaxBytes(cfg.MaxUploadBytes),
		mux:            http.NewServeMux(),
	}
	s.routes(cfg.FileDir)
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes(fileDir string) {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)

	registerResource(s, "/talents", resource[domain.Talent]{
		list:     s.store.ListTalents,
		create:   s.store.CreateTalent,
		update:   s.store.UpdateTalent,
		remove:   s.store.DeleteTalent,
		validate: func(t domain.Talent) error { return requireName(t.Name) },
		item:     s.talentSubRoutes,
	})
	registerResource(s, "/brands", resource[domain.Brand]{
		list:     s.store.ListBrands,
		create:   s.store.CreateBrand,
		update:   s.store.UpdateBrand,
		remove:   s.store.DeleteBrand,
		validate: func(b domain.Brand) error { return requireName(b.Name) },
	})
	registerResource(s, "/campaigns", resource[domain.Campaign]{
		list:   s.store.ListCampaigns,
		create: s.store.CreateCampaign,
		update: s.store.UpdateCampaign,
		remove: s.store.DeleteCampaign,
		validate: func(c domain.Campaign) error {
			if err := requireName(c.Name); err != nil {
				return err
			}
			return domain.ValidateCampaign(c)
		},
	})
	registerResource(s, "/collaborations", resource[domain.Collaboration]{
		list:   s.store.ListCollaborations,
		create: s.store.CreateCollaboration,
		update: s.store.UpdateCollaboration,
		remove: s.store.DeleteCollaboration,
	})
	registerResource(s, "/appointments", resource[domain.Appointment]{
		list:   s.store.ListAppointments,
		create: s.store.CreateAppointment,
		update: s.store.UpdateAppointment,
		remove: s.store.DeleteAppointment,
	})
	registerResource(s, "/income", resource[domain.Income]{
		list:   s.store.ListIncome,
		create: s.store.CreateIncome,
		update: s.store.UpdateIncome,
		remove: s.store.DeleteIncome,
	})
	registerResource(s, "/costs", resource[domain.ExtraCost]{
		list:   s.store.ListExtraCosts,
		create: s.store.CreateExtraCost,
		update: s.store.UpdateExtraCost,
		remove: s.store.DeleteExtraCost,
	})
	registerResource(s, "/notifications", resource[domain.Notification]{
		list:   s.store.ListNotifications,
		create: s.store.CreateNotification,
		update: s.store.UpdateNotification,
		remove: s.store.DeleteNotification,
	})

	s.mux.Handle("/campaigns/composite", s.authenticated(s.handleCampaignComposite))
	s.mux.Handle("/analytics/summary", s.authenticated(s.handleAnalyticsSummary))

	if fileDir != "" {
		s.mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(fileDir))))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	userID, ok, err := s.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, ok, err := s.store.GetUserByID(userID)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many login attempts") {
		s.audit(r, "login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, found, err := s.store.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !found || !auth.CheckPassword(req.Password, user.PasswordHash) {
		s.audit(r, "login", "fail", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "credenziali non valide")
		return
	}
	token, err := s.sessions.NewSession(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, domain.Session{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.sessions.DeleteSession(token); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	s.audit(r, "logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

// resource groups the store operations behind one entity collection path.
type resource[T domain.Entity] struct {
	list     func() ([]T, error)
	create   func(T) (T, error)
	update   func(string, map[string]any) (T, error)
	remove   func(string) error
	validate func(T) error
	// item, when set, gets a chance to claim sub-paths below /{id}/.
	item func(http.ResponseWriter, *http.Request, domain.User, []string) bool
}

func registerResource[T domain.Entity](s *Server, path string, res resource[T]) {
	s.mux.Handle(path, s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		handleCollection(w, r, res)
	}))
	s.mux.Handle(path+"/", s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, path+"/"), "/")
		parts := strings.Split(rest, "/")
		if parts[0] == "" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if len(parts) > 1 {
			if res.item != nil && res.item(w, r, user, parts) {
				return
			}
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		handleItem(w, r, res, parts[0])
	}))
}

func handleCollection[T domain.Entity](w http.ResponseWriter, r *http.Request, res resource[T]) {
	switch r.Method {
	case http.MethodGet:
		items, err := res.list()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var item T
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if res.validate != nil {
			if err := res.validate(item); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		created, err := res.create(item)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

func handleItem[T domain.Entity](w http.ResponseWriter, r *http.Request, res resource[T], id string) {
	switch r.Method {
	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := res.update(id, patch)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := res.remove(id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// composite campaign creation

type compositeCampaignRequest struct {
	Campaign     domain.Campaign `json:"campaign"`
	TalentID     string          `json:"talentId,omitempty"`
	ActivityDate *time.Time      `json:"activityDate,omitempty"`
}

type compositeCampaignResponse struct {
	Campaign      domain.Campaign       `json:"campaign"`
	Collaboration *domain.Collaboration `json:"collaboration,omitempty"`
	Appointment   *domain.Appointment   `json:"appointment,omitempty"`
}

func (s *Server) handleCampaignComposite(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req compositeCampaignRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := requireName(req.Campaign.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var link *store.CompositeLink
	if req.TalentID != "" {
		date := time.Now().UTC()
		if req.ActivityDate != nil {
			date = *req.ActivityDate
		}
		link = &store.CompositeLink{TalentID: req.TalentID, ActivityDate: date}
	}
	campaign, collab, appt, err := s.store.CreateCampaignComposite(req.Campaign, link)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, compositeCampaignResponse{
		Campaign:      campaign,
		Collaboration: collab,
		Appointment:   appt,
	})
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	summary, err := s.store.AnalyticsSummary()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if errors.Is(err, domain.ErrNegativeBudget) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 20 * 1024 * 1024
	}
	return value
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, msg string) bool {
	if s.loginLimiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if s.loginLimiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}
