package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"talenthub/pkg/domain"
)

// talentSubRoutes claims /talents/{id}/files/{category}.
func (s *Server) talentSubRoutes(w http.ResponseWriter, r *http.Request, _ domain.User, parts []string) bool {
	if len(parts) != 3 || parts[1] != "files" {
		return false
	}
	s.handleTalentUpload(w, r, parts[0], parts[2])
	return true
}

func (s *Server) handleTalentUpload(w http.ResponseWriter, r *http.Request, talentID, category string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "file storage unavailable")
		return
	}
	switch category {
	case "gallery", "attachment", "profile-photo":
	default:
		writeError(w, http.StatusBadRequest, "unknown file category")
		return
	}

	talent, found, err := s.store.GetTalent(talentID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	key := fmt.Sprintf("talents/%s/%s/%s-%s", talentID, category, domain.NewID(), filename)
	url, err := s.objects.Put(r.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		s.audit(r, "talent.upload", "fail", "talent_id", talentID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "store file failed")
		return
	}

	var patch map[string]any
	switch category {
	case "gallery":
		patch = map[string]any{"gallery": append(talent.Gallery, url)}
	case "attachment":
		patch = map[string]any{"attachments": append(talent.Attachments, domain.Attachment{
			Name:       filename,
			URL:        url,
			UploadedAt: time.Now().UTC(),
		})}
	case "profile-photo":
		patch = map[string]any{"profilePhotoUrl": url}
	}
	updated, err := s.store.UpdateTalent(talentID, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.audit(r, "talent.upload", "success", "talent_id", talentID, "category", category)
	writeJSON(w, http.StatusOK, updated)
}
