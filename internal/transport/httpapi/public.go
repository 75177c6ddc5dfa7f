package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/report"
	"roadportal/internal/errs"
	"roadportal/internal/usecase/intake"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := s.accounts.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "logged in", token)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Me(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", user)
}

type submitResponse struct {
	Success  bool               `json:"success"`
	Message  string             `json:"message"`
	ReportID string             `json:"report_id"`
	Images   []string           `json:"images"`
	Rejected []intake.Rejection `json:"rejected"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, r, errs.Validationf("invalid multipart form: %v", err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	lat, err := optionalFloat(r.FormValue("latitude"), "latitude")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lng, err := optionalFloat(r.FormValue("longitude"), "longitude")
	if err != nil {
		writeError(w, r, err)
		return
	}

	fields := report.Fields{
		Location:      r.FormValue("location"),
		Barangay:      r.FormValue("barangay"),
		DamageType:    r.FormValue("damage_type"),
		Severity:      r.FormValue("severity"),
		Description:   r.FormValue("description"),
		EstimatedSize: r.FormValue("estimated_size"),
		TrafficImpact: r.FormValue("traffic_impact"),
		ContactNumber: r.FormValue("contact_number"),
		Anonymous:     truthy(r.FormValue("anonymous_report")),
		Latitude:      lat,
		Longitude:     lng,
	}

	result, err := s.intake.Submit(r.Context(), access.FromContext(r.Context()), fields, fileParts(r.MultipartForm, "images", "images[]"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	images := result.Images
	if images == nil {
		images = []string{}
	}
	rejected := result.Rejected
	if rejected == nil {
		rejected = []intake.Rejection{}
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Success:  true,
		Message:  "Report submitted successfully. Reference: " + result.ReportID,
		ReportID: result.ReportID,
		Images:   images,
		Rejected: rejected,
	})
}

// handleFeed writes the GeoJSON document as is, without the envelope, so map
// clients can load it directly.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	feed, err := s.gateway.GetPublicFeed(r.Context(), query.Get("filter"), query.Get("bounds"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(feed)
}

func (s *Server) handlePublished(w http.ResponseWriter, r *http.Request) {
	items, err := s.gateway.ListPublished(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", map[string]any{"publications": items, "total": len(items)})
}

// fileParts collects the uploaded files under any of keys in form order.
func fileParts(form *multipart.Form, keys ...string) []intake.FilePart {
	if form == nil {
		return nil
	}
	var parts []intake.FilePart
	for _, key := range keys {
		for _, header := range form.File[key] {
			fh := header
			parts = append(parts, intake.FilePart{
				Name: fh.Filename,
				Size: fh.Size,
				Open: func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
	}
	return parts
}

func optionalFloat(raw string, field string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, errs.Validationf("%s must be a number", field)
	}
	return &v, nil
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
