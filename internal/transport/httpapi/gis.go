package httpapi

import (
	"net/http"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/upload"
	"roadportal/internal/errs"
	"roadportal/internal/usecase/intake"
	"roadportal/internal/usecase/lifecycle"
)

type markerResponse struct {
	MarkerID string             `json:"marker_id"`
	Image    string             `json:"image,omitempty"`
	Rejected []intake.Rejection `json:"rejected,omitempty"`
}

// handleCreateMarker accepts a multipart project marker with an optional
// "image" file. The role is checked before the photo is stored.
func (s *Server) handleCreateMarker(w http.ResponseWriter, r *http.Request) {
	actor := access.FromContext(r.Context())
	if err := access.Require(actor, "create project marker", access.RoleLGUOfficer, access.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}

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
	input := lifecycle.MarkerInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Latitude:    lat,
		Longitude:   lng,
		Severity:    r.FormValue("severity"),
	}

	var out markerResponse
	if parts := fileParts(r.MultipartForm, "image"); len(parts) > 0 {
		result, err := s.intake.Ingest(r.Context(), intake.UploadOwner(actor), upload.SubdirGISMarkers, parts[:1])
		if err != nil {
			writeError(w, r, err)
			return
		}
		if len(result.Accepted) > 0 {
			input.Image = result.Accepted[0]
			out.Image = input.Image
		}
		out.Rejected = result.Rejected
	}

	id, err := s.lifecycle.CreateProjectMarker(r.Context(), actor, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out.MarkerID = id
	writeCreated(w, "Project marker created", out)
}
