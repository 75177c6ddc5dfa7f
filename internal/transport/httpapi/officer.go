package httpapi

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"roadportal/internal/domain/access"
	"roadportal/internal/domain/inspection"
	domainlisting "roadportal/internal/domain/listing"
	"roadportal/internal/domain/publication"
	"roadportal/internal/errs"
	"roadportal/internal/usecase/lifecycle"
)

func rawQuery(r *http.Request) domainlisting.RawQuery {
	q := r.URL.Query()
	return domainlisting.RawQuery{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Severity: q.Get("severity"),
		Sort:     q.Get("sort"),
		Page:     q.Get("page"),
		PerPage:  q.Get("per_page"),
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	page, err := s.listing.ListReports(r.Context(), access.FromContext(r.Context()), rawQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", map[string]any{
		"reports":  page.Items,
		"total":    page.Total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

func (s *Server) handleExportReports(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.listing.ExportReports(r.Context(), access.FromContext(r.Context()), rawQuery(r), &buf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	detail, err := s.listing.GetReport(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", detail)
}

type transitionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *Server) handleTransitionReport(w http.ResponseWriter, r *http.Request) {
	var body transitionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	reportID := chi.URLParam(r, "id")
	err := s.lifecycle.TransitionReport(r.Context(), access.FromContext(r.Context()), lifecycle.TransitionInput{
		ReportID: reportID,
		Status:   body.Status,
		Notes:    body.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Report status updated", map[string]string{"report_id": reportID, "status": strings.ToLower(strings.TrimSpace(body.Status))})
}

type assignRequest struct {
	OfficerID string `json:"officer_id"`
}

func (s *Server) handleAssignReport(w http.ResponseWriter, r *http.Request) {
	var body assignRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	reportID := chi.URLParam(r, "id")
	if err := s.lifecycle.AssignReport(r.Context(), access.FromContext(r.Context()), reportID, body.OfficerID); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Report assigned", map[string]string{"report_id": reportID, "officer_id": body.OfficerID})
}

func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	page, err := s.listing.ListInspections(r.Context(), access.FromContext(r.Context()), rawQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", map[string]any{
		"inspections": page.Items,
		"total":       page.Total,
		"page":        page.Page,
		"per_page":    page.PerPage,
	})
}

func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	page, err := s.listing.ListPublications(r.Context(), access.FromContext(r.Context()), rawQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", map[string]any{
		"publications": page.Items,
		"total":        page.Total,
		"page":         page.Page,
		"per_page":     page.PerPage,
	})
}

// actionForm holds the fields of an action-dispatch request. Both form
// encodings and a flat JSON object of strings are accepted.
type actionForm map[string]string

func (f actionForm) get(key string) string {
	return strings.TrimSpace(f[key])
}

func readActionForm(w http.ResponseWriter, r *http.Request) (actionForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]string
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		return actionForm(body), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxJSONBody)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, errs.Validationf("invalid form body: %v", err)
	}
	out := make(actionForm, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out, nil
}

func (s *Server) handleInspectionAction(w http.ResponseWriter, r *http.Request) {
	form, err := readActionForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	actor := access.FromContext(ctx)

	switch action := form.get("action"); action {
	case "approve":
		taskID, err := s.lifecycle.ApproveInspection(ctx, actor, form.get("inspection_id"), form.get("notes"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Inspection approved and repair task created", map[string]string{"repair_task_id": taskID})
	case "reject":
		if err := s.lifecycle.RejectInspection(ctx, actor, form.get("inspection_id"), form.get("reason")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Inspection rejected", nil)
	case "approve_citizen":
		if err := s.lifecycle.ApproveCitizenReport(ctx, actor, form.get("report_id"), form.get("notes")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Citizen report approved", nil)
	default:
		writeError(w, r, errs.Validationf("unknown action %q", action))
	}
}

type inspectionRequest struct {
	DamageReportID    string `json:"damage_report_id"`
	Location          string `json:"location"`
	Barangay          string `json:"barangay"`
	Findings          string `json:"findings"`
	Severity          string `json:"severity"`
	RecommendedAction string `json:"recommended_action"`
	ScheduledDate     string `json:"scheduled_date"`
}

func (s *Server) handleCreateInspection(w http.ResponseWriter, r *http.Request) {
	var body inspectionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	scheduled, err := parseDate(body.ScheduledDate, "scheduled_date", s.opts.Location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.lifecycle.CreateInspection(r.Context(), access.FromContext(r.Context()), inspection.Fields{
		DamageReportID:    body.DamageReportID,
		Location:          body.Location,
		Barangay:          body.Barangay,
		Findings:          body.Findings,
		Severity:          body.Severity,
		RecommendedAction: body.RecommendedAction,
		ScheduledDate:     scheduled,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "Inspection report submitted", map[string]string{"inspection_id": id})
}

func (s *Server) publicFields(form actionForm) (publication.PublicFields, error) {
	fields := publication.PublicFields{
		RoadName:       form.get("road_name"),
		IssueSummary:   form.get("issue_summary"),
		IssueType:      form.get("issue_type"),
		SeverityPublic: form.get("severity_public"),
		StatusPublic:   form.get("status_public"),
	}
	var err error
	if fields.DateReported, err = parseDate(form.get("date_reported"), "date_reported", s.opts.Location); err != nil {
		return publication.PublicFields{}, err
	}
	if fields.RepairStartDate, err = parseDate(form.get("repair_start_date"), "repair_start_date", s.opts.Location); err != nil {
		return publication.PublicFields{}, err
	}
	if fields.CompletionDate, err = parseDate(form.get("completion_date"), "completion_date", s.opts.Location); err != nil {
		return publication.PublicFields{}, err
	}
	return fields, nil
}

func (s *Server) handlePublicationAction(w http.ResponseWriter, r *http.Request) {
	form, err := readActionForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	actor := access.FromContext(ctx)
	publicationID := form.get("publication_id")
	reportID := form.get("report_id")

	switch action := form.get("action"); action {
	case "publish_report", "propose_publication", "resubmit_publication":
		fields, err := s.publicFields(form)
		if err != nil {
			writeError(w, r, err)
			return
		}
		switch action {
		case "publish_report":
			id, err := s.lifecycle.PublishReport(ctx, actor, lifecycle.PublishInput{ReportID: reportID, Fields: fields})
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeCreated(w, "Report published", map[string]string{"publication_id": id})
		case "propose_publication":
			id, err := s.lifecycle.ProposePublication(ctx, actor, lifecycle.ProposeInput{ReportID: reportID, Fields: fields})
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeCreated(w, "Publication submitted for review", map[string]string{"publication_id": id})
		default:
			if err := s.lifecycle.ResubmitPublication(ctx, actor, lifecycle.ResubmitInput{PublicationID: publicationID, Fields: fields}); err != nil {
				writeError(w, r, err)
				return
			}
			writeOK(w, "Publication resubmitted", nil)
		}
	case "update_publication":
		start, err := parseDate(form.get("repair_start_date"), "repair_start_date", s.opts.Location)
		if err != nil {
			writeError(w, r, err)
			return
		}
		completion, err := parseDate(form.get("completion_date"), "completion_date", s.opts.Location)
		if err != nil {
			writeError(w, r, err)
			return
		}
		err = s.lifecycle.UpdatePublication(ctx, actor, lifecycle.UpdateInput{
			PublicationID:   publicationID,
			StatusPublic:    form.get("status_public"),
			RepairStartDate: start,
			CompletionDate:  completion,
			Notes:           form.get("notes"),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Publication updated", nil)
	case "archive_publication":
		if err := s.lifecycle.ArchivePublication(ctx, actor, publicationID, form.get("reason")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Publication archived", nil)
	case "approve_publication":
		if err := s.lifecycle.ApprovePublication(ctx, actor, publicationID, form.get("notes")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Publication approved", nil)
	case "reject_publication":
		if err := s.lifecycle.RejectPublication(ctx, actor, publicationID, form.get("reason")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Publication rejected", nil)
	case "request_revision":
		if err := s.lifecycle.RequestRevision(ctx, actor, publicationID, form.get("reason")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Revision requested", nil)
	case "decline_pending_report":
		if err := s.lifecycle.DeclinePendingReport(ctx, actor, reportID, form.get("reason")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, "Report declined", nil)
	default:
		writeError(w, r, errs.Validationf("unknown action %q", action))
	}
}

type zoneRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Geometry    json.RawMessage `json:"geometry"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var body zoneRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDate(body.StartDate, "start_date", s.opts.Location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate(body.EndDate, "end_date", s.opts.Location)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// geometry may be an object or a JSON string holding one.
	geometry := string(body.Geometry)
	var quoted string
	if err := json.Unmarshal(body.Geometry, &quoted); err == nil {
		geometry = quoted
	}

	id, err := s.lifecycle.CreateZone(r.Context(), access.FromContext(r.Context()), lifecycle.ZoneInput{
		Name:        body.Name,
		Description: body.Description,
		Geometry:    geometry,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "Construction zone created", map[string]string{"zone_id": id})
}
