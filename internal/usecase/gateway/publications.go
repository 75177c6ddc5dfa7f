package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"roadportal/internal/domain/publication"
	"roadportal/internal/errs"
)

// PublicPublication is the announcement as citizens see it.
type PublicPublication struct {
	PublicationID      string          `json:"publication_id"`
	RoadName           string          `json:"road_name"`
	IssueSummary       string          `json:"issue_summary"`
	IssueType          string          `json:"issue_type,omitempty"`
	SeverityPublic     string          `json:"severity_public"`
	StatusPublic       string          `json:"status_public"`
	DateReported       string          `json:"date_reported,omitempty"`
	RepairStartDate    string          `json:"repair_start_date,omitempty"`
	CompletionDate     string          `json:"completion_date,omitempty"`
	RepairDurationDays *int            `json:"repair_duration_days,omitempty"`
	PublicationDate    *time.Time      `json:"publication_date,omitempty"`
	LastUpdated        time.Time       `json:"last_updated"`
	Progress           []ProgressEntry `json:"progress"`
}

type ProgressEntry struct {
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListPublished returns live publications ordered by id, optionally narrowed
// to one public status.
func (s *Service) ListPublished(ctx context.Context, statusRaw string) ([]PublicPublication, error) {
	logCtx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	if s.publications == nil {
		return nil, errors.New("publication repository is required")
	}

	status := ""
	if trimmed := strings.TrimSpace(statusRaw); trimmed != "" && !strings.EqualFold(trimmed, "all") {
		parsed, err := publication.ParsePublicStatus(trimmed)
		if err != nil {
			return nil, err
		}
		status = string(parsed)
	}

	data, err := s.cached(logCtx, func(gen string) string {
		if status == "" {
			return publishedKey(gen)
		}
		return publishedKey(gen) + ":" + status
	}, func() ([]byte, error) {
		items, err := s.buildPublished(logCtx, status)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	})
	if err != nil {
		return nil, errs.Wrap(err, "list published publications")
	}

	var items []PublicPublication
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errs.Wrap(err, "decode cached publications")
	}
	return items, nil
}

func (s *Service) buildPublished(ctx context.Context, status string) ([]PublicPublication, error) {
	rows, err := s.publications.ListPublished(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list published")
	}

	ids := make([]string, 0, len(rows))
	items := make([]PublicPublication, 0, len(rows))
	for _, row := range rows {
		if status != "" && string(row.StatusPublic) != status {
			continue
		}
		ids = append(ids, row.PublicationID)
		items = append(items, PublicPublication{
			PublicationID:      row.PublicationID,
			RoadName:           row.RoadName,
			IssueSummary:       row.IssueSummary,
			IssueType:          row.IssueType,
			SeverityPublic:     string(row.SeverityPublic),
			StatusPublic:       string(row.StatusPublic),
			DateReported:       formatDate(row.DateReported),
			RepairStartDate:    formatDate(row.RepairStartDate),
			CompletionDate:     formatDate(row.CompletionDate),
			RepairDurationDays: row.RepairDurationDays,
			PublicationDate:    row.PublicationDate,
			LastUpdated:        row.LastUpdated,
			Progress:           []ProgressEntry{},
		})
	}
	if len(ids) == 0 {
		return items, nil
	}

	entries, err := s.publications.ListProgress(ctx, ids)
	if err != nil {
		return nil, errs.Wrap(err, "list publication progress")
	}
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.PublicationID] = i
	}
	for _, entry := range entries {
		i, ok := index[entry.PublicationID]
		if !ok {
			continue
		}
		items[i].Progress = append(items[i].Progress, ProgressEntry{
			Status:    entry.Status,
			Notes:     entry.Notes,
			CreatedAt: entry.CreatedAt,
		})
	}
	return items, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
