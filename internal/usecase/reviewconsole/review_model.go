// Package reviewconsole is the terminal queue officers use to triage new
// damage reports.
package reviewconsole

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/access"
	domainlisting "roadportal/internal/domain/listing"
	"roadportal/internal/domain/report"
	"roadportal/internal/usecase/lifecycle"
	"roadportal/internal/usecase/listing"
)

const (
	maxAuditLines  = 8
	maxShownEvents = 4
	queuePageSize  = domainlisting.MaxPerPage
	rejectNote     = "Rejected from console"
)

type ReportSource interface {
	ListReports(ctx context.Context, actor access.Actor, raw domainlisting.RawQuery) (listing.Page[listing.ReportView], error)
	GetReport(ctx context.Context, actor access.Actor, reportID string) (listing.ReportDetail, error)
}

type ReportReviewer interface {
	TransitionReport(ctx context.Context, actor access.Actor, input lifecycle.TransitionInput) error
}

type Options struct {
	Actor           access.Actor
	RefreshInterval time.Duration
}

type reviewModel struct {
	ctx             context.Context
	source          ReportSource
	reviewer        ReportReviewer
	actor           access.Actor
	refreshInterval time.Duration

	reports       []listing.ReportView
	selectedIndex int
	detail        listing.ReportDetail
	hasDetail     bool
	status        string
	auditLogs     []string
	now           func() time.Time
}

type reportsLoadedMsg struct {
	items []listing.ReportView
	err   error
}

type reportDetailLoadedMsg struct {
	reportID string
	detail   listing.ReportDetail
	err      error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action   string
	reportID string
	result   string
	err      error
}

func NewReviewModel(ctx context.Context, source ReportSource, reviewer ReportReviewer, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &reviewModel{
		ctx:             ctx,
		source:          source,
		reviewer:        reviewer,
		actor:           options.Actor,
		refreshInterval: interval,
		status:          "loading",
		now:             time.Now,
	}
}

func (m *reviewModel) Init() tea.Cmd {
	return tea.Batch(m.loadReportsCmd(), m.tickCmd())
}

func (m *reviewModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadReportsCmd(), m.tickCmd())
	case reportsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.reports = msg.items
		if len(m.reports) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "queue is empty"
			return m, nil
		}
		if m.selectedIndex >= len(m.reports) {
			m.selectedIndex = len(m.reports) - 1
		}
		m.status = fmt.Sprintf("%d report(s) waiting", len(m.reports))
		return m, m.loadDetailCmd()
	case reportDetailLoadedMsg:
		if !m.isSelected(msg.reportID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
		}
		m.appendAuditLog(msg.action, msg.reportID, msg.result, msg.err)
		return m, m.loadReportsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadReportsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.reports)-1 {
				m.selectedIndex++
				return m, m.loadDetailCmd()
			}
			return m, nil
		case "s":
			return m, m.transitionCmd("start review", report.StatusUnderReview, "")
		case "a":
			return m, m.transitionCmd("approve", report.StatusApproved, "")
		case "x":
			return m, m.transitionCmd("reject", report.StatusRejected, rejectNote)
		}
	}
	return m, nil
}

func (m *reviewModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	severityStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Report Review"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("officer=%s refresh=%s", m.actor.UserID, m.refreshInterval)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Queue"))
	b.WriteString("\n")
	if len(m.reports) == 0 {
		b.WriteString(dimStyle.Render("- no pending reports"))
		b.WriteString("\n\n")
	} else {
		for index, item := range m.reports {
			line := fmt.Sprintf("%s [%s] %s %s, %s", item.ReportID, item.Status, item.Severity, item.Location, item.Barangay)
			if index == m.selectedIndex {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Detail"))
	b.WriteString("\n")
	if !m.hasDetail {
		b.WriteString(dimStyle.Render("- no detail"))
		b.WriteString("\n\n")
	} else {
		r := m.detail.Report
		fmt.Fprintf(&b, "Report: %s\n", r.ReportID)
		severity := r.Severity
		if severity == string(report.SeverityCritical) {
			severity = severityStyle.Render(severity)
		}
		fmt.Fprintf(&b, "Damage: %s, %s severity\n", r.DamageType, severity)
		fmt.Fprintf(&b, "Where: %s, %s\n", r.Location, r.Barangay)
		fmt.Fprintf(&b, "Reported: %s\n", r.ReportedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "Images: %d\n", len(r.Images))
		fmt.Fprintf(&b, "Description: %s\n", firstLine(r.Description))
		b.WriteString("\nRecent Activity:\n")
		events := m.detail.Activity
		if len(events) == 0 {
			b.WriteString("- none\n")
		} else {
			start := len(events) - maxShownEvents
			if start < 0 {
				start = 0
			}
			for _, event := range events[start:] {
				fmt.Fprintf(&b, "- %s %s %s\n", event.CreatedAt.Format("01-02 15:04"), event.UserID, event.Action)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Status"))
	b.WriteString("\n- " + firstNonEmpty(m.status, "ready") + "\n\n")

	b.WriteString(sectionStyle.Render("Audit Log"))
	b.WriteString("\n")
	if len(m.auditLogs) == 0 {
		b.WriteString(dimStyle.Render("- no actions"))
		b.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			b.WriteString("- " + line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("Keys: up/k down/j move  g refresh  s start review  a approve  x reject  q quit"))
	return b.String()
}

func (m *reviewModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadReportsCmd builds the queue from pending and under_review reports,
// oldest first.
func (m *reviewModel) loadReportsCmd() tea.Cmd {
	return func() tea.Msg {
		var items []listing.ReportView
		for _, status := range []report.Status{report.StatusPending, report.StatusUnderReview} {
			page, err := m.source.ListReports(m.ctx, m.actor, domainlisting.RawQuery{
				Status:  string(status),
				Sort:    string(domainlisting.SortOldest),
				PerPage: fmt.Sprint(queuePageSize),
			})
			if err != nil {
				return reportsLoadedMsg{err: err}
			}
			items = append(items, page.Items...)
		}
		return reportsLoadedMsg{items: sortQueue(items)}
	}
}

func (m *reviewModel) loadDetailCmd() tea.Cmd {
	selected, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		detail, err := m.source.GetReport(m.ctx, m.actor, selected.ReportID)
		return reportDetailLoadedMsg{reportID: selected.ReportID, detail: detail, err: err}
	}
}

func (m *reviewModel) transitionCmd(action string, target report.Status, notes string) tea.Cmd {
	selected, ok := m.selected()
	if !ok {
		m.status = "no report selected"
		return nil
	}
	if target == report.StatusUnderReview && selected.Status != string(report.StatusPending) {
		m.status = selected.ReportID + " is already under review"
		return nil
	}

	reportID := selected.ReportID
	m.status = action + " in progress"
	return func() tea.Msg {
		err := m.reviewer.TransitionReport(m.ctx, m.actor, lifecycle.TransitionInput{
			ReportID: reportID,
			Status:   string(target),
			Notes:    notes,
		})
		if err != nil {
			return actionDoneMsg{action: action, reportID: reportID, err: err}
		}
		return actionDoneMsg{action: action, reportID: reportID, result: string(target)}
	}
}

func (m *reviewModel) selected() (listing.ReportView, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.reports) {
		return listing.ReportView{}, false
	}
	return m.reports[m.selectedIndex], true
}

func (m *reviewModel) isSelected(reportID string) bool {
	selected, ok := m.selected()
	return ok && selected.ReportID == reportID
}

func (m *reviewModel) appendAuditLog(action string, reportID string, result string, opErr error) {
	outcome := strings.TrimSpace(result)
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}
	if outcome == "" {
		outcome = "ok"
	}

	timestamp := m.now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s report=%s action=%s result=%s", timestamp, reportID, action, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(m.ctx, "review console action",
		slog.String("actor", m.actor.UserID),
		slog.String("report_id", reportID),
		slog.String("action", action),
		slog.String("result", outcome),
	)
}

func sortQueue(items []listing.ReportView) []listing.ReportView {
	sort.SliceStable(items, func(i int, j int) bool {
		if items[i].ReportedAt.Equal(items[j].ReportedAt) {
			return items[i].ReportID < items[j].ReportID
		}
		return items[i].ReportedAt.Before(items[j].ReportedAt)
	})
	return items
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstLine(body string) string {
	for _, raw := range strings.Split(body, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			return line
		}
	}
	return "-"
}
