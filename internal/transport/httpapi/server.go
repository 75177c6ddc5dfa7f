// Package httpapi exposes the portal over HTTP with a chi router and a JSON
// envelope of {success, message, data, error}.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"roadportal/internal/usecase/accounts"
	"roadportal/internal/usecase/gateway"
	"roadportal/internal/usecase/intake"
	"roadportal/internal/usecase/lifecycle"
	"roadportal/internal/usecase/listing"
	"roadportal/internal/usecase/notifications"
)

type Options struct {
	MaxUploadBytes int64
	CORSOrigins    []string
	RatePerSecond  float64
	RateBurst      int
	// UploadsRoot serves /uploads from disk when set.
	UploadsRoot string
	Location    *time.Location
}

type Deps struct {
	Accounts      *accounts.Service
	Intake        *intake.Service
	Lifecycle     *lifecycle.Service
	Gateway       *gateway.Service
	Listing       *listing.Service
	Notifications *notifications.Service
	// Ping checks storage for /healthz. Optional.
	Ping func(ctx context.Context) error
}

type Server struct {
	accounts      *accounts.Service
	intake        *intake.Service
	lifecycle     *lifecycle.Service
	gateway       *gateway.Service
	listing       *listing.Service
	notifications *notifications.Service
	ping          func(ctx context.Context) error

	opts    Options
	limiter *ipLimiter
}

func NewServer(deps Deps, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Server{
		accounts:      deps.Accounts,
		intake:        deps.Intake,
		lifecycle:     deps.Lifecycle,
		gateway:       deps.Gateway,
		listing:       deps.Listing,
		notifications: deps.Notifications,
		ping:          deps.Ping,
		opts:          opts,
		limiter:       newIPLimiter(opts.RatePerSecond, opts.RateBurst),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.opts.CORSOrigins))
	r.Use(s.authenticate)

	r.Get("/healthz", s.handleHealth)
	if s.opts.UploadsRoot != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesOnly{http.Dir(s.opts.UploadsRoot)})))
	}

	r.With(s.limiter.middleware).Post("/auth/login", s.handleLogin)
	r.With(requireActor).Get("/auth/me", s.handleMe)

	r.With(s.limiter.middleware).Post("/citizen/reports", s.handleSubmitReport)
	r.Get("/gis/data", s.handleFeed)
	r.Get("/public/publications", s.handlePublished)

	r.Group(func(r chi.Router) {
		r.Use(requireActor)

		r.Route("/officer", func(r chi.Router) {
			r.Get("/reports", s.handleListReports)
			r.Get("/reports/export", s.handleExportReports)
			r.Get("/reports/{id}", s.handleGetReport)
			r.Post("/reports/{id}/transition", s.handleTransitionReport)
			r.Post("/reports/{id}/assign", s.handleAssignReport)

			r.Get("/inspections", s.handleListInspections)
			r.Post("/inspections", s.handleInspectionAction)

			r.Get("/publications", s.handleListPublications)
			r.Post("/publications", s.handlePublicationAction)

			r.Post("/gis/markers", s.handleCreateMarker)
			r.Post("/gis/zones", s.handleCreateZone)
		})

		r.Post("/engineer/inspections", s.handleCreateInspection)

		r.Get("/notifications", s.handleListNotifications)
		r.Get("/notifications/unread-count", s.handleUnreadCount)
		r.Post("/notifications/read-all", s.handleMarkAllRead)
		r.Post("/notifications/{id}/read", s.handleMarkRead)

		r.Route("/admin/users", func(r chi.Router) {
			r.Post("/", s.handleCreateUser)
			r.Post("/{id}/role", s.handleSetRole)
			r.Post("/{id}/deactivate", s.handleDeactivate)
			r.Post("/{id}/permissions", s.handleGrantPermission)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeOK(w, "ok", nil)
}

// filesOnly refuses directory listings under /uploads.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
