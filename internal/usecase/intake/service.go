package intake

import (
	"errors"
	"io"
	"time"

	"roadportal/internal/ports"
)

type Service struct {
	reports       ports.ReportRepository
	sequences     ports.SequenceRepository
	users         ports.UserRepository
	notifications ports.NotificationRepository
	activity      ports.ActivityRepository
	uow           ports.UnitOfWork
	store         ports.FileStore
	loc           *time.Location
	now           func() time.Time
}

type Deps struct {
	Reports       ports.ReportRepository
	Sequences     ports.SequenceRepository
	Users         ports.UserRepository
	Notifications ports.NotificationRepository
	Activity      ports.ActivityRepository
	UnitOfWork    ports.UnitOfWork
	Store         ports.FileStore
	Location      *time.Location
}

func NewService(deps Deps) *Service {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		reports:       deps.Reports,
		sequences:     deps.Sequences,
		users:         deps.Users,
		notifications: deps.Notifications,
		activity:      deps.Activity,
		uow:           deps.UnitOfWork,
		store:         deps.Store,
		loc:           loc,
		now:           time.Now,
	}
}

// FilePart is one uploaded file. Open is called at most once; a nil Open or an
// Open error rejects the part with upload_error.
type FilePart struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type Rejection struct {
	OriginalName string `json:"original_name"`
	Reason       string `json:"reason"`
}

type Result struct {
	Accepted []string
	Rejected []Rejection
}

type SubmitResult struct {
	ReportID string
	Images   []string
	Rejected []Rejection
}

func (s *Service) requireWriteDeps() error {
	if s.reports == nil {
		return errors.New("report repository is required")
	}
	if s.sequences == nil {
		return errors.New("sequence repository is required")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}
	return nil
}
