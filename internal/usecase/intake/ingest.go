package intake

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/domain/upload"
	"roadportal/internal/errs"
)

// Ingest validates and stores each part independently. A failing part is
// reported in Rejected and never stops the remaining parts; a submission with
// no valid part yields an empty Accepted list, not an error.
func (s *Service) Ingest(ctx context.Context, ownerID string, subdir string, parts []FilePart) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, errs.Wrap(err, "check context")
	}
	if s.store == nil {
		return Result{}, errors.New("file store is required")
	}
	if subdir != upload.SubdirReports && subdir != upload.SubdirGISMarkers {
		return Result{}, errs.Validationf("unknown upload directory %q", subdir)
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.intake"), slog.String("subdir", subdir))

	result := Result{Accepted: []string{}, Rejected: []Rejection{}}
	at := s.now()
	for index, part := range parts {
		name, reason := s.ingestPart(logCtx, ownerID, subdir, index, part, at)
		if reason != "" {
			result.Rejected = append(result.Rejected, Rejection{OriginalName: part.Name, Reason: string(reason)})
			continue
		}
		result.Accepted = append(result.Accepted, name)
	}

	if len(result.Rejected) > 0 {
		logging.Warn(
			logCtx,
			"upload parts rejected",
			slog.Int("accepted", len(result.Accepted)),
			slog.Int("rejected", len(result.Rejected)),
		)
	}
	return result, nil
}

func (s *Service) ingestPart(ctx context.Context, ownerID string, subdir string, index int, part FilePart, at time.Time) (string, upload.RejectReason) {
	if reason, ok := upload.CheckPart(part.Name, part.Size); !ok {
		return "", reason
	}
	if part.Open == nil {
		return "", upload.ReasonUploadError
	}

	file, err := part.Open()
	if err != nil {
		logging.Warn(ctx, "open upload part failed", slog.String("file", part.Name), slog.Any("err", errs.Loggable(err)))
		return "", upload.ReasonUploadError
	}
	defer file.Close()

	head := make([]byte, upload.SniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		logging.Warn(ctx, "read upload part failed", slog.String("file", part.Name), slog.Any("err", errs.Loggable(err)))
		return "", upload.ReasonUploadError
	}
	head = head[:n]
	if !upload.IsImageContentType(http.DetectContentType(head)) {
		return "", upload.ReasonBadContent
	}

	// The declared size comes from the client; the guard enforces the limit on
	// the bytes actually streamed.
	guard := &sizeGuard{r: io.MultiReader(bytes.NewReader(head), file), limit: upload.MaxFileSize}
	name := upload.StoredName(ownerID, index, at, part.Name)
	if err := s.store.Save(ctx, subdir, name, guard); err != nil {
		if guard.exceeded {
			return "", upload.ReasonTooLarge
		}
		logging.Error(ctx, "store upload part failed", slog.String("file", part.Name), slog.Any("err", errs.Loggable(err)))
		return "", upload.ReasonStorageError
	}
	return name, ""
}

var errPartTooLarge = errors.New("upload part exceeds size limit")

type sizeGuard struct {
	r        io.Reader
	limit    int64
	read     int64
	exceeded bool
}

func (g *sizeGuard) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	g.read += int64(n)
	if g.read > g.limit {
		g.exceeded = true
		return 0, errPartTooLarge
	}
	return n, err
}
