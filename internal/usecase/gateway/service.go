// Package gateway serves the public, read-only view of the portal: the map
// feed and the list of live publications.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

type Service struct {
	gis          ports.GISReadRepository
	publications ports.PublicationReadRepository
	cache        ports.Cache
	imageBaseURL string
}

type Deps struct {
	GIS          ports.GISReadRepository
	Publications ports.PublicationReadRepository
	Cache        ports.Cache
	// ImageBaseURL prefixes stored upload names, e.g. "/uploads".
	ImageBaseURL string
}

func NewService(deps Deps) *Service {
	return &Service{
		gis:          deps.GIS,
		publications: deps.Publications,
		cache:        deps.Cache,
		imageBaseURL: strings.TrimRight(deps.ImageBaseURL, "/"),
	}
}

func (s *Service) begin(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	return logging.WithAttrs(ctx, slog.String("component", "usecase.gateway")), nil
}

// cached returns the stored value for key, or builds, stores and returns it.
// Cache failures fall back to building without storing.
func (s *Service) cached(ctx context.Context, keyFn func(gen string) string, build func() ([]byte, error)) ([]byte, error) {
	if s.cache == nil {
		return build()
	}

	gen, err := currentGeneration(ctx, s.cache)
	if err != nil {
		logging.Warn(ctx, "read feed generation failed", slog.Any("err", errs.Loggable(err)))
		return build()
	}
	key := keyFn(gen)

	value, found, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		logging.Warn(ctx, "read public cache failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
	case found:
		return []byte(value), nil
	}

	data, err := build()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, string(data), feedTTL); err != nil {
		logging.Warn(ctx, "write public cache failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
	}
	return data, nil
}

func (s *Service) imageURL(subdir string, name string) string {
	if name == "" {
		return ""
	}
	return s.imageBaseURL + "/" + subdir + "/" + name
}
