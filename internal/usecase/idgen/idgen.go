// Package idgen hands out human-readable ids (DR-2026-001) from the
// id_sequences table and retries inserts that lose a unique-index race.
package idgen

import (
	"context"
	"errors"
	"time"

	"roadportal/internal/domain/identity"
	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

// MaxAttempts bounds how often a transaction is replayed after a duplicate id.
const MaxAttempts = 3

// Sequence names, one counter per entity and year.
const (
	SeqDamageReport     = "damage_report"
	SeqPublication      = "publication"
	SeqInspection       = "inspection"
	SeqRepairTask       = "repair_task"
	SeqGISMarker        = "gis_marker"
	SeqConstructionZone = "construction_zone"
)

var prefixBySequence = map[string]identity.Prefix{
	SeqDamageReport:     identity.PrefixDamageReport,
	SeqPublication:      identity.PrefixPublication,
	SeqInspection:       identity.PrefixInspection,
	SeqRepairTask:       identity.PrefixRepairTask,
	SeqGISMarker:        identity.PrefixMarker,
	SeqConstructionZone: identity.PrefixZone,
}

// Next reserves the next id for sequence in the year of at. It must run inside
// the transaction that inserts the row carrying the id.
func Next(ctx context.Context, repo ports.SequenceRepository, sequence string, at time.Time) (string, error) {
	if repo == nil {
		return "", errors.New("sequence repository is required")
	}
	prefix, ok := prefixBySequence[sequence]
	if !ok {
		return "", errors.New("unknown id sequence " + sequence)
	}

	year := at.Year()
	value, err := repo.NextValue(ctx, sequence, year)
	if err != nil {
		return "", errs.Wrapf(err, "next %s id", sequence)
	}
	return identity.Format(prefix, year, value), nil
}

// Retry runs fn until it succeeds, fails with anything other than a duplicate
// key, or MaxAttempts is reached.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errs.Wrap(ctxErr, "check context")
		}
		err = fn(ctx)
		if err == nil || !errors.Is(err, ports.ErrDuplicateKey) {
			return err
		}
	}
	return errs.Wrapf(err, "allocate id after %d attempts", MaxAttempts)
}
