package identity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"roadportal/internal/errs"
)

// Prefix names one family of human-readable ids. The same string keys the
// id_sequences row.
type Prefix string

const (
	PrefixDamageReport Prefix = "DR"
	PrefixPublication  Prefix = "PUB"
	PrefixInspection   Prefix = "INS"
	PrefixRepairTask   Prefix = "RT"
	PrefixMarker       Prefix = "GM"
	PrefixZone         Prefix = "CZ"
)

var idPattern = regexp.MustCompile(`^([A-Z]+)-(\d{4})-(\d{3,})$`)

type ID struct {
	Prefix Prefix
	Year   int
	Seq    int64
}

func (id ID) String() string {
	return Format(id.Prefix, id.Year, id.Seq)
}

// Format renders <prefix>-<year>-<seq>, zero padded to three digits. Sequences
// past 999 keep growing instead of wrapping.
func Format(prefix Prefix, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%03d", prefix, year, seq)
}

func Parse(raw string) (ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ID{}, errs.Validationf("id is required")
	}

	match := idPattern.FindStringSubmatch(trimmed)
	if len(match) != 4 {
		return ID{}, errs.Validationf("invalid id %q", raw)
	}

	year, err := strconv.Atoi(match[2])
	if err != nil {
		return ID{}, errs.Validationf("invalid id %q", raw)
	}
	seq, err := strconv.ParseInt(match[3], 10, 64)
	if err != nil || seq <= 0 {
		return ID{}, errs.Validationf("invalid id %q", raw)
	}

	return ID{Prefix: Prefix(match[1]), Year: year, Seq: seq}, nil
}

// ParseWithPrefix parses raw and checks it belongs to the expected family.
func ParseWithPrefix(raw string, prefix Prefix) (ID, error) {
	id, err := Parse(raw)
	if err != nil {
		return ID{}, err
	}
	if id.Prefix != prefix {
		return ID{}, errs.Validationf("id %q is not a %s id", raw, prefix)
	}
	return id, nil
}
