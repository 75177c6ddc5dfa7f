package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"roadportal/internal/ports"
)

type baseRepository struct {
	db *gorm.DB
}

// dbFromContext prefers the transaction stored by the unit of work.
func (r baseRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if r.db == nil {
		return nil, errors.New("database is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") || strings.Contains(lower, "duplicate key")
}

type listColumns struct {
	search   []string
	status   string
	severity string
	created  string
	id       string
}

const severityRankSQL = "CASE %s WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'critical' THEN 4 ELSE 0 END"

func filterScope(filter ports.ListFilter, cols listColumns) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status := strings.TrimSpace(filter.Status); status != "" && cols.status != "" {
			db = db.Where(cols.status+" = ?", status)
		}
		if severity := strings.TrimSpace(filter.Severity); severity != "" && cols.severity != "" {
			db = db.Where(cols.severity+" = ?", severity)
		}
		if search := strings.TrimSpace(filter.Search); search != "" && len(cols.search) > 0 {
			pattern := likePattern(search)
			clauses := make([]string, 0, len(cols.search))
			args := make([]any, 0, len(cols.search))
			for _, column := range cols.search {
				clauses = append(clauses, "LOWER("+column+") LIKE ? ESCAPE '\\'")
				args = append(args, pattern)
			}
			db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
		return db
	}
}

func orderScope(filter ports.ListFilter, cols listColumns) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		rank := fmt.Sprintf(severityRankSQL, cols.severity)
		switch filter.Sort {
		case ports.SortOldest:
			db = db.Order(cols.created + " asc").Order(cols.id + " asc")
		case ports.SortSeverityDesc:
			db = db.Order(rank + " desc").Order(cols.created + " desc").Order(cols.id + " desc")
		case ports.SortSeverityAsc:
			db = db.Order(rank + " asc").Order(cols.created + " desc").Order(cols.id + " desc")
		default:
			db = db.Order(cols.created + " desc").Order(cols.id + " desc")
		}
		if filter.Offset > 0 {
			db = db.Offset(filter.Offset)
		}
		if filter.Limit > 0 {
			db = db.Limit(filter.Limit)
		}
		return db
	}
}

func likePattern(search string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(search))
	return "%" + escaped + "%"
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
