package ports

// SortOrder mirrors listing.Sort without importing the listing package.
type SortOrder string

const (
	SortNewest       SortOrder = "newest"
	SortOldest       SortOrder = "oldest"
	SortSeverityDesc SortOrder = "severity_desc"
	SortSeverityAsc  SortOrder = "severity_asc"
)

// ListFilter is the storage-level listing request. Empty Status or Severity
// matches everything; Limit 0 returns every row.
type ListFilter struct {
	Search   string
	Status   string
	Severity string
	Sort     SortOrder
	Offset   int
	Limit    int
}
