package report

import (
	"strings"

	"roadportal/internal/errs"
)

const (
	maxLocationLen    = 255
	maxDescriptionLen = 5000
)

// Fields is the citizen-supplied part of a damage report.
type Fields struct {
	Location      string
	Barangay      string
	DamageType    string
	Severity      string
	Description   string
	EstimatedSize string
	TrafficImpact string
	ContactNumber string
	Anonymous     bool
	Latitude      *float64
	Longitude     *float64
}

// Normalized is Fields after trimming and enum parsing.
type Normalized struct {
	Location      string
	Barangay      string
	DamageType    DamageType
	Severity      Severity
	Description   string
	EstimatedSize string
	TrafficImpact string
	ContactNumber string
	Anonymous     bool
	Latitude      *float64
	Longitude     *float64
}

func NormalizeFields(in Fields) (Normalized, error) {
	out := Normalized{
		Location:      strings.TrimSpace(in.Location),
		Barangay:      strings.TrimSpace(in.Barangay),
		Description:   strings.TrimSpace(in.Description),
		EstimatedSize: strings.TrimSpace(in.EstimatedSize),
		TrafficImpact: strings.TrimSpace(in.TrafficImpact),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Anonymous:     in.Anonymous,
	}

	if out.Location == "" {
		return Normalized{}, errs.Validationf("location is required")
	}
	if len(out.Location) > maxLocationLen {
		return Normalized{}, errs.Validationf("location is longer than %d characters", maxLocationLen)
	}
	if out.Barangay == "" {
		return Normalized{}, errs.Validationf("barangay is required")
	}
	if out.Description == "" {
		return Normalized{}, errs.Validationf("description is required")
	}
	if len(out.Description) > maxDescriptionLen {
		return Normalized{}, errs.Validationf("description is longer than %d characters", maxDescriptionLen)
	}

	damageType, err := ParseDamageType(in.DamageType)
	if err != nil {
		return Normalized{}, err
	}
	out.DamageType = damageType

	severity, err := ParseSeverity(in.Severity)
	if err != nil {
		return Normalized{}, err
	}
	out.Severity = severity

	if err := CheckCoordinates(in.Latitude, in.Longitude); err != nil {
		return Normalized{}, err
	}
	out.Latitude = in.Latitude
	out.Longitude = in.Longitude

	return out, nil
}

// CheckCoordinates accepts both or neither of lat/lng, inside WGS84 range.
func CheckCoordinates(lat *float64, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return errs.Validationf("latitude and longitude must be given together")
	}
	if *lat < -90 || *lat > 90 {
		return errs.Validationf("latitude %v out of range", *lat)
	}
	if *lng < -180 || *lng > 180 {
		return errs.Validationf("longitude %v out of range", *lng)
	}
	return nil
}
