package gis

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"roadportal/internal/errs"
)

type leafletBounds struct {
	SouthWest *leafletLatLng `json:"_southWest"`
	NorthEast *leafletLatLng `json:"_northEast"`
}

type leafletLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseBounds accepts "west,south,east,north" or a Leaflet LatLngBounds JSON
// object. Empty input returns ok=false.
func ParseBounds(raw string) (orb.Bound, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return orb.Bound{}, false, nil
	}

	var west, south, east, north float64
	if strings.HasPrefix(trimmed, "{") {
		var lb leafletBounds
		if err := json.Unmarshal([]byte(trimmed), &lb); err != nil || lb.SouthWest == nil || lb.NorthEast == nil {
			return orb.Bound{}, false, errs.Validationf("invalid bounds")
		}
		west, south = lb.SouthWest.Lng, lb.SouthWest.Lat
		east, north = lb.NorthEast.Lng, lb.NorthEast.Lat
	} else {
		parts := strings.Split(trimmed, ",")
		if len(parts) != 4 {
			return orb.Bound{}, false, errs.Validationf("bounds must be west,south,east,north")
		}
		values := make([]float64, 4)
		for i, part := range parts {
			value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return orb.Bound{}, false, errs.Validationf("invalid bounds value %q", part)
			}
			values[i] = value
		}
		west, south, east, north = values[0], values[1], values[2], values[3]
	}

	if south > north || west > east {
		return orb.Bound{}, false, errs.Validationf("bounds are inverted")
	}
	if south < -90 || north > 90 || west < -180 || east > 180 {
		return orb.Bound{}, false, errs.Validationf("bounds out of range")
	}

	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}, true, nil
}

// ParseZoneGeometry reads a GeoJSON Polygon or MultiPolygon geometry. A full
// Feature is accepted too.
func ParseZoneGeometry(raw string) (orb.Geometry, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errs.Validationf("geometry is required")
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil, errs.Validationf("geometry is not valid GeoJSON")
	}

	var geometry orb.Geometry
	if probe.Type == "Feature" {
		feature, err := geojson.UnmarshalFeature([]byte(trimmed))
		if err != nil || feature.Geometry == nil {
			return nil, errs.Validationf("geometry is not valid GeoJSON")
		}
		geometry = feature.Geometry
	} else {
		g, err := geojson.UnmarshalGeometry([]byte(trimmed))
		if err != nil || g.Geometry() == nil {
			return nil, errs.Validationf("geometry is not valid GeoJSON")
		}
		geometry = g.Geometry()
	}

	switch geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return nil, errs.Validationf("zone geometry must be a Polygon or MultiPolygon, got %s", geometry.GeoJSONType())
	}

	bound := geometry.Bound()
	if bound.Min.Lat() < -90 || bound.Max.Lat() > 90 || bound.Min.Lon() < -180 || bound.Max.Lon() > 180 {
		return nil, errs.Validationf("zone geometry out of range")
	}
	return geometry, nil
}

// MarshalGeometry renders geometry as GeoJSON geometry text.
func MarshalGeometry(geometry orb.Geometry) (string, error) {
	data, err := geojson.NewGeometry(geometry).MarshalJSON()
	if err != nil {
		return "", errs.Wrap(err, "marshal geometry")
	}
	return string(data), nil
}
