package repository

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/identity"
)

// DecodeReportDocument strictly decodes a document-store record (as exported
// to JSON) into a Report. nativeKey is the document key; an "id" field inside
// the document wins when it is a UUID.
func DecodeReportDocument(nativeKey string, doc map[string]interface{}, reconciler *identity.Reconciler) (*models.Report, error) {
	if reconciler == nil {
		reconciler = identity.NewReconciler()
	}
	embedded, err := optionalStringField(doc, "id")
	if err != nil {
		return nil, err
	}
	id, err := reconciler.ReconcileString(nativeKey, embedded)
	if err != nil {
		return nil, appErrors.Decode("id", err.Error())
	}

	report := &models.Report{ID: id, DocKey: strings.TrimSpace(nativeKey)}
	if report.DocKey == "" {
		report.DocKey = id
	}

	rawType, err := stringField(doc, "type")
	if err != nil {
		return nil, err
	}
	var ok bool
	if report.Type, ok = models.ParseReportType(rawType); !ok {
		return nil, appErrors.Decode("type", fmt.Sprintf("unknown type %q", rawType))
	}

	rawCategory, err := stringField(doc, "category")
	if err != nil {
		return nil, err
	}
	if report.Category, ok = models.ParseReportCategory(rawCategory); !ok {
		return nil, appErrors.Decode("category", fmt.Sprintf("unknown category %q", rawCategory))
	}

	rawStatus, err := stringField(doc, "status")
	if err != nil {
		return nil, err
	}
	if report.Status, ok = models.ParseReportStatus(rawStatus); !ok {
		return nil, appErrors.Decode("status", fmt.Sprintf("unknown status %q", rawStatus))
	}

	if report.Title, err = stringField(doc, "title"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(report.Title) == "" {
		return nil, appErrors.Decode("title", "title is empty")
	}
	report.Title = strings.TrimSpace(report.Title)

	if report.CreatedByEmail, err = stringField(doc, "createdByEmail"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(report.CreatedByEmail) == "" {
		return nil, appErrors.Decode("createdByEmail", "createdByEmail is empty")
	}

	for field, dst := range map[string]*string{
		"createdByName":    &report.CreatedByName,
		"locationBuilding": &report.LocationBuilding,
	} {
		value, err := optionalStringField(doc, field)
		if err != nil {
			return nil, err
		}
		*dst = value
	}

	for field, dst := range map[string]**string{
		"description": &report.Description,
		"imageUrl":    &report.ImageURL,
		"reviewedBy":  &report.ReviewedBy,
	} {
		value, err := optionalStringField(doc, field)
		if err != nil {
			return nil, err
		}
		if value != "" {
			v := value
			*dst = &v
		}
	}

	phone, err := optionalStringField(doc, "createdByPhone")
	if err != nil {
		return nil, err
	}
	if phone != "" {
		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) && r <= unicode.MaxASCII {
				return r
			}
			return -1
		}, phone)
		if len(digits) != 10 {
			return nil, appErrors.Decode("createdByPhone", fmt.Sprintf("phone %q does not contain 10 digits", phone))
		}
		report.CreatedByPhone = &digits
	}

	createdAt, err := timeField(doc, "createdAt")
	if err != nil {
		return nil, err
	}
	if createdAt == nil {
		return nil, appErrors.Decode("createdAt", "createdAt is missing")
	}
	report.CreatedAt = *createdAt

	if report.UpdatedAt, err = timeField(doc, "updatedAt"); err != nil {
		return nil, err
	}
	if report.ReviewedAt, err = timeField(doc, "reviewedAt"); err != nil {
		return nil, err
	}
	if (report.ReviewedAt == nil) != (report.ReviewedBy == nil) {
		return nil, appErrors.Decode("reviewedAt", "reviewedAt and reviewedBy must be present together")
	}
	if report.Status == models.ReportStatusPending && report.ReviewedAt != nil {
		return nil, appErrors.Decode("reviewedAt", "pending report carries review metadata")
	}

	if report.LocationCoordinates, err = coordinatesField(doc, "locationCoordinates"); err != nil {
		return nil, err
	}
	return report, nil
}

func stringField(doc map[string]interface{}, field string) (string, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return "", appErrors.Decode(field, field+" is missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", appErrors.Decode(field, fmt.Sprintf("%s must be a string, got %T", field, raw))
	}
	return s, nil
}

func optionalStringField(doc map[string]interface{}, field string) (string, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", appErrors.Decode(field, fmt.Sprintf("%s must be a string, got %T", field, raw))
	}
	return strings.TrimSpace(s), nil
}

// timeField accepts RFC3339 strings, exported timestamp objects
// ({_seconds,_nanoseconds} or {seconds,nanoseconds}) and epoch milliseconds.
func timeField(doc map[string]interface{}, field string) (*time.Time, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return nil, nil
	}
	var t time.Time
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return nil, appErrors.Decode(field, fmt.Sprintf("%s is not an RFC3339 timestamp", field))
		}
		t = parsed
	case float64:
		if !finiteNumber(v) {
			return nil, appErrors.Decode(field, field+" is not a finite number")
		}
		t = time.UnixMilli(int64(v))
	case map[string]interface{}:
		seconds, ok := numberIn(v, "_seconds", "seconds")
		if !ok {
			return nil, appErrors.Decode(field, field+" timestamp has no seconds")
		}
		nanos, _ := numberIn(v, "_nanoseconds", "nanoseconds")
		t = time.Unix(int64(seconds), int64(nanos))
	default:
		return nil, appErrors.Decode(field, fmt.Sprintf("%s has unsupported type %T", field, raw))
	}
	t = t.UTC()
	return &t, nil
}

// coordinatesField accepts {latitude,longitude}, {lat,lng} and exported geo
// points ({_latitude,_longitude}).
func coordinatesField(doc map[string]interface{}, field string) (*models.Coordinates, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, appErrors.Decode(field, fmt.Sprintf("%s must be an object, got %T", field, raw))
	}
	lat, latOK := numberIn(m, "latitude", "_latitude", "lat")
	lng, lngOK := numberIn(m, "longitude", "_longitude", "lng")
	if !latOK || !lngOK {
		return nil, appErrors.Decode(field, field+" needs both latitude and longitude")
	}
	if !finiteNumber(lat) || !finiteNumber(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, appErrors.Decode(field, field+" is out of range")
	}
	return &models.Coordinates{Latitude: lat, Longitude: lng}, nil
}

func numberIn(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}

func finiteNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
