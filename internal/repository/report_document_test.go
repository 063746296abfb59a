package repository

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/identity"
)

const legacyDocument = `{
	"type": "found",
	"category": "Wallet/ID/Keys",
	"title": " Student ID ",
	"description": "",
	"locationBuilding": "Annex North",
	"locationCoordinates": {"_latitude": 42.336, "_longitude": -71.095},
	"imageUrl": null,
	"createdByName": "Riley",
	"createdByEmail": "riley@wit.edu",
	"createdByPhone": "617-555-0199",
	"createdAt": {"_seconds": 1730000000, "_nanoseconds": 0},
	"status": "rejected",
	"reviewedAt": "2024-10-28T10:00:00Z",
	"reviewedBy": "admin@wit.edu"
}`

func decodeFixture(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestDecodeReportDocumentLegacyExport(t *testing.T) {
	report, err := DecodeReportDocument("k9XyZ", decodeFixture(t, legacyDocument), identity.NewReconciler())
	require.NoError(t, err)

	assert.Equal(t, derivedID("k9XyZ"), report.ID)
	assert.Equal(t, "k9XyZ", report.DocKey)
	assert.Equal(t, models.ReportTypeFound, report.Type)
	assert.Equal(t, models.ReportStatusDenied, report.Status)
	assert.Equal(t, "Student ID", report.Title)
	assert.Nil(t, report.Description)
	assert.Nil(t, report.ImageURL)
	require.NotNil(t, report.CreatedByPhone)
	assert.Equal(t, "6175550199", *report.CreatedByPhone)
	assert.Equal(t, time.Unix(1730000000, 0).UTC(), report.CreatedAt)
	require.NotNil(t, report.LocationCoordinates)
	assert.Equal(t, 42.336, report.LocationCoordinates.Latitude)
	require.NotNil(t, report.ReviewedAt)
}

func TestDecodeReportDocumentPrefersEmbeddedID(t *testing.T) {
	doc := decodeFixture(t, legacyDocument)
	doc["id"] = "6F1C2C1E-8E4B-4F43-9C0E-5D1C1A2B3C4D"
	report, err := DecodeReportDocument("k9XyZ", doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "6f1c2c1e-8e4b-4f43-9c0e-5d1c1a2b3c4d", report.ID)
}

func TestDecodeReportDocumentNamesOffendingField(t *testing.T) {
	cases := map[string]func(map[string]interface{}){
		"title":               func(d map[string]interface{}) { d["title"] = 42.0 },
		"category":            func(d map[string]interface{}) { d["category"] = "Furniture" },
		"createdAt":           func(d map[string]interface{}) { delete(d, "createdAt") },
		"createdByPhone":      func(d map[string]interface{}) { d["createdByPhone"] = "555" },
		"reviewedAt":          func(d map[string]interface{}) { delete(d, "reviewedBy") },
		"locationCoordinates": func(d map[string]interface{}) { d["locationCoordinates"] = map[string]interface{}{"lat": 1.0} },
		"status":              func(d map[string]interface{}) { d["status"] = "archived" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			doc := decodeFixture(t, legacyDocument)
			mutate(doc)
			_, err := DecodeReportDocument("k9XyZ", doc, nil)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrDecode.Code, appErr.Code)
			assert.Equal(t, field, appErr.Field)
		})
	}
}

func TestDecodeReportDocumentWithoutAnyKey(t *testing.T) {
	_, err := DecodeReportDocument("", decodeFixture(t, legacyDocument), nil)
	assert.ErrorIs(t, err, appErrors.ErrDecode)
}
