package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/lostfound-api/internal/dto"
	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

const phoneDigits = 10

// ReportValidator turns client drafts into pending reports.
type ReportValidator struct {
	validate *validator.Validate
}

// NewReportValidator configures validator/v10 to report JSON field names.
func NewReportValidator(validate *validator.Validate) *ReportValidator {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &ReportValidator{validate: validate}
}

// Build validates and normalises a draft. The returned report is pending, has no
// review metadata, and carries the actor's identity. CreatedAt is left for the
// repository to assign.
func (v *ReportValidator) Build(req dto.CreateReportRequest, actor *models.Actor) (*models.Report, error) {
	if actor == nil || strings.TrimSpace(actor.Email) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "submitter identity is required")
	}

	draft := req
	draft.ID = strings.TrimSpace(draft.ID)
	draft.Type = strings.ToLower(strings.TrimSpace(draft.Type))
	draft.Category = strings.TrimSpace(draft.Category)
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.LocationBuilding = strings.TrimSpace(draft.LocationBuilding)
	draft.ImageURL = strings.TrimSpace(draft.ImageURL)

	if err := v.validate.Struct(draft); err != nil {
		return nil, translateValidation(err)
	}

	category, ok := models.ParseReportCategory(draft.Category)
	if !ok {
		return nil, appErrors.Validation("category", "category is not one of the supported categories")
	}
	reportType, _ := models.ParseReportType(draft.Type)

	phone, err := normalisePhone(draft.CreatedByPhone)
	if err != nil {
		return nil, err
	}
	coords, err := normaliseCoordinates(draft.LocationCoordinates)
	if err != nil {
		return nil, err
	}

	id, err := normaliseClientID(draft.ID)
	if err != nil {
		return nil, err
	}

	return &models.Report{
		ID:                  id,
		Type:                reportType,
		Category:            category,
		Title:               draft.Title,
		Description:         optionalString(draft.Description),
		LocationBuilding:    draft.LocationBuilding,
		LocationCoordinates: coords,
		ImageURL:            optionalString(draft.ImageURL),
		CreatedByName:       strings.TrimSpace(actor.Name),
		CreatedByEmail:      strings.ToLower(strings.TrimSpace(actor.Email)),
		CreatedByPhone:      phone,
		Status:              models.ReportStatusPending,
	}, nil
}

// normaliseClientID accepts a client-reserved UUID in any letter case and
// stores its canonical form. A blank id gets a fresh one.
func normaliseClientID(raw string) (string, error) {
	if raw == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", appErrors.Validation("id", "id must be a valid UUID")
	}
	return parsed.String(), nil
}

// normalisePhone keeps digits only. A blank value means no phone; anything else
// must contain exactly ten digits and is rejected rather than truncated.
func normalisePhone(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			return r
		}
		return -1
	}, raw)
	if len(digits) != phoneDigits {
		return nil, appErrors.Validation("createdByPhone", fmt.Sprintf("phone must contain exactly %d digits", phoneDigits))
	}
	return &digits, nil
}

func normaliseCoordinates(input *dto.CoordinatesInput) (*models.Coordinates, error) {
	if input == nil {
		return nil, nil
	}
	lat, lng := input.Point()
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, appErrors.Validation("locationCoordinates", "latitude and longitude must both be provided")
	}
	if !finite(*lat) || !finite(*lng) || *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return nil, appErrors.Validation("locationCoordinates", "coordinates are out of range")
	}
	return &models.Coordinates{Latitude: *lat, Longitude: *lng}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func translateValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	fe := fieldErrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		msg = field + " must be a valid UUID"
	case "url":
		msg = field + " must be an absolute URL"
	default:
		msg = field + " is invalid"
	}
	return appErrors.Validation(field, msg)
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
