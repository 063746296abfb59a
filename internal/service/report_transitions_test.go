package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

var (
	creatorActor  = &models.Actor{Email: "owner@wit.edu", Name: "Owner"}
	strangerActor = &models.Actor{Email: "someone@wit.edu", Name: "Someone"}
	adminActor    = &models.Actor{Email: "admin@wit.edu", Name: "Admin", IsAdmin: true}
)

func reportIn(status models.ReportStatus) *models.Report {
	return &models.Report{
		ID:             "11111111-2222-3333-4444-555555555555",
		DocKey:         "doc-1",
		Status:         status,
		CreatedByEmail: creatorActor.Email,
	}
}

func TestCheckTransitionSameStateIsInvalid(t *testing.T) {
	for _, status := range []models.ReportStatus{
		models.ReportStatusPending, models.ReportStatusApproved, models.ReportStatusDenied,
		models.ReportStatusResolved, models.ReportStatusClosed,
	} {
		err := CheckTransition(reportIn(status), status, adminActor)
		assert.ErrorIs(t, err, appErrors.ErrInvalidTransition, string(status))
	}
}

func TestCheckTransitionIllegalEdgesForEveryActor(t *testing.T) {
	cases := []struct {
		from, to models.ReportStatus
	}{
		{models.ReportStatusDenied, models.ReportStatusApproved},
		{models.ReportStatusResolved, models.ReportStatusPending},
		{models.ReportStatusApproved, models.ReportStatusPending},
		{models.ReportStatusClosed, models.ReportStatusApproved},
		{models.ReportStatusApproved, models.ReportStatusDenied},
	}
	actors := []*models.Actor{adminActor, creatorActor, strangerActor, models.SystemActor()}
	for _, tc := range cases {
		for _, actor := range actors {
			err := CheckTransition(reportIn(tc.from), tc.to, actor)
			require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
			assert.Contains(t, err.Error(), string(tc.from))
			assert.Contains(t, err.Error(), string(tc.to))
		}
	}
}

func TestCheckTransitionAuthorization(t *testing.T) {
	assert.NoError(t, CheckTransition(reportIn(models.ReportStatusPending), models.ReportStatusApproved, adminActor))
	assert.ErrorIs(t, CheckTransition(reportIn(models.ReportStatusPending), models.ReportStatusApproved, creatorActor), appErrors.ErrForbidden)
	assert.ErrorIs(t, CheckTransition(reportIn(models.ReportStatusPending), models.ReportStatusDenied, strangerActor), appErrors.ErrForbidden)

	assert.NoError(t, CheckTransition(reportIn(models.ReportStatusPending), models.ReportStatusResolved, creatorActor))
	assert.ErrorIs(t, CheckTransition(reportIn(models.ReportStatusPending), models.ReportStatusResolved, strangerActor), appErrors.ErrForbidden)

	assert.NoError(t, CheckTransition(reportIn(models.ReportStatusApproved), models.ReportStatusClosed, models.SystemActor()))
	assert.ErrorIs(t, CheckTransition(reportIn(models.ReportStatusApproved), models.ReportStatusClosed, adminActor), appErrors.ErrForbidden)
}

func TestCheckTransitionCreatorMatchIsCaseInsensitive(t *testing.T) {
	actor := &models.Actor{Email: "OWNER@wit.edu"}
	assert.NoError(t, CheckTransition(reportIn(models.ReportStatusApproved), models.ReportStatusResolved, actor))
}

func TestPlanTransitionApproveStampsReview(t *testing.T) {
	now := time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC)
	params, err := PlanTransition(reportIn(models.ReportStatusPending), models.ReportStatusApproved, adminActor, now)
	require.NoError(t, err)

	assert.Equal(t, "doc-1", params.DocKey)
	assert.Equal(t, models.ReportStatusPending, params.Expected)
	assert.Equal(t, models.ReportStatusApproved, params.Status)
	require.NotNil(t, params.ReviewedAt)
	assert.True(t, params.ReviewedAt.Equal(now))
	require.NotNil(t, params.ReviewedBy)
	assert.Equal(t, adminActor.Email, *params.ReviewedBy)
	assert.Nil(t, params.UpdatedAt)
}

func TestPlanTransitionCreatorResolveLeavesReviewUntouched(t *testing.T) {
	now := time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC)
	params, err := PlanTransition(reportIn(models.ReportStatusPending), models.ReportStatusResolved, creatorActor, now)
	require.NoError(t, err)
	assert.Nil(t, params.ReviewedBy)
	assert.Nil(t, params.ReviewedAt)
	require.NotNil(t, params.UpdatedAt)

	reviewedAt := now.Add(-time.Hour)
	reviewer := "admin@wit.edu"
	approved := reportIn(models.ReportStatusApproved)
	approved.ReviewedAt = &reviewedAt
	approved.ReviewedBy = &reviewer
	params, err = PlanTransition(approved, models.ReportStatusResolved, creatorActor, now)
	require.NoError(t, err)
	assert.Equal(t, &reviewer, params.ReviewedBy)
	assert.Equal(t, &reviewedAt, params.ReviewedAt)
}

func TestPlanTransitionAdminResolveStampsReview(t *testing.T) {
	now := time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC)
	params, err := PlanTransition(reportIn(models.ReportStatusApproved), models.ReportStatusResolved, adminActor, now)
	require.NoError(t, err)
	require.NotNil(t, params.ReviewedBy)
	assert.Equal(t, adminActor.Email, *params.ReviewedBy)
	require.NotNil(t, params.UpdatedAt)
}

func TestPlanTransitionCloseOnlySetsUpdatedAt(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	params, err := PlanTransition(reportIn(models.ReportStatusApproved), models.ReportStatusClosed, models.SystemActor(), now)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusClosed, params.Status)
	assert.Nil(t, params.ReviewedBy)
	require.NotNil(t, params.UpdatedAt)
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal(models.ReportStatusDenied))
	assert.True(t, IsTerminal(models.ReportStatusResolved))
	assert.True(t, IsTerminal(models.ReportStatusClosed))
	assert.False(t, IsTerminal(models.ReportStatusPending))
	assert.Equal(t, []models.ReportStatus{models.ReportStatusClosed, models.ReportStatusResolved}, AllowedTargets(models.ReportStatusApproved))
}

func TestIllegalTransitionExplainsAlternatives(t *testing.T) {
	err := CheckTransition(reportIn(models.ReportStatusApproved), models.ReportStatusDenied, adminActor)
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "allowed: closed, resolved")

	err = CheckTransition(reportIn(models.ReportStatusResolved), models.ReportStatusApproved, adminActor)
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "resolved reports can no longer change")

	err = CheckTransition(reportIn(models.ReportStatusPending), models.ReportStatusPending, adminActor)
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.NotContains(t, err.Error(), "allowed")
}
