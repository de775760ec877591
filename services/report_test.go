package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dababah/fithub-app/models"
)

func TestBuildMembersReport(t *testing.T) {
	setupTestDB(t)

	createTestMember(t, "r1@example.com", &MembershipInput{
		Status:      models.MembershipActive,
		PackageName: strPtr("Gold"),
		StartDate:   strPtr("2026-08-01"),
		EndDate:     strPtr("2026-09-01"),
	})
	createTestMember(t, "r2@example.com", nil)

	report, err := BuildMembersReport()
	require.NoError(t, err)
	require.NotEmpty(t, report)
	assert.Equal(t, "%PDF", string(report[:4]))
}

func TestBuildMembersReportEmpty(t *testing.T) {
	setupTestDB(t)

	report, err := BuildMembersReport()
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(report[:4]))
}
