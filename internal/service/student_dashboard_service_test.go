package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

type failingComplaintRepo struct {
	repository.ComplaintRepository
}

func (failingComplaintRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Complaint, error) {
	return nil, errors.New("connection refused")
}

func TestStudentDashboardServiceScopesToOwner(t *testing.T) {
	db := setupServiceDB(t)
	amina := createProfile(t, db, "Amina Otieno", "amina@campus.test", models.RoleStudent, "STU-1001")
	brian := createProfile(t, db, "Brian Mwangi", "brian@campus.test", models.RoleStudent, "STU-1002")

	base := time.Now().Add(-time.Hour).UTC()
	createComplaint(t, db, models.Complaint{StudentID: amina.ID, Title: "Wifi down", Description: "No internet", Category: models.CategoryHostel, CreatedAt: base})
	createComplaint(t, db, models.Complaint{StudentID: amina.ID, Title: "Fee refund", Description: "Charged twice", Category: models.CategoryFinance, Status: models.StatusResolved, CreatedAt: base.Add(time.Minute)})
	createComplaint(t, db, models.Complaint{StudentID: brian.ID, Title: "Wifi slow", Description: "Library", Category: models.CategoryHostel, CreatedAt: base.Add(2 * time.Minute)})

	svc := NewStudentDashboardService(repository.NewComplaintRepository(db), testValidator(), testLogger())
	session := NewSession(Identity{UserID: amina.ID}, amina)

	dashboard, err := svc.GetDashboard(context.Background(), session, dto.ComplaintFilter{Search: "WIFI", Status: "all", Category: models.CategoryHostel})
	require.NoError(t, err)

	require.Equal(t, dto.ComplaintSummary{Total: 2, Pending: 1, Resolved: 1}, dashboard.Summary)
	require.Equal(t, 1, dashboard.TotalFiltered)
	require.Equal(t, "Wifi down", dashboard.Complaints[0].Title)
	require.Nil(t, dashboard.Complaints[0].Student)

	all, err := svc.GetDashboard(context.Background(), session, dto.ComplaintFilter{})
	require.NoError(t, err)
	require.Equal(t, "Fee refund", all.Complaints[0].Title)
	require.Equal(t, "Wifi down", all.Complaints[1].Title)
}

func TestStudentDashboardServiceRejectsUnknownFilter(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewStudentDashboardService(repository.NewComplaintRepository(db), testValidator(), testLogger())

	_, err := svc.GetDashboard(context.Background(), Session{UserID: 1}, dto.ComplaintFilter{Category: "parking"})
	require.Error(t, err)
	require.True(t, isValidationErr(err))
}

func TestStudentDashboardServiceSurfacesBackendError(t *testing.T) {
	svc := NewStudentDashboardService(failingComplaintRepo{}, testValidator(), testLogger())

	_, err := svc.GetDashboard(context.Background(), Session{UserID: 1}, dto.ComplaintFilter{})
	require.EqualError(t, err, "failed to fetch complaints: connection refused")
}
