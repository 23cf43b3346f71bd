package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

type objectStoreStub struct {
	mu           sync.Mutex
	keys         []string
	contentTypes map[string]string
	failOn       string
}

func (s *objectStoreStub) Upload(ctx context.Context, key, contentType string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	if s.failOn != "" && strings.HasSuffix(key, s.failOn) {
		return "", errors.New("bucket unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	if s.contentTypes == nil {
		s.contentTypes = make(map[string]string)
	}
	s.contentTypes[key] = contentType
	return "https://files.campus.test/" + key, nil
}

func (s *objectStoreStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

func newComplaintServiceFixture(t *testing.T, cache *redis.Client) (*gorm.DB, *objectStoreStub, *complaintService, Session) {
	t.Helper()
	db := setupServiceDB(t)
	student := createProfile(t, db, "Amina Otieno", "amina@campus.test", models.RoleStudent, "STU-1001")
	store := &objectStoreStub{}

	svc := NewComplaintService(repository.NewComplaintRepository(db), store, cache, testValidator(), ComplaintServiceConfig{}, testLogger()).(*complaintService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	session := NewSession(Identity{UserID: student.ID}, student)
	return db, store, svc, session
}

func TestAttachmentPolicySizeBoundary(t *testing.T) {
	policy := AttachmentPolicy{}

	contentType, ext, err := policy.Check("scan.png", "image/png", DefaultAttachmentMaxBytes, pngHeader)
	require.NoError(t, err)
	require.Equal(t, "image/png", contentType)
	require.Equal(t, ".png", ext)

	_, _, err = policy.Check("scan.png", "image/png", DefaultAttachmentMaxBytes+1, pngHeader)
	require.ErrorIs(t, err, ErrAttachmentTooLarge)
}

func TestAttachmentPolicyTypes(t *testing.T) {
	policy := AttachmentPolicy{MaxBytes: 1024}

	_, _, err := policy.Check("notes.pdf", "application/pdf", int64(len(pdfHeader)), pdfHeader)
	require.NoError(t, err)

	_, _, err = policy.Check("notes.txt", "text/plain", 10, []byte("plain text"))
	require.ErrorIs(t, err, ErrAttachmentTypeNotAllowed)

	_, _, err = policy.Check("fake.png", "image/png", 10, []byte("plain text"))
	require.ErrorIs(t, err, ErrAttachmentTypeNotAllowed)

	_, ext, err := policy.Check("noext", "application/pdf", int64(len(pdfHeader)), pdfHeader)
	require.NoError(t, err)
	require.Equal(t, ".pdf", ext)
}

func TestAttachmentPolicyExtensionFollowsContent(t *testing.T) {
	policy := AttachmentPolicy{MaxBytes: 1024}

	_, ext, err := policy.Check("scan.html", "image/png", int64(len(pngHeader)), pngHeader)
	require.NoError(t, err)
	require.Equal(t, ".png", ext)

	_, ext, err = policy.Check("receipt.PNG", "application/pdf", int64(len(pdfHeader)), pdfHeader)
	require.NoError(t, err)
	require.Equal(t, ".pdf", ext)

	_, ext, err = policy.Check("photo.JPEG", "image/jpeg", int64(len(jpegHeader)), jpegHeader)
	require.NoError(t, err)
	require.Equal(t, ".jpeg", ext)
}

func TestComplaintServiceSubmitStoresSniffedExtension(t *testing.T) {
	_, store, svc, session := newComplaintServiceFixture(t, nil)

	files := buildAttachmentHeaders(t, testFile{name: "scan.html", contentType: "image/png", content: pngHeader})
	resp, err := svc.Submit(context.Background(), session, dto.ComplaintCreateRequest{
		Title:       "Broken projector",
		Category:    models.CategoryAcademic,
		Description: "Lecture hall 2 projector flickers",
	}, files)
	require.NoError(t, err)

	require.Equal(t, []string{"https://files.campus.test/1/1700000000000-0.png"}, resp.Complaint.AttachmentURLs)
	require.Equal(t, "image/png", store.contentTypes["1/1700000000000-0.png"])
}

func TestAttachmentPolicyAcceptReadsExactLimit(t *testing.T) {
	limit := DefaultAttachmentMaxBytes
	exact := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, int(limit)-len(pngHeader))...)
	over := append(append([]byte{}, exact...), 0)

	headers := buildAttachmentHeaders(t,
		testFile{name: "exact.png", contentType: "image/png", content: exact},
		testFile{name: "over.png", contentType: "image/png", content: over},
	)

	attachment, err := AttachmentPolicy{}.Accept(headers[0])
	require.NoError(t, err)
	require.Equal(t, limit, attachment.Size)

	_, err = AttachmentPolicy{}.Accept(headers[1])
	require.ErrorIs(t, err, ErrAttachmentTooLarge)
}

func TestComplaintServiceSubmitValidatesBeforeAnyCall(t *testing.T) {
	db, store, svc, session := newComplaintServiceFixture(t, nil)

	files := buildAttachmentHeaders(t, testFile{name: "photo.png", contentType: "image/png", content: pngHeader})
	_, err := svc.Submit(context.Background(), session, dto.ComplaintCreateRequest{Title: "   ", Category: models.CategoryHostel, Description: "Leaking roof"}, files)
	require.ErrorIs(t, err, ErrMissingInformation)

	_, err = svc.Submit(context.Background(), session, dto.ComplaintCreateRequest{Title: "Roof", Category: "weather", Description: "Leaking roof"}, files)
	require.ErrorIs(t, err, ErrMissingInformation)

	require.Zero(t, store.calls())
	var count int64
	require.NoError(t, db.Model(&models.Complaint{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestComplaintServiceSubmitCreatesPendingComplaint(t *testing.T) {
	db, store, svc, session := newComplaintServiceFixture(t, nil)

	files := buildAttachmentHeaders(t,
		testFile{name: "photo.png", contentType: "image/png", content: pngHeader},
		testFile{name: "notes.txt", contentType: "text/plain", content: []byte("hello")},
		testFile{name: "receipt.pdf", contentType: "application/pdf", content: pdfHeader},
	)

	resp, err := svc.Submit(context.Background(), session, dto.ComplaintCreateRequest{
		Title:       "  Wifi down ",
		Category:    models.CategoryHostel,
		Description: "No internet in block C",
	}, files)
	require.NoError(t, err)

	require.Equal(t, "Wifi down", resp.Complaint.Title)
	require.Equal(t, models.StatusPending, resp.Complaint.Status)
	require.Equal(t, session.UserID, resp.Complaint.StudentID)
	require.Equal(t, []string{
		"https://files.campus.test/" + "1/1700000000000-0.png",
		"https://files.campus.test/" + "1/1700000000000-1.pdf",
	}, resp.Complaint.AttachmentURLs)
	require.Equal(t, "image/png", store.contentTypes["1/1700000000000-0.png"])

	require.Len(t, resp.Notices, 1)
	require.Equal(t, "Invalid file type", resp.Notices[0].Title)
	require.Equal(t, "notes.txt is not a valid file type. Please upload images or PDF files only.", resp.Notices[0].Description)

	var stored models.Complaint
	require.NoError(t, db.First(&stored, resp.Complaint.ID).Error)
	require.Equal(t, models.StatusPending, stored.Status)
	require.Nil(t, stored.AdminRemarks)
	require.Len(t, stored.AttachmentURLs, 2)
}

func TestComplaintServiceSubmitTooLargeNotice(t *testing.T) {
	_, store, svc, session := newComplaintServiceFixture(t, nil)
	svc.policy = AttachmentPolicy{MaxBytes: 8}

	files := buildAttachmentHeaders(t, testFile{name: "big.png", contentType: "image/png", content: pngHeader})
	resp, err := svc.Submit(context.Background(), session, dto.ComplaintCreateRequest{Title: "Noise", Category: models.CategoryOther, Description: "Loud music"}, files)
	require.NoError(t, err)
	require.Empty(t, resp.Complaint.AttachmentURLs)
	require.Len(t, resp.Notices, 1)
	require.Equal(t, "File too large", resp.Notices[0].Title)
	require.True(t, strings.HasPrefix(resp.Notices[0].Description, "big.png is too large."))
	require.Zero(t, store.calls())
}

func TestComplaintServiceSubmitUploadFailureKeepsNoRecord(t *testing.T) {
	mini := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db, store, svc, session := newComplaintServiceFixture(t, cache)
	store.failOn = "-1.pdf"

	files := buildAttachmentHeaders(t,
		testFile{name: "photo.png", contentType: "image/png", content: pngHeader},
		testFile{name: "receipt.pdf", contentType: "application/pdf", content: pdfHeader},
	)
	req := dto.ComplaintCreateRequest{Title: "Fee refund", Category: models.CategoryFinance, Description: "Charged twice"}

	_, err := svc.Submit(context.Background(), session, req, files)
	require.ErrorIs(t, err, ErrAttachmentUpload)
	require.Contains(t, err.Error(), "bucket unavailable")

	var count int64
	require.NoError(t, db.Model(&models.Complaint{}).Count(&count).Error)
	require.Zero(t, count)

	store.failOn = ""
	_, err = svc.Submit(context.Background(), session, req, files)
	require.NoError(t, err)
}

func TestComplaintServiceSubmitRejectsDuplicate(t *testing.T) {
	mini := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db, _, svc, session := newComplaintServiceFixture(t, cache)
	req := dto.ComplaintCreateRequest{Title: "Exam clash", Category: models.CategoryAcademic, Description: "Two papers at once"}

	_, err := svc.Submit(context.Background(), session, req, nil)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), session, req, nil)
	require.ErrorIs(t, err, ErrDuplicateSubmission)

	mini.FastForward(31 * time.Second)
	_, err = svc.Submit(context.Background(), session, req, nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Complaint{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}
