package service

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

var pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.Complaint{}, &models.ComplaintStatusHistory{}))
	return db
}

func createProfile(t *testing.T, db *gorm.DB, name, email, role, number string) models.Profile {
	t.Helper()
	profile := models.Profile{FullName: name, Email: email, Role: role, StudentNumber: number}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func createComplaint(t *testing.T, db *gorm.DB, complaint models.Complaint) models.Complaint {
	t.Helper()
	if complaint.Status == "" {
		complaint.Status = models.StatusPending
	}
	if complaint.Category == "" {
		complaint.Category = models.CategoryOther
	}
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now().UTC()
	}
	if complaint.UpdatedAt.IsZero() {
		complaint.UpdatedAt = complaint.CreatedAt
	}
	require.NoError(t, db.Omit("Student").Create(&complaint).Error)
	return complaint
}

type testFile struct {
	name        string
	contentType string
	content     []byte
}

func buildAttachmentHeaders(t *testing.T, files ...testFile) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, file := range files {
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {"form-data; name=\"attachments\"; filename=\"" + file.name + "\""},
			"Content-Type":        {file.contentType},
		})
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["attachments"]
}

func stringPointer(value string) *string {
	return &value
}

func isValidationErr(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}
