package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/observability"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

// DefaultAttachmentMaxBytes is the inclusive attachment size limit.
const DefaultAttachmentMaxBytes int64 = 5 * 1024 * 1024

var (
	// ErrMissingInformation indicates a required complaint field is blank or invalid.
	ErrMissingInformation = errors.New("missing information: please fill in all required fields")
	// ErrAttachmentTypeNotAllowed indicates the file is neither an image nor a PDF.
	ErrAttachmentTypeNotAllowed = errors.New("attachment type not allowed")
	// ErrAttachmentTooLarge indicates the file exceeds the size limit.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum allowed size")
	// ErrAttachmentUpload indicates the object store refused an attachment.
	ErrAttachmentUpload = errors.New("failed to upload attachment")
	// ErrDuplicateSubmission indicates the same complaint was submitted moments ago.
	ErrDuplicateSubmission = errors.New("duplicate complaint submission")
)

// ObjectStore persists attachment bytes and returns a publicly retrievable URL.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, reader io.Reader) (string, error)
}

// AttachmentPolicy decides which files may be attached to a complaint.
type AttachmentPolicy struct {
	MaxBytes int64
}

// Attachment is a file that passed the policy and waits to be uploaded.
type Attachment struct {
	Name        string
	ContentType string
	Extension   string
	Size        int64
	data        []byte
}

// Check validates the declared type, the size and the sniffed content of a file.
// It returns the detected content type and the extension to store the file under.
func (p AttachmentPolicy) Check(name, declaredType string, size int64, head []byte) (string, string, error) {
	if !isAttachmentType(declaredType) {
		return "", "", ErrAttachmentTypeNotAllowed
	}

	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultAttachmentMaxBytes
	}
	if size > limit {
		return "", "", ErrAttachmentTooLarge
	}

	detected := mimetype.Detect(head)
	contentType := strings.ToLower(strings.SplitN(detected.String(), ";", 2)[0])
	if !isAttachmentType(contentType) {
		return "", "", ErrAttachmentTypeNotAllowed
	}

	// The stored key follows the sniffed content. The filename's extension is
	// kept only when it names the same type, so photo.jpeg stays .jpeg.
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || !detected.Is(mime.TypeByExtension(ext)) {
		ext = detected.Extension()
	}

	return contentType, ext, nil
}

// Accept opens a multipart file, reads it fully and applies the policy.
func (p AttachmentPolicy) Accept(file *multipart.FileHeader) (Attachment, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultAttachmentMaxBytes
	}

	declared := file.Header.Get("Content-Type")
	if !isAttachmentType(declared) {
		return Attachment{}, ErrAttachmentTypeNotAllowed
	}
	if file.Size > limit {
		return Attachment{}, ErrAttachmentTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return Attachment{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, limit+1)); err != nil {
		return Attachment{}, err
	}

	contentType, ext, err := p.Check(file.Filename, declared, int64(buf.Len()), buf.Bytes())
	if err != nil {
		return Attachment{}, err
	}

	return Attachment{
		Name:        file.Filename,
		ContentType: contentType,
		Extension:   ext,
		Size:        int64(buf.Len()),
		data:        buf.Bytes(),
	}, nil
}

// ComplaintService files new complaints on behalf of students.
type ComplaintService interface {
	Submit(ctx context.Context, session Session, req dto.ComplaintCreateRequest, files []*multipart.FileHeader) (dto.ComplaintSubmissionResponse, error)
}

type complaintService struct {
	complaints repository.ComplaintRepository
	store      ObjectStore
	cache      *redis.Client
	validator  *validator.Validate
	policy     AttachmentPolicy
	dedupeTTL  time.Duration
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// ComplaintServiceConfig tunes the complaint form.
type ComplaintServiceConfig struct {
	MaxAttachmentBytes int64
	DedupeWindow       time.Duration
}

// NewComplaintService constructs the complaint submission workflow. cache may be nil.
func NewComplaintService(complaints repository.ComplaintRepository, store ObjectStore, cache *redis.Client, validate *validator.Validate, cfg ComplaintServiceConfig, logger zerolog.Logger) ComplaintService {
	ttl := cfg.DedupeWindow
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &complaintService{
		complaints: complaints,
		store:      store,
		cache:      cache,
		validator:  validate,
		policy:     AttachmentPolicy{MaxBytes: cfg.MaxAttachmentBytes},
		dedupeTTL:  ttl,
		logger:     logger.With().Str("component", "complaint_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/campus-complaints-api/internal/service/complaint"),
		now:        time.Now,
	}
}

func (s *complaintService) Submit(ctx context.Context, session Session, req dto.ComplaintCreateRequest, files []*multipart.FileHeader) (dto.ComplaintSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.submit")
	defer span.End()

	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ComplaintSubmissionResponse{}, fmt.Errorf("%w: %w", ErrMissingInformation, err)
	}

	notices := make([]dto.Notice, 0)
	accepted := make([]Attachment, 0, len(files))
	for _, file := range files {
		if file == nil {
			continue
		}
		attachment, err := s.policy.Accept(file)
		switch {
		case err == nil:
			accepted = append(accepted, attachment)
		case errors.Is(err, ErrAttachmentTypeNotAllowed):
			observability.AttachmentsRejected().WithLabelValues("type").Inc()
			notices = append(notices, dto.Notice{
				Title:       "Invalid file type",
				Description: fmt.Sprintf("%s is not a valid file type. Please upload images or PDF files only.", file.Filename),
				Variant:     "destructive",
			})
		case errors.Is(err, ErrAttachmentTooLarge):
			observability.AttachmentsRejected().WithLabelValues("size").Inc()
			notices = append(notices, dto.Notice{
				Title:       "File too large",
				Description: fmt.Sprintf("%s is too large. Please upload files smaller than %s.", file.Filename, humanSize(s.policy.MaxBytes)),
				Variant:     "destructive",
			})
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "read failed")
			return dto.ComplaintSubmissionResponse{}, err
		}
	}

	span.SetAttributes(
		attribute.Int("complaint.attachments_accepted", len(accepted)),
		attribute.Int("complaint.attachments_rejected", len(notices)),
		attribute.String("complaint.category", req.Category),
	)

	release, err := s.acquireSubmission(ctx, session.UserID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dedupe rejected")
		return dto.ComplaintSubmissionResponse{}, err
	}

	urls, err := s.uploadAll(ctx, session.UserID, accepted)
	if err != nil {
		release()
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return dto.ComplaintSubmissionResponse{}, err
	}

	complaint := models.Complaint{
		StudentID:      session.UserID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Status:         models.StatusPending,
		AttachmentURLs: urls,
	}
	if err := s.complaints.Create(ctx, &complaint); err != nil {
		release()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ComplaintSubmissionResponse{}, fmt.Errorf("failed to submit complaint: %w", err)
	}

	observability.ComplaintsSubmitted().WithLabelValues(complaint.Category).Inc()
	s.logger.Info().
		Uint("complaint_id", complaint.ID).
		Uint("student_id", session.UserID).
		Str("category", complaint.Category).
		Int("attachments", len(urls)).
		Msg("complaint submitted")
	span.SetStatus(codes.Ok, "submitted")

	return dto.ComplaintSubmissionResponse{
		Complaint: dto.NewComplaintResponse(complaint),
		Notices:   notices,
	}, nil
}

func (s *complaintService) acquireSubmission(ctx context.Context, userID uint, req dto.ComplaintCreateRequest) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("complaint:dedupe:%d:%s", userID, submissionChecksum(req.Title, req.Category, req.Description))
	ok, err := s.cache.SetNX(ctx, key, 1, s.dedupeTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDuplicateSubmission
	}

	return func() {
		if err := s.cache.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to release submission guard")
		}
	}, nil
}

func (s *complaintService) uploadAll(ctx context.Context, userID uint, attachments []Attachment) ([]string, error) {
	urls := make([]string, len(attachments))
	if len(attachments) == 0 {
		return urls, nil
	}

	stamp := s.now().UnixMilli()
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range attachments {
		attachment := attachments[i]
		index := i
		group.Go(func() error {
			start := time.Now()
			key := fmt.Sprintf("%d/%d-%d%s", userID, stamp, index, attachment.Extension)
			url, err := s.store.Upload(groupCtx, key, attachment.ContentType, bytes.NewReader(attachment.data))
			observability.AttachmentUploadLatency().Observe(time.Since(start).Seconds())
			if err != nil {
				return fmt.Errorf("%w %s: %v", ErrAttachmentUpload, attachment.Name, err)
			}
			urls[index] = url
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func submissionChecksum(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		hasher.Write([]byte("|"))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func isAttachmentType(contentType string) bool {
	lower := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return strings.HasPrefix(lower, "image/") || lower == "application/pdf"
}

func humanSize(limit int64) string {
	if limit <= 0 {
		limit = DefaultAttachmentMaxBytes
	}
	if limit%(1024*1024) == 0 {
		return fmt.Sprintf("%dMB", limit/(1024*1024))
	}
	return fmt.Sprintf("%d bytes", limit)
}
