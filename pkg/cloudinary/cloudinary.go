package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores complaint attachments in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the file to Cloudinary under key and returns a secure URL.
func (s *Service) Upload(ctx context.Context, key, contentType string, reader io.Reader) (string, error) {
	params := UploadParams(s.folder, key, contentType)

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// UploadParams maps an object key onto Cloudinary folder and public id. PDFs are
// stored as raw assets so they download unchanged.
func UploadParams(folder, key, contentType string) uploader.UploadParams {
	key = strings.Trim(key, "/")
	dir, file := path.Split(key)

	publicID := strings.TrimSuffix(file, path.Ext(file))
	resourceType := "image"
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		resourceType = "raw"
		publicID = file
	}

	parts := make([]string, 0, 2)
	if trimmed := strings.Trim(folder, "/"); trimmed != "" {
		parts = append(parts, trimmed)
	}
	if trimmed := strings.Trim(dir, "/"); trimmed != "" {
		parts = append(parts, trimmed)
	}

	return uploader.UploadParams{
		Folder:       strings.Join(parts, "/"),
		PublicID:     publicID,
		ResourceType: resourceType,
	}
}
