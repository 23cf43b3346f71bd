package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Object store providers supported for complaint attachments.
const (
	StorageCloudinary = "cloudinary"
	StorageS3         = "s3"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	DatabaseURL string
	RedisURL    string
	NATSURL     string
	EventsBase  string

	JWTSecret string
	LoginPath string

	StorageProvider        string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	S3Bucket               string
	S3Region               string
	S3Endpoint             string
	S3AccessKey            string
	S3SecretKey            string
	S3PublicBaseURL        string

	SendgridAPIKey string
	MailFromName   string
	MailFromEmail  string

	AttachmentMaxBytes int64
	SubmitRateLimit    int
	SubmitRateWindow   time.Duration
	SubmitDedupeWindow time.Duration
	SeedEnabled        bool
	SeedToken          string
	SeedDemoProfiles   bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COMPLAINTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Campus Complaint Desk")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("auth.login_path", "/auth")
	v.SetDefault("events.base", "complaints")
	v.SetDefault("storage.provider", StorageCloudinary)
	v.SetDefault("cloudinary.folder", "complaint-attachments")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("mail.from_name", "Complaint Desk")
	v.SetDefault("attachments.max_bytes", 5*1024*1024)
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("submit.rate_window", "1m")
	v.SetDefault("submit.dedupe_window", "30s")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("seed.demo_profiles", false)

	rateWindow, err := parseDuration(v.GetString("submit.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit rate window: %w", err)
	}

	dedupeWindow, err := parseDuration(v.GetString("submit.dedupe_window"), 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit dedupe window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsBase:             v.GetString("events.base"),
		JWTSecret:              v.GetString("jwt.secret"),
		LoginPath:              v.GetString("auth.login_path"),
		StorageProvider:        strings.ToLower(strings.TrimSpace(v.GetString("storage.provider"))),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		S3Bucket:               v.GetString("s3.bucket"),
		S3Region:               v.GetString("s3.region"),
		S3Endpoint:             v.GetString("s3.endpoint"),
		S3AccessKey:            v.GetString("s3.access_key"),
		S3SecretKey:            v.GetString("s3.secret_key"),
		S3PublicBaseURL:        v.GetString("s3.public_base_url"),
		SendgridAPIKey:         v.GetString("sendgrid.api_key"),
		MailFromName:           v.GetString("mail.from_name"),
		MailFromEmail:          v.GetString("mail.from_email"),
		AttachmentMaxBytes:     v.GetInt64("attachments.max_bytes"),
		SubmitRateLimit:        v.GetInt("submit.rate_limit"),
		SubmitRateWindow:       rateWindow,
		SubmitDedupeWindow:     dedupeWindow,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		SeedDemoProfiles:       v.GetBool("seed.demo_profiles"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageProvider {
	case StorageCloudinary, StorageS3:
	default:
		return Config{}, fmt.Errorf("unsupported storage provider %q", cfg.StorageProvider)
	}

	if cfg.AttachmentMaxBytes <= 0 {
		cfg.AttachmentMaxBytes = 5 * 1024 * 1024
	}

	if cfg.LoginPath == "" {
		cfg.LoginPath = "/auth"
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
