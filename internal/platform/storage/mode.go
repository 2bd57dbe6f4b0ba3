package storage

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type Mode string

const (
	ModeLocal       Mode = "local"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeS3          Mode = "s3"
)

// Config selects and parameterizes the contact image backend.
type Config struct {
	Mode                  Mode
	EmulatorHost          string
	CompatibilityFallback bool

	LocalDir        string
	LocalPublicPath string

	GCSBucket    string
	GCSCDNDomain string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string

	PublicBaseURL string
}

func IsSupportedMode(mode Mode) bool {
	switch mode {
	case ModeLocal, ModeGCS, ModeGCSEmulator, ModeS3:
		return true
	default:
		return false
	}
}

func (cfg Config) IsEmulatorMode() bool { return cfg.Mode == ModeGCSEmulator }

func (cfg Config) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorInvalidPublicURL    ConfigErrorCode = "invalid_public_base_url"
)

type ConfigError struct {
	Code         ConfigErrorCode
	Mode         string
	EmulatorHost string
	Value        string
	Cause        error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf(
			"invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q, %q)",
			e.Mode, ModeLocal, ModeGCS, ModeGCSEmulator, ModeS3,
		)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires a bucket name (%s)", e.Mode, e.Value)
	case ConfigErrorInvalidPublicURL:
		return fmt.Sprintf("invalid public base URL %q; expected absolute URL like http://localhost:4443", e.Value)
	default:
		return "invalid object storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func env(name string) string { return strings.TrimSpace(os.Getenv(name)) }

// ResolveConfigFromEnv reads OBJECT_STORAGE_MODE and the backend-specific
// variables. An unset mode with STORAGE_EMULATOR_HOST present selects the
// emulator; otherwise the local disk store is the default.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		EmulatorHost:    env("STORAGE_EMULATOR_HOST"),
		LocalDir:        env("UPLOAD_DIR"),
		LocalPublicPath: env("UPLOADS_PUBLIC_PATH"),
		GCSBucket:       env("CONTACT_IMAGE_GCS_BUCKET_NAME"),
		GCSCDNDomain:    env("CONTACT_IMAGE_CDN_DOMAIN"),
		S3Bucket:        env("CONTACT_IMAGE_S3_BUCKET"),
		S3Region:        env("AWS_REGION"),
		S3Endpoint:      env("S3_ENDPOINT"),
		S3PublicBaseURL: env("S3_PUBLIC_BASE_URL"),
		PublicBaseURL:   env("OBJECT_STORAGE_PUBLIC_BASE_URL"),
	}
	if cfg.LocalDir == "" {
		cfg.LocalDir = "uploads"
	}
	if cfg.LocalPublicPath == "" {
		cfg.LocalPublicPath = "/uploads"
	}
	if cfg.S3Bucket == "" {
		cfg.S3Bucket = env("BUCKET_NAME")
	}

	rawMode := env("OBJECT_STORAGE_MODE")
	mode := Mode(strings.ToLower(rawMode))
	switch {
	case mode == "" && cfg.EmulatorHost != "":
		cfg.Mode = ModeGCSEmulator
		cfg.CompatibilityFallback = true
	case mode == "":
		cfg.Mode = ModeLocal
	case IsSupportedMode(mode):
		cfg.Mode = mode
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Mode: rawMode}
	}

	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if !IsSupportedMode(cfg.Mode) {
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return &ConfigError{Code: ConfigErrorInvalidPublicURL, Mode: string(cfg.Mode), Value: cfg.PublicBaseURL}
	}

	switch cfg.Mode {
	case ModeGCS:
		if cfg.GCSBucket == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode), Value: "CONTACT_IMAGE_GCS_BUCKET_NAME"}
		}
	case ModeGCSEmulator:
		if cfg.EmulatorHost == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
		}
		if !isAbsoluteURL(cfg.EmulatorHost) {
			return &ConfigError{Code: ConfigErrorInvalidEmulatorHost, Mode: string(cfg.Mode), EmulatorHost: cfg.EmulatorHost}
		}
		if cfg.GCSBucket == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode), Value: "CONTACT_IMAGE_GCS_BUCKET_NAME"}
		}
	case ModeS3:
		if cfg.S3Bucket == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode), Value: "CONTACT_IMAGE_S3_BUCKET"}
		}
		if cfg.S3PublicBaseURL != "" && !isAbsoluteURL(cfg.S3PublicBaseURL) {
			return &ConfigError{Code: ConfigErrorInvalidPublicURL, Mode: string(cfg.Mode), Value: cfg.S3PublicBaseURL}
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
