package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
)

var newObjectStore = storage.New

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorInvalidConfig       StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveObjectStore builds the contact image backend and logs which one was
// selected. Every failure comes back as a *StorageProviderBootstrapError.
func resolveObjectStore(ctx context.Context, log *logger.Logger, cfg storage.Config) (storage.ObjectStore, error) {
	log.Info(
		"Selecting object storage provider",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
	)

	store, err := newObjectStore(ctx, log, cfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(cfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", cfg.Mode,
			"mode_source", cfg.ModeSource(),
			"emulator_host", cfg.EmulatorHost,
			"error_code", classified.Code,
			"error", classified,
		)
		return nil, classified
	}
	return store, nil
}

func classifyStorageProviderBootstrapError(cfg storage.Config, err error) *StorageProviderBootstrapError {
	out := &StorageProviderBootstrapError{
		Code:         StorageProviderBootstrapErrorConnectFailed,
		Mode:         string(cfg.Mode),
		EmulatorHost: cfg.EmulatorHost,
		Cause:        err,
	}
	var cfgErr *storage.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case storage.ConfigErrorInvalidMode:
			out.Code = StorageProviderBootstrapErrorInvalidMode
		case storage.ConfigErrorMissingEmulatorHost:
			out.Code = StorageProviderBootstrapErrorMissingEmulatorHost
		case storage.ConfigErrorInvalidEmulatorHost:
			out.Code = StorageProviderBootstrapErrorInvalidEmulatorHost
		default:
			out.Code = StorageProviderBootstrapErrorInvalidConfig
		}
	}
	return out
}
