package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

// ObjectStorageConfig selects between real GCS and a fake-gcs-server style
// emulator used in local stacks.
type ObjectStorageConfig struct {
	Mode         ObjectStorageMode
	EmulatorHost string
	// Set when the mode was inferred from STORAGE_EMULATOR_HOST alone.
	InferredFromHost bool
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

func (cfg ObjectStorageConfig) ModeSource() string {
	if cfg.InferredFromHost {
		return "inferred_from_host"
	}
	return "configured"
}

type StorageConfigCode string

const (
	StorageConfigBadMode         StorageConfigCode = "invalid_mode"
	StorageConfigNoEmulatorHost  StorageConfigCode = "missing_emulator_host"
	StorageConfigBadEmulatorHost StorageConfigCode = "invalid_emulator_host"
)

type StorageConfigError struct {
	Code         StorageConfigCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageConfigError) Error() string {
	switch e.Code {
	case StorageConfigBadMode:
		return fmt.Sprintf("object storage: unknown mode %q, want %s or %s", e.Mode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator)
	case StorageConfigNoEmulatorHost:
		return fmt.Sprintf("object storage: mode %s needs STORAGE_EMULATOR_HOST", ObjectStorageModeGCSEmulator)
	case StorageConfigBadEmulatorHost:
		return fmt.Sprintf("object storage: STORAGE_EMULATOR_HOST %q is not an absolute URL (e.g. http://fake-gcs:4443)", e.EmulatorHost)
	}
	return "object storage: invalid config"
}

func (e *StorageConfigError) Unwrap() error { return e.Cause }

// ResolveObjectStorageConfig normalizes raw mode/host values. An empty mode
// selects the emulator when a host is present and real GCS otherwise.
func ResolveObjectStorageConfig(rawMode, emulatorHost string) (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		Mode:         ObjectStorageMode(strings.ToLower(strings.TrimSpace(rawMode))),
		EmulatorHost: strings.TrimSpace(emulatorHost),
	}
	if cfg.Mode == "" {
		cfg.Mode = ObjectStorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
			cfg.InferredFromHost = true
		}
	}
	return cfg, ValidateObjectStorageConfig(cfg)
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return nil
	case ObjectStorageModeGCSEmulator:
	default:
		return &StorageConfigError{Code: StorageConfigBadMode, Mode: string(cfg.Mode)}
	}
	if cfg.EmulatorHost == "" {
		return &StorageConfigError{Code: StorageConfigNoEmulatorHost, Mode: string(cfg.Mode)}
	}
	if u, err := url.Parse(cfg.EmulatorHost); err != nil || u.Scheme == "" || u.Host == "" {
		return &StorageConfigError{
			Code:         StorageConfigBadEmulatorHost,
			Mode:         string(cfg.Mode),
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
	}
	return nil
}
