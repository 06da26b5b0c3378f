package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

var newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig

type BucketBootstrapCode string

const (
	BucketBootstrapInvalidMode         BucketBootstrapCode = "invalid_mode"
	BucketBootstrapMissingEmulatorHost BucketBootstrapCode = "missing_emulator_host"
	BucketBootstrapInvalidEmulatorHost BucketBootstrapCode = "invalid_emulator_host"
	BucketBootstrapConnectFailed       BucketBootstrapCode = "connect_failed"
)

// BucketBootstrapError says why the attachment bucket could not be opened at
// startup.
type BucketBootstrapError struct {
	Code         BucketBootstrapCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *BucketBootstrapError) Error() string {
	return fmt.Sprintf("attachment bucket bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code, e.Mode, e.EmulatorHost, e.Cause)
}

func (e *BucketBootstrapError) Unwrap() error { return e.Cause }

var configErrorCodes = map[gcp.StorageConfigCode]BucketBootstrapCode{
	gcp.StorageConfigBadMode:         BucketBootstrapInvalidMode,
	gcp.StorageConfigNoEmulatorHost:  BucketBootstrapMissingEmulatorHost,
	gcp.StorageConfigBadEmulatorHost: BucketBootstrapInvalidEmulatorHost,
}

// classifyBucketError maps config validation failures to their own code and
// everything else to connect_failed.
func classifyBucketError(storageCfg gcp.ObjectStorageConfig, err error) *BucketBootstrapError {
	code := BucketBootstrapConnectFailed
	var cfgErr *gcp.StorageConfigError
	if errors.As(err, &cfgErr) {
		if c, ok := configErrorCodes[cfgErr.Code]; ok {
			code = c
		}
	}
	return &BucketBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

// resolveBucketService opens the bucket that receives plan attachments and
// exported PDFs. An empty OBJECT_STORAGE_MODE picks the emulator when
// STORAGE_EMULATOR_HOST is set.
func resolveBucketService(log *logger.Logger, cfg Config) (gcp.BucketService, error) {
	metrics := observability.Current()
	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.ObjectStorageMode, cfg.StorageEmulatorHost)
	if err != nil {
		if storageCfg.Mode == "" {
			storageCfg.Mode = gcp.ObjectStorageMode(cfg.ObjectStorageMode)
		}
		return nil, bucketFailed(log, metrics, storageCfg, err)
	}
	metrics.SetObjectStorageModeActive(string(storageCfg.Mode))
	log.Info("Opening attachment bucket",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
	)

	bucket, err := newBucketServiceWithConfig(log, storageCfg)
	if err != nil {
		return nil, bucketFailed(log, metrics, storageCfg, err)
	}
	metrics.ObserveObjectStorageProviderBootstrap(string(storageCfg.Mode), "success", "none")
	return bucket, nil
}

func bucketFailed(log *logger.Logger, metrics *observability.Metrics, storageCfg gcp.ObjectStorageConfig, err error) error {
	classified := classifyBucketError(storageCfg, err)
	metrics.ObserveObjectStorageProviderBootstrap(string(storageCfg.Mode), "error", string(classified.Code))
	log.Error("Attachment bucket bootstrap failed",
		"mode", storageCfg.Mode,
		"emulator_host", storageCfg.EmulatorHost,
		"error_code", classified.Code,
		"error", err,
	)
	return classified
}
