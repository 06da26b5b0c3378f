package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/envutil"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

type BucketCategory string

const (
	// Attachments picked by the practitioner on the plan form.
	BucketCategoryUploads BucketCategory = "uploads"
	// Rendered plan documents (PDF exports).
	BucketCategoryExports BucketCategory = "exports"
)

// UploadOptions carries per-object metadata. ContentType falls back to the
// key extension when empty.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
}

// BucketService stores plan attachments and exported documents and says
// where a browser can fetch them.
type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader, opts UploadOptions) error
	GetPublicURL(category BucketCategory, key string) string
}

type bucketTarget struct {
	name      string
	cdnDomain string
}

type bucketService struct {
	log     *logger.Logger
	client  *storage.Client
	mode    ObjectStorageMode
	targets map[BucketCategory]bucketTarget
	// publicBaseURL replaces https://storage.googleapis.com when set.
	publicBaseURL string
}

// NewBucketServiceWithConfig opens the storage client for storageCfg. Bucket
// names come from UPLOADS_GCS_BUCKET_NAME (required) and
// EXPORTS_GCS_BUCKET_NAME (defaults to the uploads bucket).
func NewBucketServiceWithConfig(log *logger.Logger, storageCfg ObjectStorageConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	uploads := envutil.String("UPLOADS_GCS_BUCKET_NAME", "", log)
	if uploads == "" {
		return nil, fmt.Errorf("missing env var UPLOADS_GCS_BUCKET_NAME")
	}
	exports := envutil.String("EXPORTS_GCS_BUCKET_NAME", uploads, log)

	publicBaseURL, err := publicBaseURL(storageCfg, envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", "", log))
	if err != nil {
		return nil, err
	}
	client, err := newStorageClient(context.Background(), log, storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bs := &bucketService{
		log:    log.With("service", "BucketService"),
		client: client,
		mode:   storageCfg.Mode,
		targets: map[BucketCategory]bucketTarget{
			BucketCategoryUploads: {name: uploads, cdnDomain: envutil.String("UPLOADS_CDN_DOMAIN", "", log)},
			BucketCategoryExports: {name: exports, cdnDomain: envutil.String("EXPORTS_CDN_DOMAIN", "", log)},
		},
		publicBaseURL: publicBaseURL,
	}
	bs.log.Info("Object storage initialized",
		"mode", storageCfg.Mode,
		"uploads_bucket", uploads,
		"exports_bucket", exports,
		"public_base_url", publicBaseURL,
	)
	return bs, nil
}

func newStorageClient(ctx context.Context, log *logger.Logger, storageCfg ObjectStorageConfig) (*storage.Client, error) {
	if storageCfg.IsEmulatorMode() {
		// The storage client only honours the emulator through the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(storageCfg.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(credentialOptions(log), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

// publicBaseURL picks OBJECT_STORAGE_PUBLIC_BASE_URL, then the emulator host,
// then nothing (the googleapis default).
func publicBaseURL(storageCfg ObjectStorageConfig, raw string) (string, error) {
	if raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "", fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), nil
	}
	if storageCfg.IsEmulatorMode() {
		return strings.TrimRight(storageCfg.EmulatorHost, "/"), nil
	}
	return "", nil
}

func (bs *bucketService) target(category BucketCategory) (bucketTarget, error) {
	t, ok := bs.targets[category]
	if !ok {
		return bucketTarget{}, fmt.Errorf("unknown bucket category: %s", category)
	}
	return t, nil
}

// UploadFile writes the object in one request. Keys are never reused, so the
// write is retried on transient errors.
func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader, opts UploadOptions) error {
	t, err := bs.target(category)
	if err != nil {
		return err
	}
	obj := bs.client.Bucket(t.name).Object(key).Retryer(storage.WithPolicy(storage.RetryAlways))
	w := obj.NewWriter(dbc.Context())
	w.ContentType = strings.TrimSpace(opts.ContentType)
	if w.ContentType == "" {
		w.ContentType = ContentTypeForKey(key)
	}
	if len(opts.Metadata) > 0 {
		w.Metadata = make(map[string]string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			w.Metadata[k] = v
		}
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s/%s: %w", t.name, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s/%s: %w", t.name, key, err)
	}
	bs.log.Debug("Object uploaded", "bucket", t.name, "key", key, "content_type", w.ContentType)
	return nil
}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".dcm":  "application/dicom",
	".pdf":  "application/pdf",
	".json": "application/json",
	".txt":  "text/plain",
}

// ContentTypeForKey guesses a MIME type from the object key extension.
func ContentTypeForKey(key string) string {
	key, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(key)), "?")
	if ct, ok := contentTypes[path.Ext(key)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// GetPublicURL resolves, in order: CDN domain, emulator media URL, public
// base URL, storage.googleapis.com.
func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	t, err := bs.target(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case t.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", t.cdnDomain, key)
	case bs.mode == ObjectStorageModeGCSEmulator && bs.publicBaseURL != "":
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", bs.publicBaseURL, url.PathEscape(t.name), url.PathEscape(key))
	case bs.publicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, t.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", t.name, key)
}
