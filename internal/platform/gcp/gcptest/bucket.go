// Package gcptest provides an in-memory BucketService for tests.
package gcptest

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
)

var ErrInjected = errors.New("injected upload failure")

var _ gcp.BucketService = (*Bucket)(nil)

type Object struct {
	Data []byte
	Opts gcp.UploadOptions
}

// Bucket stores objects in memory. Uploads whose originalName metadata is in
// FailNames fail with ErrInjected.
type Bucket struct {
	mu        sync.Mutex
	objects   map[string]Object
	FailNames map[string]bool
	BaseURL   string
}

func NewBucket() *Bucket {
	return &Bucket{
		objects:   map[string]Object{},
		FailNames: map[string]bool{},
		BaseURL:   "https://storage.example.test",
	}
}

func objectKey(category gcp.BucketCategory, key string) string {
	return string(category) + "|" + key
}

func (b *Bucket) UploadFile(_ dbctx.Context, category gcp.BucketCategory, key string, file io.Reader, opts gcp.UploadOptions) error {
	b.mu.Lock()
	fail := b.FailNames[opts.Metadata["originalName"]]
	b.mu.Unlock()
	if fail {
		return fmt.Errorf("upload %s: %w", key, ErrInjected)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey(category, key)] = Object{Data: data, Opts: opts}
	return nil
}

func (b *Bucket) GetPublicURL(category gcp.BucketCategory, key string) string {
	return b.BaseURL + "/" + string(category) + "/" + strings.TrimLeft(key, "/")
}

func (b *Bucket) Object(category gcp.BucketCategory, key string) (Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[objectKey(category, key)]
	return obj, ok
}

func (b *Bucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}
