package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/form"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/session"
)

type MediaConfig struct {
	PhotoMaxWidth int
	JPEGQuality   int
}

type DraftService interface {
	// Create opens a draft from the incoming context parameters.
	Create(ctx context.Context, params url.Values) (*session.Draft, error)
	Get(ctx context.Context, id string) (*session.Draft, error)
	// Update runs fn under the draft lock and saves the draft when fn succeeds.
	Update(ctx context.Context, id string, fn func(d *session.Draft) error) (*session.Draft, error)
	Delete(ctx context.Context, id string) error
	// AddMedia normalizes and appends one file to the kind's collector. The
	// caller holds the draft lock. A duplicate attachment yields an info notice.
	AddMedia(d *session.Draft, kind media.Kind, name, contentType string, raw []byte) (media.Item, *Notice, error)
	// SetScreenshot shrinks a captured image to a JPEG the size of a photo
	// and stores it in the draft's screenshot slot. The caller holds the lock.
	SetScreenshot(d *session.Draft, dataURL string) (Notice, error)
}

type draftService struct {
	log   *logger.Logger
	store session.Store
	cfg   MediaConfig
}

func NewDraftService(baseLog *logger.Logger, store session.Store, cfg MediaConfig) DraftService {
	if cfg.PhotoMaxWidth <= 0 {
		cfg.PhotoMaxWidth = media.DefaultMaxWidth
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = media.DefaultJPEGQuality
	}
	return &draftService{log: baseLog.With("service", "DraftService"), store: store, cfg: cfg}
}

func (s *draftService) Create(ctx context.Context, params url.Values) (*session.Draft, error) {
	d := session.NewDraft(form.ContextFromValues(params))
	if err := s.store.Create(ctx, d); err != nil {
		return nil, apierr.Upstream("draft_store_failed", err)
	}
	observability.Current().IncDraftCreated()
	s.log.Debug("Draft created", "draft_id", d.ID, "patient_id", d.Context.PatientID())
	return d, nil
}

func (s *draftService) Get(ctx context.Context, id string) (*session.Draft, error) {
	d, err := s.store.Get(ctx, id)
	if errors.Is(err, session.ErrDraftNotFound) {
		return nil, apierr.NotFound("draft_not_found", err)
	}
	if err != nil {
		return nil, apierr.Upstream("draft_store_failed", err)
	}
	return d, nil
}

func (s *draftService) Update(ctx context.Context, id string, fn func(d *session.Draft) error) (*session.Draft, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Lock()
	defer d.Unlock()
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, apierr.Upstream("draft_store_failed", err)
	}
	return d, nil
}

func (s *draftService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return apierr.Upstream("draft_store_failed", err)
	}
	return nil
}

func (s *draftService) AddMedia(d *session.Draft, kind media.Kind, name, contentType string, raw []byte) (media.Item, *Notice, error) {
	c := d.Collector(kind)
	if c == nil {
		return media.Item{}, nil, apierr.BadRequest("unknown_media_kind", media.ErrUnknownKind)
	}
	if len(raw) == 0 {
		return media.Item{}, nil, apierr.BadRequest("empty_file", errors.New("file is empty"))
	}

	var capturedAt time.Time
	switch kind {
	case media.KindPhoto:
		out, err := media.Compress(raw, s.cfg.PhotoMaxWidth, s.cfg.JPEGQuality)
		if err != nil {
			observability.Current().ObserveMediaItem(string(kind), "rejected")
			return media.Item{}, nil, apierr.BadRequest("unsupported_media", err)
		}
		raw, contentType = out, "image/jpeg"
	case media.KindRadiograph:
		rg, err := media.DecodeRadiograph(raw)
		if err != nil {
			observability.Current().ObserveMediaItem(string(kind), "rejected")
			return media.Item{}, nil, apierr.BadRequest("unsupported_media", err)
		}
		out, err := media.EncodeJPEG(rg.Image, s.cfg.PhotoMaxWidth, s.cfg.JPEGQuality)
		if err != nil {
			observability.Current().ObserveMediaItem(string(kind), "rejected")
			return media.Item{}, nil, apierr.BadRequest("unsupported_media", err)
		}
		raw, contentType, capturedAt = out, "image/jpeg", rg.StudyDate
	default:
		if contentType == "" {
			contentType = http.DetectContentType(raw)
		}
	}

	item, added := c.Add(name, contentType, raw, capturedAt)
	if !added {
		observability.Current().ObserveMediaItem(string(kind), "duplicate")
		n := notice(NoticeInfo, MsgAttachmentDupe)
		return item, &n, nil
	}
	observability.Current().ObserveMediaItem(string(kind), "added")
	s.log.Debug("Media added", "draft_id", d.ID, "kind", kind, "size", item.Size)
	return item, nil, nil
}

func (s *draftService) SetScreenshot(d *session.Draft, dataURL string) (Notice, error) {
	_, raw, err := media.ParseDataURL(dataURL)
	if err != nil {
		return Notice{}, apierr.BadRequest("invalid_screenshot", err)
	}
	out, err := media.Compress(raw, s.cfg.PhotoMaxWidth, s.cfg.JPEGQuality)
	if err != nil {
		return Notice{}, apierr.BadRequest("invalid_screenshot", err)
	}
	d.Screenshot.Set(media.DataURL("image/jpeg", out))
	s.log.Debug("Screenshot stored", "draft_id", d.ID, "raw_bytes", len(raw), "jpeg_bytes", len(out))
	return notice(NoticeSuccess, MsgScreenshotTaken), nil
}
