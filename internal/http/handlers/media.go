package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/treatmentplan-backend/internal/http/response"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/services"
	"github.com/yungbote/treatmentplan-backend/internal/session"
)

type MediaHandler struct {
	log      *logger.Logger
	drafts   services.DraftService
	readPart func(fh *multipart.FileHeader) ([]byte, error)
}

func NewMediaHandler(log *logger.Logger, drafts services.DraftService) *MediaHandler {
	return &MediaHandler{log: log.With("handler", "MediaHandler"), drafts: drafts, readPart: readPart}
}

type mediaAddResponse struct {
	Items   []mediaView       `json:"items"`
	List    []mediaView       `json:"list"`
	Notices []services.Notice `json:"notices"`
}

func parseKind(c *gin.Context) (media.Kind, error) {
	k, err := media.ParseKind(c.Param("kind"))
	if err != nil {
		return "", apierr.BadRequest("unknown_media_kind", err)
	}
	return k, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type upload struct {
	name        string
	contentType string
	raw         []byte
}

// readUploads reads every part up front so a failed read leaves the draft
// untouched whichever store backs it.
func (h *MediaHandler) readUploads(files []*multipart.FileHeader) ([]upload, error) {
	out := make([]upload, 0, len(files))
	for _, fh := range files {
		raw, err := h.readPart(fh)
		if err != nil {
			return nil, apierr.BadRequest("unreadable_file", fmt.Errorf("read %q: %w", fh.Filename, err))
		}
		out = append(out, upload{name: fh.Filename, contentType: fh.Header.Get("Content-Type"), raw: raw})
	}
	return out, nil
}

// POST /api/drafts/:id/media/:kind
// Multipart body with one or more "file" (or "files") parts. Files that are
// rejected produce a warning notice and do not fail the others.
func (h *MediaHandler) Add(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	mf, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondAPIError(c, err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart", err)
		return
	}
	files := append(mf.File["file"], mf.File["files"]...)
	if len(files) == 0 {
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New(`expected a "file" part`))
		return
	}
	uploads, err := h.readUploads(files)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	out := mediaAddResponse{Items: []mediaView{}, Notices: []services.Notice{}}
	_, err = h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		for _, up := range uploads {
			item, n, err := h.drafts.AddMedia(d, kind, up.name, up.contentType, up.raw)
			if err != nil {
				h.log.Warn("Media rejected", "draft_id", d.ID, "kind", kind, "error", err)
				out.Notices = append(out.Notices, services.Notice{
					Level:   services.NoticeWarning,
					Message: fmt.Sprintf("%s : format non pris en charge", up.name),
				})
				continue
			}
			if n != nil {
				out.Notices = append(out.Notices, *n)
			}
			out.Items = append(out.Items, newMediaView(item))
		}
		out.List = mediaViews(d.Collector(kind).List())
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

type renameRequest struct {
	Name string `json:"name"`
}

// PATCH /api/drafts/:id/media/:kind/:item
func (h *MediaHandler) Rename(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	var list []mediaView
	_, err = h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		col := d.Collector(kind)
		if err := col.Rename(c.Param("item"), req.Name); err != nil {
			if errors.Is(err, media.ErrNotFound) {
				return apierr.NotFound("media_not_found", err)
			}
			return apierr.BadRequest("invalid_name", err)
		}
		list = mediaViews(col.List())
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"list": list})
}

// DELETE /api/drafts/:id/media/:kind/:item
func (h *MediaHandler) Remove(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var list []mediaView
	_, err = h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		col := d.Collector(kind)
		if !col.Remove(c.Param("item")) {
			return apierr.NotFound("media_not_found", media.ErrNotFound)
		}
		list = mediaViews(col.List())
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"list": list})
}

type screenshotRequest struct {
	DataURL  string `json:"dataUrl"`
	Declined bool   `json:"declined"`
}

// POST /api/drafts/:id/screenshot
// A declined capture is not an error: the draft is left alone and a warning
// notice is returned.
func (h *MediaHandler) SetScreenshot(c *gin.Context) {
	var req screenshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	notices := []services.Notice{}
	_, err := h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		if req.Declined || strings.TrimSpace(req.DataURL) == "" {
			notices = append(notices, services.Notice{Level: services.NoticeWarning, Message: media.WarnCaptureDeclined})
			return nil
		}
		n, err := h.drafts.SetScreenshot(d, req.DataURL)
		if err != nil {
			return err
		}
		notices = append(notices, n)
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notices": notices})
}

// DELETE /api/drafts/:id/screenshot
func (h *MediaHandler) ClearScreenshot(c *gin.Context) {
	_, err := h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		d.Screenshot.Clear()
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
