package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/http/response"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/render"
	"github.com/yungbote/treatmentplan-backend/internal/services"
	"github.com/yungbote/treatmentplan-backend/internal/session"
)

type DocumentHandlerDeps struct {
	Log        *logger.Logger
	Drafts     services.DraftService
	Plans      services.PlanService
	Submission services.SubmissionService
	Share      services.ShareService
	Export     services.ExportService
	Renderer   *render.Renderer
	Links      plan.Links
}

// DocumentHandler turns drafts into documents (preview, PDF, submit, share)
// and serves saved plans.
type DocumentHandler struct {
	log        *logger.Logger
	drafts     services.DraftService
	plans      services.PlanService
	submission services.SubmissionService
	share      services.ShareService
	export     services.ExportService
	renderer   *render.Renderer
	links      plan.Links
}

func NewDocumentHandler(deps DocumentHandlerDeps) *DocumentHandler {
	links := deps.Links
	if links == (plan.Links{}) {
		links = plan.DefaultLinks()
	}
	return &DocumentHandler{
		log:        deps.Log.With("handler", "DocumentHandler"),
		drafts:     deps.Drafts,
		plans:      deps.Plans,
		submission: deps.Submission,
		share:      deps.Share,
		export:     deps.Export,
		renderer:   deps.Renderer,
		links:      links,
	}
}

// snapshot reads what a document needs from the draft under its lock, so the
// slow part runs unlocked.
func (h *DocumentHandler) snapshot(c *gin.Context) (services.Submission, bool) {
	d, err := h.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return services.Submission{}, false
	}
	d.Lock()
	defer d.Unlock()
	return services.SubmissionFromDraft(d), true
}

func attachment(c *gin.Context, name, contentType string, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, body)
}

// POST /api/drafts/:id/preview
func (h *DocumentHandler) Preview(c *gin.Context) {
	sub, ok := h.snapshot(c)
	if !ok {
		return
	}
	html, err := h.renderer.Fragment(sub.Record)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// POST /api/drafts/:id/pdf
func (h *DocumentHandler) DraftPDF(c *gin.Context) {
	sub, ok := h.snapshot(c)
	if !ok {
		return
	}
	exp, err := h.export.Render(c.Request.Context(), sub.Record)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	attachment(c, exp.FileName, "application/pdf", exp.PDF)
}

// POST /api/drafts/:id/submit
// A persistence failure answers 502 with the notices; every other failure
// is carried as a notice on a 200.
func (h *DocumentHandler) Submit(c *gin.Context) {
	sub, ok := h.snapshot(c)
	if !ok {
		return
	}
	res, err := h.submission.Submit(c.Request.Context(), sub)
	if err != nil {
		var notices any
		if res != nil {
			notices = res.Notices
		}
		response.RespondAPIErrorWithNotices(c, err, notices)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/drafts/:id/share
func (h *DocumentHandler) Share(c *gin.Context) {
	sub, ok := h.snapshot(c)
	if !ok {
		return
	}
	res, err := h.share.Share(c.Request.Context(), sub.Record)
	if err != nil {
		var notices any
		if res != nil {
			notices = res.Notices
		}
		response.RespondAPIErrorWithNotices(c, err, notices)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/drafts/:id/restore/:documentId
func (h *DocumentHandler) Restore(c *gin.Context) {
	var view draftView
	_, err := h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		if _, err := h.plans.Restore(c.Request.Context(), d, c.Param("documentId")); err != nil {
			return err
		}
		view = newDraftView(d)
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"draft":   view,
		"notices": []services.Notice{{Level: services.NoticeSuccess, Message: services.MsgRestored}},
	})
}

// GET /api/plans?patientId=&limit=
func (h *DocumentHandler) ListPlans(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	recs, err := h.plans.ListByPatient(c.Request.Context(), c.Query("patientId"), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plans": recs})
}

func (h *DocumentHandler) loadPlan(c *gin.Context) (*plan.Record, bool) {
	rec, err := h.plans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return nil, false
	}
	return rec, true
}

// GET /api/plans/:id
func (h *DocumentHandler) GetPlan(c *gin.Context) {
	rec, ok := h.loadPlan(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{
		"plan":       rec,
		"viewerUrl":  h.links.Viewer(rec.DocumentID),
		"shareLinks": render.BuildShareLinks(*rec, h.links.Viewer(rec.DocumentID), h.renderer.Location()),
	})
}

// GET /api/plans/:id/document
func (h *DocumentHandler) PlanHTML(c *gin.Context) {
	rec, ok := h.loadPlan(c)
	if !ok {
		return
	}
	html, err := h.renderer.HTML(*rec)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GET /api/plans/:id/document.txt
func (h *DocumentHandler) PlanText(c *gin.Context) {
	rec, ok := h.loadPlan(c)
	if !ok {
		return
	}
	txt, err := h.renderer.Text(*rec)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(txt))
}

// GET /api/plans/:id/pdf
func (h *DocumentHandler) PlanPDF(c *gin.Context) {
	exp, err := h.export.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	attachment(c, exp.FileName, "application/pdf", exp.PDF)
}

// GET /api/plans/:id/chart.png
func (h *DocumentHandler) PlanChart(c *gin.Context) {
	rec, ok := h.loadPlan(c)
	if !ok {
		return
	}
	png, err := h.renderer.ChartPNG(rec.Snapshot)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GET /api/plans/:id/qr.png
func (h *DocumentHandler) PlanQR(c *gin.Context) {
	rec, ok := h.loadPlan(c)
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	if size > 1024 {
		size = 1024
	}
	png, err := render.QRCode(h.links.Viewer(rec.DocumentID), size)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
