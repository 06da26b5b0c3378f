package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/form"
	"github.com/yungbote/treatmentplan-backend/internal/http/response"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/services"
	"github.com/yungbote/treatmentplan-backend/internal/session"
)

// DraftHandler serves the form interactions: every checkbox, radio, tooth
// click and key press of the plan form is one call against a draft.
type DraftHandler struct {
	log    *logger.Logger
	drafts services.DraftService
}

func NewDraftHandler(log *logger.Logger, drafts services.DraftService) *DraftHandler {
	return &DraftHandler{log: log.With("handler", "DraftHandler"), drafts: drafts}
}

type mediaView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"sizeLabel"`
	Date      string `json:"date"`
}

func newMediaView(it media.Item) mediaView {
	return mediaView{
		ID:        it.ID,
		Name:      it.Name,
		Type:      it.ContentType,
		Size:      it.Size,
		SizeLabel: media.FormatSize(it.Size),
		Date:      it.CaptureDate(),
	}
}

func mediaViews(items []media.Item) []mediaView {
	out := make([]mediaView, 0, len(items))
	for _, it := range items {
		out = append(out, newMediaView(it))
	}
	return out
}

type draftView struct {
	ID            string          `json:"id"`
	PatientHeader string          `json:"patientHeader"`
	Context       form.Context    `json:"context"`
	Values        url.Values      `json:"values"`
	Categories    map[string]bool `json:"categories"`
	Transitoires  string          `json:"transitoires"`
	Record        plan.Record     `json:"record"`
	Photos        []mediaView     `json:"photos"`
	Radiographies []mediaView     `json:"radiographies"`
	Attachments   []mediaView     `json:"attachments"`
	HasScreenshot bool            `json:"hasScreenshot"`
	Revision      uint64          `json:"revision"`
}

// newDraftView must be called with the draft lock held.
func newDraftView(d *session.Draft) draftView {
	rec := d.Record()
	cats := make(map[string]bool, len(dental.Categories()))
	for _, c := range dental.Categories() {
		cats[c.Key()] = d.Board.Checked(c)
	}
	return draftView{
		ID:            d.ID,
		PatientHeader: rec.Patient.DisplayName(),
		Context:       d.Context,
		Values:        d.Values,
		Categories:    cats,
		Transitoires:  d.Board.Transitional(),
		Record:        rec,
		Photos:        mediaViews(d.Photos.List()),
		Radiographies: mediaViews(d.Radiographs.List()),
		Attachments:   mediaViews(d.Attachments.List()),
		HasScreenshot: d.Screenshot.Data() != "",
		Revision:      d.Revision(),
	}
}

// POST /api/drafts
// Context parameters come from the query string and/or a form body, under
// either historical spelling.
func (h *DraftHandler) Create(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	d, err := h.drafts.Create(c.Request.Context(), c.Request.Form)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	d.Lock()
	view := newDraftView(d)
	d.Unlock()
	response.RespondCreated(c, view)
}

// GET /api/drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	d, err := h.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	d.Lock()
	view := newDraftView(d)
	d.Unlock()
	response.RespondOK(c, view)
}

// DELETE /api/drafts/:id
func (h *DraftHandler) Delete(c *gin.Context) {
	if err := h.drafts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// update runs fn on the draft and answers with the refreshed view unless fn
// already wrote a response.
func (h *DraftHandler) update(c *gin.Context, fn func(d *session.Draft) error) {
	var view draftView
	_, err := h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		if err := fn(d); err != nil {
			return err
		}
		view = newDraftView(d)
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if !c.Writer.Written() {
		response.RespondOK(c, view)
	}
}

// PUT /api/drafts/:id/values
// Accepts a form body or a flat JSON object of field id → value.
func (h *DraftHandler) PutValues(c *gin.Context) {
	values, err := bindValues(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	h.update(c, func(d *session.Draft) error {
		d.MergeValues(values)
		return nil
	})
}

func bindValues(c *gin.Context) (url.Values, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, err
		}
		out := url.Values{}
		for k, v := range body {
			switch tv := v.(type) {
			case string:
				out.Set(k, tv)
			case bool:
				if tv {
					out.Set(k, "on")
				} else {
					out.Set(k, "")
				}
			case nil:
				out.Set(k, "")
			default:
				return nil, errors.New("values must be strings or booleans")
			}
		}
		return out, nil
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return c.Request.PostForm, nil
}

type checkedRequest struct {
	Checked *bool `json:"checked"`
}

func parseCategory(c *gin.Context) (dental.Category, error) {
	cat, err := dental.ParseCategory(c.Param("category"))
	if err != nil {
		return 0, apierr.BadRequest("invalid_category", err)
	}
	return cat, nil
}

func parseTooth(c *gin.Context) (dental.ToothID, error) {
	t, err := dental.ParseToothID(c.Param("tooth"))
	if err != nil {
		return 0, apierr.BadRequest("invalid_tooth", err)
	}
	return t, nil
}

// PUT /api/drafts/:id/categories/:category
// Checking shows the chart; unchecking hides it and discards its teeth.
func (h *DraftHandler) SetCategory(c *gin.Context) {
	cat, err := parseCategory(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var req checkedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Checked == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errors.New(`body must be {"checked": true|false}`))
		return
	}
	h.update(c, func(d *session.Draft) error {
		d.SetCategory(cat, *req.Checked)
		return nil
	})
}

type transitionalRequest struct {
	Value string `json:"value"`
}

// PUT /api/drafts/:id/transitoires
func (h *DraftHandler) SetTransitional(c *gin.Context) {
	var req transitionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	h.update(c, func(d *session.Draft) error {
		d.MergeValues(url.Values{form.RadioTransitional: {req.Value}})
		d.Values.Set(form.RadioTransitional, d.Board.Transitional())
		return nil
	})
}

// GET /api/drafts/:id/categories/:category/chart
func (h *DraftHandler) ChartFragment(c *gin.Context) {
	cat, err := parseCategory(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	d, err := h.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	d.Lock()
	frag := d.Presenter.Fragment(cat)
	d.Unlock()
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(frag))
}

type toothResponse struct {
	Tooth    dental.ToothID   `json:"tooth"`
	Selected bool             `json:"selected"`
	Handled  bool             `json:"handled"`
	Teeth    []dental.ToothID `json:"teeth"`
	Fragment string           `json:"fragment"`
	Revision uint64           `json:"revision"`
}

var errChartHidden = errors.New("chart is not shown for this category")

func (h *DraftHandler) onTooth(c *gin.Context, act func(d *session.Draft, cat dental.Category, tooth dental.ToothID) (selected, handled bool)) {
	cat, err := parseCategory(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	tooth, err := parseTooth(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var out toothResponse
	_, err = h.drafts.Update(c.Request.Context(), c.Param("id"), func(d *session.Draft) error {
		if !d.Board.Checked(cat) {
			return apierr.New(http.StatusConflict, "chart_hidden", errChartHidden)
		}
		selected, handled := act(d, cat, tooth)
		out = toothResponse{
			Tooth:    tooth,
			Selected: selected,
			Handled:  handled,
			Teeth:    d.Store.Selected(cat),
			Fragment: string(d.Presenter.ToothFragment(cat, tooth)),
			Revision: d.Revision(),
		}
		return nil
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/drafts/:id/categories/:category/teeth/:tooth/toggle
func (h *DraftHandler) ToggleTooth(c *gin.Context) {
	h.onTooth(c, func(d *session.Draft, cat dental.Category, tooth dental.ToothID) (bool, bool) {
		return d.Board.Chart(cat).Click(tooth), true
	})
}

// POST /api/drafts/:id/categories/:category/teeth/:tooth/keys/:key
// Enter and Space act like a click; other keys are reported as unhandled.
func (h *DraftHandler) KeyTooth(c *gin.Context) {
	key := c.Param("key")
	h.onTooth(c, func(d *session.Draft, cat dental.Category, tooth dental.ToothID) (bool, bool) {
		return d.Board.Chart(cat).Activate(tooth, key)
	})
}

type teethRequest struct {
	Teeth []dental.ToothID `json:"teeth"`
}

// PUT /api/drafts/:id/categories/:category/teeth
// Replaces the category's selection. Works before the chart was ever shown.
func (h *DraftHandler) SetTeeth(c *gin.Context) {
	cat, err := parseCategory(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var req teethRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	h.update(c, func(d *session.Draft) error {
		d.Store.Clear(cat)
		d.Board.Chart(cat).SetSelectedTeeth(req.Teeth)
		return nil
	})
}
