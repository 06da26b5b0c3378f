package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/data/repos/testutil"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	httpH "github.com/yungbote/treatmentplan-backend/internal/http/handlers"
	httpMW "github.com/yungbote/treatmentplan-backend/internal/http/middleware"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp/gcptest"
	"github.com/yungbote/treatmentplan-backend/internal/render"
	"github.com/yungbote/treatmentplan-backend/internal/services"
	"github.com/yungbote/treatmentplan-backend/internal/session"
	"github.com/yungbote/treatmentplan-backend/internal/webhook"
)

const testHookURL = "https://hooks.example.test/catch/plan"

var testLinks = plan.Links{
	ViewerBaseURL:     "https://viewer.example.test/view.html",
	PatientNavBaseURL: "https://patient.example.test/SetCurrentPatient/",
}

func newTestRouter(t *testing.T, token string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)
	plans := repos.New(db, log).TreatmentPlans
	bucket := gcptest.NewBucket()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(nethttp.MethodGet, testHookURL, httpmock.NewStringResponder(200, ""))
	notifier := webhook.New(log, webhook.Config{URL: testHookURL, HTTPClient: &nethttp.Client{Transport: transport}})

	renderer, err := render.New(log, render.Config{Location: time.UTC})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	drafts := services.NewDraftService(log, session.NewMemoryStore(log, time.Hour), services.MediaConfig{})
	planSvc := services.NewPlanService(log, plans)

	return NewRouter(RouterConfig{
		Log:           log,
		Token:         httpMW.NewTokenMiddleware(log, token),
		HealthHandler: httpH.NewHealthHandler(db),
		DraftHandler:  httpH.NewDraftHandler(log, drafts),
		MediaHandler:  httpH.NewMediaHandler(log, drafts),
		DocumentHandler: httpH.NewDocumentHandler(httpH.DocumentHandlerDeps{
			Log:        log,
			Drafts:     drafts,
			Plans:      planSvc,
			Submission: services.NewSubmissionService(log, bucket, plans, notifier, nil, services.SubmissionConfig{Links: testLinks}),
			Share:      services.NewShareService(log, plans, testLinks),
			Export:     services.NewExportService(log, planSvc, renderer, bucket),
			Renderer:   renderer,
			Links:      testLinks,
		}),
	})
}

type call struct {
	method, path, contentType string
	body                      []byte
	header                    map[string]string
}

func serve(t *testing.T, r *gin.Engine, c call) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(c.method, c.path, bytes.NewReader(c.body))
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonCall(t *testing.T, method, path string, payload any) call {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return call{method: method, path: path, contentType: "application/json", body: raw}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: want %d, got %d (%s)", want, rec.Code, rec.Body.String())
	}
}

func createDraft(t *testing.T, r *gin.Engine) string {
	t.Helper()
	// Legacy spellings in a form body.
	form := "Patient_id=4711&ID_centre=12&ID_praticien=77&Patient_nom=Curie&Patient_prenom=Marie"
	rec := serve(t, r, call{
		method:      nethttp.MethodPost,
		path:        "/api/drafts",
		contentType: "application/x-www-form-urlencoded",
		body:        []byte(form),
	})
	expectCode(t, rec, nethttp.StatusCreated)
	var out struct {
		ID            string `json:"id"`
		PatientHeader string `json:"patientHeader"`
	}
	decode(t, rec, &out)
	if out.PatientHeader != "Marie Curie" {
		t.Fatalf("patientHeader: got %q", out.PatientHeader)
	}
	return out.ID
}

func TestHealthRoutes(t *testing.T) {
	r := newTestRouter(t, "")
	for _, path := range []string{"/healthcheck", "/readyz"} {
		rec := serve(t, r, call{method: nethttp.MethodGet, path: path})
		expectCode(t, rec, nethttp.StatusOK)
	}
}

func TestUnknownDraftIsNotFound(t *testing.T) {
	r := newTestRouter(t, "")
	rec := serve(t, r, call{method: nethttp.MethodGet, path: "/api/drafts/missing"})
	expectCode(t, rec, nethttp.StatusNotFound)
}

func TestTokenGuardsAPI(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	rec := serve(t, r, call{method: nethttp.MethodPost, path: "/api/drafts"})
	expectCode(t, rec, nethttp.StatusUnauthorized)

	rec = serve(t, r, call{
		method: nethttp.MethodPost,
		path:   "/api/drafts?idPatient=1",
		header: map[string]string{"Authorization": "Bearer s3cret"},
	})
	expectCode(t, rec, nethttp.StatusCreated)

	// Health stays open.
	rec = serve(t, r, call{method: nethttp.MethodGet, path: "/healthcheck"})
	expectCode(t, rec, nethttp.StatusOK)
}

func TestChartInteraction(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)
	base := "/api/drafts/" + id + "/categories/restaurations"

	rec := serve(t, r, jsonCall(t, nethttp.MethodPut, base, map[string]bool{"checked": true}))
	expectCode(t, rec, nethttp.StatusOK)

	rec = serve(t, r, call{method: nethttp.MethodGet, path: base + "/chart"})
	expectCode(t, rec, nethttp.StatusOK)
	if got := strings.Count(rec.Body.String(), "data-tooth="); got != 32 {
		t.Fatalf("chart targets: want 32, got %d", got)
	}

	var tooth struct {
		Selected bool     `json:"selected"`
		Handled  bool     `json:"handled"`
		Teeth    []string `json:"teeth"`
		Fragment string   `json:"fragment"`
	}
	rec = serve(t, r, call{method: nethttp.MethodPost, path: base + "/teeth/26/keys/Enter"})
	expectCode(t, rec, nethttp.StatusOK)
	decode(t, rec, &tooth)
	if !tooth.Selected || !tooth.Handled {
		t.Fatalf("Enter should select: %+v", tooth)
	}
	if !strings.Contains(tooth.Fragment, `aria-pressed="true"`) {
		t.Fatalf("fragment not updated: %s", tooth.Fragment)
	}

	rec = serve(t, r, call{method: nethttp.MethodPost, path: base + "/teeth/26/keys/Tab"})
	expectCode(t, rec, nethttp.StatusOK)
	decode(t, rec, &tooth)
	if !tooth.Selected || tooth.Handled {
		t.Fatalf("Tab should be ignored: %+v", tooth)
	}

	rec = serve(t, r, call{method: nethttp.MethodPost, path: base + "/teeth/14/toggle"})
	expectCode(t, rec, nethttp.StatusOK)
	decode(t, rec, &tooth)
	if strings.Join(tooth.Teeth, ",") != "14,26" {
		t.Fatalf("teeth: want 14,26 got %v", tooth.Teeth)
	}

	rec = serve(t, r, call{method: nethttp.MethodPost, path: base + "/teeth/99/toggle"})
	expectCode(t, rec, nethttp.StatusBadRequest)

	rec = serve(t, r, call{method: nethttp.MethodPost, path: "/api/drafts/" + id + "/categories/bogus/teeth/14/toggle"})
	expectCode(t, rec, nethttp.StatusBadRequest)
}

func TestSetTeethBeforeChartIsShown(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)

	rec := serve(t, r, jsonCall(t, nethttp.MethodPut, "/api/drafts/"+id+"/categories/couronnes/teeth",
		map[string][]string{"teeth": {"36", "11"}}))
	expectCode(t, rec, nethttp.StatusOK)

	var view struct {
		Record struct {
			Defs struct {
				Couronnes []string `json:"couronnes"`
			} `json:"protheses_definitives"`
		} `json:"record"`
	}
	decode(t, rec, &view)
	if strings.Join(view.Record.Defs.Couronnes, ",") != "11,36" {
		t.Fatalf("couronnes: got %v", view.Record.Defs.Couronnes)
	}
}

func TestValuesAndTransitional(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)

	rec := serve(t, r, jsonCall(t, nethttp.MethodPut, "/api/drafts/"+id+"/values", map[string]any{
		"notes":           "Contrôle à 6 mois",
		"detartrage":      true,
		"date-traitement": "2024-03-05",
	}))
	expectCode(t, rec, nethttp.StatusOK)

	rec = serve(t, r, jsonCall(t, nethttp.MethodPut, "/api/drafts/"+id+"/transitoires", map[string]string{"value": "oui"}))
	expectCode(t, rec, nethttp.StatusOK)

	var view struct {
		Record struct {
			Notes        string `json:"notes"`
			Detartrage   bool   `json:"detartrage"`
			Date         string `json:"date"`
			Transitoires string `json:"transitoires"`
		} `json:"record"`
	}
	decode(t, rec, &view)
	if view.Record.Notes != "Contrôle à 6 mois" || !view.Record.Detartrage || view.Record.Date != "2024-03-05" {
		t.Fatalf("record: %+v", view.Record)
	}
	if view.Record.Transitoires != "oui" {
		t.Fatalf("transitoires: got %q", view.Record.Transitoires)
	}

	rec = serve(t, r, jsonCall(t, nethttp.MethodPut, "/api/drafts/"+id+"/values", map[string]any{"notes": 3}))
	expectCode(t, rec, nethttp.StatusBadRequest)
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func multipartCall(t *testing.T, path string, files map[string][]byte) call {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return call{method: nethttp.MethodPost, path: path, contentType: mw.FormDataContentType(), body: buf.Bytes()}
}

func TestMediaLifecycle(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)
	base := "/api/drafts/" + id + "/media/photos"

	rec := serve(t, r, multipartCall(t, base, map[string][]byte{
		"face.png":  pngFile(t),
		"notes.txt": []byte("not an image"),
	}))
	expectCode(t, rec, nethttp.StatusOK)
	var added struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"items"`
		Notices []services.Notice `json:"notices"`
	}
	decode(t, rec, &added)
	if len(added.Items) != 1 || added.Items[0].Name != "Photo 1" || added.Items[0].Type != "image/jpeg" {
		t.Fatalf("items: %+v", added.Items)
	}
	if len(added.Notices) != 1 || added.Notices[0].Level != services.NoticeWarning {
		t.Fatalf("notices: %+v", added.Notices)
	}

	item := base + "/" + added.Items[0].ID
	rec = serve(t, r, jsonCall(t, nethttp.MethodPatch, item, map[string]string{"name": "Sourire"}))
	expectCode(t, rec, nethttp.StatusOK)
	if !strings.Contains(rec.Body.String(), `"Sourire"`) {
		t.Fatalf("rename not applied: %s", rec.Body.String())
	}

	rec = serve(t, r, call{method: nethttp.MethodDelete, path: item})
	expectCode(t, rec, nethttp.StatusOK)
	rec = serve(t, r, call{method: nethttp.MethodDelete, path: item})
	expectCode(t, rec, nethttp.StatusNotFound)

	rec = serve(t, r, multipartCall(t, "/api/drafts/"+id+"/media/videos", map[string][]byte{"a.png": pngFile(t)}))
	expectCode(t, rec, nethttp.StatusBadRequest)
}

func TestScreenshotDeclinedIsAWarning(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)

	rec := serve(t, r, jsonCall(t, nethttp.MethodPost, "/api/drafts/"+id+"/screenshot", map[string]bool{"declined": true}))
	expectCode(t, rec, nethttp.StatusOK)
	var out struct {
		Notices []services.Notice `json:"notices"`
	}
	decode(t, rec, &out)
	if len(out.Notices) != 1 || out.Notices[0].Level != services.NoticeWarning {
		t.Fatalf("notices: %+v", out.Notices)
	}

	rec = serve(t, r, jsonCall(t, nethttp.MethodPost, "/api/drafts/"+id+"/screenshot", map[string]string{"dataUrl": "not a data url"}))
	expectCode(t, rec, nethttp.StatusBadRequest)

	capture := media.DataURL("image/png", pngFile(t))
	rec = serve(t, r, jsonCall(t, nethttp.MethodPost, "/api/drafts/"+id+"/screenshot", map[string]string{"dataUrl": capture}))
	expectCode(t, rec, nethttp.StatusOK)
	decode(t, rec, &out)
	if len(out.Notices) != 1 || out.Notices[0].Message != services.MsgScreenshotTaken {
		t.Fatalf("notices: %+v", out.Notices)
	}
}

func TestPreviewShowsEmptyPlaceholder(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)

	rec := serve(t, r, call{method: nethttp.MethodPost, path: "/api/drafts/" + id + "/preview"})
	expectCode(t, rec, nethttp.StatusOK)
	if !strings.Contains(rec.Body.String(), render.EmptyMessage) {
		t.Fatalf("preview lacks the empty placeholder: %s", rec.Body.String())
	}
}

func TestSubmitThenReadBack(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)
	cat := "/api/drafts/" + id + "/categories/implants"
	expectCode(t, serve(t, r, jsonCall(t, nethttp.MethodPut, cat, map[string]bool{"checked": true})), nethttp.StatusOK)
	expectCode(t, serve(t, r, call{method: nethttp.MethodPost, path: cat + "/teeth/16/toggle"}), nethttp.StatusOK)

	rec := serve(t, r, call{method: nethttp.MethodPost, path: "/api/drafts/" + id + "/submit"})
	expectCode(t, rec, nethttp.StatusOK)
	var res struct {
		DocumentID  string `json:"documentId"`
		RedirectURL string `json:"redirect"`
	}
	decode(t, rec, &res)
	if res.DocumentID != "4711_12" || res.RedirectURL != "success.html?id=4711_12" {
		t.Fatalf("submit: %+v", res)
	}

	rec = serve(t, r, call{method: nethttp.MethodGet, path: "/api/plans/4711_12"})
	expectCode(t, rec, nethttp.StatusOK)
	var got struct {
		Plan struct {
			Implants []string `json:"implants"`
		} `json:"plan"`
		ViewerURL string `json:"viewerUrl"`
	}
	decode(t, rec, &got)
	if strings.Join(got.Plan.Implants, ",") != "16" {
		t.Fatalf("implants: %v", got.Plan.Implants)
	}
	if got.ViewerURL != "https://viewer.example.test/view.html?id=4711_12" {
		t.Fatalf("viewerUrl: %q", got.ViewerURL)
	}

	rec = serve(t, r, call{method: nethttp.MethodGet, path: "/api/plans/4711_12/pdf"})
	expectCode(t, rec, nethttp.StatusOK)
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf body does not look like a PDF")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Plan_Traitement_Curie_Marie") {
		t.Fatalf("content-disposition: %q", cd)
	}

	for _, path := range []string{"/api/plans/4711_12/qr.png", "/api/plans/4711_12/chart.png"} {
		rec = serve(t, r, call{method: nethttp.MethodGet, path: path})
		expectCode(t, rec, nethttp.StatusOK)
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("%s content-type: %q", path, ct)
		}
	}

	rec = serve(t, r, call{method: nethttp.MethodGet, path: "/api/plans/4711_12/document.txt"})
	expectCode(t, rec, nethttp.StatusOK)
	if !strings.Contains(rec.Body.String(), "16") {
		t.Fatalf("text export lacks tooth 16: %s", rec.Body.String())
	}

	rec = serve(t, r, call{method: nethttp.MethodGet, path: "/api/plans/nope_0"})
	expectCode(t, rec, nethttp.StatusNotFound)
}

func TestRestoreIntoNewDraft(t *testing.T) {
	r := newTestRouter(t, "")
	first := createDraft(t, r)
	cat := "/api/drafts/" + first + "/categories/endo"
	expectCode(t, serve(t, r, jsonCall(t, nethttp.MethodPut, cat, map[string]bool{"checked": true})), nethttp.StatusOK)
	expectCode(t, serve(t, r, call{method: nethttp.MethodPost, path: cat + "/teeth/46/toggle"}), nethttp.StatusOK)
	expectCode(t, serve(t, r, call{method: nethttp.MethodPost, path: "/api/drafts/" + first + "/submit"}), nethttp.StatusOK)

	second := createDraft(t, r)
	rec := serve(t, r, call{method: nethttp.MethodPost, path: "/api/drafts/" + second + "/restore/4711_12"})
	expectCode(t, rec, nethttp.StatusOK)
	var out struct {
		Draft struct {
			Categories map[string]bool `json:"categories"`
			Record     struct {
				Endo []string `json:"endo"`
			} `json:"record"`
		} `json:"draft"`
	}
	decode(t, rec, &out)
	if !out.Draft.Categories["endo"] || strings.Join(out.Draft.Record.Endo, ",") != "46" {
		t.Fatalf("restored draft: %+v", out.Draft)
	}
}

func TestShareReturnsViewerLinkAndQR(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)

	rec := serve(t, r, call{method: nethttp.MethodPost, path: "/api/drafts/" + id + "/share"})
	expectCode(t, rec, nethttp.StatusOK)
	var out struct {
		DocumentID string `json:"documentId"`
		ViewerURL  string `json:"viewerUrl"`
		QRCode     string `json:"qrCode"`
	}
	decode(t, rec, &out)
	if !strings.HasPrefix(out.DocumentID, "4711_") || out.DocumentID == "4711_12" {
		t.Fatalf("ad-hoc id: %q", out.DocumentID)
	}
	if !strings.HasSuffix(out.ViewerURL, "?id="+out.DocumentID) {
		t.Fatalf("viewerUrl: %q", out.ViewerURL)
	}
	if !strings.HasPrefix(out.QRCode, "data:image/png;base64,") {
		t.Fatalf("qrCode: %.40q", out.QRCode)
	}
}

func TestDeleteDraft(t *testing.T) {
	r := newTestRouter(t, "")
	id := createDraft(t, r)
	expectCode(t, serve(t, r, call{method: nethttp.MethodDelete, path: "/api/drafts/" + id}), nethttp.StatusNoContent)
	expectCode(t, serve(t, r, call{method: nethttp.MethodGet, path: "/api/drafts/" + id}), nethttp.StatusNotFound)
}
