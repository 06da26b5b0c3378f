package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"

	"github.com/yungbote/treatmentplan-backend/internal/app"
	"github.com/yungbote/treatmentplan-backend/internal/data/repos/testutil"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp/gcptest"
	"github.com/yungbote/treatmentplan-backend/internal/session"
)

const hookURL = "https://hooks.example.test/catch/plan"

func TestFeatures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) { initializeScenario(t, sc) },
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// world is the state of one scenario: a full router over sqlite, an
// in-memory bucket and a mocked webhook.
type world struct {
	router   http.Handler
	bucket   *gcptest.Bucket
	hooks    atomic.Int64
	hookDown atomic.Bool

	draftID    string
	status     int
	body       []byte
	documentID string
}

func initializeScenario(t *testing.T, sc *godog.ScenarioContext) {
	w := &world{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, w.boot(t)
	})

	sc.Step(`^a draft for patient "([^"]*)" at center "([^"]*)"$`, w.aDraftFor)
	sc.Step(`^I check the "([^"]*)" category$`, func(cat string) error { return w.setCategory(cat, true) })
	sc.Step(`^I uncheck the "([^"]*)" category$`, func(cat string) error { return w.setCategory(cat, false) })
	sc.Step(`^I click tooth (\d+) on the "([^"]*)" chart$`, w.clickTooth)
	sc.Step(`^I attach the file "([^"]*)"$`, w.attachFile)
	sc.Step(`^uploads of "([^"]*)" fail$`, w.uploadsFail)
	sc.Step(`^the webhook is down$`, func() error { w.hookDown.Store(true); return nil })
	sc.Step(`^I submit the draft$`, w.submit)

	sc.Step(`^the response status is (\d+)$`, w.statusIs)
	sc.Step(`^the draft lists teeth "([^"]*)" under "([^"]*)"$`, w.draftListsTeeth)
	sc.Step(`^the document id is "([^"]*)"$`, w.documentIDIs)
	sc.Step(`^the saved document contains "([^"]*)"$`, w.savedDocumentContains)
	sc.Step(`^the saved plan lists teeth "([^"]*)" under "([^"]*)"$`, w.savedPlanListsTeeth)
	sc.Step(`^the saved plan has exactly the attachments "([^"]*)"$`, w.savedPlanAttachments)
	sc.Step(`^the notices include an? (\w+) "([^"]*)"$`, w.noticesInclude)
	sc.Step(`^the webhook was called (\d+) times?$`, w.webhookCalled)
	sc.Step(`^(\d+) plans? (?:is|are) stored for patient "([^"]*)"$`, w.plansStored)
}

func (w *world) boot(t *testing.T) error {
	log := testutil.Logger(t)
	w.hooks.Store(0)
	w.hookDown.Store(false)
	w.draftID, w.documentID = "", ""

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, hookURL, func(*http.Request) (*http.Response, error) {
		w.hooks.Add(1)
		if w.hookDown.Load() {
			return nil, errors.New("connection refused")
		}
		return httpmock.NewStringResponse(http.StatusOK, ""), nil
	})

	w.bucket = gcptest.NewBucket()
	cfg := app.Config{
		WebhookURL:     hookURL,
		RenderTimezone: "UTC",
		MaxBodyBytes:   8 << 20,
	}
	a, err := app.Assemble(log, cfg, &app.Clients{
		DB:                testutil.DB(t),
		Bucket:            w.bucket,
		Drafts:            session.NewMemoryStore(log, time.Hour),
		WebhookHTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		return err
	}
	w.router = a.Router
	return nil
}

func (w *world) do(method, path, contentType string, body []byte) error {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	w.router.ServeHTTP(rec, req)
	w.status = rec.Code
	w.body = rec.Body.Bytes()
	return nil
}

func (w *world) doJSON(method, path string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.do(method, path, "application/json", raw)
}

func (w *world) expectStatus(want int) error {
	if w.status != want {
		return fmt.Errorf("status: want %d, got %d (%s)", want, w.status, w.body)
	}
	return nil
}

func (w *world) aDraftFor(patientID, centerID string) error {
	path := fmt.Sprintf("/api/drafts?idPatient=%s&idCentre=%s&idPraticien=77&Patient_nom=Curie&Patient_prenom=Marie", patientID, centerID)
	if err := w.do(http.MethodPost, path, "", nil); err != nil {
		return err
	}
	if err := w.expectStatus(http.StatusCreated); err != nil {
		return err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.body, &out); err != nil {
		return err
	}
	if out.ID == "" {
		return errors.New("draft id missing")
	}
	w.draftID = out.ID
	return nil
}

func (w *world) setCategory(cat string, checked bool) error {
	path := fmt.Sprintf("/api/drafts/%s/categories/%s", w.draftID, cat)
	if err := w.doJSON(http.MethodPut, path, map[string]bool{"checked": checked}); err != nil {
		return err
	}
	return w.expectStatus(http.StatusOK)
}

// clickTooth leaves the status for a later assertion; hidden charts answer 409.
func (w *world) clickTooth(tooth int, cat string) error {
	path := fmt.Sprintf("/api/drafts/%s/categories/%s/teeth/%d/toggle", w.draftID, cat, tooth)
	return w.do(http.MethodPost, path, "", nil)
}

func (w *world) attachFile(name string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := part.Write([]byte("%PDF-1.4 " + name)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/drafts/%s/media/attachments", w.draftID)
	if err := w.do(http.MethodPost, path, mw.FormDataContentType(), buf.Bytes()); err != nil {
		return err
	}
	return w.expectStatus(http.StatusOK)
}

func (w *world) uploadsFail(name string) error {
	w.bucket.FailNames[name] = true
	return nil
}

func (w *world) submit() error {
	if err := w.do(http.MethodPost, fmt.Sprintf("/api/drafts/%s/submit", w.draftID), "", nil); err != nil {
		return err
	}
	var out struct {
		DocumentID string `json:"documentId"`
	}
	_ = json.Unmarshal(w.body, &out)
	w.documentID = out.DocumentID
	return nil
}

func (w *world) statusIs(want int) error { return w.expectStatus(want) }

func parseTeeth(raw string) []int {
	out := []int{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		var n int
		_, _ = fmt.Sscanf(p, "%d", &n)
		out = append(out, n)
	}
	return out
}

func compareTeeth(key string, got []int, raw string) error {
	want := parseTeeth(raw)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		return fmt.Errorf("%s: want %v, got %v", key, want, got)
	}
	return nil
}

// teethUnder reads a category list out of a record, looking into the
// definitive-prosthesis group when the key is not at the top level.
func teethUnder(record map[string]json.RawMessage, key string) ([]int, error) {
	raw, ok := record[key]
	if !ok {
		var defs map[string]json.RawMessage
		if err := json.Unmarshal(record["protheses_definitives"], &defs); err != nil {
			return nil, err
		}
		if raw, ok = defs[key]; !ok {
			return nil, fmt.Errorf("record has no %q list", key)
		}
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		var n int
		if _, err := fmt.Sscanf(id, "%d", &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (w *world) draftListsTeeth(raw, key string) error {
	if err := w.do(http.MethodGet, "/api/drafts/"+w.draftID, "", nil); err != nil {
		return err
	}
	if err := w.expectStatus(http.StatusOK); err != nil {
		return err
	}
	var out struct {
		Record map[string]json.RawMessage `json:"record"`
	}
	if err := json.Unmarshal(w.body, &out); err != nil {
		return err
	}
	got, err := teethUnder(out.Record, key)
	if err != nil {
		return err
	}
	return compareTeeth(key, got, raw)
}

func (w *world) documentIDIs(want string) error {
	if w.documentID != want {
		return fmt.Errorf("document id: want %q, got %q", want, w.documentID)
	}
	return nil
}

func (w *world) savedPlan() (map[string]json.RawMessage, error) {
	if err := w.do(http.MethodGet, "/api/plans/"+w.documentID, "", nil); err != nil {
		return nil, err
	}
	if err := w.expectStatus(http.StatusOK); err != nil {
		return nil, err
	}
	var out struct {
		Plan map[string]json.RawMessage `json:"plan"`
	}
	if err := json.Unmarshal(w.body, &out); err != nil {
		return nil, err
	}
	return out.Plan, nil
}

func (w *world) savedDocumentContains(text string) error {
	if err := w.do(http.MethodGet, "/api/plans/"+w.documentID+"/document", "", nil); err != nil {
		return err
	}
	if err := w.expectStatus(http.StatusOK); err != nil {
		return err
	}
	if !bytes.Contains(w.body, []byte(text)) {
		return fmt.Errorf("document does not contain %q", text)
	}
	return nil
}

func (w *world) savedPlanListsTeeth(raw, key string) error {
	rec, err := w.savedPlan()
	if err != nil {
		return err
	}
	got, err := teethUnder(rec, key)
	if err != nil {
		return err
	}
	return compareTeeth(key, got, raw)
}

func (w *world) savedPlanAttachments(raw string) error {
	rec, err := w.savedPlan()
	if err != nil {
		return err
	}
	var files []struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal(rec["uploadedFiles"], &files); err != nil {
		return err
	}
	names := []string{}
	for _, f := range files {
		names = append(names, f.Name)
		if _, ok := w.bucket.Object(gcp.BucketCategoryUploads, f.Path); !ok {
			return fmt.Errorf("%s missing from the bucket at %s", f.Name, f.Path)
		}
	}
	if got := strings.Join(names, ","); got != raw {
		return fmt.Errorf("attachments: want %q, got %q", raw, got)
	}
	return nil
}

func (w *world) noticesInclude(level, message string) error {
	var out struct {
		Notices []struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"notices"`
	}
	if err := json.Unmarshal(w.body, &out); err != nil {
		return err
	}
	for _, n := range out.Notices {
		if n.Level == level && n.Message == message {
			return nil
		}
	}
	return fmt.Errorf("no %s notice %q in %s", level, message, w.body)
}

func (w *world) webhookCalled(want int) error {
	if got := int(w.hooks.Load()); got != want {
		return fmt.Errorf("webhook calls: want %d, got %d", want, got)
	}
	return nil
}

func (w *world) plansStored(want int, patientID string) error {
	if err := w.do(http.MethodGet, "/api/plans?patientId="+patientID, "", nil); err != nil {
		return err
	}
	if err := w.expectStatus(http.StatusOK); err != nil {
		return err
	}
	var out struct {
		Plans []json.RawMessage `json:"plans"`
	}
	if err := json.Unmarshal(w.body, &out); err != nil {
		return err
	}
	if len(out.Plans) != want {
		return fmt.Errorf("plans for %s: want %d, got %d", patientID, want, len(out.Plans))
	}
	return nil
}
