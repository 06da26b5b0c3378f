package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/data/repos/testutil"
	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/form"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp/gcptest"
	"github.com/yungbote/treatmentplan-backend/internal/session"
	"github.com/yungbote/treatmentplan-backend/internal/webhook"
)

const hookURL = "https://hooks.example.test/catch/plan"

type fixture struct {
	bucket   *gcptest.Bucket
	plans    repos.TreatmentPlanRepo
	notifier *webhook.Notifier
	submit   SubmissionService
	hooks    *atomic.Int64
}

func newFixture(t *testing.T, cfg SubmissionConfig) *fixture {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)

	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	hooks := &atomic.Int64{}
	httpmock.RegisterResponder(http.MethodGet, hookURL, func(*http.Request) (*http.Response, error) {
		hooks.Add(1)
		return httpmock.NewStringResponse(200, ""), nil
	})

	f := &fixture{
		bucket: gcptest.NewBucket(),
		plans:  repos.New(db, log).TreatmentPlans,
		hooks:  hooks,
	}
	f.notifier = webhook.New(log, webhook.Config{URL: hookURL, HTTPClient: client})
	f.submit = NewSubmissionService(log, f.bucket, f.plans, f.notifier, nil, cfg)
	return f
}

func newDraft() *session.Draft {
	return session.NewDraft(form.Context{
		"idPatient":      "4711",
		"idCentre":       "12",
		"idPraticien":    "77",
		"Patient_nom":    "Curie",
		"Patient_prenom": "Marie",
	})
}

func TestSubmitPersistsAndNotifies(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	d := newDraft()
	d.SetCategory(dental.Implant, true)
	d.Board.Chart(dental.Implant).Click(16)
	d.SetCategory(dental.Restoration, true)
	d.Board.Chart(dental.Restoration).Click(16)

	res, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)
	assert.Equal(t, "4711_12", res.DocumentID)
	assert.Equal(t, "success.html?id=4711_12", res.RedirectURL)
	assert.Equal(t, "https://pdt.cemedis.app/view.html?id=4711_12", res.ViewerURL)
	assert.Equal(t, []Notice{{Level: NoticeSuccess, Message: MsgSubmitted}}, res.Notices)
	assert.Equal(t, int64(1), f.hooks.Load())

	row, err := f.plans.GetByDocumentID(dbctx.Background(), "4711_12")
	require.NoError(t, err)
	saved, err := row.Decode()
	require.NoError(t, err)
	assert.Equal(t, []dental.ToothID{16}, saved.Implants)
	assert.Equal(t, []dental.ToothID{16}, saved.Restaurations)
	assert.Equal(t, "Curie", saved.Patient.Nom)
	require.NotNil(t, saved.CreatedAt)
	assert.Equal(t, saved.CreatedAt, saved.UpdatedAt)
}

func TestSubmitToleratesOneFailedUpload(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	f.bucket.FailNames["broken.pdf"] = true
	d := newDraft()
	d.Attachments.Add("devis signé.pdf", "application/pdf", []byte("%PDF-1.4 ok"), time.Time{})
	d.Attachments.Add("broken.pdf", "application/pdf", []byte("%PDF-1.4 ko"), time.Time{})

	res, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)
	assert.Contains(t, res.Notices, Notice{Level: NoticeError, Message: MsgUploadFailed})
	assert.Contains(t, res.Notices, Notice{Level: NoticeSuccess, Message: MsgSubmitted})

	row, err := f.plans.GetByDocumentID(dbctx.Background(), res.DocumentID)
	require.NoError(t, err)
	saved, err := row.Decode()
	require.NoError(t, err)
	require.Len(t, saved.UploadedFiles, 1)
	up := saved.UploadedFiles[0]
	assert.Equal(t, "devis signé.pdf", up.Name)
	assert.Equal(t, "application/pdf", up.Type)
	assert.Equal(t, int64(len("%PDF-1.4 ok")), up.Size)
	assert.True(t, strings.HasPrefix(up.Path, "uploads/4711/"))
	assert.True(t, strings.HasSuffix(up.Path, "_devis%20sign%C3%A9.pdf"))
	assert.Equal(t, f.bucket.GetPublicURL(gcp.BucketCategoryUploads, up.Path), up.URL)

	obj, ok := f.bucket.Object(gcp.BucketCategoryUploads, up.Path)
	require.True(t, ok)
	assert.Equal(t, "devis signé.pdf", obj.Opts.Metadata["originalName"])
	assert.NotEmpty(t, obj.Opts.Metadata["uploadDate"])
	assert.Equal(t, 1, f.bucket.Len())
}

func TestSubmitDropsOversizedScreenshot(t *testing.T) {
	f := newFixture(t, SubmissionConfig{ScreenshotMaxChars: 16})
	d := newDraft()
	d.Screenshot.Set("data:image/png;base64," + strings.Repeat("A", 64))

	res, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)
	assert.Equal(t, Notice{Level: NoticeWarning, Message: "La capture d'écran est trop volumineuse"}, res.Notices[0])
	require.NotNil(t, res.Record)
	assert.Empty(t, res.Record.Screenshot)
}

// noisyCapture mimics a full-HD screen capture: a gradient with pixel noise
// that PNG cannot compress much.
func noisyCapture(t *testing.T) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	for i := 0; i < len(img.Pix); i += 4 {
		x := (i / 4) % 1920
		base := 96 + x/16
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = uint8(base + rng.Intn(17) - 8)
		}
		img.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLargeCaptureSurvivesSubmission(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	log := testutil.Logger(t)
	drafts := NewDraftService(log, session.NewMemoryStore(log, time.Hour), MediaConfig{})
	d := newDraft()

	capture := media.DataURL("image/png", noisyCapture(t))
	require.Greater(t, len(capture), media.MaxScreenshotChars)

	n, err := drafts.SetScreenshot(d, capture)
	require.NoError(t, err)
	assert.Equal(t, Notice{Level: NoticeSuccess, Message: MsgScreenshotTaken}, n)
	assert.True(t, strings.HasPrefix(d.Screenshot.Data(), "data:image/jpeg;base64,"))
	assert.LessOrEqual(t, len(d.Screenshot.Data()), media.MaxScreenshotChars)

	res, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)
	assert.NotContains(t, res.Notices, Notice{Level: NoticeWarning, Message: media.WarnScreenshotTooLarge})
	require.NotNil(t, res.Record)
	assert.Equal(t, d.Screenshot.Data(), res.Record.Screenshot)
}

func TestSetScreenshotRejectsNonImages(t *testing.T) {
	drafts := newDraftService(t)
	d := newDraft()
	_, err := drafts.SetScreenshot(d, media.DataURL("text/plain", []byte("hello")))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierr.As(err).Status)
	assert.Empty(t, d.Screenshot.Data())
}

func TestSubmitTwiceOverwrites(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	d := newDraft()
	d.SetCategory(dental.Extraction, true)
	d.Board.Chart(dental.Extraction).Click(38)

	first, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)
	second, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)
	assert.Equal(t, first.DocumentID, second.DocumentID)

	rows, err := f.plans.ListByPatient(dbctx.Background(), "4711", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(2), f.hooks.Load())
}

type failingRepo struct {
	repos.TreatmentPlanRepo
}

func (failingRepo) Upsert(dbctx.Context, string, plan.Record) (*plan.TreatmentPlan, error) {
	return nil, errors.New("database is locked")
}

func TestSubmitPersistFailureIsTerminal(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	svc := NewSubmissionService(testutil.Logger(t), f.bucket, failingRepo{}, f.notifier, nil, SubmissionConfig{})

	res, err := svc.Submit(context.Background(), SubmissionFromDraft(newDraft()))
	require.Error(t, err)
	ae := apierr.As(err)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "persist_failed", ae.Code)
	require.NotNil(t, res)
	assert.Empty(t, res.DocumentID)
	assert.Equal(t, []Notice{{Level: NoticeError, Message: MsgPersistFailed}}, res.Notices)
	assert.Zero(t, f.hooks.Load())
}

func TestSubmitSurvivesWebhookFailure(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	httpmock.RegisterResponder(http.MethodGet, hookURL, httpmock.NewErrorResponder(errors.New("connection refused")))

	res, err := f.submit.Submit(context.Background(), SubmissionFromDraft(newDraft()))
	require.NoError(t, err)
	assert.Equal(t, "4711_12", res.DocumentID)
	assert.Equal(t, NoticeSuccess, res.Notices[len(res.Notices)-1].Level)
}
