package services

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos/testutil"
	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
	"github.com/yungbote/treatmentplan-backend/internal/render"
	"github.com/yungbote/treatmentplan-backend/internal/session"
)

func TestPlanGetNotFound(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	svc := NewPlanService(testutil.Logger(t), f.plans)

	_, err := svc.Get(context.Background(), "nope_0")
	assert.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	_, err = svc.Get(context.Background(), "  ")
	assert.Equal(t, http.StatusBadRequest, apierr.As(err).Status)
}

func TestPlanRestoreIntoFreshDraft(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	svc := NewPlanService(testutil.Logger(t), f.plans)

	d := newDraft()
	d.SetCategory(dental.Endodontic, true)
	d.Board.Chart(dental.Endodontic).Click(46)
	d.SetCategory(dental.DefinitiveOnlay, true)
	d.Board.Chart(dental.DefinitiveOnlay).Click(47)
	res, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)

	fresh := session.NewDraft(nil)
	rec, err := svc.Restore(context.Background(), fresh, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, res.DocumentID, rec.DocumentID)
	assert.True(t, fresh.Board.Checked(dental.Endodontic))
	assert.Equal(t, []dental.ToothID{46}, fresh.Store.Selected(dental.Endodontic))
	assert.Equal(t, []dental.ToothID{47}, fresh.Store.Selected(dental.DefinitiveOnlay))
	assert.Equal(t, "4711", fresh.Record().IDPatient)

	list, err := svc.ListByPatient(context.Background(), "4711", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "4711_12", list[0].DocumentID)
}

func TestShareSavesAdHocCopy(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	svc := NewShareService(testutil.Logger(t), f.plans, testLinks).(*shareService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }

	rec := newDraft().Record()
	res, err := svc.Share(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "4711_1700000000123", res.DocumentID)
	assert.Equal(t, "https://viewer.example.test/view.html?id=4711_1700000000123", res.ViewerURL)
	assert.True(t, strings.HasPrefix(res.QRCode, "data:image/png;base64,"))
	assert.Contains(t, res.Links.Message, res.ViewerURL)

	plans := NewPlanService(testutil.Logger(t), f.plans)
	saved, err := plans.Get(context.Background(), res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Curie", saved.Patient.Nom)
}

func TestExportPublish(t *testing.T) {
	f := newFixture(t, SubmissionConfig{})
	log := testutil.Logger(t)
	renderer, err := render.New(log, render.Config{Location: time.UTC})
	require.NoError(t, err)
	plans := NewPlanService(log, f.plans)
	svc := NewExportService(log, plans, renderer, f.bucket)

	d := newDraft()
	d.Values.Set("date-traitement", "2024-03-05")
	res, err := f.submit.Submit(context.Background(), SubmissionFromDraft(d))
	require.NoError(t, err)

	exp, err := svc.Publish(context.Background(), res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Plan_Traitement_Curie_Marie_2024-03-05.pdf", exp.FileName)
	assert.True(t, bytes.HasPrefix(exp.PDF, []byte("%PDF-")))

	key := "exports/4711_12/Plan_Traitement_Curie_Marie_2024-03-05.pdf"
	obj, ok := f.bucket.Object(gcp.BucketCategoryExports, key)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.Opts.ContentType)
	assert.Equal(t, f.bucket.GetPublicURL(gcp.BucketCategoryExports, key), exp.URL)

	_, err = svc.Export(context.Background(), "missing_0")
	assert.Equal(t, http.StatusNotFound, apierr.As(err).Status)
}
