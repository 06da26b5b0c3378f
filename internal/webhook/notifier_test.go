package webhook

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

func newTestNotifier(t *testing.T, target string) *Notifier {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return New(log, Config{URL: target, HTTPClient: client})
}

func TestNotifySendsQueryParameters(t *testing.T) {
	n := newTestNotifier(t, "https://hooks.example.test/catch/abc")

	var got map[string]string
	httpmock.RegisterResponder(http.MethodGet, "https://hooks.example.test/catch/abc",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			got = map[string]string{
				"idPraticien":      q.Get("idPraticien"),
				"idCentre":         q.Get("idCentre"),
				"linkVeasy":        q.Get("linkVeasy"),
				"plandetraitement": q.Get("plandetraitement"),
			}
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	err := n.Notify(context.Background(), Params{
		PractitionerID: "77",
		CenterID:       "12",
		PatientLink:    "https://patient.example.test/SetCurrentPatient/4711",
		PlanLink:       "https://viewer.example.test/view.html?id=4711_12",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, map[string]string{
		"idPraticien":      "77",
		"idCentre":         "12",
		"linkVeasy":        "https://patient.example.test/SetCurrentPatient/4711",
		"plandetraitement": "https://viewer.example.test/view.html?id=4711_12",
	}, got)
}

func TestNotifyIgnoresServerErrors(t *testing.T) {
	n := newTestNotifier(t, "https://hooks.example.test/catch/abc")
	httpmock.RegisterResponder(http.MethodGet, "https://hooks.example.test/catch/abc",
		httpmock.NewStringResponder(500, "boom"))

	assert.NoError(t, n.Notify(context.Background(), Params{}))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestNotifyDoesNotRetryTransportErrors(t *testing.T) {
	n := newTestNotifier(t, "https://hooks.example.test/catch/abc")
	httpmock.RegisterResponder(http.MethodGet, "https://hooks.example.test/catch/abc",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	assert.Error(t, n.Notify(context.Background(), Params{CenterID: "12"}))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestNewDefaultsURL(t *testing.T) {
	log, err := logger.New("test")
	require.NoError(t, err)
	n := New(log, Config{})
	assert.Equal(t, DefaultURL, n.url)
	assert.True(t, n.Enabled())
}
