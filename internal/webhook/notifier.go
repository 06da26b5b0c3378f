package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

const DefaultURL = "https://workflow-automation.podio.com/catch/jv551cn4bd2d5n1"

// Params are the query parameters the workflow expects.
type Params struct {
	PractitionerID string
	CenterID       string
	// PatientLink is the deep link into the patient navigation system.
	PatientLink string
	// PlanLink is the viewer link of the saved plan.
	PlanLink string
}

func (p Params) Query() url.Values {
	q := url.Values{}
	q.Set("idPraticien", p.PractitionerID)
	q.Set("idCentre", p.CenterID)
	q.Set("linkVeasy", p.PatientLink)
	q.Set("plandetraitement", p.PlanLink)
	return q
}

type Config struct {
	URL string
	// Timeout of zero leaves the transport defaults in place.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Notifier sends the best-effort GET notification after a plan is saved.
// The response body is never inspected and failed calls are not retried.
type Notifier struct {
	log    *logger.Logger
	url    string
	client *http.Client
}

func New(log *logger.Logger, cfg Config) *Notifier {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		u = DefaultURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Notifier{
		log:    log.With("client", "WorkflowWebhook"),
		url:    u,
		client: client,
	}
}

func (n *Notifier) Enabled() bool { return n != nil && n.url != "" }

// Notify performs the call and returns the transport error, if any. Non-2xx
// responses are logged but not treated as failures.
func (n *Notifier) Notify(ctx context.Context, p Params) error {
	if !n.Enabled() {
		return nil
	}
	target, err := n.target(p)
	if err != nil {
		n.log.Warn("Webhook URL invalid", "error", err)
		observability.Current().ObserveWebhook("invalid_url")
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn("Webhook call failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		observability.Current().ObserveWebhook("error")
		return fmt.Errorf("webhook call: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	n.log.Info("Webhook notified",
		"status", resp.StatusCode,
		"practitioner_id", p.PractitionerID,
		"center_id", p.CenterID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	observability.Current().ObserveWebhook(fmt.Sprintf("%dxx", resp.StatusCode/100))
	return nil
}

func (n *Notifier) target(p Params) (string, error) {
	u, err := url.Parse(n.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range p.Query() {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
