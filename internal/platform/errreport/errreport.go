package errreport

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Reporter forwards terminal failures to Sentry. A Reporter built without a
// DSN is inert, so callers never need to nil-check it.
type Reporter struct {
	log     *logger.Logger
	enabled bool
}

func New(log *logger.Logger, cfg Config) (*Reporter, error) {
	r := &Reporter{log: log.With("service", "ErrorReporter")}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		r.log.Info("Error reporting disabled (no SENTRY_DSN)")
		return r, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		SampleRate:       1.0,
		AttachStacktrace: true,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       "",
		BeforeSend:       scrubEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	r.enabled = true
	r.log.Info("Error reporting enabled", "environment", cfg.Environment)
	return r, nil
}

func (r *Reporter) Enabled() bool { return r != nil && r.enabled }

// Capture reports err tagged with the component and the given tags. Tag values
// must not carry patient names or notes.
func (r *Reporter) Capture(component string, err error, tags map[string]string) {
	if !r.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetFingerprint([]string{component, fmt.Sprintf("%T", err)})
		sentry.CaptureException(err)
	})
}

func (r *Reporter) Flush(timeout time.Duration) {
	if !r.Enabled() {
		return
	}
	sentry.Flush(timeout)
}

// Request bodies and user data can contain patient records.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil {
		return nil
	}
	event.User = sentry.User{}
	if event.Request != nil {
		event.Request.Data = ""
		event.Request.Cookies = ""
		event.Request.QueryString = ""
	}
	return event
}
