package render

import (
	"fmt"
	"html/template"
	"strconv"
	"time"
	_ "time/tzdata"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

type Config struct {
	// FontPath overrides the body font; the Go fonts are used otherwise.
	FontPath string
	// CacheTTL of zero disables the render cache.
	CacheTTL time.Duration
	Location *time.Location
}

// Renderer turns records into HTML, text, chart images and PDF. Output for a
// given record is deterministic; saved records are cached by document id and
// update time.
type Renderer struct {
	log   *logger.Logger
	tmpl  *template.Template
	fonts fontSet
	loc   *time.Location
	cache *gocache.Cache
}

func New(log *logger.Logger, cfg Config) (*Renderer, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	fonts, err := loadFonts(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location
	if loc == nil {
		loc = DefaultLocation()
	}
	r := &Renderer{
		log:   log.With("service", "DocumentRenderer"),
		tmpl:  tmpl,
		fonts: fonts,
		loc:   loc,
	}
	if cfg.CacheTTL > 0 {
		r.cache = gocache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	}
	return r, nil
}

// DefaultLocation is Europe/Paris, or UTC when the zone database is missing.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Location is the zone dates and the generation stamp are rendered in.
func (r *Renderer) Location() *time.Location { return r.loc }

func (r *Renderer) Document(rec plan.Record) Document {
	return BuildDocument(rec, r.loc)
}

// HTML renders the standalone printable page.
func (r *Renderer) HTML(rec plan.Record) (string, error) {
	out, err := r.cached(rec, "html", func() ([]byte, error) {
		s, err := executeTemplate(r.tmpl, "document", r.Document(rec))
		return []byte(s), err
	})
	return string(out), err
}

// Fragment renders the document body without the page shell, as used for an
// in-page preview.
func (r *Renderer) Fragment(rec plan.Record) (string, error) {
	return executeTemplate(r.tmpl, "body", r.Document(rec))
}

func cacheKey(rec plan.Record, format string) (string, bool) {
	if rec.DocumentID == "" || rec.UpdatedAt == nil {
		return "", false
	}
	return rec.DocumentID + "|" + strconv.FormatInt(rec.UpdatedAt.UnixNano(), 10) + "|" + format, true
}

func (r *Renderer) cached(rec plan.Record, format string, build func() ([]byte, error)) ([]byte, error) {
	key, ok := cacheKey(rec, format)
	if ok && r.cache != nil {
		if v, hit := r.cache.Get(key); hit {
			observability.Current().ObserveRender(format, true)
			return v.([]byte), nil
		}
	}
	out, err := build()
	if err != nil {
		return nil, err
	}
	observability.Current().ObserveRender(format, false)
	if ok && r.cache != nil {
		r.cache.SetDefault(key, out)
	}
	return out, nil
}
