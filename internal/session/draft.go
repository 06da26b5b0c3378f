package session

import (
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/treatmentplan-backend/internal/chart"
	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/form"
	"github.com/yungbote/treatmentplan-backend/internal/media"
)

// Draft is the server-side state of one open plan form: identity context,
// field values, the selection store with its charts, and collected media.
// Callers hold Lock while mutating through several calls.
type Draft struct {
	sync.Mutex

	ID        string
	CreatedAt time.Time
	Context   form.Context
	Values    url.Values

	Store     *dental.Store
	Presenter *chart.HTMLPresenter
	Board     *chart.Board

	Photos      *media.Collector
	Radiographs *media.Collector
	Attachments *media.Collector
	Screenshot  media.Screenshot

	revision atomic.Uint64
}

func NewDraft(ctx form.Context) *Draft {
	if ctx == nil {
		ctx = form.Context{}
	}
	d := &Draft{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Context:     ctx,
		Values:      url.Values{},
		Store:       dental.NewStore(),
		Presenter:   chart.NewHTMLPresenter(),
		Photos:      media.NewCollector(media.KindPhoto),
		Radiographs: media.NewCollector(media.KindRadiograph),
		Attachments: media.NewCollector(media.KindAttachment),
	}
	d.Board = chart.NewBoard(d.Store, d.Presenter)
	d.Store.Observe(func(dental.Category, dental.ToothID, bool) { d.revision.Add(1) })
	return d
}

// Revision increases on every effective selection change.
func (d *Draft) Revision() uint64 { return d.revision.Load() }

func (d *Draft) Collector(k media.Kind) *media.Collector {
	switch k {
	case media.KindPhoto:
		return d.Photos
	case media.KindRadiograph:
		return d.Radiographs
	case media.KindAttachment:
		return d.Attachments
	}
	return nil
}

// SetCategory applies a category checkbox and mirrors it into the form values.
func (d *Draft) SetCategory(c dental.Category, on bool) {
	d.Board.SetChecked(c, on)
	if c == dental.TransitionalProsthesis {
		d.Values.Set(form.RadioTransitional, d.Board.Transitional())
		return
	}
	field := form.CategoryField[c]
	if on {
		d.Values.Set(field, "on")
	} else {
		d.Values.Del(field)
	}
}

// MergeValues overlays submitted form values on the stored ones. Keys present
// in v replace the stored values; category checkboxes are applied to the board.
func (d *Draft) MergeValues(v url.Values) {
	f := form.ValuesFields(v)
	for c, field := range form.CategoryField {
		if _, ok := v[field]; ok {
			if on := f.Checkbox(field); on != d.Board.Checked(c) {
				d.SetCategory(c, on)
			}
		}
	}
	if _, ok := v[form.RadioTransitional]; ok {
		d.Board.SelectTransitional(f.Radio(form.RadioTransitional))
		d.Values.Set(form.RadioTransitional, d.Board.Transitional())
	}
	for k, vals := range v {
		if k == form.RadioTransitional || isCategoryField(k) {
			continue
		}
		d.Values[k] = append([]string(nil), vals...)
	}
}

// isCategoryField reports whether k is a category checkbox; those are
// written by SetCategory in their canonical form.
func isCategoryField(k string) bool {
	for _, field := range form.CategoryField {
		if field == k {
			return true
		}
	}
	return false
}

// Record aggregates the current state without media or screenshot.
func (d *Draft) Record() plan.Record {
	return form.Aggregator{}.Collect(form.ValuesFields(d.Values), d.Context, d.Store.Snapshot())
}

// RecordWithMedia aggregates the state and embeds photos and radiographs as
// data URLs, as the document renderer needs them.
func (d *Draft) RecordWithMedia() plan.Record {
	r := d.Record()
	r.Photos = embed(d.Photos.List())
	r.Radiographies = embed(d.Radiographs.List())
	return r
}

func embed(items []media.Item) []plan.MediaItem {
	out := make([]plan.MediaItem, 0, len(items))
	for _, it := range items {
		out = append(out, plan.MediaItem{
			ID:         it.ID,
			Name:       it.Name,
			CapturedAt: it.CaptureDate(),
			Data:       media.DataURL(it.ContentType, it.Data),
		})
	}
	return out
}

// LoadRecord replays a saved record into the draft: identity values, field
// values, chart selections and embedded media.
func (d *Draft) LoadRecord(r plan.Record) {
	set := func(k, v string) {
		if v != "" {
			d.Values.Set(k, v)
		}
	}
	set(form.FieldPatientID, r.IDPatient)
	set(form.FieldPatientLastName, r.Patient.Nom)
	set(form.FieldPatientFirstName, r.Patient.Prenom)
	set(form.FieldPractitionerName, r.Praticien.Nom)
	set(form.FieldTreatmentDate, r.Date)
	set(form.FieldNotes, r.Notes)
	if r.Detartrage {
		d.Values.Set(form.FieldScaling, "on")
	} else {
		d.Values.Del(form.FieldScaling)
	}
	if r.IDPraticien != "" {
		d.Context[form.PractitionerIDParams[0]] = r.IDPraticien
	}
	if r.IDCentre != "" {
		d.Context[form.CenterIDParams[0]] = r.IDCentre
	}

	d.Board.Restore(r.Snapshot)
	for _, c := range dental.Categories() {
		if c.Definitive() && r.DefinitivesActive.Enabled(c) && !d.Board.Checked(c) {
			d.Board.SetChecked(c, true)
		}
		if c == dental.TransitionalProsthesis {
			if r.Transitoires == chart.TransitionalYes && !d.Board.Checked(c) {
				d.Board.SetChecked(c, true)
			}
			d.Values.Set(form.RadioTransitional, d.Board.Transitional())
			continue
		}
		if d.Board.Checked(c) {
			d.Values.Set(form.CategoryField[c], "on")
		} else {
			d.Values.Del(form.CategoryField[c])
		}
	}

	d.Photos.Load(unembed(r.Photos), 0)
	d.Radiographs.Load(unembed(r.Radiographies), 0)
}

func unembed(items []plan.MediaItem) []media.Item {
	out := make([]media.Item, 0, len(items))
	for _, it := range items {
		ct, data, err := media.ParseDataURL(it.Data)
		if err != nil {
			continue
		}
		captured, _ := time.Parse(media.DateLayout, it.CapturedAt)
		id := it.ID
		if id == "" {
			id = uuid.New().String()
		}
		out = append(out, media.Item{
			ID:          id,
			Name:        it.Name,
			ContentType: ct,
			Size:        int64(len(data)),
			CapturedAt:  captured,
			Data:        data,
		})
	}
	return out
}
