package chart

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
)

var toothTmpl = template.Must(template.New("tooth").Parse(
	`<div class="tooth{{if .Selected}} selected {{.Class}}{{end}}" role="button" tabindex="0" ` +
		`aria-label="Dent {{.ID}}" aria-pressed="{{.Selected}}" data-tooth="{{.ID}}" data-category="{{.Key}}">{{.ID}}</div>`))

var chartTmpl = template.Must(template.New("chart").Parse(
	`<div class="dental-chart" id="chart-{{.Key}}" data-category="{{.Key}}"{{if not .Visible}} hidden{{end}}>` +
		`<div class="arch upper">{{range .Upper}}{{.}}{{end}}</div>` +
		`<div class="arch lower">{{range .Lower}}{{.}}{{end}}</div>` +
		`</div>`))

type toothView struct {
	ID       dental.ToothID
	Key      string
	Class    string
	Selected bool
}

type chartState struct {
	teeth    map[dental.ToothID]template.HTML
	visible  bool
	rendered int
}

// HTMLPresenter keeps an accessible markup fragment per chart. Each tooth is
// rendered independently so Update touches one element only.
type HTMLPresenter struct {
	mu     sync.RWMutex
	charts map[dental.Category]*chartState
}

func NewHTMLPresenter() *HTMLPresenter {
	return &HTMLPresenter{charts: map[dental.Category]*chartState{}}
}

// Classes used for the selected state, matching the stylesheet.
func cssClass(c dental.Category) string {
	switch c {
	case dental.Extraction:
		return "avulsion"
	case dental.Restoration:
		return "restauration"
	case dental.Endodontic:
		return "endo"
	case dental.Implant:
		return "implant"
	case dental.Periodontal:
		return "parodonto"
	case dental.TransitionalProsthesis:
		return "transitoire"
	default:
		return "definitive"
	}
}

func renderTooth(c dental.Category, t dental.ToothID, selected bool) template.HTML {
	var buf bytes.Buffer
	_ = toothTmpl.Execute(&buf, toothView{ID: t, Key: c.Key(), Class: cssClass(c), Selected: selected})
	return template.HTML(buf.String())
}

func (p *HTMLPresenter) Materialize(c dental.Category, teeth []dental.ToothID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.charts[c]
	if st == nil {
		st = &chartState{}
		p.charts[c] = st
	}
	st.rendered++
	st.teeth = make(map[dental.ToothID]template.HTML, len(teeth))
	for _, t := range teeth {
		st.teeth[t] = renderTooth(c, t, false)
	}
}

func (p *HTMLPresenter) Update(c dental.Category, tooth dental.ToothID, selected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.charts[c]
	if st == nil || st.teeth == nil {
		return
	}
	if _, ok := st.teeth[tooth]; !ok {
		return
	}
	st.teeth[tooth] = renderTooth(c, tooth, selected)
}

func (p *HTMLPresenter) SetVisible(c dental.Category, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.charts[c]
	if st == nil {
		st = &chartState{}
		p.charts[c] = st
	}
	st.visible = visible
}

// Materializations reports how many times the chart for c was built.
func (p *HTMLPresenter) Materializations(c dental.Category) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if st := p.charts[c]; st != nil {
		return st.rendered
	}
	return 0
}

// ToothFragment returns the current markup of one target, or "" when the
// chart has not been materialized.
func (p *HTMLPresenter) ToothFragment(c dental.Category, tooth dental.ToothID) template.HTML {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if st := p.charts[c]; st != nil {
		return st.teeth[tooth]
	}
	return ""
}

// Fragment returns the whole chart markup, or "" before materialization.
func (p *HTMLPresenter) Fragment(c dental.Category) template.HTML {
	p.mu.RLock()
	st := p.charts[c]
	if st == nil || st.teeth == nil {
		p.mu.RUnlock()
		return ""
	}
	view := struct {
		Key          string
		Visible      bool
		Upper, Lower []template.HTML
	}{Key: c.Key(), Visible: st.visible}
	for _, t := range dental.UpperArch() {
		view.Upper = append(view.Upper, st.teeth[t])
	}
	for _, t := range dental.LowerArch() {
		view.Lower = append(view.Lower, st.teeth[t])
	}
	p.mu.RUnlock()

	var buf bytes.Buffer
	_ = chartTmpl.Execute(&buf, view)
	return template.HTML(buf.String())
}
