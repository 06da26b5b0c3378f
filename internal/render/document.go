package render

import (
	"strings"
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
)

const (
	Brand         = "Hello PdT"
	Subtitle      = "Plan de Traitement Dentaire"
	EmptyMessage  = "Aucun traitement sélectionné"
	NotesTitle    = "Notes complémentaires"
	dateLayoutFR  = "02/01/2006"
	timeLayoutFR  = "15:04"
	inputDateForm = "2006-01-02"
)

// Document is the printable view of a record. It is derived from the record
// alone so the same record always yields the same document.
type Document struct {
	Date         string
	Patient      string
	Practitioner string
	Chart        StaticChart
	Legend       []LegendEntry
	Sections     []Section
	// Empty is set when no section applies; renderers print EmptyMessage.
	Empty       bool
	GeneratedAt string
}

type StaticChart struct {
	Upper []ToothMark
	Lower []ToothMark
}

// ToothMark carries one colour dot per category the tooth is assigned to.
type ToothMark struct {
	Tooth      dental.ToothID
	Categories []dental.Category
}

func (m ToothMark) Colors() []string {
	out := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		out = append(out, c.Color())
	}
	return out
}

type LegendEntry struct {
	Label string
	Color string
}

type Section struct {
	// Number is 0 for the unnumbered notes section.
	Number int
	Title  string
	Items  []Item
	Images []Image
	Notes  []string
}

// Item is a checked line, optionally followed by the teeth it applies to.
type Item struct {
	Label string
	Teeth string
}

type Image struct {
	Name string
	Data string
}

// Legend groups the definitive subtypes under a single entry since they share
// a colour.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Label: "Avulsion", Color: dental.Extraction.Color()},
		{Label: "Restauration", Color: dental.Restoration.Color()},
		{Label: "Endo", Color: dental.Endodontic.Color()},
		{Label: "Implant", Color: dental.Implant.Color()},
		{Label: "Parodonto", Color: dental.Periodontal.Color()},
		{Label: "Transitoire", Color: dental.TransitionalProsthesis.Color()},
		{Label: "Définitive", Color: dental.DefinitiveCrown.Color()},
	}
}

// BuildDocument lays out the record. loc sets the zone of the generation
// stamp; nil means UTC.
func BuildDocument(r plan.Record, loc *time.Location) Document {
	r.Normalize()
	doc := Document{
		Date:         FormatDate(r.EffectiveDate(loc)),
		Patient:      orDash(r.Patient.Prenom) + " " + orDash(r.Patient.Nom),
		Practitioner: orDash(r.Praticien.Nom),
		Chart:        staticChart(r.Snapshot),
		Legend:       Legend(),
		GeneratedAt:  generatedAt(r, loc),
	}

	add := func(s Section) {
		if len(s.Items) > 0 || len(s.Images) > 0 || len(s.Notes) > 0 {
			doc.Sections = append(doc.Sections, s)
		}
	}

	sanitation := Section{Number: 1, Title: "Assainissement"}
	if r.Detartrage {
		sanitation.Items = append(sanitation.Items, Item{Label: "Détartrage"})
	}
	sanitation.Items = appendTeeth(sanitation.Items, "Avulsions dentaires", r.Avulsions)
	add(sanitation)

	conservative := Section{Number: 2, Title: "Soins conservateurs"}
	conservative.Items = appendTeeth(conservative.Items, "Restaurations", r.Restaurations)
	conservative.Items = appendTeeth(conservative.Items, "Traitements endodontiques", r.Endo)
	add(conservative)

	complementary := Section{Number: 3, Title: "Soins complémentaires"}
	complementary.Items = appendTeeth(complementary.Items, "Pose d'implants", r.Implants)
	complementary.Items = appendTeeth(complementary.Items, "Parodontologie", r.Parodonto)
	add(complementary)

	transitional := Section{Number: 4, Title: dental.TransitionalProsthesis.Label()}
	if r.Transitoires == "oui" || len(r.ProthesesTransitoires) > 0 {
		transitional.Items = append(transitional.Items, Item{Label: "Oui", Teeth: joinTeeth(r.ProthesesTransitoires)})
	}
	add(transitional)

	definitive := Section{Number: 5, Title: "Prothèses définitives"}
	for _, c := range []dental.Category{dental.DefinitiveCore, dental.DefinitiveCrown, dental.DefinitiveOnlay, dental.DefinitiveRemovable} {
		teeth := r.Snapshot.Teeth(c)
		if r.DefinitivesActive.Enabled(c) || len(teeth) > 0 {
			definitive.Items = append(definitive.Items, Item{Label: c.Label(), Teeth: joinTeeth(teeth)})
		}
	}
	add(definitive)

	add(Section{Number: 6, Title: "Radiographies", Images: images(r.Radiographies)})
	add(Section{Number: 7, Title: "Photographies", Images: images(r.Photos)})

	if notes := strings.TrimSpace(r.Notes); notes != "" {
		add(Section{Title: NotesTitle, Notes: strings.Split(r.Notes, "\n")})
	}

	doc.Empty = len(doc.Sections) == 0
	return doc
}

func staticChart(snap dental.Snapshot) StaticChart {
	mark := func(teeth []dental.ToothID) []ToothMark {
		out := make([]ToothMark, 0, len(teeth))
		for _, t := range teeth {
			out = append(out, ToothMark{Tooth: t, Categories: snap.CategoriesFor(t)})
		}
		return out
	}
	return StaticChart{Upper: mark(dental.UpperArch()), Lower: mark(dental.LowerArch())}
}

func appendTeeth(items []Item, label string, teeth []dental.ToothID) []Item {
	if len(teeth) == 0 {
		return items
	}
	return append(items, Item{Label: label, Teeth: joinTeeth(teeth)})
}

func joinTeeth(teeth []dental.ToothID) string {
	parts := make([]string, 0, len(teeth))
	for _, t := range teeth {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}

func images(items []plan.MediaItem) []Image {
	out := make([]Image, 0, len(items))
	for _, it := range items {
		src := it.Data
		if src == "" {
			src = it.URL
		}
		if src == "" {
			continue
		}
		out = append(out, Image{Name: it.Name, Data: src})
	}
	return out
}

// FormatDate turns a YYYY-MM-DD form value into dd/mm/yyyy. Empty input gives
// "-"; unparseable input is returned as is.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	t, err := time.Parse(inputDateForm, raw)
	if err != nil {
		return raw
	}
	return t.Format(dateLayoutFR)
}

func generatedAt(r plan.Record, loc *time.Location) string {
	var at *time.Time
	switch {
	case r.UpdatedAt != nil:
		at = r.UpdatedAt
	case r.CreatedAt != nil:
		at = r.CreatedAt
	default:
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	t := at.In(loc)
	return "Document généré le " + t.Format(dateLayoutFR) + " à " + t.Format(timeLayoutFR)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
