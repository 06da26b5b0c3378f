package plan

import (
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
)

type Patient struct {
	ID     string `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}

// DisplayName is "Prénom Nom", or "Patient #id" when no name is known.
func (p Patient) DisplayName() string {
	name := joinNonEmpty(p.Prenom, p.Nom)
	if name != "" {
		return name
	}
	if p.ID != "" {
		return "Patient #" + p.ID
	}
	return ""
}

type Party struct {
	ID  string `json:"id"`
	Nom string `json:"nom"`
}

// DefinitiveFlags mirrors the four definitive-prosthesis checkboxes. The
// selected teeth themselves live in Snapshot.ProthesesDefinitives.
type DefinitiveFlags struct {
	InlayCore        bool `json:"inlay_core"`
	Couronne         bool `json:"couronne"`
	Onlay            bool `json:"onlay"`
	ProtheseAmovible bool `json:"prothese_amovible"`
}

func (f DefinitiveFlags) Enabled(c dental.Category) bool {
	switch c {
	case dental.DefinitiveCore:
		return f.InlayCore
	case dental.DefinitiveCrown:
		return f.Couronne
	case dental.DefinitiveOnlay:
		return f.Onlay
	case dental.DefinitiveRemovable:
		return f.ProtheseAmovible
	}
	return false
}

// MediaItem is a photo or radiograph embedded in the record.
type MediaItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CapturedAt string `json:"date"`
	Data       string `json:"data,omitempty"`
	URL        string `json:"url,omitempty"`
}

// UploadedFile is an attachment that made it to the blob store.
type UploadedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

// Record is the aggregated treatment plan for one patient visit.
type Record struct {
	IDPatient   string `json:"idPatient"`
	IDPraticien string `json:"idPraticien"`
	IDCentre    string `json:"idCentre"`

	Patient   Patient `json:"patient"`
	Praticien Party   `json:"praticien"`
	Centre    Party   `json:"centre"`

	// Treatment date as entered (YYYY-MM-DD), empty when unset.
	Date string `json:"date"`

	Detartrage   bool   `json:"detartrage"`
	Transitoires string `json:"transitoires"`

	dental.Snapshot
	DefinitivesActive DefinitiveFlags `json:"protheses_definitives_actives"`

	Notes string `json:"notes"`

	Photos        []MediaItem    `json:"photos"`
	Radiographies []MediaItem    `json:"radiographies"`
	UploadedFiles []UploadedFile `json:"uploadedFiles"`
	Screenshot    string         `json:"screenshot,omitempty"`

	DocumentID string     `json:"documentId,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// HasTreatments reports whether anything would be listed in the document body.
func (r Record) HasTreatments() bool {
	return r.Detartrage || !r.Snapshot.Empty()
}

// Normalize replaces nil lists so the record serializes with [] everywhere.
func (r *Record) Normalize() {
	r.Snapshot.Normalize()
	if r.Photos == nil {
		r.Photos = []MediaItem{}
	}
	if r.Radiographies == nil {
		r.Radiographies = []MediaItem{}
	}
	if r.UploadedFiles == nil {
		r.UploadedFiles = []UploadedFile{}
	}
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
