package form

import (
	"strings"

	"github.com/yungbote/treatmentplan-backend/internal/chart"
	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
)

// Form element ids.
const (
	FieldPatientID        = "patient-id"
	FieldPatientLastName  = "patient-nom"
	FieldPatientFirstName = "patient-prenom"
	FieldPractitionerName = "praticien-nom"
	FieldTreatmentDate    = "date-traitement"
	FieldNotes            = "notes"
	FieldScaling          = "detartrage"
	FieldInlayCore        = "inlay-core"
	FieldCrown            = "couronne"
	FieldOnlay            = "onlay"
	FieldRemovable        = "prothese-amovible"
	RadioTransitional     = "transitoires"
)

// CategoryField is the checkbox that enables each category's chart.
var CategoryField = map[dental.Category]string{
	dental.Extraction:          "avulsion",
	dental.Restoration:         "restauration",
	dental.Endodontic:          "endo",
	dental.Implant:             "implant",
	dental.Periodontal:         "parodonto",
	dental.DefinitiveCore:      FieldInlayCore,
	dental.DefinitiveCrown:     FieldCrown,
	dental.DefinitiveOnlay:     FieldOnlay,
	dental.DefinitiveRemovable: FieldRemovable,
}

type Aggregator struct{}

// Collect builds a record from the current form state. It only reads its
// inputs. Identity values come from the form field first, then the context.
// Media and document metadata are attached later by the caller.
func (Aggregator) Collect(f Fields, ctx Context, snap dental.Snapshot) plan.Record {
	patientID := firstNonEmpty(f.Text(FieldPatientID), ctx.PatientID())
	r := plan.Record{
		IDPatient:   patientID,
		IDPraticien: ctx.PractitionerID(),
		IDCentre:    ctx.CenterID(),
		Patient: plan.Patient{
			ID:     patientID,
			Nom:    firstNonEmpty(f.Text(FieldPatientLastName), ctx.PatientLastName()),
			Prenom: firstNonEmpty(f.Text(FieldPatientFirstName), ctx.PatientFirstName()),
		},
		Praticien: plan.Party{
			ID:  ctx.PractitionerID(),
			Nom: firstNonEmpty(f.Text(FieldPractitionerName), ctx.PractitionerName()),
		},
		Centre: plan.Party{
			ID:  ctx.CenterID(),
			Nom: ctx.CenterName(),
		},
		Date:         f.Text(FieldTreatmentDate),
		Detartrage:   f.Checkbox(FieldScaling),
		Transitoires: transitionalValue(f.Radio(RadioTransitional)),
		Snapshot:     snap,
		DefinitivesActive: plan.DefinitiveFlags{
			InlayCore:        f.Checkbox(FieldInlayCore),
			Couronne:         f.Checkbox(FieldCrown),
			Onlay:            f.Checkbox(FieldOnlay),
			ProtheseAmovible: f.Checkbox(FieldRemovable),
		},
		Notes: f.Text(FieldNotes),
	}
	r.Normalize()
	return r
}

func transitionalValue(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), chart.TransitionalYes) {
		return chart.TransitionalYes
	}
	return chart.TransitionalNo
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
