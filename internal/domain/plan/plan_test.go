package plan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
)

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "4711_12", DocumentID("4711", "12"))
	assert.Equal(t, "unknown_12", DocumentID("", "12"))
	assert.Equal(t, "unknown_unknown", DocumentID(" ", ""))
	assert.Equal(t, DocumentID("4711", "12"), DocumentID("4711", "12"))

	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "4711_1700000000123", AdHocDocumentID("4711", at))
	assert.Equal(t, "unknown_1700000000123", AdHocDocumentID("", at))
}

func TestUploadKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "uploads/4711/1700000000123_devis%20sign%C3%A9.pdf", UploadKey("4711", at, "devis signé.pdf"))
	assert.Equal(t, "uploads/default/1700000000123_a(1).png", UploadKey("", at, "a(1).png"))
	assert.Equal(t, "a%20b!'()*%26%C3%A9", EncodeURIComponent("a b!'()*&é"))
}

func TestExportFileName(t *testing.T) {
	r := Record{Patient: Patient{Nom: "Le Gall", Prenom: "Anne  Marie"}, Date: "2024-03-05"}
	assert.Equal(t, "Plan_Traitement_Le_Gall_Anne_Marie_2024-03-05.pdf", ExportFileName(r, nil))
}

func TestExportFileNameWithoutTreatmentDate(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	late := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	restore := now
	now = func() time.Time { return late }
	t.Cleanup(func() { now = restore })

	// Unsaved plan: today, in the rendering zone.
	assert.Equal(t, "Plan_Traitement_Patient__2024-03-06.pdf", ExportFileName(Record{}, paris))
	assert.Equal(t, "2024-03-05", Record{}.EffectiveDate(nil))

	saved := time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-09", Record{UpdatedAt: &saved}.EffectiveDate(paris))
}

func TestLinks(t *testing.T) {
	l := DefaultLinks()
	assert.Equal(t, "https://pdt.cemedis.app/view.html?id=4711_12", l.Viewer("4711_12"))
	assert.Equal(t, "https://patient.visiodent.com/patient/Navigation/SetCurrentPatient/4711", l.PatientNavigation("4711"))
	assert.Equal(t, "success.html?id=4711_12", ConfirmationPath("4711_12"))
}

func TestRecordJSONInlinesSelections(t *testing.T) {
	s := dental.NewStore()
	s.Select(dental.DefinitiveCrown, 11)
	r := Record{IDPatient: "4711", Snapshot: s.Snapshot(), DefinitivesActive: DefinitiveFlags{Couronne: true}}
	r.Normalize()

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, []any{}, doc["avulsions"])
	def, ok := doc["protheses_definitives"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"11"}, def["couronnes"])
	flags := doc["protheses_definitives_actives"].(map[string]any)
	assert.Equal(t, true, flags["couronne"])
	assert.NotContains(t, doc, "createdAt")
}

func TestTreatmentPlanRoundTripStampsMetadata(t *testing.T) {
	r := Record{IDPatient: "4711", IDCentre: "12", IDPraticien: "7", Notes: "contrôle à 6 mois"}
	tp, err := NewTreatmentPlan("4711_12", r)
	require.NoError(t, err)
	assert.Equal(t, "4711", tp.PatientID)
	assert.Equal(t, "7", tp.PractitionerID)

	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	tp.CreatedAt, tp.UpdatedAt = now, now
	got, err := tp.Decode()
	require.NoError(t, err)
	assert.Equal(t, "4711_12", got.DocumentID)
	assert.Equal(t, "contrôle à 6 mois", got.Notes)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.Equal(now))
	assert.NotNil(t, got.Implants)
}

func TestPatientDisplayName(t *testing.T) {
	assert.Equal(t, "Anne Durand", Patient{Nom: "Durand", Prenom: "Anne"}.DisplayName())
	assert.Equal(t, "Patient #4711", Patient{ID: "4711"}.DisplayName())
	assert.Equal(t, "", Patient{}.DisplayName())
}
