package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
)

func TestBuildShareLinks(t *testing.T) {
	rec := plan.Record{
		Patient:   plan.Patient{Nom: "Curie", Prenom: "Marie"},
		Praticien: plan.Party{Nom: "Dr Martin"},
		Date:      "2024-03-05",
	}
	links := BuildShareLinks(rec, "", nil)
	assert.Equal(t, "Plan de Traitement Dentaire\n\nPatient: Marie Curie\nDate: 2024-03-05\nPraticien: Dr Martin\n\nConsultez le plan de traitement complet.", links.Message)
	assert.Equal(t, "https://wa.me/?text=Plan%20de%20Traitement%20Dentaire%0A%0APatient%3A%20Marie%20Curie%0ADate%3A%202024-03-05%0APraticien%3A%20Dr%20Martin%0A%0AConsultez%20le%20plan%20de%20traitement%20complet.", links.WhatsApp)
	assert.Equal(t, "Plan de Traitement - Marie Curie", links.EmailSubject)
	assert.Contains(t, links.Email, "mailto:?subject=Plan%20de%20Traitement%20-%20Marie%20Curie&body=Bonjour%2C")
	assert.Contains(t, links.EmailBody, "Cordialement,\nDr Martin")

	withViewer := BuildShareLinks(rec, "https://viewer.example.test/view.html?id=4711_12", nil)
	assert.Contains(t, withViewer.Message, "\nhttps://viewer.example.test/view.html?id=4711_12")
}

func TestShareLinksUseSaveDayWhenDateIsBlank(t *testing.T) {
	saved := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	rec := plan.Record{
		Patient:   plan.Patient{Nom: "Curie", Prenom: "Marie"},
		Praticien: plan.Party{Nom: "Dr Martin"},
		UpdatedAt: &saved,
	}
	links := BuildShareLinks(rec, "", time.FixedZone("CET", 3600))
	assert.Contains(t, links.Message, "\nDate: 2024-03-06\n")
	assert.Contains(t, links.EmailBody, "\nDate: 2024-03-06\n")
	assert.NotContains(t, links.Message, "Date: \n")
}

func TestQRCode(t *testing.T) {
	raw, err := QRCode("https://viewer.example.test/view.html?id=4711_1700000000000", 0)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, img.Bounds().Dx())

	_, err = QRCode(" ", 128)
	assert.Error(t, err)
}
