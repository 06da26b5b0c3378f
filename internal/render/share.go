package render

import (
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
)

// ShareLinks are the hand-off links offered next to the PDF.
type ShareLinks struct {
	WhatsApp     string `json:"whatsapp"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	EmailSubject string `json:"email_subject"`
	EmailBody    string `json:"email_body"`
}

// BuildShareLinks composes the WhatsApp and mailto links for a record. When
// viewerURL is set it is appended to both messages. The date is the one the
// PDF carries, resolved in loc.
func BuildShareLinks(r plan.Record, viewerURL string, loc *time.Location) ShareLinks {
	who := r.Patient.Prenom + " " + r.Patient.Nom
	date := r.EffectiveDate(loc)
	msg := fmt.Sprintf("Plan de Traitement Dentaire\n\nPatient: %s\nDate: %s\nPraticien: %s\n\nConsultez le plan de traitement complet.",
		who, date, r.Praticien.Nom)
	subject := "Plan de Traitement - " + who
	body := fmt.Sprintf("Bonjour,\n\nVeuillez trouver ci-joint le plan de traitement dentaire.\n\nPatient: %s\nDate: %s\nPraticien: %s\n\nCordialement,\n%s",
		who, date, r.Praticien.Nom, r.Praticien.Nom)
	if viewerURL != "" {
		msg += "\n" + viewerURL
		body += "\n\n" + viewerURL
	}
	return ShareLinks{
		WhatsApp:     "https://wa.me/?text=" + plan.EncodeURIComponent(msg),
		Email:        "mailto:?subject=" + plan.EncodeURIComponent(subject) + "&body=" + plan.EncodeURIComponent(body),
		Message:      msg,
		EmailSubject: subject,
		EmailBody:    body,
	}
}

const DefaultQRSize = 256

// QRCode encodes link as a PNG QR code.
func QRCode(link string, size int) ([]byte, error) {
	if strings.TrimSpace(link) == "" {
		return nil, fmt.Errorf("qr code: empty link")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	return png, nil
}
