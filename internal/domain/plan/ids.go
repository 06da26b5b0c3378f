package plan

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const unknownID = "unknown"

// DocumentID derives the storage key of a submitted plan. Two submissions for
// the same patient and center share an id and the later one overwrites.
func DocumentID(patientID, centerID string) string {
	return orUnknown(patientID) + "_" + orUnknown(centerID)
}

// AdHocDocumentID keys a plan shared outside the submission flow.
func AdHocDocumentID(patientID string, at time.Time) string {
	return fmt.Sprintf("%s_%d", orUnknown(patientID), at.UnixMilli())
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return unknownID
	}
	return s
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var now = time.Now

// EffectiveDate is the treatment date as entered (YYYY-MM-DD). Without one it
// is the day the plan was last saved, or today for a plan not saved yet, in loc.
func (r Record) EffectiveDate(loc *time.Location) string {
	if d := strings.TrimSpace(r.Date); d != "" {
		return d
	}
	if loc == nil {
		loc = time.UTC
	}
	at := now()
	switch {
	case r.UpdatedAt != nil:
		at = *r.UpdatedAt
	case r.CreatedAt != nil:
		at = *r.CreatedAt
	}
	return at.In(loc).Format(time.DateOnly)
}

// ExportFileName is Plan_Traitement_{nom}_{prenom}_{date}.pdf with every run
// of whitespace replaced by an underscore.
func ExportFileName(r Record, loc *time.Location) string {
	nom := r.Patient.Nom
	if nom == "" {
		nom = "Patient"
	}
	name := fmt.Sprintf("Plan_Traitement_%s_%s_%s.pdf", nom, r.Patient.Prenom, r.EffectiveDate(loc))
	return whitespaceRun.ReplaceAllString(name, "_")
}

// Links builds the outward URLs that reference a saved plan.
type Links struct {
	ViewerBaseURL     string
	PatientNavBaseURL string
}

func DefaultLinks() Links {
	return Links{
		ViewerBaseURL:     "https://pdt.cemedis.app/view.html",
		PatientNavBaseURL: "https://patient.visiodent.com/patient/Navigation/SetCurrentPatient/",
	}
}

func (l Links) Viewer(documentID string) string {
	return l.ViewerBaseURL + "?id=" + url.QueryEscape(documentID)
}

func (l Links) PatientNavigation(patientID string) string {
	return l.PatientNavBaseURL + url.PathEscape(patientID)
}

// EncodeURIComponent escapes like the browser function of the same name:
// spaces become %20 and !'()* are left as is.
func EncodeURIComponent(s string) string {
	e := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return strings.NewReplacer("%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*").Replace(e)
}

// UploadKey is the blob path of an attachment:
// uploads/{patient}/{millis}_{escaped name}, with "default" for an unknown patient.
func UploadKey(patientID string, at time.Time, name string) string {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		patientID = "default"
	}
	return fmt.Sprintf("uploads/%s/%d_%s", patientID, at.UnixMilli(), EncodeURIComponent(name))
}

// ConfirmationPath is where the form redirects after a successful submit.
func ConfirmationPath(documentID string) string {
	return "success.html?id=" + url.QueryEscape(documentID)
}
