package form

import (
	"net/url"
	"strings"
)

// Context is the identity data the form was opened with (query string or
// embedding session). Values are looked up under each accepted spelling.
type Context map[string]string

func ContextFromValues(v url.Values) Context {
	ctx := Context{}
	for k, vals := range v {
		if len(vals) > 0 {
			ctx[k] = strings.TrimSpace(vals[0])
		}
	}
	return ctx
}

// Lookup returns the first non-empty value among names.
func (c Context) Lookup(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c[n]); v != "" {
			return v
		}
	}
	return ""
}

// Parameter spellings. Ids are accepted under the legacy form link name first,
// then the practice-management integration name. Names only exist in the latter.
var (
	PatientIDParams        = []string{"idPatient", "Patient_id"}
	PractitionerIDParams   = []string{"idPraticien", "ID_praticien"}
	CenterIDParams         = []string{"idCentre", "ID_centre"}
	PatientLastNameParams  = []string{"Patient_nom"}
	PatientFirstNameParams = []string{"Patient_prenom"}
	PractitionerNameParams = []string{"Praticien_nom"}
	CenterNameParams       = []string{"Centre_nom"}
)

func (c Context) PatientID() string        { return c.Lookup(PatientIDParams...) }
func (c Context) PractitionerID() string   { return c.Lookup(PractitionerIDParams...) }
func (c Context) CenterID() string         { return c.Lookup(CenterIDParams...) }
func (c Context) PatientLastName() string  { return c.Lookup(PatientLastNameParams...) }
func (c Context) PatientFirstName() string { return c.Lookup(PatientFirstNameParams...) }
func (c Context) PractitionerName() string { return c.Lookup(PractitionerNameParams...) }
func (c Context) CenterName() string       { return c.Lookup(CenterNameParams...) }
