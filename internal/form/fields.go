package form

import (
	"net/url"
	"strings"
)

// Fields reads the plan form. Absent fields read as zero values.
type Fields interface {
	Checkbox(id string) bool
	Radio(name string) string
	Text(id string) string
}

// ValuesFields adapts submitted form values. A checkbox is checked when its
// value is present and not an explicit off value.
type ValuesFields url.Values

func (v ValuesFields) Text(id string) string {
	return strings.TrimSpace(url.Values(v).Get(id))
}

func (v ValuesFields) Radio(name string) string {
	return v.Text(name)
}

func (v ValuesFields) Checkbox(id string) bool {
	vals, ok := v[id]
	if !ok || len(vals) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(vals[0])) {
	case "", "0", "false", "off", "no", "non":
		return false
	}
	return true
}

// MapFields is a simple in-memory form state.
type MapFields struct {
	Checked map[string]bool
	Radios  map[string]string
	Texts   map[string]string
}

func (m MapFields) Checkbox(id string) bool { return m.Checked[id] }

func (m MapFields) Radio(name string) string { return strings.TrimSpace(m.Radios[name]) }

func (m MapFields) Text(id string) string { return strings.TrimSpace(m.Texts[id]) }
