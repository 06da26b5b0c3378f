package session

import (
	"net/url"
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
	"github.com/yungbote/treatmentplan-backend/internal/form"
	"github.com/yungbote/treatmentplan-backend/internal/media"
)

// State is the serializable form of a Draft.
type State struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	Context      map[string]string `json:"context"`
	Values       url.Values        `json:"values"`
	Checked      []string          `json:"checked"`
	Transitional string            `json:"transitional"`
	Selection    dental.Snapshot   `json:"selection"`

	Photos            []media.Item `json:"photos"`
	PhotoCounter      int          `json:"photo_counter"`
	Radiographs       []media.Item `json:"radiographs"`
	RadiographCounter int          `json:"radiograph_counter"`
	Attachments       []media.Item `json:"attachments"`
	AttachmentCounter int          `json:"attachment_counter"`
	Screenshot        string       `json:"screenshot,omitempty"`
	Revision          uint64       `json:"revision"`
}

func (d *Draft) State() State {
	st := State{
		ID:                d.ID,
		CreatedAt:         d.CreatedAt,
		Context:           map[string]string(d.Context),
		Values:            d.Values,
		Transitional:      d.Board.Transitional(),
		Selection:         d.Store.Snapshot(),
		Photos:            d.Photos.List(),
		PhotoCounter:      d.Photos.Counter(),
		Radiographs:       d.Radiographs.List(),
		RadiographCounter: d.Radiographs.Counter(),
		Attachments:       d.Attachments.List(),
		AttachmentCounter: d.Attachments.Counter(),
		Screenshot:        d.Screenshot.Data(),
		Revision:          d.Revision(),
	}
	for _, c := range dental.Categories() {
		if d.Board.Checked(c) {
			st.Checked = append(st.Checked, c.Key())
		}
	}
	return st
}

// FromState rebuilds a draft. Charts are shown first and their teeth applied
// through SetSelectedTeeth so the presenter matches the store.
func FromState(st State) *Draft {
	d := NewDraft(form.Context(st.Context))
	d.ID = st.ID
	d.CreatedAt = st.CreatedAt
	if st.Values != nil {
		d.Values = st.Values
	}
	st.Selection.Normalize()
	for _, key := range st.Checked {
		c, err := dental.ParseCategory(key)
		if err != nil {
			continue
		}
		d.Board.SetChecked(c, true)
	}
	for _, c := range dental.Categories() {
		if teeth := st.Selection.Teeth(c); len(teeth) > 0 {
			d.Board.Chart(c).SetSelectedTeeth(teeth)
		}
	}
	d.Photos.Load(st.Photos, st.PhotoCounter)
	d.Radiographs.Load(st.Radiographs, st.RadiographCounter)
	d.Attachments.Load(st.Attachments, st.AttachmentCounter)
	d.Screenshot.Set(st.Screenshot)
	d.revision.Store(st.Revision)
	return d
}
