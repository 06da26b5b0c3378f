package chart

import (
	"strings"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
)

// Presenter draws charts. Materialize is called at most once per category;
// Update repaints a single target.
type Presenter interface {
	Materialize(c dental.Category, teeth []dental.ToothID)
	Update(c dental.Category, tooth dental.ToothID, selected bool)
	SetVisible(c dental.Category, visible bool)
}

// Chart is the interactive picker bound to one category's selection set.
type Chart struct {
	category  dental.Category
	store     *dental.Store
	presenter Presenter
	rendered  bool
	visible   bool
}

func (ch *Chart) Category() dental.Category { return ch.category }

func (ch *Chart) Rendered() bool { return ch.rendered }

func (ch *Chart) Visible() bool { return ch.visible }

// EnsureRendered materializes the 32 targets on first call only.
func (ch *Chart) EnsureRendered() {
	if ch.rendered {
		return
	}
	ch.rendered = true
	ch.presenter.Materialize(ch.category, dental.Catalog())
	for _, t := range ch.store.Selected(ch.category) {
		ch.presenter.Update(ch.category, t, true)
	}
}

func (ch *Chart) Show() {
	ch.EnsureRendered()
	ch.visible = true
	ch.presenter.SetVisible(ch.category, true)
}

// Hide discards the category's selections along with the chart.
func (ch *Chart) Hide() {
	ch.visible = false
	ch.store.Clear(ch.category)
	if ch.rendered {
		ch.presenter.SetVisible(ch.category, false)
	}
}

// Click toggles the tooth and reports its new state. Unknown ids are ignored.
func (ch *Chart) Click(tooth dental.ToothID) bool {
	ch.EnsureRendered()
	if !tooth.Valid() {
		return false
	}
	return ch.store.Toggle(ch.category, tooth)
}

// Activate handles a key press on a focused target: Enter and Space act as a
// click, anything else is ignored. handled reports whether the key was used.
func (ch *Chart) Activate(tooth dental.ToothID, key string) (selected bool, handled bool) {
	if !IsActivationKey(key) {
		return ch.store.Has(ch.category, tooth), false
	}
	return ch.Click(tooth), true
}

// SetSelectedTeeth marks the given teeth, materializing the chart first.
// Ids outside the catalog are skipped.
func (ch *Chart) SetSelectedTeeth(teeth []dental.ToothID) {
	ch.EnsureRendered()
	for _, t := range teeth {
		if t.Valid() {
			ch.store.Select(ch.category, t)
		}
	}
}

func IsActivationKey(key string) bool {
	switch key {
	case "Enter", " ", "Space", "Spacebar":
		return true
	}
	return strings.EqualFold(key, "enter") || strings.EqualFold(key, "space")
}
