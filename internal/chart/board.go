package chart

import (
	"strings"

	"github.com/yungbote/treatmentplan-backend/internal/domain/dental"
)

// Transitional prosthesis is driven by an oui/non radio group rather than a checkbox.
const (
	TransitionalYes = "oui"
	TransitionalNo  = "non"
)

// Board owns one chart per category over a shared store and keeps the
// presenter in sync with every store change.
type Board struct {
	store        *dental.Store
	presenter    Presenter
	charts       map[dental.Category]*Chart
	transitional string
}

func NewBoard(store *dental.Store, presenter Presenter) *Board {
	b := &Board{
		store:        store,
		presenter:    presenter,
		charts:       make(map[dental.Category]*Chart),
		transitional: TransitionalNo,
	}
	for _, c := range dental.Categories() {
		b.charts[c] = &Chart{category: c, store: store, presenter: presenter}
	}
	store.Observe(func(c dental.Category, tooth dental.ToothID, selected bool) {
		if ch := b.charts[c]; ch != nil && ch.rendered {
			presenter.Update(c, tooth, selected)
		}
	})
	return b
}

func (b *Board) Store() *dental.Store { return b.store }

// Chart returns the chart for c and panics on an invalid category.
func (b *Board) Chart(c dental.Category) *Chart {
	ch, ok := b.charts[c]
	if !ok {
		panic(&dental.InvalidCategoryError{Category: c})
	}
	return ch
}

// SetChecked applies a category checkbox: checking shows the chart, unchecking
// hides it and clears the selection.
func (b *Board) SetChecked(c dental.Category, on bool) {
	ch := b.Chart(c)
	if c == dental.TransitionalProsthesis {
		if on {
			b.transitional = TransitionalYes
		} else {
			b.transitional = TransitionalNo
		}
	}
	if on {
		ch.Show()
		return
	}
	ch.Hide()
}

func (b *Board) Checked(c dental.Category) bool { return b.Chart(c).visible }

// SelectTransitional applies the radio group; any value but "oui" reads as "non".
func (b *Board) SelectTransitional(value string) {
	b.SetChecked(dental.TransitionalProsthesis, strings.EqualFold(strings.TrimSpace(value), TransitionalYes))
}

func (b *Board) Transitional() string { return b.transitional }

// Restore re-applies a saved snapshot: categories with teeth get their chart
// shown and pre-selected, the others are hidden and cleared.
func (b *Board) Restore(snap dental.Snapshot) {
	for _, c := range dental.Categories() {
		teeth := snap.Teeth(c)
		if len(teeth) == 0 {
			b.SetChecked(c, false)
			continue
		}
		b.store.Clear(c)
		b.SetChecked(c, true)
		b.Chart(c).SetSelectedTeeth(teeth)
	}
}
