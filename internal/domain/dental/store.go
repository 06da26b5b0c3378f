package dental

import (
	"sort"
	"sync"
)

// ChangeFunc observes effective membership changes of a Store.
type ChangeFunc func(c Category, tooth ToothID, selected bool)

// Store holds, per category, the set of selected teeth. Categories are
// independent: a tooth may be selected in any number of them at once.
type Store struct {
	mu        sync.RWMutex
	sets      map[Category]map[ToothID]struct{}
	observers []ChangeFunc
}

func NewStore() *Store {
	s := &Store{sets: make(map[Category]map[ToothID]struct{}, len(categoryTable))}
	for _, c := range Categories() {
		s.sets[c] = map[ToothID]struct{}{}
	}
	return s
}

// Observe registers fn for every later change. Callbacks run after the
// store lock is released.
func (s *Store) Observe(fn ChangeFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// mustCategory panics before any lock is taken so a bad call never leaves the
// store locked.
func mustCategory(c Category) {
	if !c.Valid() {
		panic(&InvalidCategoryError{Category: c})
	}
}

func (s *Store) set(c Category) map[ToothID]struct{} { return s.sets[c] }

func (s *Store) notify(c Category, tooth ToothID, selected bool) {
	s.mu.RLock()
	obs := append([]ChangeFunc(nil), s.observers...)
	s.mu.RUnlock()
	for _, fn := range obs {
		fn(c, tooth, selected)
	}
}

// Select is idempotent. Ids outside the catalog are ignored.
func (s *Store) Select(c Category, tooth ToothID) {
	mustCategory(c)
	s.mu.Lock()
	set := s.set(c)
	_, had := set[tooth]
	if !had && tooth.Valid() {
		set[tooth] = struct{}{}
	}
	s.mu.Unlock()
	if !had && tooth.Valid() {
		s.notify(c, tooth, true)
	}
}

func (s *Store) Deselect(c Category, tooth ToothID) {
	mustCategory(c)
	s.mu.Lock()
	set := s.set(c)
	_, had := set[tooth]
	delete(set, tooth)
	s.mu.Unlock()
	if had {
		s.notify(c, tooth, false)
	}
}

// Toggle flips membership and reports whether the tooth is now selected.
func (s *Store) Toggle(c Category, tooth ToothID) bool {
	mustCategory(c)
	s.mu.Lock()
	set := s.set(c)
	if !tooth.Valid() {
		s.mu.Unlock()
		return false
	}
	_, had := set[tooth]
	if had {
		delete(set, tooth)
	} else {
		set[tooth] = struct{}{}
	}
	s.mu.Unlock()
	s.notify(c, tooth, !had)
	return !had
}

func (s *Store) Has(c Category, tooth ToothID) bool {
	mustCategory(c)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set(c)[tooth]
	return ok
}

// Selected returns the category's teeth in catalog order.
func (s *Store) Selected(c Category) []ToothID {
	mustCategory(c)
	s.mu.RLock()
	set := s.set(c)
	out := make([]ToothID, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].rank() < out[j].rank() })
	return out
}

// Clear empties one category and leaves the others untouched.
func (s *Store) Clear(c Category) {
	removed := s.Selected(c)
	s.mu.Lock()
	s.sets[c] = map[ToothID]struct{}{}
	s.mu.Unlock()
	for _, t := range removed {
		s.notify(c, t, false)
	}
}

// Replace sets the category to exactly teeth (unknown ids skipped).
func (s *Store) Replace(c Category, teeth []ToothID) {
	mustCategory(c)
	want := make(map[ToothID]struct{}, len(teeth))
	for _, t := range teeth {
		if t.Valid() {
			want[t] = struct{}{}
		}
	}
	for _, t := range s.Selected(c) {
		if _, keep := want[t]; !keep {
			s.Deselect(c, t)
		}
	}
	for _, t := range Catalog() {
		if _, ok := want[t]; ok {
			s.Select(c, t)
		}
	}
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Avulsions:             s.Selected(Extraction),
		Restaurations:         s.Selected(Restoration),
		Endo:                  s.Selected(Endodontic),
		Implants:              s.Selected(Implant),
		Parodonto:             s.Selected(Periodontal),
		ProthesesTransitoires: s.Selected(TransitionalProsthesis),
		ProthesesDefinitives: DefinitiveSelection{
			InlayCore: s.Selected(DefinitiveCore),
			Couronnes: s.Selected(DefinitiveCrown),
			Onlay:     s.Selected(DefinitiveOnlay),
			Amovibles: s.Selected(DefinitiveRemovable),
		},
	}
}
