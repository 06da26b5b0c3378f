package dental

// DefinitiveSelection groups the four definitive-prosthesis subtypes as they
// appear nested in a plan record.
type DefinitiveSelection struct {
	InlayCore []ToothID `json:"inlay_core"`
	Couronnes []ToothID `json:"couronnes"`
	Onlay     []ToothID `json:"onlay"`
	Amovibles []ToothID `json:"amovibles"`
}

// Snapshot is the read-only view of a Store in record shape. Lists are never
// nil so they serialize as [] rather than null.
type Snapshot struct {
	Avulsions             []ToothID           `json:"avulsions"`
	Restaurations         []ToothID           `json:"restaurations"`
	Endo                  []ToothID           `json:"endo"`
	Implants              []ToothID           `json:"implants"`
	Parodonto             []ToothID           `json:"parodonto"`
	ProthesesTransitoires []ToothID           `json:"protheses_transitoires"`
	ProthesesDefinitives  DefinitiveSelection `json:"protheses_definitives"`
}

func (s *Snapshot) slot(c Category) *[]ToothID {
	switch c {
	case Extraction:
		return &s.Avulsions
	case Restoration:
		return &s.Restaurations
	case Endodontic:
		return &s.Endo
	case Implant:
		return &s.Implants
	case Periodontal:
		return &s.Parodonto
	case TransitionalProsthesis:
		return &s.ProthesesTransitoires
	case DefinitiveCore:
		return &s.ProthesesDefinitives.InlayCore
	case DefinitiveCrown:
		return &s.ProthesesDefinitives.Couronnes
	case DefinitiveOnlay:
		return &s.ProthesesDefinitives.Onlay
	case DefinitiveRemovable:
		return &s.ProthesesDefinitives.Amovibles
	}
	panic(&InvalidCategoryError{Category: c})
}

func (s Snapshot) Teeth(c Category) []ToothID {
	return *s.slot(c)
}

// Normalize replaces nil lists with empty ones, for snapshots decoded from
// stored records.
func (s *Snapshot) Normalize() {
	for _, c := range Categories() {
		p := s.slot(c)
		if *p == nil {
			*p = []ToothID{}
		}
	}
}

func (s Snapshot) Empty() bool {
	for _, c := range Categories() {
		if len(s.Teeth(c)) > 0 {
			return false
		}
	}
	return true
}

// CategoriesFor lists, in record order, every category the tooth is assigned to.
func (s Snapshot) CategoriesFor(tooth ToothID) []Category {
	var out []Category
	for _, c := range Categories() {
		for _, t := range s.Teeth(c) {
			if t == tooth {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Restore loads every category of snap into st, replacing current contents.
func (st *Store) Restore(snap Snapshot) {
	for _, c := range Categories() {
		st.Replace(c, snap.Teeth(c))
	}
}
