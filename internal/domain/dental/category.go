package dental

import (
	"errors"
	"fmt"
	"strings"
)

type Category int

const (
	Extraction Category = iota + 1
	Restoration
	Endodontic
	Implant
	Periodontal
	TransitionalProsthesis
	DefinitiveCore
	DefinitiveCrown
	DefinitiveOnlay
	DefinitiveRemovable
)

var ErrInvalidCategory = errors.New("invalid treatment category")

// InvalidCategoryError is raised (as a panic value) when a store or chart is
// addressed with a category outside the enum. It is a programming error.
type InvalidCategoryError struct {
	Category Category
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("%s: %d", ErrInvalidCategory, int(e.Category))
}

func (e *InvalidCategoryError) Unwrap() error { return ErrInvalidCategory }

type categoryInfo struct {
	key   string
	label string
	color string
}

var categoryTable = map[Category]categoryInfo{
	Extraction:             {key: "avulsions", label: "Avulsions", color: "#ef4444"},
	Restoration:            {key: "restaurations", label: "Restaurations", color: "#22c55e"},
	Endodontic:             {key: "endo", label: "Traitements endodontiques", color: "#15803d"},
	Implant:                {key: "implants", label: "Pose d'implants", color: "#3b82f6"},
	Periodontal:            {key: "parodonto", label: "Parodontologie", color: "#8b5cf6"},
	TransitionalProsthesis: {key: "protheses_transitoires", label: "Prothèses transitoires", color: "#eab308"},
	DefinitiveCore:         {key: "inlay_core", label: "Inlay Core", color: "#0f766e"},
	DefinitiveCrown:        {key: "couronnes", label: "Couronnes", color: "#0f766e"},
	DefinitiveOnlay:        {key: "onlay", label: "Inlay/Onlay", color: "#0f766e"},
	DefinitiveRemovable:    {key: "amovibles", label: "Prothèses amovibles", color: "#0f766e"},
}

// Categories lists every category in record order.
func Categories() []Category {
	return []Category{
		Extraction, Restoration, Endodontic, Implant, Periodontal,
		TransitionalProsthesis, DefinitiveCore, DefinitiveCrown, DefinitiveOnlay, DefinitiveRemovable,
	}
}

func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

func (c Category) info() categoryInfo {
	info, ok := categoryTable[c]
	if !ok {
		panic(&InvalidCategoryError{Category: c})
	}
	return info
}

// Key is the record field name for the category's tooth list.
func (c Category) Key() string { return c.info().key }

func (c Category) Label() string { return c.info().label }

// Color is the indicator colour used on charts and in the document legend.
func (c Category) Color() string { return c.info().color }

// Definitive reports whether the category is a definitive-prosthesis subtype.
func (c Category) Definitive() bool {
	switch c {
	case DefinitiveCore, DefinitiveCrown, DefinitiveOnlay, DefinitiveRemovable:
		return true
	}
	return false
}

func (c Category) String() string {
	if info, ok := categoryTable[c]; ok {
		return info.key
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory accepts record keys and the legacy form control names.
func ParseCategory(raw string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	switch key {
	case "avulsion", "extraction":
		return Extraction, nil
	case "restauration", "restoration":
		return Restoration, nil
	case "implant":
		return Implant, nil
	case "transitoire", "transitoires":
		return TransitionalProsthesis, nil
	case "couronne", "crown":
		return DefinitiveCrown, nil
	case "inlay-core", "core":
		return DefinitiveCore, nil
	case "prothese-amovible", "prothese_amovible", "removable":
		return DefinitiveRemovable, nil
	}
	for _, c := range Categories() {
		if categoryTable[c].key == key {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
}
