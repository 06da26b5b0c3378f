package dental

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ToothID is an FDI two-digit tooth number (quadrant digit then position).
type ToothID int

var ErrUnknownTooth = errors.New("unknown tooth")

var (
	upperArch = []ToothID{18, 17, 16, 15, 14, 13, 12, 11, 21, 22, 23, 24, 25, 26, 27, 28}
	lowerArch = []ToothID{48, 47, 46, 45, 44, 43, 42, 41, 31, 32, 33, 34, 35, 36, 37, 38}

	catalog     []ToothID
	catalogRank map[ToothID]int
)

func init() {
	catalog = make([]ToothID, 0, len(upperArch)+len(lowerArch))
	catalog = append(catalog, upperArch...)
	catalog = append(catalog, lowerArch...)
	catalogRank = make(map[ToothID]int, len(catalog))
	for i, t := range catalog {
		catalogRank[t] = i
	}
}

// Catalog returns the 32 teeth in display order: upper arch then lower arch,
// each read from the patient's right to left.
func Catalog() []ToothID { return append([]ToothID(nil), catalog...) }

func UpperArch() []ToothID { return append([]ToothID(nil), upperArch...) }

func LowerArch() []ToothID { return append([]ToothID(nil), lowerArch...) }

func (t ToothID) Valid() bool {
	_, ok := catalogRank[t]
	return ok
}

// Quadrant is the first FDI digit (1..4), or 0 for ids outside the catalog.
func (t ToothID) Quadrant() int {
	if !t.Valid() {
		return 0
	}
	return int(t) / 10
}

func (t ToothID) Upper() bool {
	q := t.Quadrant()
	return q == 1 || q == 2
}

func (t ToothID) String() string { return strconv.Itoa(int(t)) }

// rank is the catalog position; callers must have checked Valid.
func (t ToothID) rank() int { return catalogRank[t] }

func ParseToothID(raw string) (ToothID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTooth, raw)
	}
	t := ToothID(n)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTooth, n)
	}
	return t, nil
}

// Records store teeth as strings ("18"); numbers are accepted on read.
func (t ToothID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *ToothID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownTooth, string(b))
	}
	*t = ToothID(n)
	return nil
}
