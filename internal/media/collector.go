package media

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindPhoto      Kind = "photos"
	KindRadiograph Kind = "radiographies"
	KindAttachment Kind = "attachments"
)

var (
	ErrUnknownKind = errors.New("unknown media kind")
	ErrNotFound    = errors.New("media item not found")
)

func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "photos", "photo":
		return KindPhoto, nil
	case "radiographies", "radiographie", "radios", "radio":
		return KindRadiograph, nil
	case "attachments", "attachment", "files", "fichiers":
		return KindAttachment, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// DateLayout is the fr-FR short date used for capture dates.
const DateLayout = "02/01/2006"

type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"type"`
	Size        int64     `json:"size"`
	CapturedAt  time.Time `json:"capturedAt"`
	Data        []byte    `json:"data,omitempty"`
}

func (it Item) CaptureDate() string { return it.CapturedAt.Format(DateLayout) }

// Collector is the list of one media kind attached to a draft. Photos and
// radiographs get sequential labels; attachments keep their file name and are
// de-duplicated on name and size.
type Collector struct {
	mu      sync.RWMutex
	kind    Kind
	items   []Item
	counter int
	now     func() time.Time
}

func NewCollector(kind Kind) *Collector {
	return &Collector{kind: kind, now: time.Now}
}

func (c *Collector) Kind() Kind { return c.kind }

func (c *Collector) label() string {
	switch c.kind {
	case KindPhoto:
		return fmt.Sprintf("Photo %d", c.counter)
	case KindRadiograph:
		return fmt.Sprintf("Radio %d", c.counter)
	}
	return fmt.Sprintf("Fichier %d", c.counter)
}

// Add appends an item and returns it. added is false when an attachment with
// the same name and size is already present; the existing item is returned.
func (c *Collector) Add(name, contentType string, data []byte, capturedAt time.Time) (item Item, added bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name = strings.TrimSpace(name)
	size := int64(len(data))
	if c.kind == KindAttachment {
		for _, existing := range c.items {
			if existing.Name == name && existing.Size == size {
				return existing, false
			}
		}
	}
	c.counter++
	if c.kind != KindAttachment || name == "" {
		name = c.label()
	}
	if capturedAt.IsZero() {
		capturedAt = c.now()
	}
	item = Item{
		ID:          uuid.New().String(),
		Name:        name,
		ContentType: contentType,
		Size:        size,
		CapturedAt:  capturedAt,
		Data:        data,
	}
	c.items = append(c.items, item)
	return item, true
}

func (c *Collector) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Rename sets a display name; blank names are rejected.
func (c *Collector) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Name = name
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (c *Collector) Get(id string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (c *Collector) List() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Load replaces the contents, keeping the label counter ahead of the list.
func (c *Collector) Load(items []Item, counter int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]Item(nil), items...)
	if counter < len(items) {
		counter = len(items)
	}
	c.counter = counter
}

func (c *Collector) Counter() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counter
}
