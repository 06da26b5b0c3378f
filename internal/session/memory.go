package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

// MemoryStore keeps live drafts in process with a sliding expiry. Suitable for
// a single instance.
type MemoryStore struct {
	log   *logger.Logger
	cache *gocache.Cache
	ttl   time.Duration
}

func NewMemoryStore(log *logger.Logger, ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &MemoryStore{
		log:   log.With("service", "MemoryDraftStore"),
		cache: gocache.New(ttl, ttl/2),
		ttl:   ttl,
	}
}

func (s *MemoryStore) Create(_ context.Context, d *Draft) error {
	s.cache.Set(d.ID, d, s.ttl)
	s.log.Debug("Draft created", "draft_id", d.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Draft, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	d, ok := v.(*Draft)
	if !ok {
		return nil, ErrDraftNotFound
	}
	// Touch to slide the expiry.
	s.cache.Set(id, d, s.ttl)
	return d, nil
}

func (s *MemoryStore) Save(_ context.Context, d *Draft) error {
	s.cache.Set(d.ID, d, s.ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

func (s *MemoryStore) Len() int { return s.cache.ItemCount() }
