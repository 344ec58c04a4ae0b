package export

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type link struct {
	fileName string
	blob     *Blob
	expires  time.Time
}

// LinkStore hands blobs to a browser through one-shot links. A link is revoked when it
// is fetched or when its TTL passes, so no reference outlives the hand-off.
type LinkStore struct {
	mu     sync.Mutex
	prefix string
	ttl    time.Duration
	links  map[string]link
	now    func() time.Time
}

// NewLinkStore creates a store whose links look like prefix+token
func NewLinkStore(prefix string, ttl time.Duration) *LinkStore {
	return &LinkStore{
		prefix: prefix,
		ttl:    ttl,
		links:  make(map[string]link),
		now:    time.Now,
	}
}

// Download registers blob and returns its link
func (s *LinkStore) Download(ctx context.Context, fileName string, blob *Blob) (string, error) {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.links[token] = link{fileName: fileName, blob: blob, expires: s.now().Add(s.ttl)}
	return s.prefix + token, nil
}

// Take returns and revokes the blob behind token
func (s *LinkStore) Take(token string) (string, *Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[token]
	if !ok {
		return "", nil, false
	}
	delete(s.links, token)

	if s.now().After(l.expires) {
		return "", nil, false
	}
	return l.fileName, l.blob, true
}

// Len returns the number of live links
func (s *LinkStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.links)
}

// sweep drops expired links; callers hold mu
func (s *LinkStore) sweep() {
	now := s.now()
	for token, l := range s.links {
		if now.After(l.expires) {
			delete(s.links, token)
		}
	}
}
