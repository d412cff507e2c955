package memory

import (
	"context"
	"sync"

	"tipster-service/internal/domain/audit"
)

// AuditStore keeps entries in append order. It is both the audit repository
// and a synchronous audit.Logger.
type AuditStore struct {
	faults
	mu      sync.Mutex
	entries []audit.Entry
}

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Insert(_ context.Context, e audit.Entry) error {
	if err := s.check("Insert", e.EntityID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Append implements audit.Logger; insert failures are dropped.
func (s *AuditStore) Append(ctx context.Context, e audit.Entry) {
	_ = s.Insert(ctx, e)
}

func (s *AuditStore) ListByEntity(_ context.Context, entityType audit.EntityType, entityID int64) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []audit.Entry{}
	for _, e := range s.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Entries returns a copy of everything recorded so far.
func (s *AuditStore) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}
