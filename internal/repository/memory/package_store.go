package memory

import (
	"context"
	"sort"
	"sync"

	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"
)

type PackageStore struct {
	mu       sync.RWMutex
	packages map[int64]subscription.Package
}

func NewPackageStore(pkgs ...subscription.Package) *PackageStore {
	s := &PackageStore{packages: make(map[int64]subscription.Package, len(pkgs))}
	for _, p := range pkgs {
		s.packages[p.ID] = p
	}
	return s
}

func (s *PackageStore) FindByID(_ context.Context, id int64) (*subscription.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &p, nil
}

func (s *PackageStore) ListActive(_ context.Context) ([]subscription.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []subscription.Package{}
	for _, p := range s.packages {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
