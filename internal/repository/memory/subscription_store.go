package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"
)

type subscriptionData struct {
	subs          map[int64]subscription.Subscription
	receipts      map[int64][]subscription.PaymentReceipt
	nextID        int64
	nextReceiptID int64
}

func (d *subscriptionData) clone() *subscriptionData {
	c := &subscriptionData{
		subs:          make(map[int64]subscription.Subscription, len(d.subs)),
		receipts:      make(map[int64][]subscription.PaymentReceipt, len(d.receipts)),
		nextID:        d.nextID,
		nextReceiptID: d.nextReceiptID,
	}
	for id, s := range d.subs {
		c.subs[id] = s
	}
	for id, rs := range d.receipts {
		c.receipts[id] = append([]subscription.PaymentReceipt(nil), rs...)
	}
	return c
}

// SubscriptionStore is an in-memory subscription.Store. Transactions hold the
// store lock and work on a copy that replaces the live data only on success.
type SubscriptionStore struct {
	faults
	mu   sync.Mutex
	data *subscriptionData
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{data: &subscriptionData{
		subs:     make(map[int64]subscription.Subscription),
		receipts: make(map[int64][]subscription.PaymentReceipt),
	}}
}

// Put stores sub as-is, assigning an id when it has none.
func (s *SubscriptionStore) Put(sub subscription.Subscription) subscription.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == 0 {
		s.data.nextID++
		sub.ID = s.data.nextID
	} else if sub.ID > s.data.nextID {
		s.data.nextID = sub.ID
	}
	s.data.subs[sub.ID] = sub
	return sub
}

func (s *SubscriptionStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo subscription.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, &subscriptionRepo{faults: &s.faults, data: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *SubscriptionStore) repo() *subscriptionRepo {
	return &subscriptionRepo{faults: &s.faults, data: s.data}
}

func (s *SubscriptionStore) FindByID(ctx context.Context, id int64) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().FindByID(ctx, id)
}

func (s *SubscriptionStore) LockUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().LockUser(ctx, userID)
}

func (s *SubscriptionStore) ListActiveByUser(ctx context.Context, userID int64) ([]subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().ListActiveByUser(ctx, userID)
}

func (s *SubscriptionStore) ListActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().ListActiveEndedBefore(ctx, cutoff)
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().Create(ctx, sub)
}

func (s *SubscriptionStore) ApplyStatusChange(ctx context.Context, change subscription.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().ApplyStatusChange(ctx, change)
}

func (s *SubscriptionStore) UpdateNotes(ctx context.Context, id int64, notes string, updatedBy int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().UpdateNotes(ctx, id, notes, updatedBy)
}

func (s *SubscriptionStore) CreateReceipt(ctx context.Context, receipt *subscription.PaymentReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().CreateReceipt(ctx, receipt)
}

func (s *SubscriptionStore) ListReceipts(ctx context.Context, subscriptionID int64) ([]subscription.PaymentReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().ListReceipts(ctx, subscriptionID)
}

// subscriptionRepo works on one data snapshot; the caller holds the lock.
type subscriptionRepo struct {
	*faults
	data *subscriptionData
}

func (r *subscriptionRepo) FindByID(_ context.Context, id int64) (*subscription.Subscription, error) {
	if err := r.check("FindByID", id); err != nil {
		return nil, err
	}
	sub, ok := r.data.subs[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &sub, nil
}

func (r *subscriptionRepo) filter(keep func(subscription.Subscription) bool) []subscription.Subscription {
	out := []subscription.Subscription{}
	for _, sub := range r.data.subs {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LockUser only reports faults; the store lock already serializes transactions.
func (r *subscriptionRepo) LockUser(_ context.Context, userID int64) error {
	return r.check("LockUser", userID)
}

func (r *subscriptionRepo) ListActiveByUser(_ context.Context, userID int64) ([]subscription.Subscription, error) {
	if err := r.check("ListActiveByUser", userID); err != nil {
		return nil, err
	}
	return r.filter(func(s subscription.Subscription) bool {
		return s.UserID == userID && s.Status == subscription.StatusActive
	}), nil
}

func (r *subscriptionRepo) ListActiveEndedBefore(_ context.Context, cutoff time.Time) ([]subscription.Subscription, error) {
	if err := r.check("ListActiveEndedBefore", Any); err != nil {
		return nil, err
	}
	return r.filter(func(s subscription.Subscription) bool {
		return s.HasEnded(cutoff)
	}), nil
}

func (r *subscriptionRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	if err := r.check("Create", sub.UserID); err != nil {
		return err
	}
	for _, existing := range r.data.subs {
		if existing.Reference == sub.Reference {
			return xerrors.Conflict("subscription reference %s already exists", sub.Reference)
		}
	}
	r.data.nextID++
	now := time.Now().UTC()
	sub.ID = r.data.nextID
	sub.CreatedAt, sub.UpdatedAt = now, now
	r.data.subs[sub.ID] = *sub
	return nil
}

func (r *subscriptionRepo) ApplyStatusChange(_ context.Context, change subscription.StatusChange) error {
	if err := r.check("ApplyStatusChange", change.ID); err != nil {
		return err
	}
	sub, ok := r.data.subs[change.ID]
	if !ok {
		return xerrors.ErrNotFound
	}
	if sub.Status != change.From {
		return xerrors.InvalidTransition("subscription %d is %s, expected %s", change.ID, sub.Status, change.From)
	}

	sub.Status = change.To
	if change.StartAt != nil {
		sub.StartAt = change.StartAt
	}
	if change.EndAt != nil {
		sub.EndAt = change.EndAt
	}
	if change.Notes != nil {
		sub.Notes = *change.Notes
	}
	sub.UpdatedBy = change.UpdatedBy
	sub.UpdatedAt = change.At
	r.data.subs[sub.ID] = sub
	return nil
}

func (r *subscriptionRepo) UpdateNotes(_ context.Context, id int64, notes string, updatedBy int64) error {
	if err := r.check("UpdateNotes", id); err != nil {
		return err
	}
	sub, ok := r.data.subs[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	sub.Notes = notes
	sub.UpdatedBy = updatedBy
	sub.UpdatedAt = time.Now().UTC()
	r.data.subs[id] = sub
	return nil
}

func (r *subscriptionRepo) CreateReceipt(_ context.Context, receipt *subscription.PaymentReceipt) error {
	if err := r.check("CreateReceipt", receipt.SubscriptionID); err != nil {
		return err
	}
	for _, rs := range r.data.receipts {
		for _, existing := range rs {
			if existing.PaymentMethod == receipt.PaymentMethod && existing.Reference == receipt.Reference {
				return xerrors.Conflict("payment reference %s was already submitted", receipt.Reference)
			}
		}
	}
	r.data.nextReceiptID++
	receipt.ID = r.data.nextReceiptID
	receipt.CreatedAt = time.Now().UTC()
	r.data.receipts[receipt.SubscriptionID] = append(r.data.receipts[receipt.SubscriptionID], *receipt)
	return nil
}

func (r *subscriptionRepo) ListReceipts(_ context.Context, subscriptionID int64) ([]subscription.PaymentReceipt, error) {
	return append([]subscription.PaymentReceipt{}, r.data.receipts[subscriptionID]...), nil
}
