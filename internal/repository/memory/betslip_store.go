package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tipster-service/internal/domain/betslip"
	xerrors "tipster-service/internal/pkg/errors"
)

type betslipData struct {
	slips     map[int64]betslip.Betslip
	legs      map[int64]betslip.Leg
	nextID    int64
	nextLegID int64
}

func (d *betslipData) clone() *betslipData {
	c := &betslipData{
		slips:     make(map[int64]betslip.Betslip, len(d.slips)),
		legs:      make(map[int64]betslip.Leg, len(d.legs)),
		nextID:    d.nextID,
		nextLegID: d.nextLegID,
	}
	for id, b := range d.slips {
		b.Tags = append([]string(nil), b.Tags...)
		c.slips[id] = b
	}
	for id, l := range d.legs {
		c.legs[id] = l
	}
	return c
}

// BetslipStore is an in-memory betslip.Store. It enforces the same
// (betslip_id, leg_order) uniqueness as the database schema.
type BetslipStore struct {
	faults
	mu   sync.Mutex
	data *betslipData
}

func NewBetslipStore() *BetslipStore {
	return &BetslipStore{data: &betslipData{
		slips: make(map[int64]betslip.Betslip),
		legs:  make(map[int64]betslip.Leg),
	}}
}

// Put stores b as-is, assigning an id when it has none.
func (s *BetslipStore) Put(b betslip.Betslip) betslip.Betslip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.data.nextID++
		b.ID = s.data.nextID
	} else if b.ID > s.data.nextID {
		s.data.nextID = b.ID
	}
	s.data.slips[b.ID] = b
	return b
}

// PutLeg stores a leg without the uniqueness check, for seeding tests.
func (s *BetslipStore) PutLeg(l betslip.Leg) betslip.Leg {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		s.data.nextLegID++
		l.ID = s.data.nextLegID
	}
	s.data.legs[l.ID] = l
	return l
}

func (s *BetslipStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo betslip.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, &betslipRepo{faults: &s.faults, data: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *BetslipStore) repo() *betslipRepo {
	return &betslipRepo{faults: &s.faults, data: s.data}
}

func (s *BetslipStore) FindByID(ctx context.Context, id int64) (*betslip.Betslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().FindByID(ctx, id)
}

func (s *BetslipStore) LockByID(ctx context.Context, id int64) (*betslip.Betslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().LockByID(ctx, id)
}

func (s *BetslipStore) Create(ctx context.Context, b *betslip.Betslip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().Create(ctx, b)
}

func (s *BetslipStore) UpdateShape(ctx context.Context, id int64, t betslip.Type, combinedOdds *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().UpdateShape(ctx, id, t, combinedOdds)
}

func (s *BetslipStore) Settle(ctx context.Context, st betslip.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().Settle(ctx, st)
}

func (s *BetslipStore) ListLegs(ctx context.Context, betslipID int64) ([]betslip.Leg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().ListLegs(ctx, betslipID)
}

func (s *BetslipStore) FindLegByID(ctx context.Context, id int64) (*betslip.Leg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().FindLegByID(ctx, id)
}

func (s *BetslipStore) MaxLegOrder(ctx context.Context, betslipID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().MaxLegOrder(ctx, betslipID)
}

func (s *BetslipStore) InsertLeg(ctx context.Context, l *betslip.Leg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().InsertLeg(ctx, l)
}

func (s *BetslipStore) SettleLeg(ctx context.Context, st betslip.LegSettlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().SettleLeg(ctx, st)
}

type betslipRepo struct {
	*faults
	data *betslipData
}

func (r *betslipRepo) FindByID(_ context.Context, id int64) (*betslip.Betslip, error) {
	if err := r.check("FindByID", id); err != nil {
		return nil, err
	}
	b, ok := r.data.slips[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	b.Tags = append([]string{}, b.Tags...)
	return &b, nil
}

// LockByID is a plain read; the store lock already serializes transactions.
func (r *betslipRepo) LockByID(ctx context.Context, id int64) (*betslip.Betslip, error) {
	if err := r.check("LockByID", id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *betslipRepo) Create(_ context.Context, b *betslip.Betslip) error {
	if err := r.check("Create", Any); err != nil {
		return err
	}
	r.data.nextID++
	now := time.Now().UTC()
	b.ID = r.data.nextID
	b.CreatedAt, b.UpdatedAt = now, now
	r.data.slips[b.ID] = *b
	return nil
}

func (r *betslipRepo) UpdateShape(_ context.Context, id int64, t betslip.Type, combinedOdds *float64) error {
	if err := r.check("UpdateShape", id); err != nil {
		return err
	}
	b, ok := r.data.slips[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	b.Type = t
	b.CombinedOdds = combinedOdds
	b.UpdatedAt = time.Now().UTC()
	r.data.slips[id] = b
	return nil
}

func (r *betslipRepo) Settle(_ context.Context, st betslip.Settlement) error {
	if err := r.check("Settle", st.BetslipID); err != nil {
		return err
	}
	b, ok := r.data.slips[st.BetslipID]
	if !ok {
		return xerrors.ErrNotFound
	}
	if b.IsSettled() {
		return xerrors.InvalidTransition("betslip %d is already settled as %s", b.ID, b.Outcome)
	}
	settledAt, settledBy := st.SettledAt, st.SettledBy
	b.Status = betslip.StatusSettled
	b.Outcome = st.Outcome
	b.Notes = st.Notes
	b.SettledAt = &settledAt
	b.SettledBy = &settledBy
	b.UpdatedAt = settledAt
	r.data.slips[b.ID] = b
	return nil
}

func (r *betslipRepo) ListLegs(_ context.Context, betslipID int64) ([]betslip.Leg, error) {
	if err := r.check("ListLegs", betslipID); err != nil {
		return nil, err
	}
	legs := []betslip.Leg{}
	for _, l := range r.data.legs {
		if l.BetslipID == betslipID {
			legs = append(legs, l)
		}
	}
	sort.Slice(legs, func(i, j int) bool { return legs[i].LegOrder < legs[j].LegOrder })
	return legs, nil
}

func (r *betslipRepo) FindLegByID(_ context.Context, id int64) (*betslip.Leg, error) {
	if err := r.check("FindLegByID", id); err != nil {
		return nil, err
	}
	l, ok := r.data.legs[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &l, nil
}

func (r *betslipRepo) MaxLegOrder(_ context.Context, betslipID int64) (int, error) {
	if err := r.check("MaxLegOrder", betslipID); err != nil {
		return 0, err
	}
	max := 0
	for _, l := range r.data.legs {
		if l.BetslipID == betslipID && l.LegOrder > max {
			max = l.LegOrder
		}
	}
	return max, nil
}

func (r *betslipRepo) InsertLeg(_ context.Context, l *betslip.Leg) error {
	if err := r.check("InsertLeg", l.BetslipID); err != nil {
		return err
	}
	for _, existing := range r.data.legs {
		if existing.BetslipID == l.BetslipID && existing.LegOrder == l.LegOrder {
			return xerrors.Conflict("leg %d already exists on betslip %d", l.LegOrder, l.BetslipID)
		}
	}
	r.data.nextLegID++
	now := time.Now().UTC()
	l.ID = r.data.nextLegID
	l.CreatedAt, l.UpdatedAt = now, now
	r.data.legs[l.ID] = *l
	return nil
}

func (r *betslipRepo) SettleLeg(_ context.Context, st betslip.LegSettlement) error {
	if err := r.check("SettleLeg", st.LegID); err != nil {
		return err
	}
	l, ok := r.data.legs[st.LegID]
	if !ok {
		return xerrors.ErrNotFound
	}
	if l.Status != betslip.OutcomePending {
		return xerrors.InvalidTransition("leg %d is already settled as %s", l.ID, l.Status)
	}
	settledAt := st.SettledAt
	l.Status = st.Status
	l.Notes = st.Notes
	l.SettledAt = &settledAt
	l.UpdatedAt = settledAt
	r.data.legs[l.ID] = l
	return nil
}
