package subscription

import "time"

// Tier is the entitlement level a package grants.
type Tier string

const (
	TierMonthly    Tier = "monthly"
	TierHalfSeason Tier = "half_season"
	TierFullSeason Tier = "full_season"
)

// Rank orders tiers for content gating; unknown tiers rank 0.
func (t Tier) Rank() int {
	switch t {
	case TierMonthly:
		return 1
	case TierHalfSeason:
		return 2
	case TierFullSeason:
		return 3
	}
	return 0
}

func (t Tier) IsValid() bool {
	return t.Rank() > 0
}

// Covers reports whether holding t entitles access to content gated at required.
func (t Tier) Covers(required Tier) bool {
	return t.IsValid() && t.Rank() >= required.Rank()
}

type Package struct {
	ID                 int64     `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	Tier               Tier      `json:"tier" db:"tier"`
	DurationDays       int       `json:"duration_days" db:"duration_days"`
	PriceCents         int64     `json:"price_cents" db:"price_cents"`
	OriginalPriceCents *int64    `json:"original_price_cents,omitempty" db:"original_price_cents"`
	Active             bool      `json:"active" db:"active"`
	SortOrder          int       `json:"sort_order" db:"sort_order"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// DiscountPercent is the whole-number discount shown against the original
// price, 0 when there is none.
func (p *Package) DiscountPercent() int {
	if p.OriginalPriceCents == nil || *p.OriginalPriceCents <= p.PriceCents || *p.OriginalPriceCents == 0 {
		return 0
	}
	saved := *p.OriginalPriceCents - p.PriceCents
	return int(saved * 100 / *p.OriginalPriceCents)
}

// DefaultWindow is the activation window used when an approval does not
// specify one.
func (p *Package) DefaultWindow(start time.Time) (time.Time, time.Time) {
	return start, start.AddDate(0, 0, p.DurationDays)
}
