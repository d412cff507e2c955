package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierCovers(t *testing.T) {
	assert.True(t, TierFullSeason.Covers(TierMonthly))
	assert.True(t, TierHalfSeason.Covers(TierHalfSeason))
	assert.False(t, TierMonthly.Covers(TierFullSeason))
	assert.False(t, Tier("weekly").Covers(TierMonthly))
}

func TestPackageDiscountPercent(t *testing.T) {
	original := int64(5000)
	p := &Package{PriceCents: 4000, OriginalPriceCents: &original}
	assert.Equal(t, 20, p.DiscountPercent())

	p.OriginalPriceCents = nil
	assert.Equal(t, 0, p.DiscountPercent())

	lower := int64(3000)
	p.OriginalPriceCents = &lower
	assert.Equal(t, 0, p.DiscountPercent())
}

func TestPackageDefaultWindow(t *testing.T) {
	p := &Package{DurationDays: 30}
	start, end := p.DefaultWindow(day(1))

	assert.Equal(t, day(1), start)
	assert.Equal(t, day(31), end)
}
