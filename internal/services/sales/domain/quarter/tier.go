package quarter

import "github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"

// Tier is the quarter's outcome rating.
type Tier int

const (
	// TierUnspecified represents an invalid tier value.
	TierUnspecified Tier = iota
	// TierFired means the quarter ended at or below zero.
	TierFired
	// TierUnderReview means the character lost money.
	TierUnderReview
	// TierEmployed means a profit short of the promotion bar.
	TierEmployed
	// TierPromotion means at least doubled money, or a higher ratio
	// reached without the legendary unlock.
	TierPromotion
	// TierLegendary means at least tripled money with the unlock.
	TierLegendary
)

func (t Tier) String() string {
	switch t {
	case TierFired:
		return "fired"
	case TierUnderReview:
		return "under-review"
	case TierEmployed:
		return "employed"
	case TierPromotion:
		return "promotion"
	case TierLegendary:
		return "legendary"
	default:
		return "unspecified"
	}
}

// Persistable reports whether the tier qualifies for the achievement
// store. Only the top two do.
func (t Tier) Persistable() bool {
	return t == TierPromotion || t == TierLegendary
}

// computeTier rates final money against starting money. Exact
// threshold multiples land in the higher bucket; a ratio past the
// legendary bar without the unlock is capped at promotion.
func computeTier(money, startingMoney int64, legendaryUnlocked bool, cfg rules.Config) Tier {
	if money <= 0 {
		return TierFired
	}
	if money < startingMoney {
		return TierUnderReview
	}
	ratio := float64(money) / float64(startingMoney)
	if ratio < cfg.PromotionThreshold {
		return TierEmployed
	}
	if ratio < cfg.LegendaryThreshold || !legendaryUnlocked {
		return TierPromotion
	}
	return TierLegendary
}
